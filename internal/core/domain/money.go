package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is the single currency this deployment operates in.
const DefaultCurrency = "USD"

var (
	// ErrCurrencyMismatch is returned when two Money values with different
	// currencies meet in an arithmetic operation or comparison.
	ErrCurrencyMismatch = errors.New("currency mismatch")
	// ErrAmountOverflow is returned when an arithmetic result would leave
	// the representable int64 range. Amounts never wrap silently.
	ErrAmountOverflow = errors.New("amount overflow")
)

// Money is an exact monetary value in minor units (cents). All arithmetic
// happens on the integer Cents field; no floating point is stored.
type Money struct {
	Cents    int64  `json:"cents"`
	Currency string `json:"currency"`
}

// NewMoney creates a Money value in the default currency.
func NewMoney(cents int64) Money {
	return Money{Cents: cents, Currency: DefaultCurrency}
}

// Zero returns the zero value in the default currency.
func Zero() Money {
	return NewMoney(0)
}

// FromMajorUnits parses a major-unit decimal string ("12.34") into Money.
// Sub-cent precision is rejected rather than rounded away.
func FromMajorUnits(s string, currency string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("parse major units: %w", err)
	}
	cents := d.Shift(2)
	if !cents.IsInteger() {
		return Money{}, fmt.Errorf("amount %q has sub-cent precision", s)
	}
	if !cents.BigInt().IsInt64() {
		return Money{}, ErrAmountOverflow
	}
	return Money{Cents: cents.IntPart(), Currency: currency}, nil
}

// MajorUnits returns the value in major units as an exact decimal.
func (m Money) MajorUnits() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String formats the value for display, e.g. "$12.34".
func (m Money) String() string {
	return "$" + m.MajorUnits().StringFixed(2)
}

// Add returns m + other.
func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	sum := m.Cents + other.Cents
	if (other.Cents > 0 && sum < m.Cents) || (other.Cents < 0 && sum > m.Cents) {
		return Money{}, ErrAmountOverflow
	}
	return Money{Cents: sum, Currency: m.Currency}, nil
}

// Subtract returns m - other.
func (m Money) Subtract(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	diff := m.Cents - other.Cents
	if (other.Cents < 0 && diff < m.Cents) || (other.Cents > 0 && diff > m.Cents) {
		return Money{}, ErrAmountOverflow
	}
	return Money{Cents: diff, Currency: m.Currency}, nil
}

// MultiplyRound multiplies by a fractional factor and rounds the result to
// the nearest cent, half up. The multiplication runs in exact decimal
// arithmetic; fee percentages depend on this exact rounding rule.
func (m Money) MultiplyRound(factor float64) (Money, error) {
	product := decimal.NewFromInt(m.Cents).Mul(decimal.NewFromFloat(factor))
	rounded := product.Round(0)
	if !rounded.BigInt().IsInt64() {
		return Money{}, ErrAmountOverflow
	}
	return Money{Cents: rounded.IntPart(), Currency: m.Currency}, nil
}

// Cmp compares m against other: -1 if less, 0 if equal, +1 if greater.
func (m Money) Cmp(other Money) (int, error) {
	if err := m.sameCurrency(other); err != nil {
		return 0, err
	}
	switch {
	case m.Cents < other.Cents:
		return -1, nil
	case m.Cents > other.Cents:
		return 1, nil
	default:
		return 0, nil
	}
}

// IsZero reports whether the value is exactly zero.
func (m Money) IsZero() bool {
	return m.Cents == 0
}

// IsNegative reports whether the value is below zero.
func (m Money) IsNegative() bool {
	return m.Cents < 0
}

// IsPositive reports whether the value is above zero.
func (m Money) IsPositive() bool {
	return m.Cents > 0
}

func (m Money) sameCurrency(other Money) error {
	if m.Currency != other.Currency {
		return fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	return nil
}

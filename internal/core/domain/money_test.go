package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney_Add(t *testing.T) {
	a := NewMoney(1500)
	b := NewMoney(2500)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, int64(4000), sum.Cents)
	assert.Equal(t, DefaultCurrency, sum.Currency)
}

func TestMoney_Add_CurrencyMismatch(t *testing.T) {
	a := Money{Cents: 100, Currency: "USD"}
	b := Money{Cents: 100, Currency: "EUR"}

	_, err := a.Add(b)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCurrencyMismatch)
}

func TestMoney_Add_Overflow(t *testing.T) {
	a := NewMoney(math.MaxInt64)
	b := NewMoney(1)

	_, err := a.Add(b)
	assert.ErrorIs(t, err, ErrAmountOverflow)
}

func TestMoney_Subtract(t *testing.T) {
	a := NewMoney(4000)
	b := NewMoney(1500)

	diff, err := a.Subtract(b)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), diff.Cents)
}

func TestMoney_Subtract_Overflow(t *testing.T) {
	a := NewMoney(math.MinInt64)
	b := NewMoney(1)

	_, err := a.Subtract(b)
	assert.ErrorIs(t, err, ErrAmountOverflow)
}

func TestMoney_MultiplyRound_HalfUp(t *testing.T) {
	tests := []struct {
		name   string
		cents  int64
		factor float64
		want   int64
	}{
		{"ten percent of 3000", 3000, 0.10, 300},
		{"exact half rounds up", 25, 0.10, 3},   // 2.5 -> 3
		{"below half rounds down", 24, 0.10, 2}, // 2.4 -> 2
		{"above half rounds up", 26, 0.10, 3},   // 2.6 -> 3
		{"half cent at fee rate", 2505, 0.10, 251}, // 250.5 -> 251
		{"zero factor", 1234, 0, 0},
		{"identity", 1234, 1, 1234},
		// Beyond float64's exact-integer range; decimal arithmetic must not drift.
		{"exact at large magnitudes", 9007199254740993, 1, 9007199254740993},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewMoney(tt.cents).MultiplyRound(tt.factor)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Cents)
		})
	}
}

func TestMoney_Cmp(t *testing.T) {
	less, err := NewMoney(100).Cmp(NewMoney(200))
	require.NoError(t, err)
	assert.Equal(t, -1, less)

	eq, err := NewMoney(200).Cmp(NewMoney(200))
	require.NoError(t, err)
	assert.Equal(t, 0, eq)

	greater, err := NewMoney(300).Cmp(NewMoney(200))
	require.NoError(t, err)
	assert.Equal(t, 1, greater)

	_, err = Money{Cents: 1, Currency: "USD"}.Cmp(Money{Cents: 1, Currency: "EUR"})
	assert.ErrorIs(t, err, ErrCurrencyMismatch)
}

func TestMoney_Predicates(t *testing.T) {
	assert.True(t, Zero().IsZero())
	assert.False(t, Zero().IsNegative())
	assert.True(t, NewMoney(-1).IsNegative())
	assert.True(t, NewMoney(1).IsPositive())
	assert.False(t, NewMoney(-1).IsPositive())
}

func TestMoney_FromMajorUnits(t *testing.T) {
	m, err := FromMajorUnits("12.34", "USD")
	require.NoError(t, err)
	assert.Equal(t, int64(1234), m.Cents)
	assert.Equal(t, "USD", m.Currency)

	m, err = FromMajorUnits("0.05", "USD")
	require.NoError(t, err)
	assert.Equal(t, int64(5), m.Cents)

	_, err = FromMajorUnits("1.005", "USD")
	assert.Error(t, err, "sub-cent precision must be rejected")

	_, err = FromMajorUnits("not-a-number", "USD")
	assert.Error(t, err)
}

func TestMoney_Format(t *testing.T) {
	assert.Equal(t, "$12.34", NewMoney(1234).String())
	assert.Equal(t, "$0.05", NewMoney(5).String())
	assert.Equal(t, "$0.00", Zero().String())
}

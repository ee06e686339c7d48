package service

import (
	"github.com/Dev-Ahmed-Alaa/wallet-service/config"
	"github.com/Dev-Ahmed-Alaa/wallet-service/internal/core/domain"
)

// ThresholdFeePolicy implements ports.FeePolicy. Transfers at or below the
// threshold are free; above it the sender pays a flat base fee plus a
// percentage of the amount, rounded half-up to the nearest cent.
type ThresholdFeePolicy struct {
	thresholdCents int64
	baseFeeCents   int64
	percentRate    float64
}

// NewThresholdFeePolicy creates a fee policy from configuration.
func NewThresholdFeePolicy(cfg config.FeeConfig) *ThresholdFeePolicy {
	return &ThresholdFeePolicy{
		thresholdCents: cfg.ThresholdCents,
		baseFeeCents:   cfg.BaseFeeCents,
		percentRate:    cfg.PercentRate,
	}
}

// ComputeFee returns the fee for a transfer amount. The threshold comparison
// is strict: an amount exactly at the threshold pays nothing.
func (p *ThresholdFeePolicy) ComputeFee(amount domain.Money) (domain.Money, error) {
	if amount.Cents <= p.thresholdCents {
		return domain.Money{Cents: 0, Currency: amount.Currency}, nil
	}

	percent, err := amount.MultiplyRound(p.percentRate)
	if err != nil {
		return domain.Money{}, err
	}
	return percent.Add(domain.Money{Cents: p.baseFeeCents, Currency: amount.Currency})
}

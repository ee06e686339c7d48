package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dev-Ahmed-Alaa/wallet-service/config"
	"github.com/Dev-Ahmed-Alaa/wallet-service/internal/core/domain"
)

func defaultFeeConfig() config.FeeConfig {
	return config.FeeConfig{
		ThresholdCents: 2500,
		BaseFeeCents:   250,
		PercentRate:    0.10,
	}
}

func TestThresholdFeePolicy_ComputeFee(t *testing.T) {
	policy := NewThresholdFeePolicy(defaultFeeConfig())

	tests := []struct {
		name    string
		amount  int64
		wantFee int64
	}{
		{"well below threshold", 1000, 0},
		{"just below threshold", 2499, 0},
		{"exactly at threshold is free", 2500, 0},
		{"just above threshold", 2501, 500}, // 250 + round(250.1)
		{"above threshold", 3000, 550},      // 250 + 300
		{"half cent rounds up", 2505, 501},  // 250 + round(250.5)
		{"large amount", 100000, 10250},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fee, err := policy.ComputeFee(domain.NewMoney(tc.amount))
			require.NoError(t, err)
			assert.Equal(t, tc.wantFee, fee.Cents)
			assert.Equal(t, domain.DefaultCurrency, fee.Currency)
		})
	}
}

func TestThresholdFeePolicy_ZeroRate(t *testing.T) {
	policy := NewThresholdFeePolicy(config.FeeConfig{
		ThresholdCents: 2500,
		BaseFeeCents:   0,
		PercentRate:    0,
	})

	fee, err := policy.ComputeFee(domain.NewMoney(50000))
	require.NoError(t, err)
	assert.True(t, fee.IsZero())
}

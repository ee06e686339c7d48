package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	e := New("WAL_001", "Amount must be positive", http.StatusBadRequest)
	assert.Equal(t, "[WAL_001] Amount must be positive", e.Error())

	wrapped := Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, errors.New("boom"))
	assert.Contains(t, wrapped.Error(), "boom")
}

func TestAppError_Unwrap(t *testing.T) {
	inner := errors.New("connection reset")
	e := InternalError(fmt.Errorf("query wallet: %w", inner))

	assert.ErrorIs(t, e, inner)
}

func TestTaxonomy_CodesAndStatuses(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   string
		status int
	}{
		{"invalid amount", ErrInvalidAmount(), "WAL_001", http.StatusBadRequest},
		{"wallet not found", ErrWalletNotFound(), "WAL_002", http.StatusNotFound},
		{"wallet inactive", ErrWalletInactive(), "WAL_003", http.StatusUnprocessableEntity},
		{"insufficient balance", ErrInsufficientBalance(), "WAL_004", http.StatusPaymentRequired},
		{"amount overflow", ErrAmountOverflow(), "WAL_005", http.StatusBadRequest},
		{"duplicate wallet", ErrDuplicateWallet(), "WAL_006", http.StatusConflict},
		{"currency mismatch", ErrCurrencyMismatch(), "WAL_007", http.StatusBadRequest},
		{"self transfer", ErrSelfTransfer(), "WAL_008", http.StatusBadRequest},
		{"transfer not found", ErrTransferNotFound(), "WAL_009", http.StatusNotFound},
		{"lock timeout", ErrIdempotencyLockTimeout(nil), "IDEM_001", http.StatusServiceUnavailable},
		{"key reuse", ErrIdempotencyKeyReuse(), "IDEM_002", http.StatusConflict},
		{"invalid token", ErrInvalidToken(), "AUTH_001", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
		})
	}
}

func TestErrorsAs(t *testing.T) {
	var appErr *AppError
	err := fmt.Errorf("handler: %w", ErrInsufficientBalance())

	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "WAL_004", appErr.Code)
}

package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // wrapped internal error, not exposed to clients
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Wallet & Ledger Business Logic (WAL) ----

func ErrInvalidAmount() *AppError {
	return New("WAL_001", "Amount must be a positive integer in minor units", http.StatusBadRequest)
}

func ErrWalletNotFound() *AppError {
	return New("WAL_002", "Wallet not found", http.StatusNotFound)
}

func ErrWalletInactive() *AppError {
	return New("WAL_003", "Wallet is inactive", http.StatusUnprocessableEntity)
}

func ErrInsufficientBalance() *AppError {
	return New("WAL_004", "Insufficient balance", http.StatusPaymentRequired)
}

func ErrAmountOverflow() *AppError {
	return New("WAL_005", "Amount exceeds representable range", http.StatusBadRequest)
}

func ErrDuplicateWallet() *AppError {
	return New("WAL_006", "Wallet already exists for user", http.StatusConflict)
}

func ErrCurrencyMismatch() *AppError {
	return New("WAL_007", "Currency mismatch", http.StatusBadRequest)
}

func ErrSelfTransfer() *AppError {
	return New("WAL_008", "Sender and receiver must differ", http.StatusBadRequest)
}

func ErrTransferNotFound() *AppError {
	return New("WAL_009", "Transfer not found", http.StatusNotFound)
}

// ---- Idempotency Coordination (IDEM) ----

func ErrIdempotencyLockTimeout(err error) *AppError {
	return Wrap("IDEM_001", "Could not acquire idempotency lock, retry with backoff", http.StatusServiceUnavailable, err)
}

func ErrIdempotencyKeyReuse() *AppError {
	return New("IDEM_002", "Idempotency key reused with a different request payload", http.StatusConflict)
}

// ---- Authentication (AUTH) ----

func ErrInvalidToken() *AppError {
	return New("AUTH_001", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a request-validation error.
func Validation(message string) *AppError {
	return New("WAL_001", message, http.StatusBadRequest)
}

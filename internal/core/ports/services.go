package ports

import (
	"context"
	"time"

	"github.com/Dev-Ahmed-Alaa/wallet-service/internal/core/domain"
)

//go:generate mockgen -destination=mocks/services.go -package=mocks . WalletService,TokenService,SnapshotService

// --- Boundary requests & results ---

// DepositRequest holds validated input for a deposit. An empty
// IdempotencyKey means the call is not coordinated.
type DepositRequest struct {
	UserID         int64
	Amount         domain.Money
	IdempotencyKey string
}

// WithdrawRequest holds validated input for a withdrawal.
type WithdrawRequest struct {
	UserID         int64
	Amount         domain.Money
	IdempotencyKey string
}

// TransferRequest holds validated input for a transfer between two users.
type TransferRequest struct {
	SenderUserID   int64
	ReceiverUserID int64
	Amount         domain.Money
	IdempotencyKey string
}

// BalanceResult is the outcome of a deposit or withdrawal.
type BalanceResult struct {
	Balance int64 `json:"balance"`
}

// TransferResult is the outcome of a transfer. Explicit named fields, no
// derived aliases.
type TransferResult struct {
	SenderBalance   int64 `json:"sender_balance"`
	ReceiverBalance int64 `json:"receiver_balance"`
	TransferID      int64 `json:"transfer_id"`
	Fee             int64 `json:"fee"`
}

// --- Service Ports (Business Logic) ---

// WalletService is the transaction orchestrator: it owns the atomic unit of
// work around every balance mutation and the error taxonomy reported to the
// caller.
type WalletService interface {
	EnsureWallet(ctx context.Context, userID int64) (*domain.Wallet, error)
	Deposit(ctx context.Context, req DepositRequest) (*BalanceResult, error)
	Withdraw(ctx context.Context, req WithdrawRequest) (*BalanceResult, error)
	Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error)
	// GetTransfer looks a transfer up by numeric id or idempotency key;
	// only transfers the user's wallet participated in are visible.
	GetTransfer(ctx context.Context, userID int64, ref string) (*domain.Transfer, error)
	Ledger(ctx context.Context, userID int64, limit int) ([]domain.LedgerEntry, error)
	GeneratePIN(ctx context.Context, userID int64) (string, error)
}

// Operation is one coordinated unit of business logic. Its byte result is
// what gets memoized and replayed verbatim to retries.
type Operation func(ctx context.Context) ([]byte, error)

// IdempotentRequest identifies one logical request for coordination.
type IdempotentRequest struct {
	UserID      int64
	Key         string // empty = no coordination
	Scope       string // operation name: deposit, withdraw, transfer
	RequestHash string
}

// IdempotencyCoordinator guarantees at-most-one effective execution per
// (user, key): a short-lived lock serializes retries, a result cache replays
// completed outcomes without re-running op. Only successes are memoized.
type IdempotencyCoordinator interface {
	Execute(ctx context.Context, req IdempotentRequest, op Operation) ([]byte, error)
}

// IdempotencyCache is the fast-path result cache (Redis).
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // nil, nil on miss
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// IdempotencyLock is the short-lease mutual-exclusion primitive scoped to
// one logical request.
type IdempotencyLock interface {
	// Acquire blocks up to wait for the lock, holding it for at most ttl.
	// It returns an opaque token required for release, or
	// domain-lock-timeout failure if the wait bound elapses.
	Acquire(ctx context.Context, key string, ttl, wait time.Duration) (string, error)
	// Release frees the lock if token still owns it.
	Release(ctx context.Context, key string, token string) error
}

// FeePolicy computes the deterministic fee for a transfer amount.
type FeePolicy interface {
	ComputeFee(amount domain.Money) (domain.Money, error)
}

// HashService handles secret hashing (Argon2id) for wallet PINs.
type HashService interface {
	Hash(secret string) (string, error)
	Verify(secret string, hash string) (bool, error)
}

// TokenService handles JWT token operations at the HTTP boundary.
type TokenService interface {
	Generate(userID int64) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	UserID int64
}

// SnapshotService copies every wallet balance into balance_snapshots.
type SnapshotService interface {
	SnapshotBalances(ctx context.Context) (int, error)
}

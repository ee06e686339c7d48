package ports

import (
	"context"
	"time"

	"github.com/Dev-Ahmed-Alaa/wallet-service/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

//go:generate mockgen -destination=mocks/mocks.go -package=mocks . WalletRepository,LedgerRepository,TransferRepository,IdempotencyRepository,SnapshotRepository,DBTransactor,IdempotencyCoordinator,IdempotencyCache,IdempotencyLock,FeePolicy,HashService

// WalletRepository defines persistence operations for wallets.
// Methods accepting pgx.Tx must run inside a transaction; LockForUpdate holds
// a row-level exclusive lock until that transaction commits or rolls back.
type WalletRepository interface {
	CreateForUser(ctx context.Context, userID int64) (*domain.Wallet, error)
	FindByUserID(ctx context.Context, userID int64) (*domain.Wallet, error)
	GetByID(ctx context.Context, id int64) (*domain.Wallet, error)
	LockForUpdate(ctx context.Context, tx pgx.Tx, userID int64) (*domain.Wallet, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, walletID int64, newBalance int64) error
	UpdatePINHash(ctx context.Context, walletID int64, pinHash string) error
	List(ctx context.Context) ([]domain.Wallet, error)
}

// LedgerRepository defines the append-only journal. Append is the only write
// path; it runs in the same transaction as the balance mutation it documents.
type LedgerRepository interface {
	Append(ctx context.Context, tx pgx.Tx, entry *domain.LedgerEntry) error
	EntriesForWallet(ctx context.Context, walletID int64, limit int) ([]domain.LedgerEntry, error)
	EntriesByReference(ctx context.Context, ref domain.Reference) ([]domain.LedgerEntry, error)
}

// TransferRepository defines persistence operations for transfers.
type TransferRepository interface {
	Create(ctx context.Context, tx pgx.Tx, transfer *domain.Transfer) error
	GetByID(ctx context.Context, id int64) (*domain.Transfer, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Transfer, error)
}

// IdempotencyRepository defines persistence for durable idempotency records,
// the fallback behind the Redis result cache.
type IdempotencyRepository interface {
	Create(ctx context.Context, rec *domain.IdempotencyRecord) error
	Get(ctx context.Context, userID int64, key string) (*domain.IdempotencyRecord, error)
}

// SnapshotRepository persists point-in-time wallet balance copies.
type SnapshotRepository interface {
	Insert(ctx context.Context, walletID int64, balance int64, takenAt time.Time) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

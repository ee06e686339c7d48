package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Dev-Ahmed-Alaa/wallet-service/internal/core/domain"
)

// TransferRepo implements ports.TransferRepository.
type TransferRepo struct {
	pool Pool
}

// NewTransferRepo creates a new TransferRepo.
func NewTransferRepo(pool Pool) *TransferRepo {
	return &TransferRepo{pool: pool}
}

const transferColumns = `id, sender_wallet_id, receiver_wallet_id, amount, fee_amount, status, idempotency_key, error, created_at, updated_at`

// Create inserts a transfer within a database transaction and fills in the
// generated id and timestamps. Returns domain.ErrDuplicateTransfer when the
// idempotency key is already taken.
func (r *TransferRepo) Create(ctx context.Context, tx pgx.Tx, transfer *domain.Transfer) error {
	query := `INSERT INTO transfers
		(sender_wallet_id, receiver_wallet_id, amount, fee_amount, status, idempotency_key, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	err := tx.QueryRow(ctx, query,
		transfer.SenderWalletID, transfer.ReceiverWalletID, transfer.Amount,
		transfer.FeeAmount, transfer.Status, transfer.IdempotencyKey, transfer.Error,
	).Scan(&transfer.ID, &transfer.CreatedAt, &transfer.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateTransfer
		}
		return fmt.Errorf("insert transfer: %w", err)
	}
	return nil
}

// GetByID fetches a transfer by its primary key. Returns nil, nil when not found.
func (r *TransferRepo) GetByID(ctx context.Context, id int64) (*domain.Transfer, error) {
	query := `SELECT ` + transferColumns + ` FROM transfers WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id), "get transfer by id")
}

// GetByIdempotencyKey fetches a transfer by its unique idempotency key.
// Returns nil, nil when not found.
func (r *TransferRepo) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Transfer, error) {
	query := `SELECT ` + transferColumns + ` FROM transfers WHERE idempotency_key = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, key), "get transfer by idempotency key")
}

func (r *TransferRepo) scanOne(row pgx.Row, op string) (*domain.Transfer, error) {
	t := &domain.Transfer{}
	err := row.Scan(&t.ID, &t.SenderWalletID, &t.ReceiverWalletID, &t.Amount,
		&t.FeeAmount, &t.Status, &t.IdempotencyKey, &t.Error, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return t, nil
}

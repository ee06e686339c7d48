package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Dev-Ahmed-Alaa/wallet-service/internal/core/domain"
)

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

const walletColumns = `id, user_id, balance, status, pin_hash, created_at, updated_at`

func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	w := &domain.Wallet{}
	err := row.Scan(&w.ID, &w.UserID, &w.Balance, &w.Status, &w.PINHash, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// CreateForUser inserts a fresh zero-balance active wallet for the user.
// Returns domain.ErrDuplicateWallet if the user already owns one.
func (r *WalletRepo) CreateForUser(ctx context.Context, userID int64) (*domain.Wallet, error) {
	query := `INSERT INTO wallets (user_id, balance, status, created_at, updated_at)
		VALUES ($1, 0, 'active', NOW(), NOW())
		RETURNING ` + walletColumns

	w, err := scanWallet(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateWallet
		}
		return nil, fmt.Errorf("insert wallet: %w", err)
	}
	return w, nil
}

// FindByUserID fetches a wallet by owner (non-locking read). Returns nil, nil
// when the user has no wallet.
func (r *WalletRepo) FindByUserID(ctx context.Context, userID int64) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1`

	w, err := scanWallet(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wallet by user id: %w", err)
	}
	return w, nil
}

// GetByID fetches a wallet by its primary key (non-locking read).
func (r *WalletRepo) GetByID(ctx context.Context, id int64) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1`

	w, err := scanWallet(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wallet by id: %w", err)
	}
	return w, nil
}

// LockForUpdate fetches a wallet by owner with pessimistic row locking.
// This MUST be called within a transaction; the lock is held until the
// transaction commits or rolls back.
func (r *WalletRepo) LockForUpdate(ctx context.Context, tx pgx.Tx, userID int64) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1 FOR UPDATE`

	w, err := scanWallet(tx.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock wallet for update: %w", err)
	}
	return w, nil
}

// UpdateBalance writes the new balance within a transaction.
func (r *WalletRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, walletID int64, newBalance int64) error {
	query := `UPDATE wallets SET balance = $1, updated_at = NOW() WHERE id = $2`

	tag, err := tx.Exec(ctx, query, newBalance, walletID)
	if err != nil {
		return fmt.Errorf("update wallet balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update wallet balance: wallet %d not found", walletID)
	}
	return nil
}

// UpdatePINHash stores the hashed transaction PIN for a wallet.
func (r *WalletRepo) UpdatePINHash(ctx context.Context, walletID int64, pinHash string) error {
	query := `UPDATE wallets SET pin_hash = $1, updated_at = NOW() WHERE id = $2`

	tag, err := r.pool.Exec(ctx, query, pinHash, walletID)
	if err != nil {
		return fmt.Errorf("update wallet pin hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update wallet pin hash: wallet %d not found", walletID)
	}
	return nil
}

// List returns all wallets ordered by id. Used by the balance snapshot job.
func (r *WalletRepo) List(ctx context.Context) ([]domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets ORDER BY id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	defer rows.Close()

	var wallets []domain.Wallet
	for rows.Next() {
		var w domain.Wallet
		if err := rows.Scan(&w.ID, &w.UserID, &w.Balance, &w.Status, &w.PINHash, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan wallet: %w", err)
		}
		wallets = append(wallets, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	return wallets, nil
}

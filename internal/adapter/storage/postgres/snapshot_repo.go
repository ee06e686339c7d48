package postgres

import (
	"context"
	"fmt"
	"time"
)

// SnapshotRepo implements ports.SnapshotRepository.
type SnapshotRepo struct {
	pool Pool
}

// NewSnapshotRepo creates a new SnapshotRepo.
func NewSnapshotRepo(pool Pool) *SnapshotRepo {
	return &SnapshotRepo{pool: pool}
}

// Insert records one point-in-time balance copy for a wallet.
func (r *SnapshotRepo) Insert(ctx context.Context, walletID int64, balance int64, takenAt time.Time) error {
	query := `INSERT INTO balance_snapshots (wallet_id, balance, taken_at) VALUES ($1, $2, $3)`

	_, err := r.pool.Exec(ctx, query, walletID, balance, takenAt)
	if err != nil {
		return fmt.Errorf("insert balance snapshot: %w", err)
	}
	return nil
}

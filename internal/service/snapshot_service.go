package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Dev-Ahmed-Alaa/wallet-service/internal/core/ports"
)

// SnapshotServiceImpl implements ports.SnapshotService. It copies every
// wallet balance into balance_snapshots with a shared timestamp, giving
// reconciliation a fixed point to diff the ledger against.
type SnapshotServiceImpl struct {
	walletRepo   ports.WalletRepository
	snapshotRepo ports.SnapshotRepository
	log          zerolog.Logger
}

// NewSnapshotService creates a new SnapshotServiceImpl.
func NewSnapshotService(walletRepo ports.WalletRepository, snapshotRepo ports.SnapshotRepository, log zerolog.Logger) *SnapshotServiceImpl {
	return &SnapshotServiceImpl{
		walletRepo:   walletRepo,
		snapshotRepo: snapshotRepo,
		log:          log,
	}
}

// SnapshotBalances records one snapshot per wallet and returns how many were
// taken. A failure mid-run leaves earlier snapshots in place; the run is
// rerunnable because consumers only read the latest taken_at per wallet.
func (s *SnapshotServiceImpl) SnapshotBalances(ctx context.Context) (int, error) {
	wallets, err := s.walletRepo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list wallets: %w", err)
	}

	takenAt := time.Now().UTC()
	for i, w := range wallets {
		if err := s.snapshotRepo.Insert(ctx, w.ID, w.Balance, takenAt); err != nil {
			return i, fmt.Errorf("snapshot wallet %d: %w", w.ID, err)
		}
	}

	s.log.Info().Int("wallets", len(wallets)).Time("taken_at", takenAt).Msg("balance snapshots recorded")
	return len(wallets), nil
}

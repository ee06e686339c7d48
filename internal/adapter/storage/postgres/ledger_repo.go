package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Dev-Ahmed-Alaa/wallet-service/internal/core/domain"
)

// LedgerRepo implements ports.LedgerRepository. The ledger_entries table is
// append-only: this repo exposes no update or delete path.
type LedgerRepo struct {
	pool Pool
}

// NewLedgerRepo creates a new LedgerRepo.
func NewLedgerRepo(pool Pool) *LedgerRepo {
	return &LedgerRepo{pool: pool}
}

// Append inserts one ledger entry within a database transaction and fills in
// the generated id and timestamp.
func (r *LedgerRepo) Append(ctx context.Context, tx pgx.Tx, entry *domain.LedgerEntry) error {
	query := `INSERT INTO ledger_entries
		(wallet_id, direction, type, amount, balance_after, reference_type, reference_id, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	var refType *domain.ReferenceKind
	var refID *int64
	if entry.Reference != nil {
		refType = &entry.Reference.Kind
		refID = &entry.Reference.ID
	}

	var metadata []byte
	if len(entry.Metadata) > 0 {
		var err error
		metadata, err = json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("marshal ledger metadata: %w", err)
		}
	}

	err := tx.QueryRow(ctx, query,
		entry.WalletID, entry.Direction, entry.Type, entry.Amount,
		entry.BalanceAfter, refType, refID, metadata,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

// EntriesForWallet returns the newest entries for a wallet, most recent
// first. A non-positive limit falls back to 50.
func (r *LedgerRepo) EntriesForWallet(ctx context.Context, walletID int64, limit int) ([]domain.LedgerEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, wallet_id, direction, type, amount, balance_after, reference_type, reference_id, metadata, created_at
		FROM ledger_entries WHERE wallet_id = $1 ORDER BY id DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, walletID, limit)
	if err != nil {
		return nil, fmt.Errorf("query ledger entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// EntriesByReference returns every entry pointing at the given entity, in
// insertion order. Used for reconciliation of a single transfer.
func (r *LedgerRepo) EntriesByReference(ctx context.Context, ref domain.Reference) ([]domain.LedgerEntry, error) {
	query := `SELECT id, wallet_id, direction, type, amount, balance_after, reference_type, reference_id, metadata, created_at
		FROM ledger_entries WHERE reference_type = $1 AND reference_id = $2 ORDER BY id`

	rows, err := r.pool.Query(ctx, query, ref.Kind, ref.ID)
	if err != nil {
		return nil, fmt.Errorf("query ledger entries by reference: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows pgx.Rows) ([]domain.LedgerEntry, error) {
	var entries []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		var refType *domain.ReferenceKind
		var refID *int64
		var metadata []byte

		err := rows.Scan(&e.ID, &e.WalletID, &e.Direction, &e.Type, &e.Amount,
			&e.BalanceAfter, &refType, &refID, &metadata, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		if refType != nil && refID != nil {
			e.Reference = &domain.Reference{Kind: *refType, ID: *refID}
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal ledger metadata: %w", err)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger entries: %w", err)
	}
	return entries, nil
}

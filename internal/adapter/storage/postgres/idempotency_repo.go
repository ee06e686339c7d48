package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Dev-Ahmed-Alaa/wallet-service/internal/core/domain"
)

// IdempotencyRepo implements ports.IdempotencyRepository. Records are the
// durable fallback behind the Redis result cache; they are written after the
// operation's transaction commits, outside of it, so a crash between commit
// and record write leaves at worst a replayable gap covered by the cache.
type IdempotencyRepo struct {
	pool Pool
}

// NewIdempotencyRepo creates a new IdempotencyRepo.
func NewIdempotencyRepo(pool Pool) *IdempotencyRepo {
	return &IdempotencyRepo{pool: pool}
}

// Create inserts a completed idempotency record. A concurrent duplicate
// insert for the same (user, key) is silently ignored; both writers stored
// the same response.
func (r *IdempotencyRepo) Create(ctx context.Context, rec *domain.IdempotencyRecord) error {
	query := `INSERT INTO idempotency_keys
		(key, scope, user_id, request_hash, response_hash, response_body, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, key) DO NOTHING`

	_, err := r.pool.Exec(ctx, query,
		rec.Key, rec.Scope, rec.UserID, rec.RequestHash,
		rec.ResponseHash, rec.ResponseBody, rec.Status,
	)
	if err != nil {
		return fmt.Errorf("insert idempotency record: %w", err)
	}
	return nil
}

// Get fetches an idempotency record by owner and key. Returns nil, nil when
// no record exists.
func (r *IdempotencyRepo) Get(ctx context.Context, userID int64, key string) (*domain.IdempotencyRecord, error) {
	query := `SELECT id, key, scope, user_id, request_hash, response_hash, response_body, status, created_at
		FROM idempotency_keys WHERE user_id = $1 AND key = $2`

	rec := &domain.IdempotencyRecord{}
	err := r.pool.QueryRow(ctx, query, userID, key).Scan(
		&rec.ID, &rec.Key, &rec.Scope, &rec.UserID, &rec.RequestHash,
		&rec.ResponseHash, &rec.ResponseBody, &rec.Status, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get idempotency record: %w", err)
	}
	return rec, nil
}

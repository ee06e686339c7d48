package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Dev-Ahmed-Alaa/wallet-service/config"
	"github.com/Dev-Ahmed-Alaa/wallet-service/internal/core/domain"
	"github.com/Dev-Ahmed-Alaa/wallet-service/internal/core/ports"
	"github.com/Dev-Ahmed-Alaa/wallet-service/internal/metrics"
	"github.com/Dev-Ahmed-Alaa/wallet-service/pkg/apperror"
)

// RedisIdempotencyCoordinator implements ports.IdempotencyCoordinator.
//
// Per (user, key) it serializes retries behind a short-lease distributed
// lock, replays a memoized result when one exists, and otherwise runs the
// operation exactly once. Only successful outcomes are memoized: a Redis
// cache entry for the fast path and a durable Postgres record that survives
// the cache TTL. Failures propagate fresh on every attempt.
type RedisIdempotencyCoordinator struct {
	lock      ports.IdempotencyLock
	cache     ports.IdempotencyCache
	idempRepo ports.IdempotencyRepository
	cfg       config.IdempotencyConfig
	log       zerolog.Logger
}

// NewRedisIdempotencyCoordinator creates a new coordinator.
func NewRedisIdempotencyCoordinator(
	lock ports.IdempotencyLock,
	cache ports.IdempotencyCache,
	idempRepo ports.IdempotencyRepository,
	cfg config.IdempotencyConfig,
	log zerolog.Logger,
) *RedisIdempotencyCoordinator {
	return &RedisIdempotencyCoordinator{
		lock:      lock,
		cache:     cache,
		idempRepo: idempRepo,
		cfg:       cfg,
		log:       log,
	}
}

// Execute runs op at most once per (user, key) and returns its byte result.
// An empty key bypasses coordination entirely.
func (c *RedisIdempotencyCoordinator) Execute(ctx context.Context, req ports.IdempotentRequest, op ports.Operation) ([]byte, error) {
	if req.Key == "" {
		return op(ctx)
	}

	lockKey := domain.BuildLockKey(req.UserID, req.Key)
	token, err := c.lock.Acquire(ctx, lockKey, c.cfg.LockTTL, c.cfg.LockWait)
	if err != nil {
		if err == domain.ErrLockWaitTimeout {
			metrics.LockTimeoutsTotal.Inc()
			return nil, apperror.ErrIdempotencyLockTimeout(err)
		}
		return nil, apperror.InternalError(fmt.Errorf("acquire idempotency lock: %w", err))
	}
	defer func() {
		if relErr := c.lock.Release(ctx, lockKey, token); relErr != nil {
			c.log.Warn().Err(relErr).Str("key", lockKey).Msg("failed to release idempotency lock")
		}
	}()

	cacheKey := domain.BuildCacheKey(req.UserID, req.Key)

	// Layer 1: Redis result cache
	cached, err := c.cache.Get(ctx, cacheKey)
	if err != nil {
		c.log.Warn().Err(err).Str("key", cacheKey).Msg("redis idempotency check failed, falling through to DB")
	}
	if cached != nil {
		var envelope cachedResult
		if err := json.Unmarshal(cached, &envelope); err != nil {
			c.log.Warn().Err(err).Str("key", cacheKey).Msg("malformed cached idempotency result, falling through to DB")
		} else {
			if envelope.RequestHash != req.RequestHash {
				return nil, apperror.ErrIdempotencyKeyReuse()
			}
			metrics.IdempotentReplaysTotal.WithLabelValues("cache").Inc()
			return envelope.Body, nil
		}
	}

	// Layer 2: durable record
	rec, err := c.idempRepo.Get(ctx, req.UserID, req.Key)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("db idempotency check: %w", err))
	}
	if rec != nil {
		if rec.RequestHash != req.RequestHash {
			return nil, apperror.ErrIdempotencyKeyReuse()
		}
		metrics.IdempotentReplaysTotal.WithLabelValues("durable").Inc()
		return rec.ResponseBody, nil
	}

	result, err := op(ctx)
	if err != nil {
		// Failures are never memoized; the next retry runs fresh.
		return nil, err
	}

	c.memoize(ctx, req, cacheKey, result)
	return result, nil
}

// cachedResult is the envelope stored in the Redis result cache. The request
// hash travels with the body so that a key reused with a different payload
// is rejected even while the cached replay is live.
type cachedResult struct {
	RequestHash string          `json:"request_hash"`
	Body        json.RawMessage `json:"body"`
}

// memoize stores a successful result in both layers. Both writes are
// best-effort: the operation already committed, so a storage hiccup here
// must not turn a success into a reported failure.
func (c *RedisIdempotencyCoordinator) memoize(ctx context.Context, req ports.IdempotentRequest, cacheKey string, result []byte) {
	envelope, err := json.Marshal(cachedResult{RequestHash: req.RequestHash, Body: result})
	if err != nil {
		c.log.Warn().Err(err).Str("key", cacheKey).Msg("failed to encode idempotency cache envelope")
	} else if err := c.cache.Set(ctx, cacheKey, envelope, c.cfg.ResultTTL); err != nil {
		c.log.Warn().Err(err).Str("key", cacheKey).Msg("failed to cache idempotency result in redis")
	}

	rec := &domain.IdempotencyRecord{
		Key:          req.Key,
		Scope:        req.Scope,
		UserID:       req.UserID,
		RequestHash:  req.RequestHash,
		ResponseHash: HashPayload(result),
		ResponseBody: result,
		Status:       domain.IdempotencyStatusCompleted,
	}
	if err := c.idempRepo.Create(ctx, rec); err != nil {
		c.log.Warn().Err(err).Str("key", req.Key).Int64("user_id", req.UserID).
			Msg("failed to persist durable idempotency record")
	}
}

// HashPayload returns the canonical hex SHA-256 digest used for request and
// response fingerprints.
func HashPayload(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

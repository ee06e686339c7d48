package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Dev-Ahmed-Alaa/wallet-service/internal/core/domain"
)

// lock re-acquisition poll interval while waiting.
const lockRetryInterval = 100 * time.Millisecond

// releaseScript deletes the lock only if it still holds our token, so an
// expired lease taken over by another holder is never released by us.
var releaseScript = goredis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end`)

// IdempotencyLock implements ports.IdempotencyLock using Redis SET NX with a
// lease TTL. The lease bounds how long a crashed holder can block retries;
// the wait bounds how long a contender blocks before giving up.
type IdempotencyLock struct {
	client *goredis.Client
}

// NewIdempotencyLock creates a new Redis-backed distributed lock.
func NewIdempotencyLock(client *goredis.Client) *IdempotencyLock {
	return &IdempotencyLock{client: client}
}

// Acquire takes the lock, polling until wait elapses. On success it returns
// an opaque token that must be presented to Release. On timeout it returns
// domain.ErrLockWaitTimeout.
func (l *IdempotencyLock) Acquire(ctx context.Context, key string, ttl, wait time.Duration) (string, error) {
	token := uuid.NewString()
	deadline := time.Now().Add(wait)

	for {
		ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return "", fmt.Errorf("redis lock acquire: %w", err)
		}
		if ok {
			return token, nil
		}
		if time.Now().After(deadline) {
			return "", domain.ErrLockWaitTimeout
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}
}

// Release frees the lock if it is still held under the given token. Releasing
// a lock whose lease already expired is a no-op.
func (l *IdempotencyLock) Release(ctx context.Context, key string, token string) error {
	if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
		return fmt.Errorf("redis lock release: %w", err)
	}
	return nil
}

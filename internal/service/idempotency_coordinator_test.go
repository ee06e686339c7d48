package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Dev-Ahmed-Alaa/wallet-service/config"
	"github.com/Dev-Ahmed-Alaa/wallet-service/internal/core/domain"
	"github.com/Dev-Ahmed-Alaa/wallet-service/internal/core/ports"
	"github.com/Dev-Ahmed-Alaa/wallet-service/internal/core/ports/mocks"
	"github.com/Dev-Ahmed-Alaa/wallet-service/pkg/apperror"
)

type coordinatorTestDeps struct {
	coord     *RedisIdempotencyCoordinator
	lock      *mocks.MockIdempotencyLock
	cache     *mocks.MockIdempotencyCache
	idempRepo *mocks.MockIdempotencyRepository
	cfg       config.IdempotencyConfig
	ctrl      *gomock.Controller
}

func setupCoordinator(t *testing.T) *coordinatorTestDeps {
	ctrl := gomock.NewController(t)
	d := &coordinatorTestDeps{
		lock:      mocks.NewMockIdempotencyLock(ctrl),
		cache:     mocks.NewMockIdempotencyCache(ctrl),
		idempRepo: mocks.NewMockIdempotencyRepository(ctrl),
		cfg: config.IdempotencyConfig{
			LockTTL:   10 * time.Second,
			LockWait:  5 * time.Second,
			ResultTTL: 24 * time.Hour,
		},
		ctrl: ctrl,
	}
	d.coord = NewRedisIdempotencyCoordinator(d.lock, d.cache, d.idempRepo, d.cfg, zerolog.Nop())
	return d
}

func coordRequest() ports.IdempotentRequest {
	return ports.IdempotentRequest{
		UserID:      42,
		Key:         "dep-001",
		Scope:       "deposit",
		RequestHash: "req-hash",
	}
}

// cacheEnvelope builds the wire form of a memoized result as stored in Redis.
func cacheEnvelope(t *testing.T, requestHash string, body []byte) []byte {
	t.Helper()
	b, err := json.Marshal(cachedResult{RequestHash: requestHash, Body: body})
	require.NoError(t, err)
	return b
}

func TestCoordinator_RunsOperationAndMemoizes(t *testing.T) {
	d := setupCoordinator(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	req := coordRequest()
	lockKey := domain.BuildLockKey(req.UserID, req.Key)
	cacheKey := domain.BuildCacheKey(req.UserID, req.Key)
	result := []byte(`{"balance":5000}`)

	d.lock.EXPECT().Acquire(ctx, lockKey, d.cfg.LockTTL, d.cfg.LockWait).Return("tok", nil)
	d.cache.EXPECT().Get(ctx, cacheKey).Return(nil, nil)
	d.idempRepo.EXPECT().Get(ctx, req.UserID, req.Key).Return(nil, nil)
	d.cache.EXPECT().Set(ctx, cacheKey, cacheEnvelope(t, req.RequestHash, result), d.cfg.ResultTTL).Return(nil)
	d.idempRepo.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, rec *domain.IdempotencyRecord) error {
			assert.Equal(t, req.Key, rec.Key)
			assert.Equal(t, req.Scope, rec.Scope)
			assert.Equal(t, req.RequestHash, rec.RequestHash)
			assert.Equal(t, result, rec.ResponseBody)
			assert.Equal(t, domain.IdempotencyStatusCompleted, rec.Status)
			return nil
		})
	d.lock.EXPECT().Release(ctx, lockKey, "tok").Return(nil)

	ran := 0
	got, err := d.coord.Execute(ctx, req, func(context.Context) ([]byte, error) {
		ran++
		return result, nil
	})
	require.NoError(t, err)
	assert.Equal(t, result, got)
	assert.Equal(t, 1, ran)
}

func TestCoordinator_ReplaysFromCache(t *testing.T) {
	d := setupCoordinator(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	req := coordRequest()
	body := []byte(`{"balance":5000}`)

	d.lock.EXPECT().Acquire(ctx, gomock.Any(), d.cfg.LockTTL, d.cfg.LockWait).Return("tok", nil)
	d.cache.EXPECT().Get(ctx, domain.BuildCacheKey(req.UserID, req.Key)).
		Return(cacheEnvelope(t, req.RequestHash, body), nil)
	d.lock.EXPECT().Release(ctx, gomock.Any(), "tok").Return(nil)

	got, err := d.coord.Execute(ctx, req, func(context.Context) ([]byte, error) {
		t.Fatal("operation must not run on cache hit")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, body, got)
}

func TestCoordinator_RejectsKeyReuseFromCache(t *testing.T) {
	d := setupCoordinator(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	req := coordRequest()

	// A live cached result for the same key but a different payload must be
	// rejected, not replayed; the durable layer is never consulted.
	d.lock.EXPECT().Acquire(ctx, gomock.Any(), d.cfg.LockTTL, d.cfg.LockWait).Return("tok", nil)
	d.cache.EXPECT().Get(ctx, gomock.Any()).
		Return(cacheEnvelope(t, "different-hash", []byte(`{"balance":5000}`)), nil)
	d.lock.EXPECT().Release(ctx, gomock.Any(), "tok").Return(nil)

	_, err := d.coord.Execute(ctx, req, func(context.Context) ([]byte, error) {
		t.Fatal("operation must not run on key reuse")
		return nil, nil
	})
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "IDEM_002", appErr.Code)
}

func TestCoordinator_MalformedCacheEntryFallsThrough(t *testing.T) {
	d := setupCoordinator(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	req := coordRequest()
	result := []byte(`{"balance":100}`)

	d.lock.EXPECT().Acquire(ctx, gomock.Any(), d.cfg.LockTTL, d.cfg.LockWait).Return("tok", nil)
	d.cache.EXPECT().Get(ctx, gomock.Any()).Return([]byte("not-json"), nil)
	d.idempRepo.EXPECT().Get(ctx, req.UserID, req.Key).Return(nil, nil)
	d.cache.EXPECT().Set(ctx, gomock.Any(), gomock.Any(), d.cfg.ResultTTL).Return(nil)
	d.idempRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)
	d.lock.EXPECT().Release(ctx, gomock.Any(), "tok").Return(nil)

	got, err := d.coord.Execute(ctx, req, func(context.Context) ([]byte, error) {
		return result, nil
	})
	require.NoError(t, err)
	assert.Equal(t, result, got)
}

func TestCoordinator_ReplaysFromDurableRecord(t *testing.T) {
	d := setupCoordinator(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	req := coordRequest()
	body := []byte(`{"balance":5000}`)

	d.lock.EXPECT().Acquire(ctx, gomock.Any(), d.cfg.LockTTL, d.cfg.LockWait).Return("tok", nil)
	d.cache.EXPECT().Get(ctx, gomock.Any()).Return(nil, nil)
	d.idempRepo.EXPECT().Get(ctx, req.UserID, req.Key).Return(&domain.IdempotencyRecord{
		Key:          req.Key,
		UserID:       req.UserID,
		RequestHash:  req.RequestHash,
		ResponseBody: body,
		Status:       domain.IdempotencyStatusCompleted,
	}, nil)
	d.lock.EXPECT().Release(ctx, gomock.Any(), "tok").Return(nil)

	got, err := d.coord.Execute(ctx, req, func(context.Context) ([]byte, error) {
		t.Fatal("operation must not run on durable record hit")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, body, got)
}

func TestCoordinator_RejectsKeyReuseWithDifferentPayload(t *testing.T) {
	d := setupCoordinator(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	req := coordRequest()

	d.lock.EXPECT().Acquire(ctx, gomock.Any(), d.cfg.LockTTL, d.cfg.LockWait).Return("tok", nil)
	d.cache.EXPECT().Get(ctx, gomock.Any()).Return(nil, nil)
	d.idempRepo.EXPECT().Get(ctx, req.UserID, req.Key).Return(&domain.IdempotencyRecord{
		Key:         req.Key,
		UserID:      req.UserID,
		RequestHash: "different-hash",
	}, nil)
	d.lock.EXPECT().Release(ctx, gomock.Any(), "tok").Return(nil)

	_, err := d.coord.Execute(ctx, req, func(context.Context) ([]byte, error) {
		t.Fatal("operation must not run on key reuse")
		return nil, nil
	})
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "IDEM_002", appErr.Code)
}

func TestCoordinator_LockTimeout(t *testing.T) {
	d := setupCoordinator(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	req := coordRequest()

	d.lock.EXPECT().Acquire(ctx, gomock.Any(), d.cfg.LockTTL, d.cfg.LockWait).
		Return("", domain.ErrLockWaitTimeout)

	_, err := d.coord.Execute(ctx, req, func(context.Context) ([]byte, error) {
		t.Fatal("operation must not run without the lock")
		return nil, nil
	})
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "IDEM_001", appErr.Code)
	assert.ErrorIs(t, err, domain.ErrLockWaitTimeout)
}

func TestCoordinator_FailureNotMemoized(t *testing.T) {
	d := setupCoordinator(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	req := coordRequest()
	opErr := errors.New("insufficient balance")

	d.lock.EXPECT().Acquire(ctx, gomock.Any(), d.cfg.LockTTL, d.cfg.LockWait).Return("tok", nil)
	d.cache.EXPECT().Get(ctx, gomock.Any()).Return(nil, nil)
	d.idempRepo.EXPECT().Get(ctx, req.UserID, req.Key).Return(nil, nil)
	// No cache.Set, no idempRepo.Create: failures propagate fresh.
	d.lock.EXPECT().Release(ctx, gomock.Any(), "tok").Return(nil)

	_, err := d.coord.Execute(ctx, req, func(context.Context) ([]byte, error) {
		return nil, opErr
	})
	assert.ErrorIs(t, err, opErr)
}

func TestCoordinator_EmptyKeyBypassesCoordination(t *testing.T) {
	d := setupCoordinator(t)
	defer d.ctrl.Finish()

	req := coordRequest()
	req.Key = ""

	got, err := d.coord.Execute(context.Background(), req, func(context.Context) ([]byte, error) {
		return []byte("ok"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), got)
}

func TestCoordinator_CacheErrorFallsThrough(t *testing.T) {
	d := setupCoordinator(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	req := coordRequest()
	result := []byte(`{"balance":100}`)

	d.lock.EXPECT().Acquire(ctx, gomock.Any(), d.cfg.LockTTL, d.cfg.LockWait).Return("tok", nil)
	d.cache.EXPECT().Get(ctx, gomock.Any()).Return(nil, errors.New("redis down"))
	d.idempRepo.EXPECT().Get(ctx, req.UserID, req.Key).Return(nil, nil)
	d.cache.EXPECT().Set(ctx, gomock.Any(), cacheEnvelope(t, req.RequestHash, result), d.cfg.ResultTTL).Return(errors.New("redis down"))
	d.idempRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)
	d.lock.EXPECT().Release(ctx, gomock.Any(), "tok").Return(nil)

	got, err := d.coord.Execute(ctx, req, func(context.Context) ([]byte, error) {
		return result, nil
	})
	require.NoError(t, err)
	assert.Equal(t, result, got)
}

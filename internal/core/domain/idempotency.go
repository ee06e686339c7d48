package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrLockWaitTimeout signals that the idempotency lock could not be acquired
// within the bounded wait. Safe to retry with the same key.
var ErrLockWaitTimeout = errors.New("idempotency lock wait timeout")

// IdempotencyStatus is the state of a durable idempotency record. Only
// completed operations are ever persisted; failures are surfaced fresh on
// every retry.
type IdempotencyStatus string

const (
	IdempotencyStatusCompleted IdempotencyStatus = "completed"
)

// IdempotencyRecord is the durable fallback behind the Redis result cache.
// It detects and replays duplicate requests that arrive after the cache
// window has passed. One record exists per (user, key).
type IdempotencyRecord struct {
	ID           int64             `json:"id"`
	Key          string            `json:"key"`
	Scope        string            `json:"scope"` // operation name: deposit, withdraw, transfer
	UserID       int64             `json:"user_id"`
	RequestHash  string            `json:"request_hash"`
	ResponseHash string            `json:"response_hash"`
	ResponseBody []byte            `json:"response_body"`
	Status       IdempotencyStatus `json:"status"`
	CreatedAt    time.Time         `json:"created_at"`
}

// BuildLockKey constructs the mutual-exclusion lock key for one logical
// request. Two retries of the same (user, key) pair contend on this key even
// when they would not contend on any wallet row.
func BuildLockKey(userID int64, idempotencyKey string) string {
	return fmt.Sprintf("idempotency:%d:%s", userID, idempotencyKey)
}

// BuildCacheKey constructs the result-cache key for one logical request.
func BuildCacheKey(userID int64, idempotencyKey string) string {
	return fmt.Sprintf("transaction:%d:%s", userID, idempotencyKey)
}

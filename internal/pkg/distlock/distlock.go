package distlock

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// DistLock is a single-slot lock: at most one holder at a time, and
// Acquire never blocks. A false result means someone else holds it.
type DistLock interface {
	// Acquire tries to acquire the lock. Returns true if successful.
	Acquire(ctx context.Context) (bool, error)
	// Release releases the lock if we still own it.
	Release(ctx context.Context) error
}

// NewLock creates a lock using the best available backend.
// If redisClient is non-nil, uses Redis (shared across processes).
// Otherwise falls back to an in-process lock.
func NewLock(redisClient *redis.Client, key string, ttl time.Duration) DistLock {
	if redisClient != nil {
		return NewRedisLock(redisClient, key, ttl)
	}
	return NewLocalLock()
}

// =============================================================================
// In-process lock
// =============================================================================

// LocalLock implements DistLock with an atomic flag. It is the in-flight
// gate of a single wizard: one lookup or generation at a time.
type LocalLock struct {
	held atomic.Bool
}

// NewLocalLock returns an unheld LocalLock.
func NewLocalLock() *LocalLock {
	return &LocalLock{}
}

// Acquire takes the slot if it is free.
func (l *LocalLock) Acquire(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return l.held.CompareAndSwap(false, true), nil
}

// Release frees the slot. Releasing an unheld lock is a no-op.
func (l *LocalLock) Release(context.Context) error {
	l.held.Store(false)
	return nil
}

// Held reports whether the slot is currently taken.
func (l *LocalLock) Held() bool {
	return l.held.Load()
}

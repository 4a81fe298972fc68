package distlock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLockSingleSlot(t *testing.T) {
	ctx := context.Background()
	l := NewLocalLock()

	ok, err := l.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, l.Held())

	ok, err = l.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "second acquire must fail while held")

	require.NoError(t, l.Release(ctx))
	assert.False(t, l.Held())

	ok, _ = l.Acquire(ctx)
	assert.True(t, ok)
}

func TestLocalLockCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ok, err := NewLocalLock().Acquire(ctx)
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.Canceled)
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisLockOwnership(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)

	a := NewRedisLock(client, "directory:fill:SW1A1AA", time.Minute)
	b := NewRedisLock(client, "directory:fill:SW1A1AA", time.Minute)

	ok, err := a.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	// b does not own the lock, so its release must not free it.
	require.NoError(t, b.Release(ctx))
	assert.True(t, mr.Exists("lock:directory:fill:SW1A1AA"))
	assert.Equal(t, time.Minute, mr.TTL("lock:directory:fill:SW1A1AA"))

	require.NoError(t, a.Release(ctx))
	assert.False(t, mr.Exists("lock:directory:fill:SW1A1AA"))
}

func TestRedisLockExpires(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)

	a := NewRedisLock(client, "k", time.Second)
	ok, _ := a.Acquire(ctx)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)

	ok, err := NewRedisLock(client, "k", time.Second).Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewLockPicksBackend(t *testing.T) {
	_, client := newRedis(t)
	assert.IsType(t, &RedisLock{}, NewLock(client, "k", time.Second))
	assert.IsType(t, &LocalLock{}, NewLock(nil, "k", time.Second))
}

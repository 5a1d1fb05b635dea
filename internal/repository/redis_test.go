package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisLockRepository) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisLockRepository(client)
}

func TestRedisLockAcquireRelease(t *testing.T) {
	mr, repo := newTestRedis(t)
	ctx := context.Background()

	ok, err := repo.Acquire(ctx, "allocation:hotel:1", 15*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, mr.Exists("lock:allocation:hotel:1"))

	ok, err = repo.Acquire(ctx, "allocation:hotel:1", 15*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Release(ctx, "allocation:hotel:1"))
	assert.False(t, mr.Exists("lock:allocation:hotel:1"))

	ok, err = repo.Acquire(ctx, "allocation:hotel:1", 15*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLockTTLExpiry(t *testing.T) {
	mr, repo := newTestRedis(t)
	ctx := context.Background()

	ok, err := repo.Acquire(ctx, "allocation:hotel:1", 15*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	// A crashed holder must not block the hotel forever.
	mr.FastForward(16 * time.Second)

	ok, err = repo.Acquire(ctx, "allocation:hotel:1", 15*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisRateLimit(t *testing.T) {
	mr, repo := newTestRedis(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := repo.CheckRateLimit(ctx, "client-a", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := repo.CheckRateLimit(ctx, "client-a", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	mr.FastForward(time.Minute + time.Second)

	allowed, err = repo.CheckRateLimit(ctx, "client-a", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisNilClient(t *testing.T) {
	repo := NewRedisLockRepository(nil)
	ctx := context.Background()

	_, err := repo.Acquire(ctx, "k", time.Second)
	assert.Error(t, err)
	assert.Error(t, repo.Release(ctx, "k"))
	_, err = repo.CheckRateLimit(ctx, "c", 1, time.Second)
	assert.Error(t, err)
}

func TestPingAndClose(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	require.NoError(t, Ping(context.Background(), client))
	require.NoError(t, Close(client))
	assert.NoError(t, Close(nil))
}

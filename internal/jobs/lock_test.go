package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestRedisLockerIsExclusive(t *testing.T) {
	client, _ := setupTestRedis(t)
	ctx := context.Background()
	a, b := NewRedisLocker(client), NewRedisLocker(client)

	release, ok, err := a.TryLock(ctx, "sync-report", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = b.TryLock(ctx, "sync-report", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second instance must not get the lock")

	release()
	_, ok, err = b.TryLock(ctx, "sync-report", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLockerDoesNotReleaseTakenOverLock(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()
	a, b := NewRedisLocker(client), NewRedisLocker(client)

	releaseA, ok, err := a.TryLock(ctx, "cache-warm", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)
	_, ok, err = b.TryLock(ctx, "cache-warm", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	releaseA()
	owner, err := mr.Get(lockKeyPrefix + "cache-warm")
	require.NoError(t, err)
	assert.Equal(t, b.owner, owner)
}

func TestRedisLockerError(t *testing.T) {
	client, mr := setupTestRedis(t)
	mr.Close()

	_, ok, err := NewRedisLocker(client).TryLock(context.Background(), "cache-warm", time.Minute)
	assert.Error(t, err)
	assert.False(t, ok)
}

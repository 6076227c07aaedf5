package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const lockKeyPrefix = "aggies:jobs:lock:"

// Locker makes sure a job runs on one instance at a time.
type Locker interface {
	TryLock(ctx context.Context, job string, ttl time.Duration) (release func(), ok bool, err error)
}

// RedisLocker holds one SETNX key per job. The key carries this
// instance's owner id so a lock that expired and was taken over is never
// released by the previous holder.
type RedisLocker struct {
	Client *redis.Client
	owner  string
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{Client: client, owner: uuid.NewString()}
}

func (l *RedisLocker) TryLock(ctx context.Context, job string, ttl time.Duration) (func(), bool, error) {
	key := lockKeyPrefix + job
	ok, err := l.Client.SetNX(ctx, key, l.owner, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("lock %s: %w", job, err)
	}
	if !ok {
		return nil, false, nil
	}
	return func() { _ = l.unlock(key) }, true, nil
}

func (l *RedisLocker) unlock(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	val, err := l.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}
	if val != l.owner {
		return nil
	}
	return l.Client.Del(ctx, key).Err()
}

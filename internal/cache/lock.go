package cache

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	redis "github.com/redis/go-redis/v9"
)

// ErrLockNotObtained is returned when another holder keeps the lock past the retry budget.
var ErrLockNotObtained = errors.New("lock not obtained")

type Lock interface {
	Release(ctx context.Context) error
}

type Locker interface {
	// Obtain acquires key for at most ttl.
	Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}

var _ Locker = (*RedisLocker)(nil)

type RedisLocker struct {
	client  *redislock.Client
	backoff time.Duration
	retries int
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{
		client:  redislock.New(client),
		backoff: 100 * time.Millisecond,
		retries: 20,
	}
}

func (l *RedisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error) {
	lock, err := l.client.Obtain(ctx, key, ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(l.backoff), l.retries),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrLockNotObtained
	}
	if err != nil {
		return nil, err
	}

	return lock, nil
}

// NopLocker grants every lock, for single process deployments without redis locking.
type NopLocker struct{}

var _ Locker = NopLocker{}

func (NopLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error) {
	return nopLock{}, nil
}

type nopLock struct{}

func (nopLock) Release(ctx context.Context) error {
	return nil
}

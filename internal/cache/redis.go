package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

var ErrLockNotObtained = errors.New("lock not obtained")

const defaultLockTTL = 30 * time.Second

type Config struct {
	Addr     string
	Password string
	DB       int
}

type RedisClient struct {
	Client *redis.Client
	locker *redislock.Client
}

func NewRedisClient(cfg *Config) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisClientWithClient(client), nil
}

// NewRedisClientWithClient wraps an existing client, sharing its connection pool.
func NewRedisClientWithClient(client *redis.Client) *RedisClient {
	return &RedisClient{
		Client: client,
		locker: redislock.New(client),
	}
}

func (r *RedisClient) Close() error {
	return r.Client.Close()
}

// Obtain takes a distributed lock on key. The returned func releases it.
// A lock held elsewhere surfaces as ErrLockNotObtained after the retry budget is spent.
// While held, the lock is refreshed every ttl/2 so long passes do not outlive it.
func (r *RedisClient) Obtain(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	lock, err := r.locker.Obtain(ctx, key, ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 3),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrLockNotObtained
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}

	stop := keepAlive(lock, ttl)
	return func(ctx context.Context) error {
		stop()
		return lock.Release(ctx)
	}, nil
}

type refresher interface {
	Refresh(ctx context.Context, ttl time.Duration, opt *redislock.Options) error
}

// keepAlive extends the lock every ttl/2 until the returned stop func is called or a
// refresh fails. stop waits for the refresher to exit and is safe to call twice.
func keepAlive(lock refresher, ttl time.Duration) func() {
	quit := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(ttl / 2)
		defer ticker.Stop()

		for {
			select {
			case <-quit:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), ttl/2)
				err := lock.Refresh(ctx, ttl, nil)
				cancel()
				if err != nil {
					return
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(quit) })
		<-done
	}
}

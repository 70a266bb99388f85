package cache

import (
	"context"
	"time"
)

// KeyLocker binds a RedisClient to one lock key, so callers only see Lock/unlock.
type KeyLocker struct {
	client *RedisClient
	key    string
	ttl    time.Duration
}

func NewKeyLocker(client *RedisClient, key string, ttl time.Duration) *KeyLocker {
	return &KeyLocker{client: client, key: key, ttl: ttl}
}

func (k *KeyLocker) Lock(ctx context.Context) (func(context.Context) error, error) {
	return k.client.Obtain(ctx, k.key, k.ttl)
}

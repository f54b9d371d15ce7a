package persistence

import (
	"context"
	"errors"
	"fmt"

	"draft_worker/core/port/out"

	"github.com/redis/go-redis/v9"
)

const DefaultRedisPrefix = "draft_worker:props:"

// RedisPropertyAdapter implements out.PropertyStore on Redis string keys.
type RedisPropertyAdapter struct {
	client *redis.Client
	prefix string
}

var _ out.PropertyStore = (*RedisPropertyAdapter)(nil)

// NewRedisPropertyAdapter creates an adapter storing keys under prefix
// (DefaultRedisPrefix when empty).
func NewRedisPropertyAdapter(client *redis.Client, prefix string) *RedisPropertyAdapter {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisPropertyAdapter{client: client, prefix: prefix}
}

// Get returns the value stored under key.
func (a *RedisPropertyAdapter) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := a.client.Get(ctx, a.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

// Set stores value under key without expiry; retention is applied by the caller.
func (a *RedisPropertyAdapter) Set(ctx context.Context, key, value string) error {
	if err := a.client.Set(ctx, a.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Ping checks the Redis connection.
func (a *RedisPropertyAdapter) Ping(ctx context.Context) error {
	return a.client.Ping(ctx).Err()
}

// Package redis adapts a Redis server to the cache.TTLCache contract.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"karmabot/pkg/config"
)

// Cache is a Redis-backed TTL cache.
type Cache struct {
	client *redis.Client
	log    *slog.Logger
}

// Connect opens the Redis connection and verifies it with a ping.
func Connect(ctx context.Context, cfg config.RedisConfig, log *slog.Logger) (*Cache, error) {
	if log == nil {
		log = slog.Default()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis at %s: %w", cfg.Addr, err)
	}

	return &Cache{
		client: client,
		log:    log.With("component", "cache.redis"),
	}, nil
}

// Get returns the value for key and whether it exists.
func (c *Cache) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key with the given expiry.
func (c *Cache) Set(ctx context.Context, key string, value string, expiry time.Duration) error {
	if expiry < 0 {
		expiry = 0
	}
	if err := c.client.Set(ctx, key, value, expiry).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Del removes key.
func (c *Cache) Del(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// TTL returns the remaining lifetime of key. Redis reports missing keys and
// keys without expiry as negative durations, which callers treat as "not
// gated".
func (c *Cache) TTL(ctx context.Context, key string) (time.Duration, error) {
	remaining, err := c.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("ttl %s: %w", key, err)
	}
	return remaining, nil
}

// Close releases the connection pool.
func (c *Cache) Close() error {
	return c.client.Close()
}

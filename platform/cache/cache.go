// Package cache provides a small JSON object cache on top of redis.
// This is part of the platform layer and contains no business logic.
package cache

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"vhc_backend/platform/config"

	"github.com/redis/go-redis/v9"
)

// Cache stores JSON-encoded values under string keys.
// A nil *Cache is valid and behaves as a permanent miss.
type Cache struct {
	rdb    *redis.Client
	prefix string
}

// New connects to the redis instance described by cfg.
// Returns (nil, nil) when no redis URL is configured.
func New(ctx context.Context, cfg config.RedisConfig, prefix string) (*Cache, error) {
	if cfg.GetRedisURL() == "" {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if cfg.GetRedisTLSInsecure() {
		if opt.TLSConfig == nil {
			opt.TLSConfig = &tls.Config{}
		}
		opt.TLSConfig.InsecureSkipVerify = true
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return NewWithClient(rdb, prefix), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(rdb *redis.Client, prefix string) *Cache {
	return &Cache{rdb: rdb, prefix: prefix}
}

// GetJSON loads key into dest. The boolean is false on a miss.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if c == nil || c.rdb == nil {
		return false, nil
	}

	raw, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON stores value under key for ttl.
func (c *Cache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c == nil || c.rdb == nil {
		return nil
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.prefix+key, raw, ttl).Err()
}

// DeletePrefix removes every key starting with keyPrefix.
func (c *Cache) DeletePrefix(ctx context.Context, keyPrefix string) (int, error) {
	if c == nil || c.rdb == nil {
		return 0, nil
	}

	deleted := 0
	iter := c.rdb.Scan(ctx, 0, c.prefix+keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, iter.Err()
}

// Ping checks the redis connection. A nil cache is always healthy.
func (c *Cache) Ping(ctx context.Context) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (c *Cache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

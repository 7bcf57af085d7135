// Package redisdb is the catalog read cache. A nil client degrades to
// cache-off: every helper becomes a no-op miss.
package redisdb

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"tabletap/internal/config"
)

type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

func Connect(ctx context.Context, cfg config.Redis) (*Cache, error) {
	if cfg.Addr == "" {
		return &Cache{}, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	ttl := 60 * time.Second
	if cfg.CatalogTTL > 0 {
		ttl = time.Duration(cfg.CatalogTTL) * time.Second
	}
	return &Cache{rdb: rdb, ttl: ttl}, nil
}

func (c *Cache) Close() {
	if c != nil && c.rdb != nil {
		_ = c.rdb.Close()
	}
}

// GetObject reports (found, error); a cache-off client always misses.
func (c *Cache) GetObject(ctx context.Context, key string, dest any) (bool, error) {
	if c == nil || c.rdb == nil {
		return false, nil
	}
	val, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Cache) SetObject(ctx context.Context, key string, obj any) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	b, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, c.ttl).Err()
}

// DeletePrefix drops every key under a prefix; menu mutations use it to
// invalidate the tenant's cached catalog.
func (c *Cache) DeletePrefix(ctx context.Context, prefix string) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	iter := c.rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

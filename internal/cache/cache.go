// Package cache holds rendered listing views and feeds between writes
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Cache is a string key/value cache with per-entry TTL.
// Get returns "" and no error on a miss.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Keys of cached views
const (
	KeyArticles         = "blog:list:articles"
	KeyProjects         = "blog:list:projects"
	KeyProjectsFeatured = "blog:list:projects:featured"
	KeyRSS              = "blog:feed:rss"
	KeySitemap          = "blog:feed:sitemap"
)

// NewWithFallback returns a redis cache when client is reachable, otherwise
// an in-process memory cache.
func NewWithFallback(ctx context.Context, client *redis.Client, log zerolog.Logger) Cache {
	log = log.With().Str("component", "cache").Logger()

	if client == nil {
		log.Info().Msg("Using memory cache")
		return NewMemory()
	}

	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, falling back to memory cache")
		return NewMemory()
	}

	log.Info().Str("addr", client.Options().Addr).Msg("Using redis cache")
	return NewRedis(client)
}

// GetJSON decodes a cached JSON value into v. It reports false on a miss or
// an undecodable entry.
func GetJSON(ctx context.Context, c Cache, key string, v interface{}) (bool, error) {
	raw, err := c.Get(ctx, key)
	if err != nil || raw == "" {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, nil
	}
	return true, nil
}

// SetJSON stores v encoded as JSON
func SetJSON(ctx context.Context, c Cache, key string, v interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}
	return c.Set(ctx, key, string(raw), ttl)
}

type redisCache struct {
	client *redis.Client
}

// NewRedis creates a cache backed by redis
func NewRedis(client *redis.Client) Cache {
	return &redisCache{client: client}
}

func (c *redisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

func (c *redisCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *redisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

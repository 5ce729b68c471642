package conditions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matthewbaird/waypoint/internal/types"
)

// DefaultCacheTTL is how long a fetched snapshot is reused.
const DefaultCacheTTL = 15 * time.Minute

// RedisCache wraps a Feed and caches its snapshots in Redis, keyed by
// coordinates rounded to four decimal places. Only successful fetches are
// cached. Redis failures fall through to the wrapped feed.
type RedisCache struct {
	next   Feed
	client *redis.Client
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

// CacheOption configures a RedisCache.
type CacheOption func(*RedisCache)

// WithCacheTTL sets the time-to-live for cached snapshots.
func WithCacheTTL(ttl time.Duration) CacheOption {
	return func(c *RedisCache) { c.ttl = ttl }
}

// WithCachePrefix sets the key prefix. Default is "waypoint".
func WithCachePrefix(prefix string) CacheOption {
	return func(c *RedisCache) { c.prefix = prefix }
}

// WithCacheLogger sets the cache's logger.
func WithCacheLogger(l *slog.Logger) CacheOption {
	return func(c *RedisCache) { c.logger = l }
}

// NewRedisCache creates a caching Feed in front of next.
func NewRedisCache(next Feed, client *redis.Client, opts ...CacheOption) *RedisCache {
	c := &RedisCache{
		next:   next,
		client: client,
		ttl:    DefaultCacheTTL,
		prefix: "waypoint",
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RedisCache) key(at types.Coordinates) string {
	return fmt.Sprintf("%s:alerts:%.4f,%.4f", c.prefix, at.Latitude, at.Longitude)
}

// Alerts implements Feed.
func (c *RedisCache) Alerts(ctx context.Context, at types.Coordinates) (*Snapshot, error) {
	key := c.key(at)

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var snap Snapshot
		if uerr := json.Unmarshal(data, &snap); uerr == nil {
			return &snap, nil
		}
		c.logger.Warn("discarding corrupt cached alerts", "key", key)
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("alert cache read failed", "key", key, "error", err)
	}

	snap, err := c.next.Alerts(ctx, at)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(snap); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Warn("alert cache write failed", "key", key, "error", err)
		}
	}
	return snap, nil
}

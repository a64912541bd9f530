package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	cacheTTL        = 5 * time.Minute
	cacheVersionKey = "api:version"
)

// Cache is a Redis-backed response cache for the read API. Keys live under a
// versioned namespace; a mutation bumps the version so every cached payload
// goes stale at once. Redis being down only costs the caching: every method
// degrades to a miss or a no-op.
type Cache struct {
	client *redis.Client
	log    *zap.SugaredLogger
}

func NewCache(client *redis.Client, log *zap.SugaredLogger) *Cache {
	return &Cache{client: client, log: log}
}

// Get loads a cached payload into dest and reports whether it was a hit.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) bool {
	if c == nil || c.client == nil {
		return false
	}

	data, err := c.client.Get(ctx, c.versionedKey(ctx, key)).Result()
	if err != nil {
		if err != redis.Nil {
			c.log.Warnw("cache read failed", "key", key, "error", err)
		}
		return false
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		c.log.Warnw("cache payload unmarshal failed", "key", key, "error", err)
		return false
	}
	return true
}

// Set stores a payload under the current namespace version with a TTL.
func (c *Cache) Set(ctx context.Context, key string, value interface{}) {
	if c == nil || c.client == nil {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		c.log.Warnw("cache payload marshal failed", "key", key, "error", err)
		return
	}

	if err := c.client.Set(ctx, c.versionedKey(ctx, key), data, cacheTTL).Err(); err != nil {
		c.log.Warnw("cache write failed", "key", key, "error", err)
	}
}

// Invalidate bumps the namespace version, orphaning every cached payload.
// The TTL reaps the stale keys.
func (c *Cache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}

	if err := c.client.Incr(ctx, cacheVersionKey).Err(); err != nil {
		c.log.Warnw("cache invalidation failed", "error", err)
	}
}

func (c *Cache) versionedKey(ctx context.Context, key string) string {
	version, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if err != nil && err != redis.Nil {
		version = 0
	}
	return fmt.Sprintf("api:v%d:%s", version, key)
}

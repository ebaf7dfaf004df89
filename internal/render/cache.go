package render

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/inkpress/inkpress/pkg/metrics"
)

// Cache is a Redis-backed cache of rendered pages. Keys embed the SHA-256 of
// the post source, so an edited post misses naturally and stale entries age
// out via TTL; there is no explicit invalidation step.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewCache creates a render cache. A zero ttl disables expiry.
func NewCache(client *redis.Client, prefix string, ttl time.Duration) *Cache {
	if prefix == "" {
		prefix = "render:"
	}
	return &Cache{client: client, prefix: prefix, ttl: ttl}
}

// SourceKey returns the cache key for a post source.
func SourceKey(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached HTML for the key, or ("", false) on a miss. Redis
// errors are treated as misses; the caller re-renders.
func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	if c == nil || c.client == nil {
		return "", false
	}
	v, err := c.client.Get(ctx, c.prefix+key).Result()
	if err != nil {
		metrics.RenderCacheMisses.Inc()
		return "", false
	}
	metrics.RenderCacheHits.Inc()
	return v, true
}

// Put stores rendered HTML under the key.
func (c *Cache) Put(ctx context.Context, key, html string) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Set(ctx, c.prefix+key, html, c.ttl).Err()
}

package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	keyPrefix = "page:"
	// StaleChannel receives every path marked stale so edge caches can refresh.
	StaleChannel = "cache:stale"
)

// PageCache stores rendered public listings keyed by logical path.
type PageCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewPageCache creates a cache backed by Redis. A nil client yields a no-op cache.
func NewPageCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *PageCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PageCache{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached body for one variant (query string) of path.
// The bool is false on a miss.
func (c *PageCache) Get(ctx context.Context, path, variant string) ([]byte, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	body, err := c.client.HGet(ctx, keyPrefix+path, variant).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("page cache read failed", zap.String("path", path), zap.Error(err))
		}
		return nil, false
	}
	return body, true
}

// Set stores body for a variant of path. All variants of a path share one
// hash so MarkStale drops them together; the TTL is refreshed on every write.
func (c *PageCache) Set(ctx context.Context, path, variant string, body []byte) {
	if c == nil || c.client == nil {
		return
	}
	key := keyPrefix + path
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, variant, body)
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("page cache write failed", zap.String("path", path), zap.Error(err))
	}
}

// MarkStale drops the cached views for paths and announces them on StaleChannel.
// It is idempotent and never fails the caller.
func (c *PageCache) MarkStale(ctx context.Context, paths ...string) {
	if c == nil || c.client == nil || len(paths) == 0 {
		return
	}

	keys := make([]string, len(paths))
	for i, p := range paths {
		keys[i] = keyPrefix + p
	}

	pipe := c.client.Pipeline()
	pipe.Del(ctx, keys...)
	for _, p := range paths {
		pipe.Publish(ctx, StaleChannel, p)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("failed to mark paths stale", zap.Strings("paths", paths), zap.Error(err))
	}
}

package recommend

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"courseintel/pkg/config"
	pkgredis "courseintel/pkg/redis"
)

const keyPrefix = "recommend:"

// Store is the slice of the Redis client surface the result cache needs.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

// ResultCache caches recommendation results in Redis. Keys include the
// snapshot version, so a rebuild invalidates prior entries naturally;
// Invalidate clears them eagerly. Singleflight collapses concurrent misses
// for the same key into one computation.
type ResultCache struct {
	client Store
	cfg    config.RedisConfig
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

// NewResultCache creates a ResultCache over the given store, usually the
// Redis client from pkg/redis.
func NewResultCache(client Store, cfg config.RedisConfig) *ResultCache {
	return &ResultCache{
		client: client,
		cfg:    cfg,
		logger: slog.Default().With("component", "result-cache"),
	}
}

// Get returns the cached result for the key parameters, if present.
func (c *ResultCache) Get(ctx context.Context, version string, courseID int64, topN int, minReviews int64) ([]Recommendation, bool) {
	key := c.buildKey(version, courseID, topN, minReviews)
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}
	var result []Recommendation
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	c.logger.Debug("cache hit", "key", key)
	return result, true
}

// Set stores a result with the configured TTL.
func (c *ResultCache) Set(ctx context.Context, version string, courseID int64, topN int, minReviews int64, result []Recommendation) {
	key := c.buildKey(version, courseID, topN, minReviews)
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.cfg.CacheTTL); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result or computes, caches, and returns
// it, deduplicating concurrent computations for the same key.
func (c *ResultCache) GetOrCompute(
	ctx context.Context,
	version string,
	courseID int64,
	topN int,
	minReviews int64,
	computeFn func() ([]Recommendation, error),
) ([]Recommendation, bool, error) {
	if result, ok := c.Get(ctx, version, courseID, topN, minReviews); ok {
		return result, true, nil
	}
	key := c.buildKey(version, courseID, topN, minReviews)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if result, ok := c.Get(ctx, version, courseID, topN, minReviews); ok {
			return result, nil
		}
		result, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, version, courseID, topN, minReviews, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.([]Recommendation), false, nil
}

// Invalidate deletes every cached recommendation.
func (c *ResultCache) Invalidate(ctx context.Context) error {
	deleted, err := c.client.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating result cache: %w", err)
	}
	c.logger.Info("result cache invalidated", "keys_deleted", deleted)
	return nil
}

// Stats returns cumulative hit and miss counts.
func (c *ResultCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *ResultCache) buildKey(version string, courseID int64, topN int, minReviews int64) string {
	raw := fmt.Sprintf("%s:course=%d:n=%d:min_reviews=%d", version, courseID, topN, minReviews)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}

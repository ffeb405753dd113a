package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/redis"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const (
	poolCacheKey  = "clover:pool"
	linksCacheKey = "clover:sku_links"
)

// PoolCache keeps the master record pool and the SKU link set in Redis so
// batch resolutions don't reload the catalog from Postgres every time.
// A stale snapshot only delays seeing new masters; it never corrupts a
// decision, so the cache is invalidated on writes and expired on a TTL.
type PoolCache struct {
	client *redis.Client
	logger ectologger.Logger
	ttl    time.Duration
}

// NewPoolCache creates a pool cache. A nil client disables caching.
func NewPoolCache(client *redis.Client, logger ectologger.Logger, ttl time.Duration) *PoolCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &PoolCache{
		client: client,
		logger: logger,
		ttl:    ttl,
	}
}

// GetPool returns the cached pool snapshot, or nil on a miss
func (c *PoolCache) GetPool(ctx context.Context) []models.MasterRecord {
	if c.client == nil {
		return nil
	}

	ctx, span := tracing.StartSpan(ctx, "catalog.PoolCache.GetPool")
	defer span.End()

	raw, err := c.client.Get(ctx, poolCacheKey)
	if err != nil {
		if !redis.IsNil(err) {
			c.logger.WithContext(ctx).WithError(err).Warn("Pool cache read failed")
		}
		return nil
	}

	var pool []models.MasterRecord
	if err := json.Unmarshal([]byte(raw), &pool); err != nil {
		c.logger.WithContext(ctx).WithError(err).Warn("Pool cache snapshot corrupt, dropping")
		_ = c.client.Del(ctx, poolCacheKey)
		return nil
	}
	return pool
}

// SetPool stores a pool snapshot
func (c *PoolCache) SetPool(ctx context.Context, pool []models.MasterRecord) {
	if c.client == nil {
		return
	}

	ctx, span := tracing.StartSpan(ctx, "catalog.PoolCache.SetPool")
	defer span.End()

	data, err := json.Marshal(pool)
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).Warn("Failed to serialize pool snapshot")
		return
	}
	if err := c.client.Set(ctx, poolCacheKey, data, c.ttl); err != nil {
		c.logger.WithContext(ctx).WithError(err).Warn("Pool cache write failed")
	}
}

// GetLinks returns the cached SKU link set, or nil on a miss
func (c *PoolCache) GetLinks(ctx context.Context) map[string]string {
	if c.client == nil {
		return nil
	}

	ctx, span := tracing.StartSpan(ctx, "catalog.PoolCache.GetLinks")
	defer span.End()

	raw, err := c.client.Get(ctx, linksCacheKey)
	if err != nil {
		if !redis.IsNil(err) {
			c.logger.WithContext(ctx).WithError(err).Warn("Link cache read failed")
		}
		return nil
	}

	var links map[string]string
	if err := json.Unmarshal([]byte(raw), &links); err != nil {
		c.logger.WithContext(ctx).WithError(err).Warn("Link cache snapshot corrupt, dropping")
		_ = c.client.Del(ctx, linksCacheKey)
		return nil
	}
	return links
}

// SetLinks stores a SKU link snapshot
func (c *PoolCache) SetLinks(ctx context.Context, links map[string]string) {
	if c.client == nil {
		return
	}

	ctx, span := tracing.StartSpan(ctx, "catalog.PoolCache.SetLinks")
	defer span.End()

	data, err := json.Marshal(links)
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).Warn("Failed to serialize link snapshot")
		return
	}
	if err := c.client.Set(ctx, linksCacheKey, data, c.ttl); err != nil {
		c.logger.WithContext(ctx).WithError(err).Warn("Link cache write failed")
	}
}

// Invalidate drops the cached snapshots after a catalog write
func (c *PoolCache) Invalidate(ctx context.Context) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, poolCacheKey, linksCacheKey); err != nil {
		c.logger.WithContext(ctx).WithError(err).Warn("Cache invalidation failed")
	}
}

// Package catalog holds decorators around product.Repository that add
// caching and telemetry without changing lookup semantics.
package catalog

import (
	"context"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/order-valuation/internal/domain/product"
)

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	// Get reports ok=false on a miss.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

var _ product.Repository = (*Cached)(nil)

// Cached is a cache-aside product.Repository. Only found products are
// cached, so a product added to the catalog becomes visible immediately.
// Cache failures are logged and the lookup falls through to the catalog.
type Cached struct {
	next   product.Repository
	cache  Cache
	ttl    time.Duration
	prefix string
}

// NewCached wraps next with cache. Entries expire after ttl.
func NewCached(next product.Repository, cache Cache, ttl time.Duration) *Cached {
	return &Cached{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		prefix: "catalog:product:",
	}
}

func (c *Cached) key(id int64) string {
	return c.prefix + strconv.FormatInt(id, 10)
}

// GetByID returns the cached product or loads it from the wrapped catalog.
func (c *Cached) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	if p, ok := c.lookup(ctx, id); ok {
		return &p, nil
	}

	p, err := c.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, *p)
	return p, nil
}

// GetByIDs serves what it can from the cache and fetches the remaining ids
// from the wrapped catalog in one call.
func (c *Cached) GetByIDs(ctx context.Context, ids []int64) ([]product.Product, error) {
	out := make([]product.Product, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	var missing []int64
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if p, ok := c.lookup(ctx, id); ok {
			out = append(out, p)
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return out, nil
	}

	fetched, err := c.next.GetByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}
	for _, p := range fetched {
		c.store(ctx, p)
	}
	return append(out, fetched...), nil
}

func (c *Cached) lookup(ctx context.Context, id int64) (product.Product, bool) {
	var p product.Product

	data, ok, err := c.cache.Get(ctx, c.key(id))
	if err != nil {
		zctx.From(ctx).Warn("Catalog cache get failed", zap.Int64("product_id", id), zap.Error(err))
		return p, false
	}
	if !ok {
		return p, false
	}

	if err := p.DecodeJSON(jx.DecodeBytes(data)); err != nil {
		zctx.From(ctx).Warn("Catalog cache entry corrupt", zap.Int64("product_id", id), zap.Error(err))
		return p, false
	}
	return p, true
}

func (c *Cached) store(ctx context.Context, p product.Product) {
	var e jx.Encoder
	p.EncodeJSON(&e)

	if err := c.cache.Set(ctx, c.key(p.ID), e.Bytes(), c.ttl); err != nil {
		zctx.From(ctx).Warn("Catalog cache set failed", zap.Int64("product_id", p.ID), zap.Error(errors.Wrap(err, "set")))
	}
}

// Package memory provides an in-process product catalog.
package memory

import (
	"context"
	"sync"

	"github.com/go-faster/errors"

	"github.com/xenking/order-valuation/internal/catalog/feed"
	"github.com/xenking/order-valuation/internal/domain/product"
)

var _ product.Repository = (*Catalog)(nil)

// Catalog is a map-backed product.Repository safe for concurrent use.
// Products are copied on the way in and out.
type Catalog struct {
	mu    sync.RWMutex
	store map[int64]product.Product
}

// NewCatalog returns a Catalog holding the given products. A later product
// with the same ID replaces an earlier one.
func NewCatalog(products ...product.Product) *Catalog {
	c := &Catalog{store: make(map[int64]product.Product, len(products))}
	for _, p := range products {
		c.store[p.ID] = p
	}
	return c
}

// LoadFile reads a product feed into a new Catalog.
func LoadFile(ctx context.Context, path string) (*Catalog, error) {
	c := NewCatalog()
	if err := feed.ReadFile(ctx, path, func(p product.Product) error {
		c.Put(p)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "load catalog")
	}
	return c, nil
}

// Put inserts or replaces a product.
func (c *Catalog) Put(p product.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[p.ID] = p
}

// Len returns the number of products held.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// GetByID returns product.ErrNotFound when id is unknown.
func (c *Catalog) GetByID(_ context.Context, id int64) (*product.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.store[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

// GetByIDs returns the known products among ids. Duplicate ids yield a
// single product.
func (c *Catalog) GetByIDs(_ context.Context, ids []int64) ([]product.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]product.Product, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if p, ok := c.store[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/order-valuation/internal/domain/pricing"
	"github.com/xenking/order-valuation/internal/domain/product"
)

// Service values orders and resolves product references against the
// catalog. It holds no mutable state and is safe for concurrent use.
//
// A product that the catalog does not know is never an error: it contributes
// nothing to totals and is left out of lookup results. Errors are only
// returned when the catalog itself fails.
type Service struct {
	products product.Repository
}

// NewService creates an order Service backed by the given catalog.
func NewService(products product.Repository) *Service {
	return &Service{products: products}
}

// CalculateOrderValue returns the sum of every item's line total. Items
// whose product is missing from the catalog contribute zero.
func (s *Service) CalculateOrderValue(ctx context.Context, items []OrderItem) (decimal.Decimal, error) {
	if len(items) == 0 {
		return decimal.Zero, nil
	}

	// Batch fetch all referenced products in a single catalog call.
	byID, err := s.resolve(ctx, Order(items).ProductIDs())
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, item := range items {
		p, ok := byID[item.ProductID]
		if !ok {
			zctx.From(ctx).Debug("Product not found, item skipped",
				zap.Int64("product_id", item.ProductID),
				zap.Int("quantity", item.Quantity),
			)
			continue
		}
		total = total.Add(pricing.LineTotal(p, item.Quantity))
	}
	return total, nil
}

// FindProductsByID resolves ids to products. Unknown ids are dropped and
// duplicates collapse to a single entry, so the result is a set keyed by
// product identifier, ordered by first appearance in ids.
func (s *Service) FindProductsByID(ctx context.Context, ids []int64) ([]product.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	byID, err := s.resolve(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]product.Product, 0, len(byID))
	seen := make(map[int64]struct{}, len(byID))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}

// CalculateMultipleOrders values each order independently and returns the
// sum of the per-order totals.
func (s *Service) CalculateMultipleOrders(ctx context.Context, orders [][]OrderItem) (decimal.Decimal, error) {
	total := decimal.Zero
	for i, items := range orders {
		v, err := s.CalculateOrderValue(ctx, items)
		if err != nil {
			return decimal.Zero, errors.Wrapf(err, "order %d", i)
		}
		total = total.Add(v)
	}
	return total, nil
}

// GroupProductsBySale resolves ids like FindProductsByID and partitions the
// products by their sale flag. A flag with no matching product has no key
// in the result.
func (s *Service) GroupProductsBySale(ctx context.Context, ids []int64) (map[bool][]product.Product, error) {
	products, err := s.FindProductsByID(ctx, ids)
	if err != nil {
		return nil, err
	}

	groups := make(map[bool][]product.Product, 2)
	for _, p := range products {
		groups[p.IsSale] = append(groups[p.IsSale], p)
	}
	return groups, nil
}

// resolve fetches the distinct products referenced by ids and indexes them
// by identifier.
func (s *Service) resolve(ctx context.Context, ids []int64) (map[int64]product.Product, error) {
	fetched, err := s.products.GetByIDs(ctx, distinct(ids))
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}

	byID := make(map[int64]product.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}
	return byID, nil
}

func distinct(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

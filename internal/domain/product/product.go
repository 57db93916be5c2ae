package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item that can be referenced by order items.
type Product struct {
	ID       int64
	Name     string
	Category string
	Value    decimal.Decimal
	IsSale   bool
}

// Repository defines read operations for the product catalog.
type Repository interface {
	// GetByID returns ErrNotFound when no product has the given identifier.
	GetByID(ctx context.Context, id int64) (*Product, error)
	// GetByIDs returns the products matching ids. Unknown ids are omitted
	// rather than reported, and the result order is unspecified.
	GetByIDs(ctx context.Context, ids []int64) ([]Product, error)
}

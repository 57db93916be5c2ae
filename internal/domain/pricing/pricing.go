// Package pricing holds the price rules applied when valuing order items.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/order-valuation/internal/domain/product"
)

// SaleMarkdown is the fraction taken off the value of every product flagged
// as on sale. It is a catalog-wide policy and cannot be overridden per call.
var SaleMarkdown = decimal.RequireFromString("0.2")

// Discounted returns value reduced by SaleMarkdown.
func Discounted(value decimal.Decimal) decimal.Decimal {
	return value.Sub(value.Mul(SaleMarkdown))
}

// UnitPrice returns the price charged for a single unit of p.
func UnitPrice(p product.Product) decimal.Decimal {
	if p.IsSale {
		return Discounted(p.Value)
	}
	return p.Value
}

// LineTotal returns the price of quantity units of p. Quantity is not
// validated: zero yields zero and negative quantities yield negative totals.
func LineTotal(p product.Product, quantity int) decimal.Decimal {
	return UnitPrice(p).Mul(decimal.NewFromInt(int64(quantity)))
}

package order

// OrderItem represents a single line in an order: a product reference and
// the number of units requested. Neither field is validated.
type OrderItem struct {
	ProductID int64
	Quantity  int
}

// Order is an ordered sequence of line items.
type Order []OrderItem

// ProductIDs returns the product identifiers referenced by the order, in
// item order and with duplicates preserved.
func (o Order) ProductIDs() []int64 {
	ids := make([]int64, len(o))
	for i, item := range o {
		ids[i] = item.ProductID
	}
	return ids
}

package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/order-valuation/internal/domain/order"
)

// CalculateOrderValue values {"items":[{"productId":1,"quantity":2}]}.
func (h *Handler) CalculateOrderValue(w http.ResponseWriter, r *http.Request) {
	d, err := readBody(w, r)
	if err != nil {
		fail(w, r, err)
		return
	}

	var items []order.OrderItem
	if err := decodeObject(d, map[string]func(*jx.Decoder) error{
		"items": func(d *jx.Decoder) (err error) {
			items, err = decodeItems(d)
			return err
		},
	}); err != nil {
		fail(w, r, err)
		return
	}

	total, err := h.orders.CalculateOrderValue(r.Context(), items)
	if err != nil {
		fail(w, r, err)
		return
	}

	var e jx.Encoder
	encodeTotal(&e, total)
	writeJSON(w, http.StatusOK, &e)
}

// CalculateMultipleOrders values {"orders":[[...],[...]]} and returns the
// combined total.
func (h *Handler) CalculateMultipleOrders(w http.ResponseWriter, r *http.Request) {
	d, err := readBody(w, r)
	if err != nil {
		fail(w, r, err)
		return
	}

	var orders [][]order.OrderItem
	if err := decodeObject(d, map[string]func(*jx.Decoder) error{
		"orders": func(d *jx.Decoder) error {
			return d.Arr(func(d *jx.Decoder) error {
				items, err := decodeItems(d)
				if err != nil {
					return err
				}
				orders = append(orders, items)
				return nil
			})
		},
	}); err != nil {
		fail(w, r, err)
		return
	}

	total, err := h.orders.CalculateMultipleOrders(r.Context(), orders)
	if err != nil {
		fail(w, r, err)
		return
	}

	var e jx.Encoder
	encodeTotal(&e, total)
	writeJSON(w, http.StatusOK, &e)
}

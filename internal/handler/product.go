package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/order-valuation/internal/domain/product"
)

// GetProduct returns a single product by its path identifier.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "productId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	p, err := h.products.GetByID(r.Context(), id)
	if errors.Is(err, product.ErrNotFound) {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		fail(w, r, errors.Wrap(err, "get product"))
		return
	}

	var e jx.Encoder
	p.EncodeJSON(&e)
	writeJSON(w, http.StatusOK, &e)
}

// FindProducts resolves {"ids":[...]} to the known products, deduplicated.
func (h *Handler) FindProducts(w http.ResponseWriter, r *http.Request) {
	ids, err := decodeIDsRequest(w, r)
	if err != nil {
		fail(w, r, err)
		return
	}

	products, err := h.orders.FindProductsByID(r.Context(), ids)
	if err != nil {
		fail(w, r, err)
		return
	}

	var e jx.Encoder
	encodeProducts(&e, products)
	writeJSON(w, http.StatusOK, &e)
}

// GroupProductsBySale resolves {"ids":[...]} and partitions the products by
// sale flag. Keys with no products are omitted.
func (h *Handler) GroupProductsBySale(w http.ResponseWriter, r *http.Request) {
	ids, err := decodeIDsRequest(w, r)
	if err != nil {
		fail(w, r, err)
		return
	}

	groups, err := h.orders.GroupProductsBySale(r.Context(), ids)
	if err != nil {
		fail(w, r, err)
		return
	}

	var e jx.Encoder
	e.ObjStart()
	for _, flag := range []bool{false, true} {
		members, ok := groups[flag]
		if !ok {
			continue
		}
		e.FieldStart(strconv.FormatBool(flag))
		encodeProducts(&e, members)
	}
	e.ObjEnd()
	writeJSON(w, http.StatusOK, &e)
}

func decodeIDsRequest(w http.ResponseWriter, r *http.Request) ([]int64, error) {
	d, err := readBody(w, r)
	if err != nil {
		return nil, err
	}

	var ids []int64
	err = decodeObject(d, map[string]func(*jx.Decoder) error{
		"ids": func(d *jx.Decoder) (err error) {
			ids, err = decodeIDs(d)
			return err
		},
	})
	return ids, err
}

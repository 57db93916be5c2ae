// Package handler exposes the order valuation operations over HTTP.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/order-valuation/internal/domain/order"
	"github.com/xenking/order-valuation/internal/domain/product"
)

// maxBodySize bounds request bodies.
const maxBodySize = 1 << 20

// Handler serves the valuation API, delegating to the order service and
// product catalog.
type Handler struct {
	products product.Repository
	orders   *order.Service
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(products product.Repository, orders *order.Service) *Handler {
	return &Handler{
		products: products,
		orders:   orders,
	}
}

// Routes returns the API router, meant to be mounted under /api.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/product/{productId}", h.GetProduct)
	r.Post("/product/lookup", h.FindProducts)
	r.Post("/product/group-by-sale", h.GroupProductsBySale)
	r.Post("/order/value", h.CalculateOrderValue)
	r.Post("/orders/value", h.CalculateMultipleOrders)
	return r
}

// Package handler exposes the storefront and admin HTTP API.
package handler

import (
	"net/http"

	"github.com/xenking/teahouse-backend/internal/domain/checkout"
	"github.com/xenking/teahouse-backend/internal/domain/discount"
	"github.com/xenking/teahouse-backend/internal/domain/order"
	"github.com/xenking/teahouse-backend/internal/domain/product"
	"github.com/xenking/teahouse-backend/pkg/httpmiddleware"
)

// maxBodySize bounds request bodies; webhook payloads are the largest.
const maxBodySize = 1 << 20

// Handler serves the API routes on top of the domain managers.
type Handler struct {
	catalog   *product.Catalog
	discounts *discount.Manager
	orders    *order.Manager
	checkout  *checkout.Service
}

// NewHandler creates a Handler.
func NewHandler(
	catalog *product.Catalog,
	discounts *discount.Manager,
	orders *order.Manager,
	checkout *checkout.Service,
) *Handler {
	return &Handler{
		catalog:   catalog,
		discounts: discounts,
		orders:    orders,
		checkout:  checkout,
	}
}

// Register adds the API routes to mux. Admin routes are wrapped with admin.
func (h *Handler) Register(mux *http.ServeMux, admin httpmiddleware.Middleware) {
	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("POST /api/discounts/validate", h.validateDiscount)
	mux.HandleFunc("POST /api/create-payment-intent", h.createPaymentIntent)
	mux.HandleFunc("POST /api/orders", h.placeOrder)
	mux.HandleFunc("POST /api/webhook", h.webhook)

	adminRoutes := map[string]http.HandlerFunc{
		"GET /api/admin/products":             h.listProducts,
		"POST /api/admin/products":            h.upsertProduct,
		"DELETE /api/admin/products/{id}":     h.deleteProduct,
		"GET /api/admin/discounts":            h.listDiscounts,
		"POST /api/admin/discounts":           h.upsertDiscount,
		"DELETE /api/admin/discounts/{id}":    h.deleteDiscount,
		"GET /api/admin/orders":               h.listOrders,
		"PUT /api/admin/orders/{id}/status":   h.updateOrderStatus,
		"DELETE /api/admin/orders/{id}":       h.deleteOrder,
		"POST /api/admin/orders/complete-all": h.completeAllOrders,
	}
	for pattern, fn := range adminRoutes {
		mux.Handle(pattern, admin(fn))
	}
}

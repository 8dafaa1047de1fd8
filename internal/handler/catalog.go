package handler

import (
	"net/http"

	"github.com/xenking/teahouse-backend/internal/domain/discount"
	"github.com/xenking/teahouse-backend/internal/domain/product"
)

// upsertStatus is 201 for a created record and 200 for an update.
func upsertStatus(id *int) int {
	if id == nil {
		return http.StatusCreated
	}
	return http.StatusOK
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	products, err := h.catalog.List(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, products)
}

func (h *Handler) upsertProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req struct {
		ID *int `json:"id"`
		product.Input
	}
	if err := decode(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	saved, err := h.catalog.Upsert(ctx, req.Input, req.ID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, upsertStatus(req.ID), saved)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.catalog.Delete(ctx, id); err != nil {
		writeError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listDiscounts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	discounts, err := h.discounts.List(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, discounts)
}

func (h *Handler) upsertDiscount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req struct {
		ID *int `json:"id"`
		discount.Input
	}
	if err := decode(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	saved, err := h.discounts.Upsert(ctx, req.Input, req.ID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, upsertStatus(req.ID), saved)
}

func (h *Handler) deleteDiscount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.discounts.Delete(ctx, id); err != nil {
		writeError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/teahouse-backend/internal/domain/order"
)

type validateDiscountRequest struct {
	Code       string          `json:"code"`
	OrderTotal decimal.Decimal `json:"orderTotal"`
}

func (h *Handler) validateDiscount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req validateDiscountRequest
	if err := decode(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.discounts.Validate(ctx, req.Code, req.OrderTotal)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, result)
}

type paymentIntentRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

type paymentIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

func (h *Handler) createPaymentIntent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req paymentIntentRequest
	if err := decode(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	intent, err := h.checkout.CreatePaymentIntent(ctx, req.Amount, req.Currency)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, paymentIntentResponse{ClientSecret: intent.ClientSecret})
}

type placeOrderRequest struct {
	Items           []json.RawMessage `json:"items"`
	Total           decimal.Decimal   `json:"total"`
	CustomerInfo    json.RawMessage   `json:"customerInfo"`
	PaymentIntentID string            `json:"paymentIntentId"`
	ChairNumber     string            `json:"chairNumber"`
	DiscountCode    string            `json:"discountCode"`
}

type placeOrderResponse struct {
	ID int `json:"id"`
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req placeOrderRequest
	if err := decode(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	id, err := h.checkout.PlaceOrder(ctx, order.CreateRequest{
		Items:           req.Items,
		Total:           req.Total,
		CustomerInfo:    req.CustomerInfo,
		PaymentIntentID: req.PaymentIntentID,
		ChairNumber:     req.ChairNumber,
		DiscountCode:    req.DiscountCode,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusCreated, placeOrderResponse{ID: id})
}

func (h *Handler) webhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		writeError(ctx, w, errors.Wrap(errBadBody, err.Error()))
		return
	}

	if _, err := h.checkout.HandleEvent(ctx, payload, r.Header.Get("Stripe-Signature")); err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, map[string]bool{"received": true})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orders, err := h.orders.List(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, orders)
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	var req struct {
		Status order.Status `json:"status"`
	}
	if err := decode(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.orders.UpdateStatus(ctx, id, req.Status); err != nil {
		writeError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.orders.Delete(ctx, id); err != nil {
		writeError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type completeAllResponse struct {
	Completed int `json:"completed"`
}

func (h *Handler) completeAllOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	n, err := h.orders.BulkComplete(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, completeAllResponse{Completed: n})
}

package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/go_storefront/internal/payment"
	"github.com/fjod/go_storefront/internal/service"
	"github.com/go-chi/chi/v5"
)

type OrdersHandler struct {
	storefront *service.Storefront
	timeout    time.Duration
}

func NewOrdersHandler(storefront *service.Storefront, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		storefront: storefront,
		timeout:    timeout,
	}
}

type CheckoutRequestDTO struct {
	Payment payment.Details `json:"payment"`
}

type CheckoutResponseDTO struct {
	OrderID int64   `json:"order_id"`
	Total   float64 `json:"total"`
	Status  string  `json:"status"`
}

type CancelResponseDTO struct {
	OrderID   int64  `json:"order_id"`
	Cancelled bool   `json:"cancelled"`
	Status    string `json:"status"`
}

type OrderStatusResponseDTO struct {
	OrderID int64  `json:"order_id"`
	Status  string `json:"status"`
}

func (h *OrdersHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	token := getSessionToken(r.Context())
	if token == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing session token")
		return
	}

	var req CheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Payment.CardNumber == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "payment card_number is required")
		return
	}

	order, err := h.storefront.Checkout(ctx, token, req.Payment)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, CheckoutResponseDTO{
		OrderID: order.ID,
		Total:   order.Total,
		Status:  order.Status.String(),
	})
}

func (h *OrdersHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, ok := orderIDFromURL(w, r)
	if !ok {
		return
	}

	cancelled, err := h.storefront.CancelOrder(ctx, orderID)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, CancelResponseDTO{
		OrderID:   orderID,
		Cancelled: cancelled,
		Status:    h.storefront.OrderStatus(orderID).String(),
	})
}

// Status is a lenient read: ids that were never issued answer 200 with
// the Unknown sentinel instead of 404, so pollers stay simple.
func (h *OrdersHandler) Status(w http.ResponseWriter, r *http.Request) {
	orderID, ok := orderIDFromURL(w, r)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, OrderStatusResponseDTO{
		OrderID: orderID,
		Status:  h.storefront.OrderStatus(orderID).String(),
	})
}

func orderIDFromURL(w http.ResponseWriter, r *http.Request) (int64, bool) {
	orderIDStr := chi.URLParam(r, "order_id")
	orderID, err := strconv.ParseInt(orderIDStr, 10, 64)
	if err != nil || orderID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order_id must be a positive integer")
		return 0, false
	}
	return orderID, true
}

package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/fjod/go_storefront/internal/service"
)

type CartHandler struct {
	storefront *service.Storefront
	timeout    time.Duration
}

func NewCartHandler(storefront *service.Storefront, timeout time.Duration) *CartHandler {
	return &CartHandler{
		storefront: storefront,
		timeout:    timeout,
	}
}

type AddItemRequestDTO struct {
	ItemID   int64 `json:"item_id"`
	Quantity int   `json:"quantity"`
}

type ApplyCouponRequestDTO struct {
	Code string `json:"code"`
}

type ApplyCouponResponseDTO struct {
	Code            string  `json:"code"`
	DiscountedTotal float64 `json:"discounted_total"`
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	token := getSessionToken(r.Context())
	if token == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing session token")
		return
	}

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ItemID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_item_id", "item_id must be positive")
		return
	}
	if req.Quantity <= 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	if err := h.storefront.AddToCart(ctx, token, req.ItemID, req.Quantity); err != nil {
		handleDomainError(w, err)
		return
	}

	view, err := h.storefront.GetCart(ctx, token)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, view)
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	token := getSessionToken(r.Context())
	if token == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing session token")
		return
	}

	view, err := h.storefront.GetCart(ctx, token)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *CartHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	token := getSessionToken(r.Context())
	if token == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing session token")
		return
	}

	var req ApplyCouponRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Code == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "coupon code is required")
		return
	}

	discounted, err := h.storefront.ApplyCoupon(token, req.Code)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, ApplyCouponResponseDTO{
		Code:            req.Code,
		DiscountedTotal: discounted,
	})
}

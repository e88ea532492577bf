package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/fjod/go_storefront/internal/coupon"
	"github.com/fjod/go_storefront/internal/service"
	"github.com/fjod/go_storefront/internal/store"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: "",
	})
}

// handleDomainError maps the engine's sentinel errors to HTTP statuses.
func handleDomainError(w http.ResponseWriter, err error) {
	var httpStatus int
	var code string

	switch {
	case errors.Is(err, store.ErrAuthentication):
		httpStatus = http.StatusUnauthorized
		code = "invalid_credentials"
	case errors.Is(err, store.ErrInvalidSession):
		httpStatus = http.StatusUnauthorized
		code = "invalid_session"
	case errors.Is(err, store.ErrInvalidItem):
		httpStatus = http.StatusNotFound
		code = "item_not_found"
	case errors.Is(err, store.ErrInsufficientStock):
		httpStatus = http.StatusConflict
		code = "insufficient_stock"
	case errors.Is(err, store.ErrEmptyCart):
		httpStatus = http.StatusBadRequest
		code = "empty_cart"
	case errors.Is(err, store.ErrUnknownOrder):
		httpStatus = http.StatusNotFound
		code = "order_not_found"
	case errors.Is(err, coupon.ErrInvalidCoupon):
		httpStatus = http.StatusBadRequest
		code = "invalid_coupon"
	case errors.Is(err, service.ErrPaymentFailed):
		httpStatus = http.StatusPaymentRequired
		code = "payment_declined"
	default:
		httpStatus = http.StatusInternalServerError
		code = "internal_error"
	}

	respondError(w, httpStatus, code, err.Error())
}

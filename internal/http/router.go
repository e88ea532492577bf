package http

import (
	"net/http"
	"time"

	"github.com/fjod/go_storefront/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the storefront handlers into a chi router with the
// shared middleware stack. cmd/storefront serves this; tests drive it
// with httptest.
func NewRouter(storefront *service.Storefront, timeout time.Duration) chi.Router {
	sessionHandler := NewSessionHandler(storefront)
	catalogHandler := NewCatalogHandler(storefront)
	cartHandler := NewCartHandler(storefront, timeout)
	ordersHandler := NewOrdersHandler(storefront, timeout)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Timeout(timeout))
	r.Use(middleware.Compress(5))
	r.Use(SessionTokenMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/login", sessionHandler.Login)
		r.Get("/items", catalogHandler.Search)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Post("/items", cartHandler.AddItem)
			r.Post("/coupon", cartHandler.ApplyCoupon)
		})

		r.Post("/checkout", ordersHandler.Checkout)
		r.Route("/orders", func(r chi.Router) {
			r.Post("/{order_id}/cancel", ordersHandler.Cancel)
			r.Get("/{order_id}/status", ordersHandler.Status)
		})
	})

	return r
}

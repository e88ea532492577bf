package http

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// SessionTokenMiddleware lifts the opaque session token from the
// X-Session-Token header into the request context. Handlers decide
// whether a missing token matters; login and search work without one.
func SessionTokenMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("X-Session-Token")
		ctx := context.WithValue(r.Context(), "session_token", token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := context.WithValue(r.Context(), "request_id", requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getSessionToken(ctx context.Context) string {
	if token, ok := ctx.Value("session_token").(string); ok {
		return token
	}
	return ""
}

package cache

import (
	"context"
	"errors"

	"github.com/fjod/go_storefront/internal/domain"
)

// CartCache is a read accelerator for rendered cart views, keyed by
// session token. The store stays authoritative; a broken cache must never
// break the storefront.
type CartCache interface {
	Get(ctx context.Context, token string) (*domain.CartView, error)
	Set(ctx context.Context, token string, view *domain.CartView) error
	Delete(ctx context.Context, token string) error
}

var ErrCacheMiss = errors.New("cache miss")

package cache

import (
	"context"

	"github.com/fjod/go_storefront/internal/domain"
)

// Noop is used when no Redis is configured: every read misses, writes and
// invalidations succeed silently.
type Noop struct{}

func (Noop) Get(context.Context, string) (*domain.CartView, error) {
	return nil, ErrCacheMiss
}

func (Noop) Set(context.Context, string, *domain.CartView) error { return nil }

func (Noop) Delete(context.Context, string) error { return nil }

package payment

import (
	"context"

	"github.com/sony/gobreaker/v2"
)

// BreakerGateway wraps a Gateway with a circuit breaker so a flapping
// payment provider fails fast instead of stalling every checkout.
// Declines are business outcomes and do not trip the breaker; only
// transport errors count as failures.
type BreakerGateway struct {
	inner   Gateway
	breaker *gobreaker.CircuitBreaker[bool]
}

func NewBreakerGateway(inner Gateway, name string) *BreakerGateway {
	settings := gobreaker.Settings{Name: name}
	return &BreakerGateway{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker[bool](settings),
	}
}

func (g *BreakerGateway) Process(ctx context.Context, details Details, amount float64) (bool, error) {
	return g.breaker.Execute(func() (bool, error) {
		return g.inner.Process(ctx, details, amount)
	})
}

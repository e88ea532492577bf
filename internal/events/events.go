package events

import (
	"context"
	"log"
	"time"
)

type EventType string

const (
	OrderConfirmed EventType = "order.confirmed"
	OrderCancelled EventType = "order.cancelled"
)

// OrderEvent is the payload published after an order changes state.
// Publishing happens after the store commit and is best effort; downstream
// consumers (fulfilment, analytics) must tolerate gaps.
type OrderEvent struct {
	Type       EventType     `json:"type"`
	OrderID    int64         `json:"order_id"`
	User       string        `json:"user"`
	Items      map[int64]int `json:"items"`
	Total      float64       `json:"total"`
	OccurredAt time.Time     `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
}

// LogPublisher is the default sink when no broker is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, event OrderEvent) error {
	log.Printf("order event: type=%s order_id=%d user=%s total=%.2f", event.Type, event.OrderID, event.User, event.Total)
	return nil
}

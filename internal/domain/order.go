package domain

type OrderStatus string

const (
	OrderStatusConfirmed OrderStatus = "Confirmed"
	OrderStatusCancelled OrderStatus = "Cancelled"

	// OrderStatusUnknown is returned by status lookups for ids that were
	// never issued; status polling is lenient and never errors.
	OrderStatusUnknown OrderStatus = "Unknown"
)

func (s OrderStatus) String() string {
	return string(s)
}

// Order is an immutable snapshot of a completed checkout. Only Status
// changes after creation, and only Confirmed -> Cancelled, exactly once.
type Order struct {
	ID     int64         `json:"id"`
	Items  map[int64]int `json:"items"` // item id -> quantity at checkout
	Total  float64       `json:"total"` // price-at-checkout with coupon applied
	Status OrderStatus   `json:"status"`
}

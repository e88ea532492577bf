package domain

// CartLine is one rendered cart row priced from the live catalog.
type CartLine struct {
	ItemID    int64   `json:"item_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Subtotal  float64 `json:"subtotal"`
}

// CartView is the read-model for a session's cart, built on demand and
// suitable for caching. Total is always recomputed from current prices,
// never stored at add-to-cart time.
type CartView struct {
	Token string     `json:"token"`
	User  string     `json:"user"`
	Lines []CartLine `json:"lines"`
	Total float64    `json:"total"`
}

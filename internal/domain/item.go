package domain

// Item is a catalog entry. Stock is decremented at checkout and restored
// when an order is cancelled; it never goes negative.
type Item struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Stock int     `json:"stock"`
}

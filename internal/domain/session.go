package domain

// Session holds one logged-in user's shopping state. Sessions live for the
// process lifetime; there is no logout or expiry.
type Session struct {
	Token  string
	User   string
	Cart   map[int64]int // item id -> quantity, quantity >= 1
	Orders []int64       // order ids in checkout order
	Coupon string        // last applied coupon code, empty if none
}

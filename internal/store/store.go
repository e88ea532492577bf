package store

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/fjod/go_storefront/internal/domain"
)

// Common errors returned by the store
var (
	ErrAuthentication    = errors.New("invalid username or password")
	ErrInvalidSession    = errors.New("unknown session token")
	ErrInvalidItem       = errors.New("item not found in catalog")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrEmptyCart         = errors.New("cart is empty, nothing to checkout")
	ErrUnknownOrder      = errors.New("order not found")
)

// Store is the in-memory home of the catalog, sessions and the order
// ledger. It is injectable so tests can run independent storefronts in
// parallel; nothing in here is process-global.
type Store struct {
	mu       sync.RWMutex
	items    map[int64]*domain.Item
	users    map[string]string // username -> password
	sessions map[string]*domain.Session
	orders   map[int64]*domain.Order

	sessionSeq int64
	orderSeq   int64
}

func New() *Store {
	return &Store{
		items:    make(map[int64]*domain.Item),
		users:    make(map[string]string),
		sessions: make(map[string]*domain.Session),
		orders:   make(map[int64]*domain.Order),
	}
}

// SetItem inserts or replaces a catalog entry. Used at seeding time.
func (s *Store) SetItem(item domain.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := item
	s.items[item.ID] = &copied
}

// AddUser registers login credentials. Used at seeding time.
func (s *Store) AddUser(username, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = password
}

// Login checks credentials and mints a new session with an empty cart.
// Tokens come from a monotonic counter and are never reused.
func (s *Store) Login(username, password string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.users[username]
	if !ok || stored != password {
		return nil, ErrAuthentication
	}

	s.sessionSeq++
	session := &domain.Session{
		Token: fmt.Sprintf("session_%d", s.sessionSeq),
		User:  username,
		Cart:  make(map[int64]int),
	}
	s.sessions[session.Token] = session
	return copySession(session), nil
}

// Search returns catalog items whose name contains the query,
// case-insensitively. Out-of-stock items are included on purpose: search
// reflects the catalog, availability is checked at add-to-cart time.
func (s *Store) Search(query string) []domain.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(query)
	var result []domain.Item
	for _, item := range s.items {
		if strings.Contains(strings.ToLower(item.Name), q) {
			result = append(result, *item)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Item returns a catalog entry by id.
func (s *Store) Item(id int64) (domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return domain.Item{}, ErrInvalidItem
	}
	return *item, nil
}

// Session returns a copy of the session for the given token.
func (s *Store) Session(token string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[token]
	if !ok {
		return nil, ErrInvalidSession
	}
	return copySession(session), nil
}

// AddToCart puts qty units of an item into the session's cart. The stock
// check covers this call's quantity against current stock only, not the
// cart's cumulative quantity; repeat calls are additive.
func (s *Store) AddToCart(token string, itemID int64, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok {
		return ErrInvalidSession
	}
	item, ok := s.items[itemID]
	if !ok {
		return ErrInvalidItem
	}
	if qty > item.Stock {
		return fmt.Errorf("%w: want %d of item %d, have %d", ErrInsufficientStock, qty, itemID, item.Stock)
	}

	session.Cart[itemID] += qty
	return nil
}

// CartTotal sums price x quantity over the cart using live catalog
// prices. Pure read, no side effects.
func (s *Store) CartTotal(token string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[token]
	if !ok {
		return 0, ErrInvalidSession
	}
	return s.totalLocked(session.Cart), nil
}

// SetCoupon records code as the session's last applied coupon. The cart
// and any stored totals are untouched; the code is advisory until
// checkout re-applies it to a fresh total.
func (s *Store) SetCoupon(token, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok {
		return ErrInvalidSession
	}
	session.Coupon = code
	return nil
}

// CartSnapshot copies the cart contents and computes the pre-discount
// total, rejecting empty carts and carts whose cumulative quantities
// exceed current stock. The snapshot is what checkout commits, so stock
// can never be driven negative by a commit.
func (s *Store) CartSnapshot(token string) (map[int64]int, float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[token]
	if !ok {
		return nil, 0, ErrInvalidSession
	}
	if len(session.Cart) == 0 {
		return nil, 0, ErrEmptyCart
	}
	for itemID, qty := range session.Cart {
		item, ok := s.items[itemID]
		if !ok {
			return nil, 0, ErrInvalidItem
		}
		if qty > item.Stock {
			return nil, 0, fmt.Errorf("%w: cart holds %d of item %d, stock is %d", ErrInsufficientStock, qty, itemID, item.Stock)
		}
	}

	items := make(map[int64]int, len(session.Cart))
	for itemID, qty := range session.Cart {
		items[itemID] = qty
	}
	return items, s.totalLocked(session.Cart), nil
}

// CommitOrder finalizes a paid checkout: allocates the next order id,
// stores the Confirmed order snapshot, decrements stock for every line,
// clears the cart and appends the id to the session's history. One
// critical section, so callers never observe a partial commit.
func (s *Store) CommitOrder(token string, items map[int64]int, total float64) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok {
		return nil, ErrInvalidSession
	}
	for itemID, qty := range items {
		item, ok := s.items[itemID]
		if !ok {
			return nil, ErrInvalidItem
		}
		if qty > item.Stock {
			return nil, fmt.Errorf("%w: committing %d of item %d, stock is %d", ErrInsufficientStock, qty, itemID, item.Stock)
		}
	}

	s.orderSeq++
	order := &domain.Order{
		ID:     s.orderSeq,
		Items:  make(map[int64]int, len(items)),
		Total:  total,
		Status: domain.OrderStatusConfirmed,
	}
	for itemID, qty := range items {
		order.Items[itemID] = qty
		s.items[itemID].Stock -= qty
	}
	s.orders[order.ID] = order

	session.Cart = make(map[int64]int)
	session.Orders = append(session.Orders, order.ID)

	return copyOrder(order), nil
}

// CancelOrder restocks every line item and flips the order to Cancelled.
// Cancelling an already cancelled order is a no-op reporting false, so a
// double cancel never double-restocks.
func (s *Store) CancelOrder(id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return false, ErrUnknownOrder
	}
	if order.Status == domain.OrderStatusCancelled {
		return false, nil
	}

	for itemID, qty := range order.Items {
		if item, ok := s.items[itemID]; ok {
			item.Stock += qty
		}
	}
	order.Status = domain.OrderStatusCancelled
	return true, nil
}

// OrderStatus is a lenient read: unknown ids report OrderStatusUnknown
// instead of failing, keeping status polling side-effect free.
func (s *Store) OrderStatus(id int64) domain.OrderStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[id]
	if !ok {
		return domain.OrderStatusUnknown
	}
	return order.Status
}

// Order returns a copy of an order by id.
func (s *Store) Order(id int64) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, ErrUnknownOrder
	}
	return copyOrder(order), nil
}

func (s *Store) totalLocked(cart map[int64]int) float64 {
	var total float64
	for itemID, qty := range cart {
		if item, ok := s.items[itemID]; ok {
			total += item.Price * float64(qty)
		}
	}
	return total
}

func copySession(session *domain.Session) *domain.Session {
	copied := &domain.Session{
		Token:  session.Token,
		User:   session.User,
		Cart:   make(map[int64]int, len(session.Cart)),
		Coupon: session.Coupon,
	}
	for itemID, qty := range session.Cart {
		copied.Cart[itemID] = qty
	}
	copied.Orders = append(copied.Orders, session.Orders...)
	return copied
}

func copyOrder(order *domain.Order) *domain.Order {
	copied := &domain.Order{
		ID:     order.ID,
		Items:  make(map[int64]int, len(order.Items)),
		Total:  order.Total,
		Status: order.Status,
	}
	for itemID, qty := range order.Items {
		copied.Items[itemID] = qty
	}
	return copied
}

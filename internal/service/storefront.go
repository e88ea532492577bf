package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/fjod/go_storefront/internal/cache"
	"github.com/fjod/go_storefront/internal/coupon"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/events"
	"github.com/fjod/go_storefront/internal/payment"
	"github.com/fjod/go_storefront/internal/store"
	"golang.org/x/sync/singleflight"
)

// ErrPaymentFailed marks a gateway decline. It is kept separate from the
// local validation errors because it reflects the external collaborator's
// decision, not a precondition of ours.
var ErrPaymentFailed = errors.New("payment was declined by the gateway")

// Storefront orchestrates the store, coupon registry, payment gateway,
// cart cache and event publisher behind the public storefront operations.
type Storefront struct {
	store     *store.Store
	coupons   *coupon.Registry
	gateway   payment.Gateway
	cache     cache.CartCache
	publisher events.Publisher
	sfg       singleflight.Group // Prevents cache stampede on cart reads

	// mu serializes checkout and cancel so the five checkout effects are
	// atomic from the caller's point of view and stock stays consistent.
	mu sync.Mutex
}

func NewStorefront(
	st *store.Store,
	coupons *coupon.Registry,
	gateway payment.Gateway,
	cartCache cache.CartCache,
	publisher events.Publisher,
) *Storefront {
	return &Storefront{
		store:     st,
		coupons:   coupons,
		gateway:   gateway,
		cache:     cartCache,
		publisher: publisher,
	}
}

func (s *Storefront) Login(username, password string) (*domain.Session, error) {
	return s.store.Login(username, password)
}

func (s *Storefront) Search(query string) []domain.Item {
	return s.store.Search(query)
}

func (s *Storefront) AddToCart(ctx context.Context, token string, itemID int64, qty int) error {
	if qty < 1 {
		qty = 1
	}
	if err := s.store.AddToCart(token, itemID, qty); err != nil {
		return err
	}

	s.invalidateCache(token)
	return nil
}

func (s *Storefront) CartTotal(token string) (float64, error) {
	return s.store.CartTotal(token)
}

// ApplyCoupon computes the discounted total from the current cart total
// and records code as the session's last applied coupon. The result is
// advisory: checkout re-applies the coupon to a fresh total, and applying
// a different code later simply replaces the first. No stacking.
func (s *Storefront) ApplyCoupon(token, code string) (float64, error) {
	rule, err := s.coupons.Get(code)
	if err != nil {
		return 0, err
	}

	total, err := s.store.CartTotal(token)
	if err != nil {
		return 0, err
	}
	if err := s.store.SetCoupon(token, code); err != nil {
		return 0, err
	}
	return rule.Apply(total), nil
}

// GetCart builds the rendered cart view, read-through cached. Cache
// failures are logged and the store answers instead.
func (s *Storefront) GetCart(ctx context.Context, token string) (*domain.CartView, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same token
	v, err, _ := s.sfg.Do(token, func() (interface{}, error) {

		view, err := s.cache.Get(ctx, token)
		if err == nil {
			return view, nil // view is in cache
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("cache get error: %v \n", err) // log cache error but continue
		}

		view, errBuild := s.buildCartView(token)
		if errBuild != nil {
			return nil, errBuild
		}

		// set cache
		go func() {
			errSet := s.cache.Set(context.Background(), token, view)
			if errSet != nil {
				log.Printf("cache set error: %v \n", errSet)
			}
		}()

		return view, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.CartView), nil
}

// Checkout runs the whole flow: validate the session and cart, re-apply
// the last coupon to a freshly computed total, charge the gateway, then
// commit. A decline or any validation failure leaves cart, stock and the
// order ledger exactly as they were.
func (s *Storefront) Checkout(ctx context.Context, token string, details payment.Details) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, total, err := s.store.CartSnapshot(token)
	if err != nil {
		return nil, err
	}

	session, err := s.store.Session(token)
	if err != nil {
		return nil, err
	}
	if session.Coupon != "" {
		rule, errCoupon := s.coupons.Get(session.Coupon)
		if errCoupon != nil {
			return nil, errCoupon
		}
		total = rule.Apply(total)
	}

	accepted, err := s.gateway.Process(ctx, details, total)
	if err != nil {
		return nil, fmt.Errorf("payment gateway call failed: %w", err)
	}
	if !accepted {
		return nil, ErrPaymentFailed
	}

	order, err := s.store.CommitOrder(token, items, total)
	if err != nil {
		return nil, err
	}

	s.invalidateCache(token)
	s.publish(ctx, events.OrderEvent{
		Type:       events.OrderConfirmed,
		OrderID:    order.ID,
		User:       session.User,
		Items:      order.Items,
		Total:      order.Total,
		OccurredAt: time.Now(),
	})

	return order, nil
}

// CancelOrder restocks and flips the order to Cancelled. It reports false
// without error when the order was already cancelled.
func (s *Storefront) CancelOrder(ctx context.Context, orderID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cancelled, err := s.store.CancelOrder(orderID)
	if err != nil || !cancelled {
		return cancelled, err
	}

	order, err := s.store.Order(orderID)
	if err != nil {
		return true, nil // cancelled fine, event payload unavailable
	}
	s.publish(ctx, events.OrderEvent{
		Type:       events.OrderCancelled,
		OrderID:    order.ID,
		Items:      order.Items,
		Total:      order.Total,
		OccurredAt: time.Now(),
	})
	return true, nil
}

func (s *Storefront) OrderStatus(orderID int64) domain.OrderStatus {
	return s.store.OrderStatus(orderID)
}

func (s *Storefront) Order(orderID int64) (*domain.Order, error) {
	return s.store.Order(orderID)
}

func (s *Storefront) buildCartView(token string) (*domain.CartView, error) {
	session, err := s.store.Session(token)
	if err != nil {
		return nil, err
	}

	view := &domain.CartView{
		Token: session.Token,
		User:  session.User,
	}
	for itemID, qty := range session.Cart {
		item, errItem := s.store.Item(itemID)
		if errItem != nil {
			return nil, errItem
		}
		line := domain.CartLine{
			ItemID:    item.ID,
			Name:      item.Name,
			Quantity:  qty,
			UnitPrice: item.Price,
			Subtotal:  item.Price * float64(qty),
		}
		view.Lines = append(view.Lines, line)
		view.Total += line.Subtotal
	}
	sort.Slice(view.Lines, func(i, j int) bool { return view.Lines[i].ItemID < view.Lines[j].ItemID })
	return view, nil
}

func (s *Storefront) publish(ctx context.Context, event events.OrderEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Printf("publish order event error: %v \n", err)
	}
}

func (s *Storefront) invalidateCache(token string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	errInvalidate := s.cache.Delete(ctx, token)
	if errInvalidate != nil {
		log.Printf("cache invalidate error: %v \n", errInvalidate)
	}
}

package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_storefront/internal/cache"
	"github.com/fjod/go_storefront/internal/coupon"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/events"
	"github.com/fjod/go_storefront/internal/payment"
	"github.com/fjod/go_storefront/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCache struct {
	m    sync.RWMutex
	view *domain.CartView
	err  error
}

func (m *mockCache) Get(context.Context, string) (*domain.CartView, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.view == nil {
		return nil, cache.ErrCacheMiss
	}
	return m.view, nil
}

func (m *mockCache) Set(_ context.Context, _ string, view *domain.CartView) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.view = view
	return nil
}

func (m *mockCache) Delete(context.Context, string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.view = nil
	return nil
}

func (m *mockCache) getView() *domain.CartView {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.view
}

type recordingPublisher struct {
	m      sync.Mutex
	events []events.OrderEvent
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, event events.OrderEvent) error {
	r.m.Lock()
	defer r.m.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, event)
	return nil
}

func (r *recordingPublisher) published() []events.OrderEvent {
	r.m.Lock()
	defer r.m.Unlock()
	return append([]events.OrderEvent(nil), r.events...)
}

type stubGateway struct {
	accepted bool
	err      error
	amounts  []float64
}

func (g *stubGateway) Process(_ context.Context, _ payment.Details, amount float64) (bool, error) {
	g.amounts = append(g.amounts, amount)
	return g.accepted, g.err
}

func newTestStorefront(gateway payment.Gateway) (*Storefront, *store.Store, *mockCache, *recordingPublisher) {
	st := store.New()
	st.SetItem(domain.Item{ID: 1, Name: "Smartphone X Pro", Price: 15000.0, Stock: 10})
	st.SetItem(domain.Item{ID: 2, Name: "Wireless Earbuds", Price: 1500.0, Stock: 0})
	st.SetItem(domain.Item{ID: 3, Name: "Laptop Alpha", Price: 55000.0, Stock: 5})
	st.SetItem(domain.Item{ID: 4, Name: "Coffee Maker", Price: 3500.0, Stock: 3})
	st.SetItem(domain.Item{ID: 5, Name: "Phone Cover - Blue", Price: 299.0, Stock: 100})
	st.AddUser("alice", "alicepwd")

	mc := &mockCache{}
	pub := &recordingPublisher{}
	sut := NewStorefront(st, coupon.Defaults(), gateway, mc, pub)
	return sut, st, mc, pub
}

func loggedIn(t *testing.T, sut *Storefront) string {
	t.Helper()
	session, err := sut.Login("alice", "alicepwd")
	require.NoError(t, err)
	return session.Token
}

var goodCard = payment.Details{CardNumber: "4111222233334444"}

func TestCheckout_HappyPath(t *testing.T) {
	sut, st, _, pub := newTestStorefront(&stubGateway{accepted: true})
	token := loggedIn(t, sut)
	ctx := context.Background()

	require.NoError(t, sut.AddToCart(ctx, token, 4, 1))
	order, err := sut.Checkout(ctx, token, goodCard)
	require.NoError(t, err)

	assert.Equal(t, int64(1), order.ID)
	assert.Equal(t, domain.OrderStatusConfirmed, order.Status)
	assert.InDelta(t, 3500.0, order.Total, 0.001)
	assert.Equal(t, domain.OrderStatusConfirmed, sut.OrderStatus(order.ID))

	total, err := sut.CartTotal(token)
	require.NoError(t, err)
	assert.Zero(t, total)

	item, err := st.Item(4)
	require.NoError(t, err)
	assert.Equal(t, 2, item.Stock)

	published := pub.published()
	require.Len(t, published, 1)
	assert.Equal(t, events.OrderConfirmed, published[0].Type)
	assert.Equal(t, order.ID, published[0].OrderID)
	assert.Equal(t, "alice", published[0].User)
}

func TestCheckout_PaymentDeclinedIsAllOrNothing(t *testing.T) {
	sut, st, _, pub := newTestStorefront(&stubGateway{accepted: false})
	token := loggedIn(t, sut)
	ctx := context.Background()

	require.NoError(t, sut.AddToCart(ctx, token, 1, 2))

	_, err := sut.Checkout(ctx, token, payment.Details{CardNumber: "5111000000000000"})
	assert.ErrorIs(t, err, ErrPaymentFailed)

	// cart, stock and ledger untouched, so the retry below succeeds
	total, err := sut.CartTotal(token)
	require.NoError(t, err)
	assert.InDelta(t, 30000.0, total, 0.001)

	item, err := st.Item(1)
	require.NoError(t, err)
	assert.Equal(t, 10, item.Stock)

	assert.Equal(t, domain.OrderStatusUnknown, sut.OrderStatus(1))
	assert.Empty(t, pub.published())
}

func TestCheckout_GatewayTransportError(t *testing.T) {
	sut, _, _, _ := newTestStorefront(&stubGateway{err: errors.New("connection reset")})
	token := loggedIn(t, sut)
	ctx := context.Background()

	require.NoError(t, sut.AddToCart(ctx, token, 5, 1))
	_, err := sut.Checkout(ctx, token, goodCard)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPaymentFailed)

	total, errTotal := sut.CartTotal(token)
	require.NoError(t, errTotal)
	assert.InDelta(t, 299.0, total, 0.001)
}

func TestCheckout_EmptyCart(t *testing.T) {
	sut, _, _, _ := newTestStorefront(&stubGateway{accepted: true})
	token := loggedIn(t, sut)

	_, err := sut.Checkout(context.Background(), token, goodCard)
	assert.ErrorIs(t, err, store.ErrEmptyCart)
}

func TestCheckout_UnknownSession(t *testing.T) {
	sut, _, _, _ := newTestStorefront(&stubGateway{accepted: true})
	_, err := sut.Checkout(context.Background(), "session_404", goodCard)
	assert.ErrorIs(t, err, store.ErrInvalidSession)
}

func TestCheckout_ReappliesCouponToFreshTotal(t *testing.T) {
	gateway := &stubGateway{accepted: true}
	sut, _, _, _ := newTestStorefront(gateway)
	token := loggedIn(t, sut)
	ctx := context.Background()

	// apply PERC10 while only 2 covers are in the cart (598.0: below the
	// threshold at that moment)
	require.NoError(t, sut.AddToCart(ctx, token, 5, 2))
	advisory, err := sut.ApplyCoupon(token, "PERC10")
	require.NoError(t, err)
	assert.InDelta(t, 598.0, advisory, 0.001)

	// two more covers push the fresh total to 1196.0, so the coupon must
	// bite at checkout time
	require.NoError(t, sut.AddToCart(ctx, token, 5, 2))
	order, err := sut.Checkout(ctx, token, goodCard)
	require.NoError(t, err)

	assert.InDelta(t, 1076.4, order.Total, 0.001)
	require.Len(t, gateway.amounts, 1)
	assert.InDelta(t, 1076.4, gateway.amounts[0], 0.001)
}

func TestApplyCoupon_AdvisoryAndOverwriting(t *testing.T) {
	sut, st, _, _ := newTestStorefront(&stubGateway{accepted: true})
	token := loggedIn(t, sut)
	ctx := context.Background()

	require.NoError(t, sut.AddToCart(ctx, token, 4, 1))

	discounted, err := sut.ApplyCoupon(token, "FLAT50")
	require.NoError(t, err)
	assert.InDelta(t, 3450.0, discounted, 0.001)

	// advisory only: the stored cart total is untouched
	total, err := sut.CartTotal(token)
	require.NoError(t, err)
	assert.InDelta(t, 3500.0, total, 0.001)

	// a second code replaces the first, no stacking
	discounted, err = sut.ApplyCoupon(token, "PERC10")
	require.NoError(t, err)
	assert.InDelta(t, 3150.0, discounted, 0.001)

	session, err := st.Session(token)
	require.NoError(t, err)
	assert.Equal(t, "PERC10", session.Coupon)
}

func TestApplyCoupon_UnknownCode(t *testing.T) {
	sut, _, _, _ := newTestStorefront(&stubGateway{accepted: true})
	token := loggedIn(t, sut)

	_, err := sut.ApplyCoupon(token, "BOGUS99")
	assert.ErrorIs(t, err, coupon.ErrInvalidCoupon)
}

func TestCheckout_CouponStaysOnSession(t *testing.T) {
	// Clearing the cart is one of the five checkout effects; the last
	// applied coupon is not, so it keeps discounting later checkouts on
	// the same session.
	gateway := &stubGateway{accepted: true}
	sut, _, _, _ := newTestStorefront(gateway)
	token := loggedIn(t, sut)
	ctx := context.Background()

	require.NoError(t, sut.AddToCart(ctx, token, 4, 1))
	_, err := sut.ApplyCoupon(token, "FLAT50")
	require.NoError(t, err)

	order, err := sut.Checkout(ctx, token, goodCard)
	require.NoError(t, err)
	assert.InDelta(t, 3450.0, order.Total, 0.001)

	require.NoError(t, sut.AddToCart(ctx, token, 4, 1))
	order, err = sut.Checkout(ctx, token, goodCard)
	require.NoError(t, err)
	assert.InDelta(t, 3450.0, order.Total, 0.001)
}

func TestCancelOrder_RestocksAndPublishes(t *testing.T) {
	sut, st, _, pub := newTestStorefront(&stubGateway{accepted: true})
	token := loggedIn(t, sut)
	ctx := context.Background()

	require.NoError(t, sut.AddToCart(ctx, token, 3, 1))
	order, err := sut.Checkout(ctx, token, goodCard)
	require.NoError(t, err)

	item, _ := st.Item(3)
	require.Equal(t, 4, item.Stock)

	cancelled, err := sut.CancelOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, cancelled)

	item, _ = st.Item(3)
	assert.Equal(t, 5, item.Stock)
	assert.Equal(t, domain.OrderStatusCancelled, sut.OrderStatus(order.ID))

	published := pub.published()
	require.Len(t, published, 2)
	assert.Equal(t, events.OrderCancelled, published[1].Type)

	// idempotent second cancel: no error, no extra event
	cancelled, err = sut.CancelOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, cancelled)
	assert.Len(t, pub.published(), 2)
}

func TestCancelOrder_Unknown(t *testing.T) {
	sut, _, _, _ := newTestStorefront(&stubGateway{accepted: true})
	_, err := sut.CancelOrder(context.Background(), 777)
	assert.ErrorIs(t, err, store.ErrUnknownOrder)
}

func TestPublisherFailureDoesNotFailCheckout(t *testing.T) {
	sut, _, _, pub := newTestStorefront(&stubGateway{accepted: true})
	pub.err = errors.New("broker unavailable")
	token := loggedIn(t, sut)
	ctx := context.Background()

	require.NoError(t, sut.AddToCart(ctx, token, 5, 1))
	order, err := sut.Checkout(ctx, token, goodCard)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusConfirmed, order.Status)
}

func TestGetCart_CacheMissBuildsAndBackfills(t *testing.T) {
	sut, _, mc, _ := newTestStorefront(&stubGateway{accepted: true})
	token := loggedIn(t, sut)
	ctx := context.Background()

	require.NoError(t, sut.AddToCart(ctx, token, 1, 2))

	view, err := sut.GetCart(ctx, token)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, int64(1), view.Lines[0].ItemID)
	assert.InDelta(t, 30000.0, view.Total, 0.001)

	// the view is backfilled into the cache asynchronously
	require.Eventually(t, func() bool {
		return mc.getView() != nil
	}, time.Second, 10*time.Millisecond)
}

func TestGetCart_ServesFromCache(t *testing.T) {
	sut, _, mc, _ := newTestStorefront(&stubGateway{accepted: true})
	token := loggedIn(t, sut)

	cached := &domain.CartView{Token: token, User: "alice", Total: 42.0}
	require.NoError(t, mc.Set(context.Background(), token, cached))

	view, err := sut.GetCart(context.Background(), token)
	require.NoError(t, err)
	assert.InDelta(t, 42.0, view.Total, 0.001)
}

func TestGetCart_CacheErrorFallsBackToStore(t *testing.T) {
	sut, _, mc, _ := newTestStorefront(&stubGateway{accepted: true})
	token := loggedIn(t, sut)
	mc.err = errors.New("redis down")

	require.NoError(t, sut.AddToCart(context.Background(), token, 5, 1))

	view, err := sut.GetCart(context.Background(), token)
	require.NoError(t, err)
	assert.InDelta(t, 299.0, view.Total, 0.001)
}

func TestGetCart_UnknownSession(t *testing.T) {
	sut, _, _, _ := newTestStorefront(&stubGateway{accepted: true})
	_, err := sut.GetCart(context.Background(), "session_404")
	assert.ErrorIs(t, err, store.ErrInvalidSession)
}

func TestAddToCart_InvalidatesCache(t *testing.T) {
	sut, _, mc, _ := newTestStorefront(&stubGateway{accepted: true})
	token := loggedIn(t, sut)
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, token, &domain.CartView{Token: token}))
	require.NoError(t, sut.AddToCart(ctx, token, 5, 1))
	assert.Nil(t, mc.getView())
}

func TestSearch_Passthrough(t *testing.T) {
	sut, _, _, _ := newTestStorefront(&stubGateway{accepted: true})
	results := sut.Search("EARBUDS")
	require.Len(t, results, 1)
	assert.Equal(t, 0, results[0].Stock)
}

package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/payment"
)

type fakeGateway struct {
	token    string
	tokenErr error
	result   domain.PaymentResult
	err      error
	panic    any

	sales []payment.SaleRequest
}

func (g *fakeGateway) ClientToken(context.Context) (string, error) {
	return g.token, g.tokenErr
}

func (g *fakeGateway) Sale(_ context.Context, req payment.SaleRequest) (domain.PaymentResult, error) {
	g.sales = append(g.sales, req)
	if g.panic != nil {
		panic(g.panic)
	}
	return g.result, g.err
}

type fakeStore struct {
	err    error
	orders []*domain.Order
	calls  int
}

func (s *fakeStore) Create(_ context.Context, order *domain.Order) error {
	s.calls++
	if s.err != nil {
		return s.err
	}
	order.ID = "order-1"
	s.orders = append(s.orders, order)
	return nil
}

type fakePublisher struct {
	err    error
	keys   []string
	events []any
}

func (p *fakePublisher) Publish(_ context.Context, key string, event any) error {
	p.keys = append(p.keys, key)
	p.events = append(p.events, event)
	return p.err
}

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func settled() domain.PaymentResult {
	return domain.PaymentResult{Success: true, Provider: "fake", TransactionID: "tx-1", Status: "submitted_for_settlement"}
}

func threeItemCart() []domain.CartItem {
	return []domain.CartItem{
		{ID: "1", Name: "Pen", Price: 10, Quantity: domain.Quantity(1)},
		{ID: "2", Name: "Laptop", Price: 950, Quantity: domain.Quantity(1)},
		{ID: "3", Name: "Book", Price: 45, Quantity: domain.Quantity(1)},
	}
}

func newTestService(gw *fakeGateway, store *fakeStore, opts ...Option) *Service {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewService(gw, store, zap.NewNop(), opts...)
}

func TestService_SubmitPayment_Success(t *testing.T) {
	gw := &fakeGateway{result: settled()}
	store := &fakeStore{}
	events := &fakePublisher{}
	svc := newTestService(gw, store, WithEvents(events))

	cart := threeItemCart()
	order, err := svc.SubmitPayment(context.Background(), "user-1", "fake-valid-nonce", cart)
	require.NoError(t, err)

	require.Len(t, gw.sales, 1)
	assert.True(t, gw.sales[0].Amount.Equal(decimal.NewFromInt(1005)), "amount %s", gw.sales[0].Amount)
	assert.Equal(t, "fake-valid-nonce", gw.sales[0].PaymentMethodNonce)
	assert.True(t, gw.sales[0].SubmitForSettlement)

	require.Len(t, store.orders, 1)
	saved := store.orders[0]
	assert.Same(t, saved, order)
	assert.Equal(t, cart, saved.Products)
	assert.Equal(t, "user-1", saved.Buyer)
	assert.Equal(t, settled(), saved.Payment)
	assert.Equal(t, domain.OrderStatusNotProcessed, saved.Status)
	assert.Equal(t, fixedNow, saved.CreatedAt)

	require.Len(t, events.events, 1)
	assert.Equal(t, "order-1", events.keys[0])
	assert.Equal(t, domain.OrderCreatedEvent{
		OrderID:      "order-1",
		BuyerID:      "user-1",
		Amount:       "1005.00",
		ProductCount: 3,
		Timestamp:    fixedNow,
	}, events.events[0])
}

func TestService_SubmitPayment_CartIsSnapshot(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(&fakeGateway{result: settled()}, store)

	cart := threeItemCart()
	_, err := svc.SubmitPayment(context.Background(), "user-1", "nonce", cart)
	require.NoError(t, err)

	cart[0].Name = "changed later"
	assert.Equal(t, "Pen", store.orders[0].Products[0].Name)
}

func TestService_SubmitPayment_Amount(t *testing.T) {
	tests := []struct {
		name string
		cart []domain.CartItem
		want string
	}{
		{
			name: "missing quantity counts as one",
			cart: []domain.CartItem{{ID: "a", Price: 19.99}, {ID: "b", Price: 5, Quantity: domain.Quantity(3)}},
			want: "34.99",
		},
		{
			name: "zero priced cart is still charged",
			cart: []domain.CartItem{{ID: "a", Price: 0}},
			want: "0",
		},
		{
			name: "zero quantity contributes nothing",
			cart: []domain.CartItem{{ID: "a", Price: 7, Quantity: domain.Quantity(0)}, {ID: "b", Price: 1}},
			want: "1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{result: settled()}
			store := &fakeStore{}
			svc := newTestService(gw, store)

			_, err := svc.SubmitPayment(context.Background(), "user-1", "nonce", tt.cart)
			require.NoError(t, err)

			require.Len(t, gw.sales, 1)
			assert.True(t, gw.sales[0].Amount.Equal(decimal.RequireFromString(tt.want)), "got %s", gw.sales[0].Amount)
			assert.Equal(t, 1, store.calls)
		})
	}
}

func TestService_SubmitPayment_Validation(t *testing.T) {
	tests := []struct {
		name   string
		userID string
		nonce  string
		cart   []domain.CartItem
		want   *Error
	}{
		{"missing user", "", "nonce", threeItemCart(), ErrMissingIdentity},
		{"missing nonce", "user-1", "", threeItemCart(), ErrMissingPaymentToken},
		{"missing cart", "user-1", "nonce", nil, ErrMissingCart},
		{"empty cart", "user-1", "nonce", []domain.CartItem{}, ErrEmptyCart},
		{"identity checked first", "", "", nil, ErrMissingIdentity},
		{"nonce checked before cart", "user-1", "", nil, ErrMissingPaymentToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{result: settled()}
			store := &fakeStore{}
			svc := newTestService(gw, store)

			_, err := svc.SubmitPayment(context.Background(), tt.userID, tt.nonce, tt.cart)

			assert.ErrorIs(t, err, tt.want)
			var cerr *Error
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, 400, cerr.Status)
			assert.Empty(t, gw.sales)
			assert.Zero(t, store.calls)
		})
	}
}

func TestService_SubmitPayment_GatewayFailures(t *testing.T) {
	declined := &payment.TransactionError{Provider: "fake", Code: "2000", Message: "Do Not Honor"}

	tests := []struct {
		name       string
		gateway    *fakeGateway
		want       *Error
		wantStatus int
	}{
		{"transaction refused", &fakeGateway{err: declined}, ErrGatewayTransaction, 502},
		{"transport error", &fakeGateway{err: errors.New("connection reset")}, ErrGatewayUnavailable, 500},
		{"sdk panic", &fakeGateway{panic: "merchant id not configured"}, ErrGatewayUnavailable, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			events := &fakePublisher{}
			svc := newTestService(tt.gateway, store, WithEvents(events))

			_, err := svc.SubmitPayment(context.Background(), "user-1", "nonce", threeItemCart())

			assert.ErrorIs(t, err, tt.want)
			var cerr *Error
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tt.wantStatus, cerr.Status)
			assert.Error(t, cerr.Err)
			assert.Zero(t, store.calls)
			assert.Empty(t, events.events)
		})
	}

	t.Run("original gateway error is preserved", func(t *testing.T) {
		svc := newTestService(&fakeGateway{err: declined}, &fakeStore{})

		_, err := svc.SubmitPayment(context.Background(), "user-1", "nonce", threeItemCart())

		assert.ErrorIs(t, err, declined)
	})
}

func TestService_SubmitPayment_PersistenceFailure(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	gw := &fakeGateway{result: settled()}
	store := &fakeStore{err: errors.New("write concern timeout")}
	events := &fakePublisher{}
	svc := NewService(gw, store, zap.New(core), WithEvents(events))

	_, err := svc.SubmitPayment(context.Background(), "user-1", "nonce", threeItemCart())

	assert.ErrorIs(t, err, ErrPersistenceFailure)
	assert.Len(t, gw.sales, 1, "the charge is not retried or reversed")
	assert.Empty(t, events.events)

	entries := logs.FilterMessage("failed to save order after settled payment").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "tx-1", entries[0].ContextMap()["transaction_id"])
}

func TestService_SubmitPayment_PublishFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	store := &fakeStore{}
	svc := NewService(&fakeGateway{result: settled()}, store, zap.New(core),
		WithEvents(&fakePublisher{err: errors.New("broker down")}))

	_, err := svc.SubmitPayment(context.Background(), "user-1", "nonce", threeItemCart())

	require.NoError(t, err)
	assert.Equal(t, 1, store.calls)
	assert.Equal(t, 1, logs.FilterMessage("failed to publish order created event").Len())
}

func TestService_DoubleSubmitChargesTwice(t *testing.T) {
	gw := &fakeGateway{result: settled()}
	store := &fakeStore{}
	svc := newTestService(gw, store)

	for range 2 {
		_, err := svc.SubmitPayment(context.Background(), "user-1", "nonce", threeItemCart())
		require.NoError(t, err)
	}

	assert.Len(t, gw.sales, 2)
	assert.Equal(t, 2, store.calls)
}

func TestService_ClientToken(t *testing.T) {
	svc := newTestService(&fakeGateway{token: "tok"}, &fakeStore{})
	token, err := svc.ClientToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
}

// Package checkout turns a confirmed payment nonce and a cart snapshot into a
// settled sale and a stored order.
package checkout

import (
	"context"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/joao-fontenele/storefront/internal/cart"
	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/payment"
)

type OrderCreator interface {
	Create(ctx context.Context, order *domain.Order) error
}

type EventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
}

type Service struct {
	gateway payment.Gateway
	orders  OrderCreator
	events  EventPublisher
	logger  *zap.Logger
	now     func() time.Time

	payments metric.Int64Counter
	amounts  metric.Float64Histogram
}

type Option func(*Service)

// WithEvents publishes an OrderCreatedEvent after every stored order.
func WithEvents(p EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(gateway payment.Gateway, orders OrderCreator, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		gateway: gateway,
		orders:  orders,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	meter := otel.Meter("github.com/joao-fontenele/storefront/internal/checkout")
	var err error
	if s.payments, err = meter.Int64Counter("checkout.payments",
		metric.WithDescription("Checkout attempts by outcome")); err != nil {
		logger.Warn("failed to create checkout.payments counter", zap.Error(err))
	}
	if s.amounts, err = meter.Float64Histogram("checkout.amount",
		metric.WithDescription("Charged amount of completed checkouts"),
		metric.WithUnit("{USD}")); err != nil {
		logger.Warn("failed to create checkout.amount histogram", zap.Error(err))
	}
	return s
}

// SubmitPayment charges the cart total against nonce and stores the order for
// userID. A nil cart means no cart was sent; an empty one is rejected
// separately. Nothing is charged or stored when validation fails, and a
// storage failure after a successful charge is reported without reversing
// the charge.
func (s *Service) SubmitPayment(ctx context.Context, userID, nonce string, items []domain.CartItem) (*domain.Order, error) {
	if err := validate(userID, nonce, items); err != nil {
		s.record(ctx, err.Kind.String())
		return nil, err
	}

	snapshot := slices.Clone(items)
	amount := cart.Total(snapshot)

	out := payment.Submit(ctx, s.gateway, payment.SaleRequest{
		Amount:              amount,
		PaymentMethodNonce:  nonce,
		SubmitForSettlement: true,
	})
	if !out.OK() {
		kind := ErrGatewayTransaction
		if out.Unavailable {
			kind = ErrGatewayUnavailable
		}
		s.logger.Error("payment failed",
			zap.Error(out.Err),
			zap.String("user_id", userID),
			zap.String("amount", amount.StringFixed(2)),
			zap.Bool("unavailable", out.Unavailable),
		)
		s.record(ctx, kind.Kind.String())
		return nil, wrap(kind, out.Err)
	}

	now := s.now().UTC()
	order := &domain.Order{
		Products:  snapshot,
		Buyer:     userID,
		Payment:   out.Result,
		Status:    domain.OrderStatusNotProcessed,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		s.logger.Error("failed to save order after settled payment",
			zap.Error(err),
			zap.String("user_id", userID),
			zap.String("transaction_id", out.Result.TransactionID),
			zap.String("amount", amount.StringFixed(2)),
		)
		s.record(ctx, KindPersistenceFailure.String())
		return nil, wrap(ErrPersistenceFailure, err)
	}

	s.publish(ctx, order, amount.StringFixed(2))

	s.record(ctx, "success")
	if s.amounts != nil {
		s.amounts.Record(ctx, amount.InexactFloat64())
	}

	s.logger.Info("order created",
		zap.String("order_id", order.ID),
		zap.String("user_id", userID),
		zap.String("transaction_id", out.Result.TransactionID),
		zap.Int("products", len(order.Products)),
	)
	return order, nil
}

// ClientToken returns a token for the client-side payment widget.
func (s *Service) ClientToken(ctx context.Context) (string, error) {
	return payment.ClientToken(ctx, s.gateway)
}

func validate(userID, nonce string, items []domain.CartItem) *Error {
	switch {
	case userID == "":
		return ErrMissingIdentity
	case nonce == "":
		return ErrMissingPaymentToken
	case items == nil:
		return ErrMissingCart
	case len(items) == 0:
		return ErrEmptyCart
	}
	return nil
}

func (s *Service) publish(ctx context.Context, order *domain.Order, amount string) {
	if s.events == nil {
		return
	}
	event := domain.OrderCreatedEvent{
		OrderID:      order.ID,
		BuyerID:      order.Buyer,
		Amount:       amount,
		ProductCount: len(order.Products),
		Timestamp:    order.CreatedAt,
	}
	if err := s.events.Publish(ctx, order.ID, event); err != nil {
		s.logger.Error("failed to publish order created event", zap.Error(err), zap.String("order_id", order.ID))
	}
}

func (s *Service) record(ctx context.Context, outcome string) {
	if s.payments != nil {
		s.payments.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}

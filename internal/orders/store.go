// Package orders stores orders created at checkout and serves order history
// and administration.
package orders

import (
	"context"
	"errors"

	"github.com/joao-fontenele/storefront/internal/domain"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrInvalidStatus = errors.New("invalid order status")
)

// Store is implemented by MongoStore and PostgresStore. List methods return
// orders newest first.
type Store interface {
	Create(ctx context.Context, order *domain.Order) error
	ListByBuyer(ctx context.Context, buyerID string) ([]domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
}

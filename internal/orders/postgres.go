package orders

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/joao-fontenele/storefront/internal/domain"
)

// PostgresStore keeps products and the payment result as JSONB so an order
// row has the same shape as the order document.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const orderColumns = `id, buyer, products, payment, status, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, order *domain.Order) error {
	if order.Status == "" {
		order.Status = domain.OrderStatusNotProcessed
	}

	products, err := json.Marshal(order.Products)
	if err != nil {
		return fmt.Errorf("marshal products: %w", err)
	}
	payment, err := json.Marshal(order.Payment)
	if err != nil {
		return fmt.Errorf("marshal payment: %w", err)
	}

	id := uuid.New().String()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO orders (id, buyer, products, payment, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id, order.Buyer, products, payment, order.Status, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	order.ID = id
	return nil
}

func (s *PostgresStore) ListByBuyer(ctx context.Context, buyerID string) ([]domain.Order, error) {
	return s.list(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE buyer = $1
		ORDER BY created_at DESC
	`, buyerID)
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]domain.Order, error) {
	return s.list(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		ORDER BY created_at DESC
	`)
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	orders := []domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrOrderNotFound
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE orders SET status = $1, updated_at = $2
		WHERE id = $3
		RETURNING `+orderColumns, status, time.Now().UTC(), id)

	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(sc scanner) (*domain.Order, error) {
	var (
		order    domain.Order
		products []byte
		payment  []byte
	)

	if err := sc.Scan(&order.ID, &order.Buyer, &products, &payment, &order.Status, &order.CreatedAt, &order.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(products, &order.Products); err != nil {
		return nil, fmt.Errorf("unmarshal products of order %s: %w", order.ID, err)
	}
	if err := json.Unmarshal(payment, &order.Payment); err != nil {
		return nil, fmt.Errorf("unmarshal payment of order %s: %w", order.ID, err)
	}
	return &order, nil
}

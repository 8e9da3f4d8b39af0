package orders

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/storefront/internal/domain"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresStore(db), mock
}

func sampleOrder() *domain.Order {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return &domain.Order{
		Products: []domain.CartItem{
			{ID: "p1", Name: "Laptop", Price: 950, Quantity: domain.Quantity(1)},
			{ID: "p2", Name: "Pen", Price: 10},
		},
		Buyer:     "user-1",
		Payment:   domain.PaymentResult{Success: true, Provider: "sandbox", TransactionID: "tx-1", Status: "submitted_for_settlement", Amount: "960.00"},
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func orderRows(orders ...*domain.Order) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "buyer", "products", "payment", "status", "created_at", "updated_at"})
	for _, o := range orders {
		products, _ := json.Marshal(o.Products)
		payment, _ := json.Marshal(o.Payment)
		rows.AddRow(o.ID, o.Buyer, products, payment, string(o.Status), o.CreatedAt, o.UpdatedAt)
	}
	return rows
}

func TestPostgresStore_Create(t *testing.T) {
	store, mock := newMockStore(t)
	order := sampleOrder()
	products, _ := json.Marshal(order.Products)
	payment, _ := json.Marshal(order.Payment)

	mock.ExpectExec(`INSERT INTO orders`).
		WithArgs(sqlmock.AnyArg(), "user-1", products, payment, domain.OrderStatusNotProcessed, order.CreatedAt, order.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Create(context.Background(), order))

	assert.Len(t, order.ID, 36)
	assert.Equal(t, domain.OrderStatusNotProcessed, order.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateError(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(`INSERT INTO orders`).WillReturnError(errors.New("connection refused"))

	order := sampleOrder()
	err := store.Create(context.Background(), order)

	assert.ErrorContains(t, err, "connection refused")
	assert.Empty(t, order.ID)
}

func TestPostgresStore_ListByBuyer(t *testing.T) {
	store, mock := newMockStore(t)
	first := sampleOrder()
	first.ID = "9b2f4a57-3f0e-4a1b-8c61-0f3cf1f3b001"
	first.Status = domain.OrderStatusShipped
	second := sampleOrder()
	second.ID = "9b2f4a57-3f0e-4a1b-8c61-0f3cf1f3b002"
	second.Status = domain.OrderStatusNotProcessed

	mock.ExpectQuery(`SELECT (.+) FROM orders WHERE buyer = \$1 ORDER BY created_at DESC`).
		WithArgs("user-1").
		WillReturnRows(orderRows(first, second))

	orders, err := store.ListByBuyer(context.Background(), "user-1")
	require.NoError(t, err)

	require.Len(t, orders, 2)
	assert.Equal(t, *first, orders[0])
	assert.Equal(t, *second, orders[1])
	assert.Nil(t, orders[0].Products[1].Quantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListAllEmpty(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT (.+) FROM orders ORDER BY created_at DESC`).WillReturnRows(orderRows())

	orders, err := store.ListAll(context.Background())
	require.NoError(t, err)

	assert.NotNil(t, orders)
	assert.Empty(t, orders)
}

func TestPostgresStore_ListCorruptRow(t *testing.T) {
	store, mock := newMockStore(t)
	rows := sqlmock.NewRows([]string{"id", "buyer", "products", "payment", "status", "created_at", "updated_at"}).
		AddRow("id-1", "user-1", []byte("not json"), []byte("{}"), "Processing", time.Now(), time.Now())
	mock.ExpectQuery(`SELECT (.+) FROM orders`).WillReturnRows(rows)

	_, err := store.ListAll(context.Background())
	assert.ErrorContains(t, err, "unmarshal products of order id-1")
}

func TestPostgresStore_UpdateStatus(t *testing.T) {
	const id = "9b2f4a57-3f0e-4a1b-8c61-0f3cf1f3b001"

	t.Run("returns the updated order", func(t *testing.T) {
		store, mock := newMockStore(t)
		updated := sampleOrder()
		updated.ID = id
		updated.Status = domain.OrderStatusShipped

		mock.ExpectQuery(`UPDATE orders SET status = \$1, updated_at = \$2 WHERE id = \$3 RETURNING`).
			WithArgs(domain.OrderStatusShipped, sqlmock.AnyArg(), id).
			WillReturnRows(orderRows(updated))

		order, err := store.UpdateStatus(context.Background(), id, domain.OrderStatusShipped)
		require.NoError(t, err)

		assert.Equal(t, updated, order)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown id", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(`UPDATE orders`).WillReturnError(sql.ErrNoRows)

		_, err := store.UpdateStatus(context.Background(), id, domain.OrderStatusDelivered)
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})

	t.Run("malformed id never reaches the database", func(t *testing.T) {
		store, mock := newMockStore(t)

		_, err := store.UpdateStatus(context.Background(), "order1", domain.OrderStatusDelivered)
		assert.ErrorIs(t, err, ErrOrderNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid status", func(t *testing.T) {
		store, mock := newMockStore(t)

		_, err := store.UpdateStatus(context.Background(), id, "Lost")
		assert.ErrorIs(t, err, ErrInvalidStatus)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

package orders

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/joao-fontenele/storefront/internal/auth"
	"github.com/joao-fontenele/storefront/internal/domain"
)

type fakeStore struct {
	orders []domain.Order
	err    error
}

func (s *fakeStore) Create(_ context.Context, order *domain.Order) error {
	s.orders = append([]domain.Order{*order}, s.orders...)
	return s.err
}

func (s *fakeStore) ListByBuyer(_ context.Context, buyerID string) ([]domain.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := []domain.Order{}
	for _, o := range s.orders {
		if o.Buyer == buyerID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *fakeStore) ListAll(context.Context) ([]domain.Order, error) {
	return s.orders, s.err
}

func (s *fakeStore) UpdateStatus(_ context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	for i := range s.orders {
		if s.orders[i].ID == id {
			s.orders[i].Status = status
			o := s.orders[i]
			return &o, nil
		}
	}
	return nil, ErrOrderNotFound
}

func seededStore() *fakeStore {
	return &fakeStore{orders: []domain.Order{
		{ID: "order2", Buyer: "user-2", Status: domain.OrderStatusProcessing},
		{ID: "order1", Buyer: "user-1", Status: domain.OrderStatusNotProcessed},
	}}
}

func asUser(r *http.Request, userID string, role int) *http.Request {
	return r.WithContext(auth.WithClaims(r.Context(), &auth.Claims{UserID: userID, Role: role}))
}

func TestHandler_HandleListMine(t *testing.T) {
	h := NewHandler(seededStore(), zap.NewNop())

	req := asUser(httptest.NewRequest(http.MethodGet, "/api/v1/auth/orders", nil), "user-1", 0)
	rec := httptest.NewRecorder()

	h.HandleListMine(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got []domain.Order
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, "order1", got[0].ID)
}

func TestHandler_HandleListMine_Anonymous(t *testing.T) {
	h := NewHandler(seededStore(), zap.NewNop())

	rec := httptest.NewRecorder()
	h.HandleListMine(rec, httptest.NewRequest(http.MethodGet, "/api/v1/auth/orders", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandler_HandleListAll(t *testing.T) {
	t.Run("lists every order", func(t *testing.T) {
		h := NewHandler(seededStore(), zap.NewNop())

		rec := httptest.NewRecorder()
		h.HandleListAll(rec, httptest.NewRequest(http.MethodGet, "/api/v1/auth/all-orders", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var got []domain.Order
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Len(t, got, 2)
	})

	t.Run("store failure", func(t *testing.T) {
		h := NewHandler(&fakeStore{err: errors.New("timeout")}, zap.NewNop())

		rec := httptest.NewRecorder()
		h.HandleListAll(rec, httptest.NewRequest(http.MethodGet, "/api/v1/auth/all-orders", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"success":false,"message":"Error While Getting Orders","error":"timeout"}`, rec.Body.String())
	})
}

func TestHandler_HandleUpdateStatus(t *testing.T) {
	tests := []struct {
		name       string
		store      *fakeStore
		id         string
		body       string
		wantStatus int
	}{
		{"updates status", seededStore(), "order1", `{"status":"Shipped"}`, http.StatusOK},
		{"unknown order", seededStore(), "missing", `{"status":"Shipped"}`, http.StatusNotFound},
		{"invalid status", seededStore(), "order1", `{"status":"Lost"}`, http.StatusBadRequest},
		{"malformed body", seededStore(), "order1", `status=Shipped`, http.StatusBadRequest},
		{"store failure", &fakeStore{err: errors.New("boom")}, "order1", `{"status":"Shipped"}`, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(tt.store, zap.NewNop())
			r := chi.NewRouter()
			r.Put("/api/v1/auth/order-status/{orderId}", h.HandleUpdateStatus)

			req := asUser(httptest.NewRequest(http.MethodPut, "/api/v1/auth/order-status/"+tt.id, strings.NewReader(tt.body)), "admin", auth.RoleAdmin)
			rec := httptest.NewRecorder()

			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				var got domain.Order
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
				assert.Equal(t, "order1", got.ID)
				assert.Equal(t, domain.OrderStatusShipped, got.Status)
			}
		})
	}
}

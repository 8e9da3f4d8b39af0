package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/joao-fontenele/storefront/internal/auth"
	"github.com/joao-fontenele/storefront/internal/cart"
	"github.com/joao-fontenele/storefront/internal/domain"
)

// CartHandler serves a signed-in user's cart from Redis. Each request loads
// the user's container, applies one operation and lets it persist.
type CartHandler struct {
	redis    *redis.Client
	validate *validator.Validate
	logger   *zap.Logger
}

func NewCartHandler(client *redis.Client, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		redis:    client,
		validate: validator.New(),
		logger:   logger,
	}
}

type cartResponse struct {
	Items []domain.CartItem `json:"items"`
	Count int               `json:"count"`
	Total string            `json:"total"`
}

type addItemRequest struct {
	ID          string  `json:"_id" validate:"required"`
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description"`
	Slug        string  `json:"slug"`
	Price       float64 `json:"price" validate:"gte=0"`
	Quantity    *int    `json:"quantity" validate:"omitempty,gte=0"`
}

func (h *CartHandler) container(r *http.Request) (*cart.Container, bool) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		return nil, false
	}
	storage := cart.NewRedisStorage(h.redis, userID)
	return cart.Load(r.Context(), storage, h.logger.With(zap.String("user_id", userID))), true
}

func (h *CartHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	c, ok := h.container(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, snapshot(c))
}

func (h *CartHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	c, ok := h.container(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	c.Add(r.Context(), domain.CartItem{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		Slug:        req.Slug,
		Price:       req.Price,
		Quantity:    req.Quantity,
	})
	writeJSON(w, http.StatusOK, snapshot(c))
}

func (h *CartHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	c, ok := h.container(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	c.Remove(r.Context(), chi.URLParam(r, "productId"))
	writeJSON(w, http.StatusOK, snapshot(c))
}

func (h *CartHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	c, ok := h.container(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	c.Clear(r.Context())
	writeJSON(w, http.StatusOK, snapshot(c))
}

func snapshot(c *cart.Container) cartResponse {
	return cartResponse{
		Items: c.Items(),
		Count: c.Len(),
		Total: c.FormatTotal(),
	}
}

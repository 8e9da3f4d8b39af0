package orders

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/joao-fontenele/storefront/internal/auth"
	"github.com/joao-fontenele/storefront/internal/domain"
)

type Handler struct {
	store  Store
	logger *zap.Logger
}

func NewHandler(store Store, logger *zap.Logger) *Handler {
	return &Handler{
		store:  store,
		logger: logger,
	}
}

func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	buyerID := auth.UserID(r.Context())
	if buyerID == "" {
		h.writeError(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	orders, err := h.store.ListByBuyer(r.Context(), buyerID)
	if err != nil {
		h.logger.Error("failed to list buyer orders", zap.Error(err), zap.String("buyer", buyerID))
		h.writeError(w, http.StatusInternalServerError, "Error While Getting Orders", err)
		return
	}

	h.logger.Debug("orders listed", zap.String("buyer", buyerID), zap.Int("count", len(orders)))
	h.writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	orders, err := h.store.ListAll(r.Context())
	if err != nil {
		h.logger.Error("failed to list orders", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Error While Getting Orders", err)
		return
	}

	h.logger.Debug("all orders listed", zap.Int("count", len(orders)))
	h.writeJSON(w, http.StatusOK, orders)
}

type updateStatusRequest struct {
	Status domain.OrderStatus `json:"status"`
}

func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "orderId")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "Order ID is required", nil)
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	order, err := h.store.UpdateStatus(r.Context(), id, req.Status)
	switch {
	case errors.Is(err, ErrInvalidStatus):
		h.writeError(w, http.StatusBadRequest, "Invalid order status", nil)
		return
	case errors.Is(err, ErrOrderNotFound):
		h.writeError(w, http.StatusNotFound, "Order not found", nil)
		return
	case err != nil:
		h.logger.Error("failed to update order status", zap.Error(err), zap.String("order_id", id))
		h.writeError(w, http.StatusInternalServerError, "Error While Updating Order", err)
		return
	}

	h.logger.Info("order status updated",
		zap.String("order_id", order.ID),
		zap.String("status", string(order.Status)),
		zap.String("by", auth.UserID(r.Context())),
	)
	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string, err error) {
	body := map[string]any{"success": false, "message": message}
	if err != nil {
		body["error"] = err.Error()
	}
	h.writeJSON(w, status, body)
}

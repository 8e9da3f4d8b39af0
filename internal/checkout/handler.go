package checkout

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/joao-fontenele/storefront/internal/auth"
	"github.com/joao-fontenele/storefront/internal/domain"
)

type Handler struct {
	service *Service
	logger  *zap.Logger
}

func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

type tokenResponse struct {
	Success     bool   `json:"success"`
	ClientToken string `json:"clientToken"`
}

func (h *Handler) HandleToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.service.ClientToken(r.Context())
	if err != nil {
		h.logger.Error("failed to generate client token", zap.Error(err))
		h.writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   err.Error(),
			"message": "Error in generating token",
		})
		return
	}

	h.writeJSON(w, http.StatusOK, tokenResponse{Success: true, ClientToken: token})
}

type paymentRequest struct {
	Nonce string          `json:"nonce"`
	Cart  json.RawMessage `json:"cart"`
}

func (h *Handler) HandlePayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "invalid request body"})
		return
	}

	// A cart that is absent, null or not an array is a missing cart.
	var items []domain.CartItem
	if len(req.Cart) > 0 {
		if err := json.Unmarshal(req.Cart, &items); err != nil {
			items = nil
		}
	}

	if _, err := h.service.SubmitPayment(r.Context(), auth.UserID(r.Context()), req.Nonce, items); err != nil {
		h.writeCheckoutError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) writeCheckoutError(w http.ResponseWriter, err error) {
	var cerr *Error
	if !errors.As(err, &cerr) {
		cerr = wrap(ErrPersistenceFailure, err)
	}

	if cerr.ClientError() {
		h.writeJSON(w, cerr.Status, map[string]any{"success": false, "message": cerr.Message})
		return
	}

	h.writeJSON(w, cerr.Status, map[string]any{
		"success": false,
		"error":   errorText(cerr.Err),
		"message": cerr.Message,
	})
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

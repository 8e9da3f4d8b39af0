// Package email is a stand-in mail sender that accepts messages over HTTP
// and logs them.
package email

import (
	"encoding/json"
	"net/http"
	"sync/atomic"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type Handler struct {
	validate *validator.Validate
	logger   *zap.Logger
	sent     atomic.Int64
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{
		validate: validator.New(),
		logger:   logger,
	}
}

type sendRequest struct {
	To      string `json:"to" validate:"required,email"`
	Subject string `json:"subject" validate:"required"`
	Body    string `json:"body" validate:"required"`
}

type sendResponse struct {
	Status string `json:"status"`
}

func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	n := h.sent.Add(1)
	h.logger.Info("email sent",
		zap.String("to", req.To),
		zap.String("subject", req.Subject),
		zap.Int64("sent_total", n),
	)

	h.writeJSON(w, http.StatusOK, sendResponse{Status: "sent"})
}

// Sent is the number of messages accepted since start.
func (h *Handler) Sent() int64 {
	return h.sent.Load()
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

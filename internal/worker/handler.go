// Package worker reacts to order events published by the storefront API.
package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/joao-fontenele/storefront/internal/cart"
	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/messaging"
)

// NotificationHandler emails the buyer when an order is created.
type NotificationHandler struct {
	emailServiceURL string
	httpClient      *http.Client
	logger          *zap.Logger
}

func NewNotificationHandler(emailServiceURL string, client *http.Client, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		emailServiceURL: emailServiceURL,
		httpClient:      client,
		logger:          logger,
	}
}

type emailRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Handle is a messaging.HandlerFunc. Undecodable events are skipped; email
// failures are returned so the event is redelivered.
func (h *NotificationHandler) Handle(ctx context.Context, payload []byte) error {
	var event domain.OrderCreatedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("%w: unmarshal order created event: %v", messaging.ErrSkip, err)
	}
	if event.OrderID == "" || event.BuyerID == "" {
		return fmt.Errorf("%w: order created event without order or buyer id", messaging.ErrSkip)
	}

	h.logger.Info("processing order created event",
		zap.String("order_id", event.OrderID),
		zap.String("buyer_id", event.BuyerID),
	)

	if err := h.sendEmail(ctx, confirmationEmail(event)); err != nil {
		h.logger.Error("failed to send confirmation email", zap.Error(err), zap.String("order_id", event.OrderID))
		return fmt.Errorf("send confirmation email: %w", err)
	}

	h.logger.Info("order confirmation sent", zap.String("order_id", event.OrderID))
	return nil
}

func confirmationEmail(event domain.OrderCreatedEvent) emailRequest {
	total := event.Amount
	if amount, err := decimal.NewFromString(event.Amount); err == nil {
		total = cart.FormatUSD(amount)
	}

	return emailRequest{
		To:      event.BuyerID + "@example.com",
		Subject: "Order Confirmation: " + event.OrderID,
		Body: fmt.Sprintf("Thank you for your order %s. We received your payment of %s for %d products.",
			event.OrderID, total, event.ProductCount),
	}
}

func (h *NotificationHandler) sendEmail(ctx context.Context, body emailRequest) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.emailServiceURL+"/send", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("email service returned status %d", resp.StatusCode)
	}

	return nil
}

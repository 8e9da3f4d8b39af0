// Package client talks to the storefront API on behalf of the command-line
// shopper.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/joao-fontenele/storefront/internal/domain"
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int
	Message string
	Detail  string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api returned %d: %s (%s)", e.Status, e.Message, e.Detail)
	}
	return fmt.Sprintf("api returned %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func New(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
	}
}

func (c *Client) ClientToken(ctx context.Context) (string, error) {
	var resp struct {
		Success     bool   `json:"success"`
		ClientToken string `json:"clientToken"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/product/braintree/token", nil, &resp); err != nil {
		return "", err
	}
	return resp.ClientToken, nil
}

type paymentRequest struct {
	Nonce string            `json:"nonce"`
	Cart  []domain.CartItem `json:"cart"`
}

// SubmitPayment posts the cart snapshot for checkout. The API acknowledges a
// completed checkout without returning the order.
func (c *Client) SubmitPayment(ctx context.Context, nonce string, items []domain.CartItem) error {
	var resp struct {
		OK bool `json:"ok"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/product/braintree/payment", paymentRequest{Nonce: nonce, Cart: items}, &resp); err != nil {
		return err
	}
	if !resp.OK {
		return &APIError{Status: http.StatusOK, Message: "payment was not acknowledged"}
	}
	return nil
}

func (c *Client) Orders(ctx context.Context) ([]domain.Order, error) {
	var orders []domain.Order
	if err := c.do(ctx, http.MethodGet, "/api/v1/auth/orders", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		var failure struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&failure)
		if failure.Message == "" {
			failure.Message = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: failure.Message, Detail: failure.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// Package payment adapts payment provider SDKs to a single sale contract.
package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type SaleRequest struct {
	Amount              decimal.Decimal
	PaymentMethodNonce  string
	SubmitForSettlement bool
}

// Gateway is implemented by each provider adapter. Sale returns a
// *TransactionError when the provider processed the sale and refused it; any
// other error means the provider could not be reached or misbehaved.
type Gateway interface {
	ClientToken(ctx context.Context) (string, error)
	Sale(ctx context.Context, req SaleRequest) (domain.PaymentResult, error)
}

type TransactionError struct {
	Provider string
	Code     string
	Message  string
	Err      error
}

func (e *TransactionError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s transaction failed (%s): %s", e.Provider, e.Code, e.Message)
	}
	return fmt.Sprintf("%s transaction failed: %s", e.Provider, e.Message)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}

// Outcome is the settled result of one sale attempt.
type Outcome struct {
	Result domain.PaymentResult
	Err    error
	// Unavailable is set when the failure happened before the provider could
	// decide on the sale.
	Unavailable bool
}

func (o Outcome) OK() bool {
	return o.Err == nil
}

// Submit runs a sale and folds every way it can end into an Outcome,
// including a panic inside the provider SDK.
func Submit(ctx context.Context, gw Gateway, req SaleRequest) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Err: fmt.Errorf("payment gateway panic: %v", r), Unavailable: true}
		}
	}()

	result, err := gw.Sale(ctx, req)
	if err != nil {
		var txErr *TransactionError
		if errors.As(err, &txErr) {
			return Outcome{Result: result, Err: err}
		}
		return Outcome{Err: err, Unavailable: true}
	}
	return Outcome{Result: result}
}

// ClientToken asks the provider for a token the client widget can use to
// collect a payment method.
func ClientToken(ctx context.Context, gw Gateway) (token string, err error) {
	defer func() {
		if r := recover(); r != nil {
			token, err = "", fmt.Errorf("payment gateway panic: %v", r)
		}
	}()
	return gw.ClientToken(ctx)
}

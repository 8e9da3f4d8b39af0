package payment

import (
	"context"
	"errors"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/client"

	"github.com/joao-fontenele/storefront/internal/domain"
)

const providerStripe = "stripe"

// StripeGateway uses a SetupIntent client secret as the client token and a
// confirmed PaymentIntent as the sale. Automatic capture is Stripe's
// equivalent of submitting for settlement.
type StripeGateway struct {
	api      *client.API
	currency string
}

func NewStripeGateway(secretKey, currency string) *StripeGateway {
	return &StripeGateway{
		api:      client.New(secretKey, nil),
		currency: currency,
	}
}

// NewStripeGatewayWithBackend points the SDK at a custom API backend.
func NewStripeGatewayWithBackend(secretKey, currency string, backend stripe.Backend) *StripeGateway {
	return &StripeGateway{
		api:      client.New(secretKey, &stripe.Backends{API: backend, Connect: backend, Uploads: backend}),
		currency: currency,
	}
}

func (g *StripeGateway) ClientToken(ctx context.Context) (string, error) {
	params := &stripe.SetupIntentParams{
		Usage: stripe.String(string(stripe.SetupIntentUsageOnSession)),
	}
	params.Context = ctx

	si, err := g.api.SetupIntents.New(params)
	if err != nil {
		return "", classifyStripeError(err)
	}
	return si.ClientSecret, nil
}

func (g *StripeGateway) Sale(ctx context.Context, req SaleRequest) (domain.PaymentResult, error) {
	captureMethod := stripe.PaymentIntentCaptureMethodManual
	if req.SubmitForSettlement {
		captureMethod = stripe.PaymentIntentCaptureMethodAutomatic
	}

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(req.Amount.Shift(2).Round(0).IntPart()),
		Currency:           stripe.String(g.currency),
		PaymentMethod:      stripe.String(req.PaymentMethodNonce),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		CaptureMethod:      stripe.String(string(captureMethod)),
		Confirm:            stripe.Bool(true),
	}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return domain.PaymentResult{}, classifyStripeError(err)
	}

	settled := stripe.PaymentIntentStatusSucceeded
	if !req.SubmitForSettlement {
		settled = stripe.PaymentIntentStatusRequiresCapture
	}

	result := domain.PaymentResult{
		Success:       pi.Status == settled,
		Provider:      providerStripe,
		TransactionID: pi.ID,
		Status:        string(pi.Status),
		Amount:        req.Amount.StringFixed(2),
		Currency:      string(pi.Currency),
	}
	if !result.Success {
		return result, &TransactionError{
			Provider: providerStripe,
			Code:     string(pi.Status),
			Message:  "payment intent was not completed",
		}
	}
	return result, nil
}

func classifyStripeError(err error) error {
	var se *stripe.Error
	if errors.As(err, &se) && se.Type != stripe.ErrorTypeAPI {
		return &TransactionError{
			Provider: providerStripe,
			Code:     string(se.Code),
			Message:  se.Msg,
			Err:      err,
		}
	}
	return err
}

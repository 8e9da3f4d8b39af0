package payment

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/joao-fontenele/storefront/internal/domain"
)

const providerSandbox = "sandbox"

// Nonces understood by SandboxGateway, modelled on provider test nonces.
const (
	SandboxValidNonce       = "fake-valid-nonce"
	SandboxDeclinedNonce    = "fake-processor-declined-visa-nonce"
	SandboxUnavailableNonce = "fake-gateway-unavailable-nonce"
)

var ErrSandboxUnavailable = errors.New("sandbox gateway unavailable")

// SandboxGateway settles sales in process for local development. Nonces
// prefixed "fake-valid" succeed, "fake-processor-declined" are refused,
// "fake-gateway-unavailable" fail as a transport fault and anything else is
// refused as an unknown nonce.
type SandboxGateway struct {
	currency string
}

func NewSandboxGateway(currency string) *SandboxGateway {
	return &SandboxGateway{currency: currency}
}

func (g *SandboxGateway) ClientToken(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "sandbox_" + uuid.NewString(), nil
}

func (g *SandboxGateway) Sale(ctx context.Context, req SaleRequest) (domain.PaymentResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.PaymentResult{}, err
	}

	result := domain.PaymentResult{
		Provider:      providerSandbox,
		TransactionID: strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
		Amount:        req.Amount.StringFixed(2),
		Currency:      g.currency,
	}

	switch nonce := req.PaymentMethodNonce; {
	case strings.HasPrefix(nonce, "fake-valid"):
		result.Success = true
		result.Status = "authorized"
		if req.SubmitForSettlement {
			result.Status = "submitted_for_settlement"
		}
		return result, nil
	case strings.HasPrefix(nonce, "fake-processor-declined"):
		result.Status = "processor_declined"
		return result, &TransactionError{Provider: providerSandbox, Code: "2000", Message: "Do Not Honor"}
	case strings.HasPrefix(nonce, "fake-gateway-unavailable"):
		return domain.PaymentResult{}, ErrSandboxUnavailable
	default:
		return domain.PaymentResult{}, &TransactionError{Provider: providerSandbox, Code: "91565", Message: "Unknown payment_method_nonce."}
	}
}

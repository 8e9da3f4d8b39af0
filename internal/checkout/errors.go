package checkout

import (
	"fmt"
	"net/http"
)

type Kind int

const (
	KindMissingIdentity Kind = iota + 1
	KindMissingPaymentToken
	KindMissingCart
	KindEmptyCart
	KindGatewayTransaction
	KindGatewayUnavailable
	KindPersistenceFailure
)

func (k Kind) String() string {
	switch k {
	case KindMissingIdentity:
		return "missing_identity"
	case KindMissingPaymentToken:
		return "missing_payment_token"
	case KindMissingCart:
		return "missing_cart"
	case KindEmptyCart:
		return "empty_cart"
	case KindGatewayTransaction:
		return "gateway_transaction_error"
	case KindGatewayUnavailable:
		return "gateway_unavailable"
	case KindPersistenceFailure:
		return "persistence_failure"
	}
	return "unknown"
}

// Error is returned by SubmitPayment. Status is the HTTP status the failure
// maps to and Message is safe to show to the buyer.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("checkout %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("checkout %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same Kind, so errors.Is(err, ErrEmptyCart)
// works regardless of the wrapped cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// ClientError reports whether the failure was caused by the request itself.
func (e *Error) ClientError() bool {
	return e.Status < http.StatusInternalServerError
}

var (
	ErrMissingIdentity     = &Error{Kind: KindMissingIdentity, Status: http.StatusBadRequest, Message: "User ID is required"}
	ErrMissingPaymentToken = &Error{Kind: KindMissingPaymentToken, Status: http.StatusBadRequest, Message: "Payment nonce is required"}
	ErrMissingCart         = &Error{Kind: KindMissingCart, Status: http.StatusBadRequest, Message: "Cart is required"}
	ErrEmptyCart           = &Error{Kind: KindEmptyCart, Status: http.StatusBadRequest, Message: "Cart is empty"}

	ErrGatewayTransaction = &Error{Kind: KindGatewayTransaction, Status: http.StatusBadGateway, Message: "Error in processing payment"}
	ErrGatewayUnavailable = &Error{Kind: KindGatewayUnavailable, Status: http.StatusInternalServerError, Message: "Payment gateway unavailable"}
	ErrPersistenceFailure = &Error{Kind: KindPersistenceFailure, Status: http.StatusInternalServerError, Message: "Error in saving order"}
)

func wrap(kind *Error, err error) *Error {
	return &Error{Kind: kind.Kind, Status: kind.Status, Message: kind.Message, Err: err}
}

package finance

import (
	"context"
	"errors"
)

var (
	ErrGatewayNotConfigured   = errors.New("payment: gateway not configured")
	ErrGatewayRequestFailed   = errors.New("payment: gateway request failed")
	ErrGatewayInvalidResponse = errors.New("payment: invalid gateway response")
	ErrGatewayInvalidAmount   = errors.New("payment: amount must be positive")
)

// GatewayOrderRequest asks the gateway to open an order. Amount is in minor
// units (paise).
type GatewayOrderRequest struct {
	AmountMinor int64
	Currency    string
	Receipt     string
	Notes       map[string]string
}

// Validate checks the request before it is sent
func (r GatewayOrderRequest) Validate() error {
	if r.AmountMinor <= 0 {
		return ErrGatewayInvalidAmount
	}
	if r.Currency == "" {
		return errors.New("payment: currency is required")
	}
	return nil
}

// GatewayOrder is an order opened at the gateway
type GatewayOrder struct {
	ID          string
	AmountMinor int64
	Currency    string
	Receipt     string
	Status      string
}

// GatewayPaymentState is the gateway-side status of a charge
type GatewayPaymentState string

const (
	GatewayPaymentCreated    GatewayPaymentState = "created"
	GatewayPaymentAuthorized GatewayPaymentState = "authorized"
	GatewayPaymentCaptured   GatewayPaymentState = "captured"
	GatewayPaymentRefunded   GatewayPaymentState = "refunded"
	GatewayPaymentFailed     GatewayPaymentState = "failed"
)

// IsSuccess reports whether money was taken
func (s GatewayPaymentState) IsSuccess() bool {
	return s == GatewayPaymentAuthorized || s == GatewayPaymentCaptured
}

// GatewayPayment is a charge as reported by the gateway
type GatewayPayment struct {
	ID          string
	OrderID     string
	AmountMinor int64
	Currency    string
	Status      GatewayPaymentState
	Method      string
}

// GatewayRefund is a refund as reported by the gateway
type GatewayRefund struct {
	ID          string
	PaymentID   string
	AmountMinor int64
	Status      string
}

// PaymentGateway is the external card/UPI processor. The ledger only records
// charges that were verified through it.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, req GatewayOrderRequest) (*GatewayOrder, error)

	// VerifySignature checks HMAC-SHA256(secret, orderID|paymentID) against signature
	VerifySignature(orderID, paymentID, signature string) bool

	FetchPayment(ctx context.Context, paymentID string) (*GatewayPayment, error)

	// Refund refunds amountMinor, or the whole charge when amountMinor is nil
	Refund(ctx context.Context, paymentID string, amountMinor *int64) (*GatewayRefund, error)
}

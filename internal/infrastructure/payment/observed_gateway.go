package payment

import (
	"context"

	"github.com/shivfurniture/erp/internal/domain/finance"
)

// CallRecorder counts gateway calls by operation and outcome
type CallRecorder interface {
	RecordGatewayCall(operation string, err error)
}

// ObservedGateway reports every remote call of a PaymentGateway to a recorder
type ObservedGateway struct {
	inner    finance.PaymentGateway
	recorder CallRecorder
}

// NewObservedGateway wraps gateway. A nil recorder returns gateway unchanged.
func NewObservedGateway(gateway finance.PaymentGateway, recorder CallRecorder) finance.PaymentGateway {
	if recorder == nil {
		return gateway
	}
	return &ObservedGateway{inner: gateway, recorder: recorder}
}

func (g *ObservedGateway) CreateOrder(ctx context.Context, req finance.GatewayOrderRequest) (*finance.GatewayOrder, error) {
	order, err := g.inner.CreateOrder(ctx, req)
	g.recorder.RecordGatewayCall("create_order", err)
	return order, err
}

// VerifySignature is local and not counted
func (g *ObservedGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return g.inner.VerifySignature(orderID, paymentID, signature)
}

func (g *ObservedGateway) FetchPayment(ctx context.Context, paymentID string) (*finance.GatewayPayment, error) {
	p, err := g.inner.FetchPayment(ctx, paymentID)
	g.recorder.RecordGatewayCall("fetch_payment", err)
	return p, err
}

func (g *ObservedGateway) Refund(ctx context.Context, paymentID string, amountMinor *int64) (*finance.GatewayRefund, error) {
	r, err := g.inner.Refund(ctx, paymentID, amountMinor)
	g.recorder.RecordGatewayCall("refund", err)
	return r, err
}

var _ finance.PaymentGateway = (*ObservedGateway)(nil)

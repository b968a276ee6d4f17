package finance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shivfurniture/erp/internal/application/scope"
	"github.com/shivfurniture/erp/internal/domain/finance"
	"github.com/shivfurniture/erp/internal/domain/shared"
	"github.com/shivfurniture/erp/internal/domain/trade"
	"go.uber.org/zap"
)

// ErrGatewayPaymentInFlight is returned when the same gateway payment is being
// recorded by another request
var ErrGatewayPaymentInFlight = shared.NewInvalidStateError("gateway payment is already being processed")

// ErrRefundInFlight is returned when a refund of the same receipt is already
// running
var ErrRefundInFlight = shared.NewInvalidStateError("refund is already being processed")

// CreateOrderResponse is what the checkout page needs to open the gateway widget
type CreateOrderResponse struct {
	OrderID           string    `json:"order_id"`
	AmountMinor       int64     `json:"amount"`
	Currency          string    `json:"currency"`
	Receipt           string    `json:"receipt"`
	KeyID             string    `json:"key_id"`
	TransactionID     uuid.UUID `json:"transaction_id"`
	TransactionNumber string    `json:"transaction_number"`
}

// VerifyPaymentRequest carries the gateway checkout callback
type VerifyPaymentRequest struct {
	TransactionID uuid.UUID `json:"transaction_id" binding:"required"`
	OrderID       string    `json:"order_id" binding:"required"`
	PaymentID     string    `json:"payment_id" binding:"required"`
	Signature     string    `json:"signature" binding:"required"`
}

// RefundResponse describes a refunded gateway receipt
type RefundResponse struct {
	RefundID    string          `json:"refund_id"`
	Status      string          `json:"status"`
	AmountMinor int64           `json:"amount"`
	Payment     PaymentResponse `json:"payment"`
}

// GatewayServiceConfig holds the collaborators of GatewayService
type GatewayServiceConfig struct {
	Gateway     finance.PaymentGateway
	Payments    *PaymentService
	Store       scope.Store
	Idempotency shared.IdempotencyStore
	ClaimTTL    time.Duration
	Currency    string
	KeyID       string
	Logger      *zap.Logger
}

// GatewayService connects the online checkout to the payment ledger: it opens
// gateway orders for invoices and records receipts once a charge is verified
type GatewayService struct {
	gateway     finance.PaymentGateway
	payments    *PaymentService
	store       scope.Store
	idempotency shared.IdempotencyStore
	claimTTL    time.Duration
	currency    string
	keyID       string
	logger      *zap.Logger
}

// NewGatewayService creates a new GatewayService
func NewGatewayService(config GatewayServiceConfig) *GatewayService {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	currency := config.Currency
	if currency == "" {
		currency = "INR"
	}
	claimTTL := config.ClaimTTL
	if claimTTL <= 0 {
		claimTTL = shared.DefaultClaimTTL
	}
	return &GatewayService{
		gateway:     config.Gateway,
		payments:    config.Payments,
		store:       config.Store,
		idempotency: config.Idempotency,
		claimTTL:    claimTTL,
		currency:    currency,
		keyID:       config.KeyID,
		logger:      logger,
	}
}

// CreateOrder opens a gateway order for the balance a receipt of a confirmed
// customer invoice would record. owner restricts the call to one customer's documents; nil
// means any document.
func (s *GatewayService) CreateOrder(ctx context.Context, transactionID uuid.UUID, owner *uuid.UUID) (*CreateOrderResponse, error) {
	if s.gateway == nil {
		return nil, shared.NewExternalServiceError("payment gateway is not configured", finance.ErrGatewayNotConfigured)
	}
	txn, err := s.ownedTransaction(ctx, transactionID, owner)
	if err != nil {
		return nil, err
	}
	if txn.Type != trade.TransactionTypeCustomerInvoice {
		return nil, shared.NewValidationError("online payment is only available for customer invoices")
	}
	if txn.Status != trade.TransactionStatusConfirmed {
		return nil, shared.NewInvalidStateError("can only pay CONFIRMED invoices")
	}
	outstanding, err := s.payments.PayableBalance(ctx, txn)
	if err != nil {
		return nil, err
	}
	if !outstanding.IsPositive() {
		return nil, shared.NewInvalidStateError(fmt.Sprintf("invoice %s is already paid", txn.Number))
	}

	order, err := s.gateway.CreateOrder(ctx, finance.GatewayOrderRequest{
		AmountMinor: shared.ToMinorUnits(outstanding),
		Currency:    s.currency,
		Receipt:     txn.Number,
		Notes:       map[string]string{"transaction_id": txn.ID.String()},
	})
	if err != nil {
		s.logger.Error("gateway order creation failed",
			zap.String("transaction_number", txn.Number),
			zap.Error(err))
		return nil, shared.NewExternalServiceError("failed to create payment order", err)
	}

	s.logger.Info("gateway order created",
		zap.String("transaction_number", txn.Number),
		zap.String("order_id", order.ID),
		zap.Int64("amount_minor", order.AmountMinor))
	return &CreateOrderResponse{
		OrderID:           order.ID,
		AmountMinor:       order.AmountMinor,
		Currency:          order.Currency,
		Receipt:           order.Receipt,
		KeyID:             s.keyID,
		TransactionID:     txn.ID,
		TransactionNumber: txn.Number,
	}, nil
}

// VerifyAndRecord checks the checkout signature, confirms the charge with the
// gateway and records the receipt. Repeats of the same gateway payment return
// the receipt recorded the first time.
func (s *GatewayService) VerifyAndRecord(ctx context.Context, req VerifyPaymentRequest, owner *uuid.UUID) (*PaymentResponse, error) {
	if s.gateway == nil {
		return nil, shared.NewExternalServiceError("payment gateway is not configured", finance.ErrGatewayNotConfigured)
	}
	if !s.gateway.VerifySignature(req.OrderID, req.PaymentID, req.Signature) {
		s.logger.Warn("gateway signature verification failed",
			zap.String("order_id", req.OrderID),
			zap.String("payment_id", req.PaymentID))
		return nil, shared.NewDomainError(shared.CodeInvalidSignature, "payment signature verification failed")
	}
	if _, err := s.ownedTransaction(ctx, req.TransactionID, owner); err != nil {
		return nil, err
	}

	key := "gateway:" + req.PaymentID
	if s.idempotency != nil {
		claimed, err := s.idempotency.Claim(ctx, key, s.claimTTL)
		if err != nil {
			return nil, err
		}
		if !claimed {
			return s.existingReceipt(ctx, req.PaymentID)
		}
	}

	resp, err := s.record(ctx, req)
	if err != nil && s.idempotency != nil {
		// let the customer retry after a failure
		if relErr := s.idempotency.Release(ctx, key); relErr != nil {
			s.logger.Warn("failed to release idempotency key", zap.String("key", key), zap.Error(relErr))
		}
	}
	return resp, err
}

func (s *GatewayService) record(ctx context.Context, req VerifyPaymentRequest) (*PaymentResponse, error) {
	charge, err := s.gateway.FetchPayment(ctx, req.PaymentID)
	if err != nil {
		return nil, shared.NewExternalServiceError("failed to fetch payment from gateway", err)
	}
	if charge.OrderID != "" && charge.OrderID != req.OrderID {
		return nil, shared.NewDomainError(shared.CodeInvalidSignature, "payment does not belong to this order")
	}
	if !charge.Status.IsSuccess() {
		return nil, shared.NewExternalServiceError(fmt.Sprintf("gateway reports payment %s as %s", charge.ID, charge.Status), nil)
	}

	return s.payments.RecordGatewayReceipt(ctx, RecordReceiptRequest{
		TransactionID:    req.TransactionID,
		VerifiedAmount:   shared.FromMinorUnits(charge.AmountMinor),
		GatewayPaymentID: req.PaymentID,
		Method:           string(methodOf(charge.Method)),
	})
}

func (s *GatewayService) existingReceipt(ctx context.Context, gatewayPaymentID string) (*PaymentResponse, error) {
	p, err := s.store.Payments().FindByGatewayPaymentID(ctx, gatewayPaymentID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrGatewayPaymentInFlight
		}
		return nil, err
	}
	resp := ToPaymentResponse(p)
	return &resp, nil
}

// Refund refunds a gateway receipt in full and voids it in the ledger. Only
// one refund per receipt reaches the gateway; the claim is kept once the
// gateway has refunded, even if voiding fails afterwards.
func (s *GatewayService) Refund(ctx context.Context, paymentID uuid.UUID) (*RefundResponse, error) {
	if s.gateway == nil {
		return nil, shared.NewExternalServiceError("payment gateway is not configured", finance.ErrGatewayNotConfigured)
	}
	p, err := s.store.Payments().FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.GatewayPaymentID == "" {
		return nil, shared.NewValidationError("payment was not received through the gateway")
	}
	if p.Status == finance.PaymentStatusVoided {
		return nil, shared.NewInvalidStateError("payment is already voided")
	}

	key := "refund:" + paymentID.String()
	if s.idempotency != nil {
		claimed, err := s.idempotency.Claim(ctx, key, s.claimTTL)
		if err != nil {
			return nil, err
		}
		if !claimed {
			return nil, ErrRefundInFlight
		}
	}

	refund, err := s.gateway.Refund(ctx, p.GatewayPaymentID, nil)
	if err != nil {
		s.logger.Error("gateway refund failed",
			zap.String("payment_number", p.Number),
			zap.Error(err))
		// nothing was refunded, so a retry is safe
		if s.idempotency != nil {
			if relErr := s.idempotency.Release(ctx, key); relErr != nil {
				s.logger.Warn("failed to release idempotency key", zap.String("key", key), zap.Error(relErr))
			}
		}
		return nil, shared.NewExternalServiceError("failed to refund payment", err)
	}

	voided, err := s.payments.Void(ctx, paymentID)
	if err != nil {
		// money already went back; the ledger must be fixed by hand
		s.logger.Error("refunded payment could not be voided",
			zap.String("payment_number", p.Number),
			zap.String("refund_id", refund.ID),
			zap.Error(err))
		return nil, err
	}
	return &RefundResponse{
		RefundID:    refund.ID,
		Status:      refund.Status,
		AmountMinor: refund.AmountMinor,
		Payment:     *voided,
	}, nil
}

func (s *GatewayService) ownedTransaction(ctx context.Context, id uuid.UUID, owner *uuid.UUID) (*trade.Transaction, error) {
	txn, err := s.store.Transactions().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if owner != nil && (txn.CustomerID == nil || *txn.CustomerID != *owner) {
		// do not reveal documents of other customers
		return nil, shared.NewNotFoundError("transaction", id)
	}
	return txn, nil
}

func methodOf(gatewayMethod string) finance.PaymentMethod {
	switch strings.ToLower(gatewayMethod) {
	case "upi":
		return finance.PaymentMethodUPI
	case "card":
		return finance.PaymentMethodCard
	case "netbanking":
		return finance.PaymentMethodBankTransfer
	}
	return finance.PaymentMethodOnline
}

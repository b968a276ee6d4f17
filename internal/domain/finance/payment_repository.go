package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shivfurniture/erp/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PaymentFilter narrows payment list queries
type PaymentFilter struct {
	shared.Filter
	Type      PaymentType
	Status    PaymentStatus
	ContactID *uuid.UUID
	From      *time.Time
	To        *time.Time
}

// PaymentRepository persists payments and their allocations
type PaymentRepository interface {
	// FindByID loads a payment with its allocations
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// FindByIDForUpdate is FindByID holding a row lock on the payment
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Payment, error)

	FindByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*Payment, error)
	FindAll(ctx context.Context, filter PaymentFilter) ([]Payment, int64, error)

	// Create inserts the payment and its allocations
	Create(ctx context.Context, p *Payment) error

	// Save updates payment fields guarded by the version column
	Save(ctx context.Context, p *Payment) error

	// ReplaceAllocations deletes every stored allocation and inserts p.Allocations
	ReplaceAllocations(ctx context.Context, p *Payment) error

	// Delete removes the payment and its allocations
	Delete(ctx context.Context, id uuid.UUID) error

	// SumAllocatedForTransaction sums live allocations against a transaction,
	// optionally only those of CONFIRMED payments
	SumAllocatedForTransaction(ctx context.Context, transactionID uuid.UUID, confirmedOnly bool) (decimal.Decimal, error)
}

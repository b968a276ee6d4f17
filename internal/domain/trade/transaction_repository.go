package trade

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shivfurniture/erp/internal/domain/shared"
)

// TransactionFilter narrows transaction list queries
type TransactionFilter struct {
	shared.Filter
	Type          TransactionType
	Status        TransactionStatus
	PaymentStatus PaymentStatus
	ContactID     *uuid.UUID
	ParentID      *uuid.UUID
	From          *time.Time
	To            *time.Time
}

// TransactionRepository persists transactions and their lines
type TransactionRepository interface {
	// FindByID loads a transaction with its lines ordered by line number
	FindByID(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// FindByIDForUpdate is FindByID holding a row lock until the surrounding
	// database transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// FindAll lists transactions without lines
	FindAll(ctx context.Context, filter TransactionFilter) ([]Transaction, int64, error)

	// FindChildren lists documents derived from parentID
	FindChildren(ctx context.Context, parentID uuid.UUID) ([]Transaction, error)

	// FindOutstanding lists CONFIRMED documents of type t for contactID that
	// are NOT_PAID or PARTIALLY_PAID, oldest transaction date first
	FindOutstanding(ctx context.Context, contactID uuid.UUID, t TransactionType) ([]Transaction, error)

	// Create inserts the header and all lines
	Create(ctx context.Context, t *Transaction) error

	// Save updates header fields guarded by the version column
	Save(ctx context.Context, t *Transaction) error

	// ReplaceLines deletes every stored line and inserts t.Lines
	ReplaceLines(ctx context.Context, t *Transaction) error

	// Delete removes the transaction and its lines
	Delete(ctx context.Context, id uuid.UUID) error
}

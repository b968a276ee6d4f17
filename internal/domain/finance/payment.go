package finance

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shivfurniture/erp/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Number prefixes for payments
const (
	PaymentPrefix = "PAY"
	ReceiptPrefix = "RCP"
)

// PaymentType is the direction of money
type PaymentType string

const (
	PaymentTypeSend    PaymentType = "SEND"
	PaymentTypeReceive PaymentType = "RECEIVE"
)

// IsValid checks if the type is known
func (t PaymentType) IsValid() bool {
	return t == PaymentTypeSend || t == PaymentTypeReceive
}

// PaymentStatus is the payment lifecycle state
type PaymentStatus string

const (
	PaymentStatusDraft     PaymentStatus = "DRAFT"
	PaymentStatusConfirmed PaymentStatus = "CONFIRMED"
	PaymentStatusVoided    PaymentStatus = "VOIDED"
)

// IsValid checks if the status is known
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusDraft, PaymentStatusConfirmed, PaymentStatusVoided:
		return true
	}
	return false
}

// PaymentMethod is how the money moved
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCheque       PaymentMethod = "CHEQUE"
	PaymentMethodUPI          PaymentMethod = "UPI"
	PaymentMethodCard         PaymentMethod = "CARD"
	PaymentMethodOnline       PaymentMethod = "ONLINE"
)

// IsValid checks if the method is known
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodCheque,
		PaymentMethodUPI, PaymentMethodCard, PaymentMethodOnline:
		return true
	}
	return false
}

// AllocationInput is a requested allocation of part of a payment to a transaction
type AllocationInput struct {
	TransactionID   uuid.UUID
	AllocatedAmount decimal.Decimal
}

// PaymentAllocation applies part of a payment to one transaction
type PaymentAllocation struct {
	ID              uuid.UUID
	PaymentID       uuid.UUID
	TransactionID   uuid.UUID
	AllocatedAmount decimal.Decimal
	CreatedAt       time.Time
}

// Payment is money sent to a vendor or received from a customer, optionally
// split across several transactions
type Payment struct {
	shared.BaseAggregateRoot
	Number           string
	Type             PaymentType
	ContactID        uuid.UUID
	Amount           decimal.Decimal
	PaymentDate      time.Time
	Method           PaymentMethod
	Reference        string
	Notes            string
	Status           PaymentStatus
	GatewayPaymentID string
	Allocations      []PaymentAllocation
	ConfirmedAt      *time.Time
	VoidedAt         *time.Time
}

// PaymentDetails carries the editable payment fields
type PaymentDetails struct {
	Amount      decimal.Decimal
	PaymentDate time.Time
	Method      PaymentMethod
	Reference   string
	Notes       string
}

func (d PaymentDetails) validate() error {
	if !d.Amount.IsPositive() {
		return shared.NewValidationError("payment amount must be positive")
	}
	if d.PaymentDate.IsZero() {
		return shared.NewValidationError("payment date is required")
	}
	if !d.Method.IsValid() {
		return shared.NewValidationError(fmt.Sprintf("unknown payment method %q", d.Method))
	}
	if len(d.Reference) > 100 {
		return shared.NewValidationError("reference cannot exceed 100 characters")
	}
	return nil
}

// NewPayment creates a DRAFT payment and validates its allocations before
// anything is persisted
func NewPayment(number string, t PaymentType, contactID uuid.UUID, details PaymentDetails, allocations []AllocationInput) (*Payment, error) {
	if number == "" {
		return nil, shared.NewValidationError("payment number is required")
	}
	if !t.IsValid() {
		return nil, shared.NewValidationError(fmt.Sprintf("unknown payment type %q", t))
	}
	if contactID == uuid.Nil {
		return nil, shared.NewValidationError("contact is required")
	}
	p := &Payment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            number,
		Type:              t,
		ContactID:         contactID,
		Status:            PaymentStatusDraft,
	}
	if err := p.apply(details, allocations); err != nil {
		return nil, err
	}
	return p, nil
}

// Revise replaces the payment fields and its whole allocation set. It returns
// the transactions the old allocations pointed at.
func (p *Payment) Revise(details PaymentDetails, allocations []AllocationInput) ([]uuid.UUID, error) {
	if p.Status == PaymentStatusVoided {
		return nil, shared.NewInvalidStateError("cannot update a voided payment")
	}
	previous := p.AllocatedTransactionIDs()
	if err := p.apply(details, allocations); err != nil {
		return nil, err
	}
	p.Touch()
	return previous, nil
}

func (p *Payment) apply(details PaymentDetails, allocations []AllocationInput) error {
	details.Amount = shared.RoundAmount(details.Amount)
	if err := details.validate(); err != nil {
		return err
	}
	allocs, err := buildAllocations(p.ID, details.Amount, allocations)
	if err != nil {
		return err
	}
	p.Amount = details.Amount
	p.PaymentDate = shared.CalendarDate(details.PaymentDate)
	p.Method = details.Method
	p.Reference = strings.TrimSpace(details.Reference)
	p.Notes = details.Notes
	p.Allocations = allocs
	return nil
}

func buildAllocations(paymentID uuid.UUID, amount decimal.Decimal, inputs []AllocationInput) ([]PaymentAllocation, error) {
	seen := make(map[uuid.UUID]struct{}, len(inputs))
	total := decimal.Zero
	now := time.Now()
	out := make([]PaymentAllocation, 0, len(inputs))
	for _, in := range inputs {
		if in.TransactionID == uuid.Nil {
			return nil, shared.NewValidationError("allocation transaction is required")
		}
		if _, dup := seen[in.TransactionID]; dup {
			return nil, shared.NewValidationError(fmt.Sprintf("transaction %s is allocated more than once", in.TransactionID))
		}
		seen[in.TransactionID] = struct{}{}
		amt := shared.RoundAmount(in.AllocatedAmount)
		if !amt.IsPositive() {
			return nil, shared.NewValidationError("allocated amount must be positive")
		}
		total = total.Add(amt)
		out = append(out, PaymentAllocation{
			ID:              uuid.New(),
			PaymentID:       paymentID,
			TransactionID:   in.TransactionID,
			AllocatedAmount: amt,
			CreatedAt:       now,
		})
	}
	if total.GreaterThan(amount) {
		return nil, shared.NewValidationError("allocations total cannot exceed payment amount")
	}
	return out, nil
}

// ValidateAllocations checks a requested allocation set against a payment
// amount without building a payment
func ValidateAllocations(amount decimal.Decimal, allocations []AllocationInput) error {
	_, err := buildAllocations(uuid.Nil, shared.RoundAmount(amount), allocations)
	return err
}

// AttachGatewayPayment records the gateway's payment id on a receipt
func (p *Payment) AttachGatewayPayment(gatewayPaymentID string) {
	p.GatewayPaymentID = strings.TrimSpace(gatewayPaymentID)
	p.Touch()
}

// AllocatedTo returns the amount this payment allocates to transactionID
func (p *Payment) AllocatedTo(transactionID uuid.UUID) decimal.Decimal {
	for i := range p.Allocations {
		if p.Allocations[i].TransactionID == transactionID {
			return p.Allocations[i].AllocatedAmount
		}
	}
	return decimal.Zero
}

// Confirm posts a DRAFT payment
func (p *Payment) Confirm() error {
	if p.Status != PaymentStatusDraft {
		return shared.NewInvalidStateError("can only confirm DRAFT payments, current status is " + string(p.Status))
	}
	now := time.Now()
	p.Status = PaymentStatusConfirmed
	p.ConfirmedAt = &now
	p.Touch()
	return nil
}

// Void removes every allocation and returns the transactions they pointed at
func (p *Payment) Void() ([]uuid.UUID, error) {
	if p.Status == PaymentStatusVoided {
		return nil, shared.NewInvalidStateError("payment is already voided")
	}
	affected := p.AllocatedTransactionIDs()
	now := time.Now()
	p.Status = PaymentStatusVoided
	p.VoidedAt = &now
	p.Allocations = nil
	p.Touch()
	return affected, nil
}

// EnsureDeletable rejects deletion of posted payments
func (p *Payment) EnsureDeletable() error {
	if p.Status == PaymentStatusConfirmed {
		return shared.NewInvalidStateError("cannot delete a CONFIRMED payment, void it instead")
	}
	return nil
}

// AllocatedTotal is the sum of all allocations
func (p *Payment) AllocatedTotal() decimal.Decimal {
	total := decimal.Zero
	for i := range p.Allocations {
		total = total.Add(p.Allocations[i].AllocatedAmount)
	}
	return total
}

// Unallocated is the credit not applied to any transaction
func (p *Payment) Unallocated() decimal.Decimal {
	return p.Amount.Sub(p.AllocatedTotal())
}

// AllocatedTransactionIDs lists allocated transactions sorted by id
func (p *Payment) AllocatedTransactionIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(p.Allocations))
	for i := range p.Allocations {
		ids = append(ids, p.Allocations[i].TransactionID)
	}
	return SortIDs(ids)
}

// SortIDs sorts ids ascending in place and returns them. Row locks are always
// taken in this order.
func SortIDs(ids []uuid.UUID) []uuid.UUID {
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// UnionIDs merges id sets without duplicates, sorted
func UnionIDs(sets ...[]uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	out := make([]uuid.UUID, 0)
	for _, set := range sets {
		for _, id := range set {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return SortIDs(out)
}

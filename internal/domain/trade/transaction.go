package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/shivfurniture/erp/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// TransactionType is the kind of trade document
type TransactionType string

const (
	TransactionTypePurchaseOrder   TransactionType = "PURCHASE_ORDER"
	TransactionTypeVendorBill      TransactionType = "VENDOR_BILL"
	TransactionTypeSalesOrder      TransactionType = "SALES_ORDER"
	TransactionTypeCustomerInvoice TransactionType = "CUSTOMER_INVOICE"
)

// IsValid checks if the type is known
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypePurchaseOrder, TransactionTypeVendorBill,
		TransactionTypeSalesOrder, TransactionTypeCustomerInvoice:
		return true
	}
	return false
}

// Prefix returns the document number prefix
func (t TransactionType) Prefix() string {
	switch t {
	case TransactionTypePurchaseOrder:
		return "PO"
	case TransactionTypeVendorBill:
		return "BILL"
	case TransactionTypeSalesOrder:
		return "SO"
	case TransactionTypeCustomerInvoice:
		return "INV"
	}
	return ""
}

// IsPurchase reports whether the document is vendor-side
func (t TransactionType) IsPurchase() bool {
	return t == TransactionTypePurchaseOrder || t == TransactionTypeVendorBill
}

// IsSales reports whether the document is customer-side
func (t TransactionType) IsSales() bool {
	return t == TransactionTypeSalesOrder || t == TransactionTypeCustomerInvoice
}

// DerivedType returns the document type created from t (bill from PO,
// invoice from SO). ok is false for types that cannot be derived from.
func (t TransactionType) DerivedType() (TransactionType, bool) {
	switch t {
	case TransactionTypePurchaseOrder:
		return TransactionTypeVendorBill, true
	case TransactionTypeSalesOrder:
		return TransactionTypeCustomerInvoice, true
	}
	return "", false
}

// TransactionStatus is the document lifecycle state
type TransactionStatus string

const (
	TransactionStatusDraft     TransactionStatus = "DRAFT"
	TransactionStatusConfirmed TransactionStatus = "CONFIRMED"
	TransactionStatusCancelled TransactionStatus = "CANCELLED"
)

// IsValid checks if the status is known
func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionStatusDraft, TransactionStatusConfirmed, TransactionStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo checks if the status can transition to the target status
func (s TransactionStatus) CanTransitionTo(target TransactionStatus) bool {
	switch s {
	case TransactionStatusDraft:
		return target == TransactionStatusConfirmed || target == TransactionStatusCancelled
	case TransactionStatusConfirmed:
		return target == TransactionStatusCancelled
	}
	return false
}

// PaymentStatus is derived from paid vs total amount
type PaymentStatus string

const (
	PaymentStatusNotPaid       PaymentStatus = "NOT_PAID"
	PaymentStatusPartiallyPaid PaymentStatus = "PARTIALLY_PAID"
	PaymentStatusPaid          PaymentStatus = "PAID"
)

// IsValid checks if the payment status is known
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusNotPaid, PaymentStatusPartiallyPaid, PaymentStatusPaid:
		return true
	}
	return false
}

// DerivePaymentStatus applies the three-way rule: PAID when paid >= total,
// PARTIALLY_PAID when 0 < paid < total, NOT_PAID otherwise.
func DerivePaymentStatus(paid, total decimal.Decimal) PaymentStatus {
	if !paid.IsPositive() {
		return PaymentStatusNotPaid
	}
	if paid.GreaterThanOrEqual(total) {
		return PaymentStatusPaid
	}
	return PaymentStatusPartiallyPaid
}

// Parties holds the counterparty of a document. Exactly one side is set and
// it must match the document type.
type Parties struct {
	VendorID   *uuid.UUID
	CustomerID *uuid.UUID
}

// ContactID returns whichever side is set
func (p Parties) ContactID() uuid.UUID {
	if p.VendorID != nil {
		return *p.VendorID
	}
	if p.CustomerID != nil {
		return *p.CustomerID
	}
	return uuid.Nil
}

func (p Parties) validateFor(t TransactionType) error {
	if p.VendorID != nil && p.CustomerID != nil {
		return shared.NewValidationError("a transaction has either a vendor or a customer, not both")
	}
	if t.IsPurchase() && p.VendorID == nil {
		return shared.NewValidationError("vendor is required for " + string(t))
	}
	if t.IsSales() && p.CustomerID == nil {
		return shared.NewValidationError("customer is required for " + string(t))
	}
	return nil
}

// Header carries the editable document fields other than lines
type Header struct {
	Parties
	TransactionDate time.Time
	DueDate         *time.Time
	Reference       string
	Notes           string
}

func (h Header) validate(t TransactionType) error {
	if err := h.Parties.validateFor(t); err != nil {
		return err
	}
	if h.TransactionDate.IsZero() {
		return shared.NewValidationError("transaction date is required")
	}
	if h.DueDate != nil && shared.CalendarDate(*h.DueDate).Before(shared.CalendarDate(h.TransactionDate)) {
		return shared.NewValidationError("due date cannot be before transaction date")
	}
	return nil
}

// Transaction is a purchase order, vendor bill, sales order or customer invoice
type Transaction struct {
	shared.BaseAggregateRoot
	Number          string
	Type            TransactionType
	Status          TransactionStatus
	PaymentStatus   PaymentStatus
	VendorID        *uuid.UUID
	CustomerID      *uuid.UUID
	TransactionDate time.Time
	DueDate         *time.Time
	ParentID        *uuid.UUID
	Reference       string
	Notes           string
	Subtotal        decimal.Decimal
	TaxAmount       decimal.Decimal
	TotalAmount     decimal.Decimal
	PaidAmount      decimal.Decimal
	Lines           []TransactionLine
	ConfirmedAt     *time.Time
	CancelledAt     *time.Time
}

// NewTransaction creates a costed DRAFT document
func NewTransaction(number string, t TransactionType, header Header, parentID *uuid.UUID, specs []LineSpec) (*Transaction, error) {
	if !t.IsValid() {
		return nil, shared.NewValidationError("unknown transaction type " + string(t))
	}
	if number == "" {
		return nil, shared.NewValidationError("transaction number is required")
	}
	tx := &Transaction{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            number,
		Type:              t,
		Status:            TransactionStatusDraft,
		PaymentStatus:     PaymentStatusNotPaid,
		ParentID:          parentID,
		PaidAmount:        decimal.Zero,
	}
	if err := tx.apply(header, specs); err != nil {
		return nil, err
	}
	return tx, nil
}

// Revise replaces header fields and the entire line set. Only DRAFT documents
// can be revised.
func (t *Transaction) Revise(header Header, specs []LineSpec) error {
	if t.Status != TransactionStatusDraft {
		return shared.NewInvalidStateError("can only update DRAFT transactions")
	}
	if err := t.apply(header, specs); err != nil {
		return err
	}
	t.Touch()
	return nil
}

func (t *Transaction) apply(header Header, specs []LineSpec) error {
	if err := header.validate(t.Type); err != nil {
		return err
	}
	lines, err := buildLines(t.ID, specs)
	if err != nil {
		return err
	}
	t.VendorID = header.VendorID
	t.CustomerID = header.CustomerID
	t.TransactionDate = shared.CalendarDate(header.TransactionDate)
	t.DueDate = nil
	if header.DueDate != nil {
		due := shared.CalendarDate(*header.DueDate)
		t.DueDate = &due
	}
	t.Reference = header.Reference
	t.Notes = header.Notes
	t.Lines = lines
	t.recalculateTotals()
	return nil
}

// recalculateTotals sets subtotal = Σ qty×price, tax = Σ qty×price×gst/100 and
// total = subtotal + tax, each rounded once after summing.
func (t *Transaction) recalculateTotals() {
	subtotal := decimal.Zero
	tax := decimal.Zero
	for i := range t.Lines {
		subtotal = subtotal.Add(t.Lines[i].Base())
		tax = tax.Add(t.Lines[i].Tax())
	}
	t.Subtotal = shared.RoundAmount(subtotal)
	t.TaxAmount = shared.RoundAmount(tax)
	t.TotalAmount = t.Subtotal.Add(t.TaxAmount)
}

// Confirm moves a DRAFT document to CONFIRMED
func (t *Transaction) Confirm() error {
	if t.Status != TransactionStatusDraft {
		return shared.NewInvalidStateError("can only confirm DRAFT transactions, current status is " + string(t.Status))
	}
	now := time.Now()
	t.Status = TransactionStatusConfirmed
	t.ConfirmedAt = &now
	t.Touch()
	return nil
}

// Cancel moves a DRAFT or CONFIRMED document to CANCELLED. wasConfirmed tells
// the caller whether budget accruals were posted for it.
func (t *Transaction) Cancel() (wasConfirmed bool, err error) {
	if t.Status == TransactionStatusCancelled {
		return false, shared.NewInvalidStateError("transaction is already cancelled")
	}
	if !t.Status.CanTransitionTo(TransactionStatusCancelled) {
		return false, shared.NewInvalidStateError("cannot cancel transaction in status " + string(t.Status))
	}
	wasConfirmed = t.Status == TransactionStatusConfirmed
	now := time.Now()
	t.Status = TransactionStatusCancelled
	t.CancelledAt = &now
	t.Touch()
	return wasConfirmed, nil
}

// EnsureDeletable rejects deletion of anything but DRAFT documents
func (t *Transaction) EnsureDeletable() error {
	if t.Status != TransactionStatusDraft {
		return shared.NewInvalidStateError("can only delete DRAFT transactions, cancel it instead")
	}
	return nil
}

// ApplyPaidAmount records the live allocation sum and derives the payment status
func (t *Transaction) ApplyPaidAmount(paid decimal.Decimal) {
	t.PaidAmount = paid
	t.PaymentStatus = DerivePaymentStatus(paid, t.TotalAmount)
	t.Touch()
}

// Outstanding is total minus paid, never negative
func (t *Transaction) Outstanding() decimal.Decimal {
	out := t.TotalAmount.Sub(t.PaidAmount)
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}

// ContactID returns the vendor or customer id
func (t *Transaction) ContactID() uuid.UUID {
	return Parties{VendorID: t.VendorID, CustomerID: t.CustomerID}.ContactID()
}

// Header returns the editable header fields
func (t *Transaction) Header() Header {
	return Header{
		Parties:         Parties{VendorID: t.VendorID, CustomerID: t.CustomerID},
		TransactionDate: t.TransactionDate,
		DueDate:         t.DueDate,
		Reference:       t.Reference,
		Notes:           t.Notes,
	}
}

// LineSpecs returns the lines as specs so they can be copied onto a derived document
func (t *Transaction) LineSpecs() []LineSpec {
	specs := make([]LineSpec, len(t.Lines))
	for i := range t.Lines {
		specs[i] = t.Lines[i].Spec()
	}
	return specs
}

// Accrual is the budget usage one line contributes on confirmation
type Accrual struct {
	LineID              uuid.UUID
	AnalyticalAccountID uuid.UUID
	Amount              decimal.Decimal
}

// Accruals lists lines that carry an analytical account, keyed for the
// period of the transaction date.
func (t *Transaction) Accruals() []Accrual {
	out := make([]Accrual, 0, len(t.Lines))
	for i := range t.Lines {
		l := &t.Lines[i]
		if l.AnalyticalAccountID == nil {
			continue
		}
		out = append(out, Accrual{LineID: l.ID, AnalyticalAccountID: *l.AnalyticalAccountID, Amount: l.LineTotal})
	}
	return out
}

package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shivfurniture/erp/internal/domain/finance"
	"github.com/shopspring/decimal"
)

// AllocationRequest applies part of a payment to one transaction
type AllocationRequest struct {
	TransactionID   uuid.UUID       `json:"transaction_id" binding:"required"`
	AllocatedAmount decimal.Decimal `json:"allocated_amount" binding:"decimal_gt0"`
}

// CreatePaymentRequest represents a request to record a payment.
// Type defaults from the contact: VENDOR pays are SEND, CUSTOMER receipts are RECEIVE.
type CreatePaymentRequest struct {
	ContactID   uuid.UUID           `json:"contact_id" binding:"required"`
	Type        string              `json:"type" binding:"omitempty,oneof=SEND RECEIVE"`
	Amount      decimal.Decimal     `json:"amount" binding:"decimal_gt0"`
	PaymentDate *time.Time          `json:"payment_date"`
	Method      string              `json:"method" binding:"required,oneof=CASH BANK_TRANSFER CHEQUE UPI CARD ONLINE"`
	Reference   string              `json:"reference" binding:"max=100"`
	Notes       string              `json:"notes" binding:"max=2000"`
	Allocations []AllocationRequest `json:"allocations" binding:"dive"`
	Confirm     bool                `json:"confirm"`
}

// UpdatePaymentRequest replaces payment fields and the whole allocation set
type UpdatePaymentRequest struct {
	Amount      decimal.Decimal     `json:"amount" binding:"decimal_gt0"`
	PaymentDate *time.Time          `json:"payment_date"`
	Method      string              `json:"method" binding:"required,oneof=CASH BANK_TRANSFER CHEQUE UPI CARD ONLINE"`
	Reference   string              `json:"reference" binding:"max=100"`
	Notes       string              `json:"notes" binding:"max=2000"`
	Allocations []AllocationRequest `json:"allocations" binding:"dive"`
}

// RecordReceiptRequest records a charge already verified with the gateway
type RecordReceiptRequest struct {
	TransactionID    uuid.UUID       `json:"transaction_id" binding:"required"`
	VerifiedAmount   decimal.Decimal `json:"verified_amount" binding:"decimal_gt0"`
	GatewayPaymentID string          `json:"gateway_payment_id" binding:"required,max=100"`
	Method           string          `json:"method" binding:"omitempty,oneof=CASH BANK_TRANSFER CHEQUE UPI CARD ONLINE"`
}

// PaymentListFilter is the query for listing payments
type PaymentListFilter struct {
	Type      string     `form:"type" binding:"omitempty,oneof=SEND RECEIVE"`
	Status    string     `form:"status" binding:"omitempty,oneof=DRAFT CONFIRMED VOIDED"`
	ContactID *uuid.UUID `form:"contact_id"`
	From      *time.Time `form:"from" time_format:"2006-01-02"`
	To        *time.Time `form:"to" time_format:"2006-01-02"`
	Search    string     `form:"search"`
	Page      int        `form:"page" binding:"omitempty,min=1"`
	PageSize  int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// AllocationResponse represents one allocation
type AllocationResponse struct {
	ID              uuid.UUID       `json:"id"`
	TransactionID   uuid.UUID       `json:"transaction_id"`
	AllocatedAmount decimal.Decimal `json:"allocated_amount"`
}

// PaymentResponse represents a payment with its allocations
type PaymentResponse struct {
	ID                uuid.UUID            `json:"id"`
	PaymentNumber     string               `json:"payment_number"`
	Type              string               `json:"type"`
	ContactID         uuid.UUID            `json:"contact_id"`
	Amount            decimal.Decimal      `json:"amount"`
	AllocatedAmount   decimal.Decimal      `json:"allocated_amount"`
	UnallocatedAmount decimal.Decimal      `json:"unallocated_amount"`
	PaymentDate       time.Time            `json:"payment_date"`
	Method            string               `json:"method"`
	Reference         string               `json:"reference,omitempty"`
	Notes             string               `json:"notes,omitempty"`
	Status            string               `json:"status"`
	GatewayPaymentID  string               `json:"gateway_payment_id,omitempty"`
	Allocations       []AllocationResponse `json:"allocations"`
	ConfirmedAt       *time.Time           `json:"confirmed_at,omitempty"`
	VoidedAt          *time.Time           `json:"voided_at,omitempty"`
	Version           int                  `json:"version"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

// ToPaymentResponse converts a domain payment to a response
func ToPaymentResponse(p *finance.Payment) PaymentResponse {
	allocs := make([]AllocationResponse, len(p.Allocations))
	for i, a := range p.Allocations {
		allocs[i] = AllocationResponse{
			ID:              a.ID,
			TransactionID:   a.TransactionID,
			AllocatedAmount: a.AllocatedAmount,
		}
	}
	return PaymentResponse{
		ID:                p.ID,
		PaymentNumber:     p.Number,
		Type:              string(p.Type),
		ContactID:         p.ContactID,
		Amount:            p.Amount,
		AllocatedAmount:   p.AllocatedTotal(),
		UnallocatedAmount: p.Unallocated(),
		PaymentDate:       p.PaymentDate,
		Method:            string(p.Method),
		Reference:         p.Reference,
		Notes:             p.Notes,
		Status:            string(p.Status),
		GatewayPaymentID:  p.GatewayPaymentID,
		Allocations:       allocs,
		ConfirmedAt:       p.ConfirmedAt,
		VoidedAt:          p.VoidedAt,
		Version:           p.Version,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

// ToPaymentResponses converts a slice of payments
func ToPaymentResponses(payments []finance.Payment) []PaymentResponse {
	out := make([]PaymentResponse, len(payments))
	for i := range payments {
		out[i] = ToPaymentResponse(&payments[i])
	}
	return out
}

func toAllocationInputs(reqs []AllocationRequest) []finance.AllocationInput {
	out := make([]finance.AllocationInput, len(reqs))
	for i, r := range reqs {
		out[i] = finance.AllocationInput{TransactionID: r.TransactionID, AllocatedAmount: r.AllocatedAmount}
	}
	return out
}

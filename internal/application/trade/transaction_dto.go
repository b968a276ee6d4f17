package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/shivfurniture/erp/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// LineRequest is one line of a create or update request.
// UnitPrice defaults to the product's purchase or sales price depending on
// the document side, GSTRate defaults to 18 and the analytical account is
// auto-assigned when omitted.
type LineRequest struct {
	ProductID           uuid.UUID        `json:"product_id" binding:"required"`
	Description         string           `json:"description" binding:"max=500"`
	Quantity            decimal.Decimal  `json:"quantity" binding:"decimal_gt0"`
	UnitPrice           *decimal.Decimal `json:"unit_price"`
	GSTRate             *decimal.Decimal `json:"gst_rate"`
	AnalyticalAccountID *uuid.UUID       `json:"analytical_account_id"`
}

// CreateTransactionRequest represents a request to create a trade document
type CreateTransactionRequest struct {
	Type            string        `json:"type" binding:"required,oneof=PURCHASE_ORDER VENDOR_BILL SALES_ORDER CUSTOMER_INVOICE"`
	VendorID        *uuid.UUID    `json:"vendor_id"`
	CustomerID      *uuid.UUID    `json:"customer_id"`
	TransactionDate *time.Time    `json:"transaction_date"`
	DueDate         *time.Time    `json:"due_date"`
	ParentID        *uuid.UUID    `json:"parent_id"`
	Reference       string        `json:"reference" binding:"max=100"`
	Notes           string        `json:"notes" binding:"max=2000"`
	Lines           []LineRequest `json:"lines" binding:"required,min=1,dive"`
}

// UpdateTransactionRequest replaces the header and every line of a DRAFT document
type UpdateTransactionRequest struct {
	VendorID        *uuid.UUID    `json:"vendor_id"`
	CustomerID      *uuid.UUID    `json:"customer_id"`
	TransactionDate *time.Time    `json:"transaction_date"`
	DueDate         *time.Time    `json:"due_date"`
	Reference       string        `json:"reference" binding:"max=100"`
	Notes           string        `json:"notes" binding:"max=2000"`
	Lines           []LineRequest `json:"lines" binding:"required,min=1,dive"`
}

// TransactionListFilter is the query for listing documents
type TransactionListFilter struct {
	Type          string     `form:"type" binding:"omitempty,oneof=PURCHASE_ORDER VENDOR_BILL SALES_ORDER CUSTOMER_INVOICE"`
	Status        string     `form:"status" binding:"omitempty,oneof=DRAFT CONFIRMED CANCELLED"`
	PaymentStatus string     `form:"payment_status" binding:"omitempty,oneof=NOT_PAID PARTIALLY_PAID PAID"`
	ContactID     *uuid.UUID `form:"contact_id"`
	From          *time.Time `form:"from" time_format:"2006-01-02"`
	To            *time.Time `form:"to" time_format:"2006-01-02"`
	Search        string     `form:"search"`
	Page          int        `form:"page" binding:"omitempty,min=1"`
	PageSize      int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// TransactionLineResponse represents one costed line
type TransactionLineResponse struct {
	ID                  uuid.UUID       `json:"id"`
	LineNo              int             `json:"line_no"`
	ProductID           uuid.UUID       `json:"product_id"`
	Description         string          `json:"description"`
	Quantity            decimal.Decimal `json:"quantity"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
	GSTRate             decimal.Decimal `json:"gst_rate"`
	LineTotal           decimal.Decimal `json:"line_total"`
	AnalyticalAccountID *uuid.UUID      `json:"analytical_account_id,omitempty"`
}

// TransactionResponse represents a trade document
type TransactionResponse struct {
	ID                uuid.UUID                 `json:"id"`
	TransactionNumber string                    `json:"transaction_number"`
	Type              string                    `json:"type"`
	Status            string                    `json:"status"`
	PaymentStatus     string                    `json:"payment_status"`
	VendorID          *uuid.UUID                `json:"vendor_id,omitempty"`
	CustomerID        *uuid.UUID                `json:"customer_id,omitempty"`
	TransactionDate   time.Time                 `json:"transaction_date"`
	DueDate           *time.Time                `json:"due_date,omitempty"`
	ParentID          *uuid.UUID                `json:"parent_id,omitempty"`
	Reference         string                    `json:"reference,omitempty"`
	Notes             string                    `json:"notes,omitempty"`
	Subtotal          decimal.Decimal           `json:"subtotal"`
	TaxAmount         decimal.Decimal           `json:"tax_amount"`
	TotalAmount       decimal.Decimal           `json:"total_amount"`
	PaidAmount        decimal.Decimal           `json:"paid_amount"`
	OutstandingAmount decimal.Decimal           `json:"outstanding_amount"`
	Lines             []TransactionLineResponse `json:"lines,omitempty"`
	ConfirmedAt       *time.Time                `json:"confirmed_at,omitempty"`
	CancelledAt       *time.Time                `json:"cancelled_at,omitempty"`
	Version           int                       `json:"version"`
	CreatedAt         time.Time                 `json:"created_at"`
	UpdatedAt         time.Time                 `json:"updated_at"`
}

// BudgetWarning flags a line that would push its budget over the allocation
type BudgetWarning struct {
	LineID              uuid.UUID       `json:"line_id"`
	LineNo              int             `json:"line_no"`
	AnalyticalAccountID uuid.UUID       `json:"analytical_account_id"`
	BudgetID            uuid.UUID       `json:"budget_id"`
	BudgetedAmount      decimal.Decimal `json:"budgeted_amount"`
	UsedAmount          decimal.Decimal `json:"used_amount"`
	Remaining           decimal.Decimal `json:"remaining"`
	LineTotal           decimal.Decimal `json:"line_total"`
	Message             string          `json:"message"`
}

// ToTransactionResponse converts a domain transaction to a response
func ToTransactionResponse(t *trade.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:                t.ID,
		TransactionNumber: t.Number,
		Type:              string(t.Type),
		Status:            string(t.Status),
		PaymentStatus:     string(t.PaymentStatus),
		VendorID:          t.VendorID,
		CustomerID:        t.CustomerID,
		TransactionDate:   t.TransactionDate,
		DueDate:           t.DueDate,
		ParentID:          t.ParentID,
		Reference:         t.Reference,
		Notes:             t.Notes,
		Subtotal:          t.Subtotal,
		TaxAmount:         t.TaxAmount,
		TotalAmount:       t.TotalAmount,
		PaidAmount:        t.PaidAmount,
		OutstandingAmount: t.Outstanding(),
		ConfirmedAt:       t.ConfirmedAt,
		CancelledAt:       t.CancelledAt,
		Version:           t.Version,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
	if len(t.Lines) > 0 {
		resp.Lines = make([]TransactionLineResponse, len(t.Lines))
		for i := range t.Lines {
			l := &t.Lines[i]
			resp.Lines[i] = TransactionLineResponse{
				ID:                  l.ID,
				LineNo:              l.LineNo,
				ProductID:           l.ProductID,
				Description:         l.Description,
				Quantity:            l.Quantity,
				UnitPrice:           l.UnitPrice,
				GSTRate:             l.GSTRate,
				LineTotal:           l.LineTotal,
				AnalyticalAccountID: l.AnalyticalAccountID,
			}
		}
	}
	return resp
}

// ToTransactionResponses converts a slice of transactions
func ToTransactionResponses(txns []trade.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, len(txns))
	for i := range txns {
		out[i] = ToTransactionResponse(&txns[i])
	}
	return out
}

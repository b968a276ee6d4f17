package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shivfurniture/erp/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// TransactionModel is the persistence model for purchase orders, vendor bills,
// sales orders and customer invoices
type TransactionModel struct {
	AggregateModel
	Number          string                  `gorm:"type:varchar(20);not null;uniqueIndex"`
	Type            trade.TransactionType   `gorm:"type:varchar(30);not null;index"`
	Status          trade.TransactionStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	PaymentStatus   trade.PaymentStatus     `gorm:"type:varchar(20);not null;default:'NOT_PAID'"`
	VendorID        *uuid.UUID              `gorm:"type:uuid;index"`
	CustomerID      *uuid.UUID              `gorm:"type:uuid;index"`
	TransactionDate time.Time               `gorm:"type:date;not null;index"`
	DueDate         *time.Time              `gorm:"type:date"`
	ParentID        *uuid.UUID              `gorm:"type:uuid;index"`
	Reference       string                  `gorm:"type:varchar(100)"`
	Notes           string                  `gorm:"type:text"`
	Subtotal        decimal.Decimal         `gorm:"type:decimal(18,2);not null;default:0"`
	TaxAmount       decimal.Decimal         `gorm:"type:decimal(18,2);not null;default:0"`
	TotalAmount     decimal.Decimal         `gorm:"type:decimal(18,2);not null;default:0"`
	PaidAmount      decimal.Decimal         `gorm:"type:decimal(18,2);not null;default:0"`
	ConfirmedAt     *time.Time
	CancelledAt     *time.Time
	Lines           []TransactionLineModel `gorm:"foreignKey:TransactionID;references:ID"`
}

// TableName returns the table name for GORM
func (TransactionModel) TableName() string {
	return "transactions"
}

// ToDomain converts the persistence model to a domain Transaction
func (m *TransactionModel) ToDomain() *trade.Transaction {
	t := &trade.Transaction{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Number:            m.Number,
		Type:              m.Type,
		Status:            m.Status,
		PaymentStatus:     m.PaymentStatus,
		VendorID:          m.VendorID,
		CustomerID:        m.CustomerID,
		TransactionDate:   m.TransactionDate,
		DueDate:           m.DueDate,
		ParentID:          m.ParentID,
		Reference:         m.Reference,
		Notes:             m.Notes,
		Subtotal:          m.Subtotal,
		TaxAmount:         m.TaxAmount,
		TotalAmount:       m.TotalAmount,
		PaidAmount:        m.PaidAmount,
		ConfirmedAt:       m.ConfirmedAt,
		CancelledAt:       m.CancelledAt,
	}
	if len(m.Lines) > 0 {
		t.Lines = make([]trade.TransactionLine, len(m.Lines))
		for i := range m.Lines {
			t.Lines[i] = m.Lines[i].ToDomain()
		}
	}
	return t
}

// FromDomain populates the persistence model from a domain Transaction
func (m *TransactionModel) FromDomain(t *trade.Transaction) {
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	m.Number = t.Number
	m.Type = t.Type
	m.Status = t.Status
	m.PaymentStatus = t.PaymentStatus
	m.VendorID = t.VendorID
	m.CustomerID = t.CustomerID
	m.TransactionDate = t.TransactionDate
	m.DueDate = t.DueDate
	m.ParentID = t.ParentID
	m.Reference = t.Reference
	m.Notes = t.Notes
	m.Subtotal = t.Subtotal
	m.TaxAmount = t.TaxAmount
	m.TotalAmount = t.TotalAmount
	m.PaidAmount = t.PaidAmount
	m.ConfirmedAt = t.ConfirmedAt
	m.CancelledAt = t.CancelledAt
	m.Lines = TransactionLineModelsFromDomain(t.Lines)
}

// TransactionModelFromDomain creates a persistence model from a domain Transaction
func TransactionModelFromDomain(t *trade.Transaction) *TransactionModel {
	m := &TransactionModel{}
	m.FromDomain(t)
	return m
}

// TransactionLineModel is the persistence model for transaction lines
type TransactionLineModel struct {
	ID                  uuid.UUID       `gorm:"type:uuid;primary_key"`
	TransactionID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNo              int             `gorm:"not null"`
	ProductID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	Description         string          `gorm:"type:varchar(500)"`
	Quantity            decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice           decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	GSTRate             decimal.Decimal `gorm:"column:gst_rate;type:decimal(5,2);not null"`
	LineTotal           decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	AnalyticalAccountID *uuid.UUID      `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (TransactionLineModel) TableName() string {
	return "transaction_lines"
}

// ToDomain converts the persistence model to a domain TransactionLine
func (m *TransactionLineModel) ToDomain() trade.TransactionLine {
	return trade.TransactionLine{
		ID:                  m.ID,
		TransactionID:       m.TransactionID,
		LineNo:              m.LineNo,
		ProductID:           m.ProductID,
		Description:         m.Description,
		Quantity:            m.Quantity,
		UnitPrice:           m.UnitPrice,
		GSTRate:             m.GSTRate,
		LineTotal:           m.LineTotal,
		AnalyticalAccountID: m.AnalyticalAccountID,
	}
}

// TransactionLineModelsFromDomain converts domain lines to persistence models
func TransactionLineModelsFromDomain(lines []trade.TransactionLine) []TransactionLineModel {
	out := make([]TransactionLineModel, len(lines))
	for i, l := range lines {
		out[i] = TransactionLineModel{
			ID:                  l.ID,
			TransactionID:       l.TransactionID,
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
	return out
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shivfurniture/erp/internal/domain/finance"
	"github.com/shopspring/decimal"
)

// PaymentModel is the persistence model for vendor payments and customer receipts
type PaymentModel struct {
	AggregateModel
	Number           string                `gorm:"type:varchar(20);not null;uniqueIndex"`
	Type             finance.PaymentType   `gorm:"type:varchar(10);not null;index"`
	ContactID        uuid.UUID             `gorm:"type:uuid;not null;index"`
	Amount           decimal.Decimal       `gorm:"type:decimal(18,2);not null"`
	PaymentDate      time.Time             `gorm:"type:date;not null;index"`
	Method           finance.PaymentMethod `gorm:"type:varchar(20);not null"`
	Reference        string                `gorm:"type:varchar(100)"`
	Notes            string                `gorm:"type:text"`
	Status           finance.PaymentStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	GatewayPaymentID *string               `gorm:"type:varchar(100);uniqueIndex"`
	ConfirmedAt      *time.Time
	VoidedAt         *time.Time
	Allocations      []PaymentAllocationModel `gorm:"foreignKey:PaymentID;references:ID"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment
func (m *PaymentModel) ToDomain() *finance.Payment {
	p := &finance.Payment{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Number:            m.Number,
		Type:              m.Type,
		ContactID:         m.ContactID,
		Amount:            m.Amount,
		PaymentDate:       m.PaymentDate,
		Method:            m.Method,
		Reference:         m.Reference,
		Notes:             m.Notes,
		Status:            m.Status,
		ConfirmedAt:       m.ConfirmedAt,
		VoidedAt:          m.VoidedAt,
	}
	if m.GatewayPaymentID != nil {
		p.GatewayPaymentID = *m.GatewayPaymentID
	}
	if len(m.Allocations) > 0 {
		p.Allocations = make([]finance.PaymentAllocation, len(m.Allocations))
		for i := range m.Allocations {
			p.Allocations[i] = m.Allocations[i].ToDomain()
		}
	}
	return p
}

// FromDomain populates the persistence model from a domain Payment
func (m *PaymentModel) FromDomain(p *finance.Payment) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.Number = p.Number
	m.Type = p.Type
	m.ContactID = p.ContactID
	m.Amount = p.Amount
	m.PaymentDate = p.PaymentDate
	m.Method = p.Method
	m.Reference = p.Reference
	m.Notes = p.Notes
	m.Status = p.Status
	m.GatewayPaymentID = nil
	if p.GatewayPaymentID != "" {
		id := p.GatewayPaymentID
		m.GatewayPaymentID = &id
	}
	m.ConfirmedAt = p.ConfirmedAt
	m.VoidedAt = p.VoidedAt
	m.Allocations = PaymentAllocationModelsFromDomain(p.Allocations)
}

// PaymentModelFromDomain creates a persistence model from a domain Payment
func PaymentModelFromDomain(p *finance.Payment) *PaymentModel {
	m := &PaymentModel{}
	m.FromDomain(p)
	return m
}

// PaymentAllocationModel is the persistence model for payment allocations.
// A payment allocates to a given transaction at most once.
type PaymentAllocationModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key"`
	PaymentID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_allocation_payment_txn,priority:1"`
	TransactionID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_allocation_payment_txn,priority:2;index"`
	AllocatedAmount decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CreatedAt       time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentAllocationModel) TableName() string {
	return "payment_allocations"
}

// ToDomain converts the persistence model to a domain PaymentAllocation
func (m *PaymentAllocationModel) ToDomain() finance.PaymentAllocation {
	return finance.PaymentAllocation{
		ID:              m.ID,
		PaymentID:       m.PaymentID,
		TransactionID:   m.TransactionID,
		AllocatedAmount: m.AllocatedAmount,
		CreatedAt:       m.CreatedAt,
	}
}

// PaymentAllocationModelsFromDomain converts domain allocations to persistence models
func PaymentAllocationModelsFromDomain(allocs []finance.PaymentAllocation) []PaymentAllocationModel {
	out := make([]PaymentAllocationModel, len(allocs))
	for i, a := range allocs {
		out[i] = PaymentAllocationModel{
			ID:              a.ID,
			PaymentID:       a.PaymentID,
			TransactionID:   a.TransactionID,
			AllocatedAmount: a.AllocatedAmount,
			CreatedAt:       a.CreatedAt,
		}
	}
	return out
}

package models

import (
	"github.com/google/uuid"
	"github.com/shivfurniture/erp/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for products
type ProductModel struct {
	AggregateModel
	Name          string          `gorm:"type:varchar(200);not null;index"`
	CategoryID    *uuid.UUID      `gorm:"type:uuid;index"`
	PurchasePrice decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	SalesPrice    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	GSTRate       decimal.Decimal `gorm:"column:gst_rate;type:decimal(5,2);not null;default:18"`
	Active        bool            `gorm:"column:is_active;not null;default:true"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		CategoryID:        m.CategoryID,
		PurchasePrice:     m.PurchasePrice,
		SalesPrice:        m.SalesPrice,
		GSTRate:           m.GSTRate,
		Active:            m.Active,
	}
}

// FromDomain populates the persistence model from a domain Product
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.Name = p.Name
	m.CategoryID = p.CategoryID
	m.PurchasePrice = p.PurchasePrice
	m.SalesPrice = p.SalesPrice
	m.GSTRate = p.GSTRate
	m.Active = p.Active
}

// ProductModelFromDomain creates a persistence model from a domain Product
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}

package models

import (
	"github.com/google/uuid"
	"github.com/shivfurniture/erp/internal/domain/accounting"
	"github.com/shopspring/decimal"
)

// AnalyticalAccountModel is the persistence model for analytical accounts (cost centers)
type AnalyticalAccountModel struct {
	AggregateModel
	Code        string                      `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name        string                      `gorm:"type:varchar(200);not null"`
	Description string                      `gorm:"type:text"`
	ParentID    *uuid.UUID                  `gorm:"type:uuid;index"`
	Lifecycle   accounting.AccountLifecycle `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
}

// TableName returns the table name for GORM
func (AnalyticalAccountModel) TableName() string {
	return "analytical_accounts"
}

// ToDomain converts the persistence model to a domain AnalyticalAccount
func (m *AnalyticalAccountModel) ToDomain() *accounting.AnalyticalAccount {
	return &accounting.AnalyticalAccount{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Code:              m.Code,
		Name:              m.Name,
		Description:       m.Description,
		ParentID:          m.ParentID,
		Lifecycle:         m.Lifecycle,
	}
}

// FromDomain populates the persistence model from a domain AnalyticalAccount
func (m *AnalyticalAccountModel) FromDomain(a *accounting.AnalyticalAccount) {
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	m.Code = a.Code
	m.Name = a.Name
	m.Description = a.Description
	m.ParentID = a.ParentID
	m.Lifecycle = a.Lifecycle
}

// AnalyticalAccountModelFromDomain creates a persistence model from a domain AnalyticalAccount
func AnalyticalAccountModelFromDomain(a *accounting.AnalyticalAccount) *AnalyticalAccountModel {
	m := &AnalyticalAccountModel{}
	m.FromDomain(a)
	return m
}

// AutoAnalyticalModelModel is the persistence model for auto-assignment rules
type AutoAnalyticalModelModel struct {
	AggregateModel
	ProductID           *uuid.UUID `gorm:"type:uuid;index"`
	AnalyticalAccountID uuid.UUID  `gorm:"type:uuid;not null;index"`
	Priority            int        `gorm:"not null;default:0"`
	Active              bool       `gorm:"column:is_active;not null;default:true"`
}

// TableName returns the table name for GORM
func (AutoAnalyticalModelModel) TableName() string {
	return "auto_analytical_models"
}

// ToDomain converts the persistence model to a domain AutoAnalyticalModel
func (m *AutoAnalyticalModelModel) ToDomain() *accounting.AutoAnalyticalModel {
	return &accounting.AutoAnalyticalModel{
		BaseAggregateRoot:   m.ToDomainAggregateRoot(),
		ProductID:           m.ProductID,
		AnalyticalAccountID: m.AnalyticalAccountID,
		Priority:            m.Priority,
		Active:              m.Active,
	}
}

// FromDomain populates the persistence model from a domain AutoAnalyticalModel
func (m *AutoAnalyticalModelModel) FromDomain(r *accounting.AutoAnalyticalModel) {
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	m.ProductID = r.ProductID
	m.AnalyticalAccountID = r.AnalyticalAccountID
	m.Priority = r.Priority
	m.Active = r.Active
}

// AutoAnalyticalModelModelFromDomain creates a persistence model from a domain rule
func AutoAnalyticalModelModelFromDomain(r *accounting.AutoAnalyticalModel) *AutoAnalyticalModelModel {
	m := &AutoAnalyticalModelModel{}
	m.FromDomain(r)
	return m
}

// BudgetModel is the persistence model for monthly budgets
type BudgetModel struct {
	AggregateModel
	AnalyticalAccountID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_budget_account_period,priority:1"`
	Year                int             `gorm:"not null;uniqueIndex:idx_budget_account_period,priority:2"`
	Month               int             `gorm:"not null;uniqueIndex:idx_budget_account_period,priority:3"`
	AllocatedAmount     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	UsedAmount          decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (BudgetModel) TableName() string {
	return "budgets"
}

// ToDomain converts the persistence model to a domain Budget
func (m *BudgetModel) ToDomain() *accounting.Budget {
	return &accounting.Budget{
		BaseAggregateRoot:   m.ToDomainAggregateRoot(),
		AnalyticalAccountID: m.AnalyticalAccountID,
		Year:                m.Year,
		Month:               m.Month,
		AllocatedAmount:     m.AllocatedAmount,
		UsedAmount:          m.UsedAmount,
	}
}

// FromDomain populates the persistence model from a domain Budget
func (m *BudgetModel) FromDomain(b *accounting.Budget) {
	m.FromDomainAggregateRoot(b.BaseAggregateRoot)
	m.AnalyticalAccountID = b.AnalyticalAccountID
	m.Year = b.Year
	m.Month = b.Month
	m.AllocatedAmount = b.AllocatedAmount
	m.UsedAmount = b.UsedAmount
}

// BudgetModelFromDomain creates a persistence model from a domain Budget
func BudgetModelFromDomain(b *accounting.Budget) *BudgetModel {
	m := &BudgetModel{}
	m.FromDomain(b)
	return m
}

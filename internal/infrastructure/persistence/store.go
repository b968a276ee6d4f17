package persistence

import (
	"context"

	"github.com/shivfurniture/erp/internal/application/scope"
	"github.com/shivfurniture/erp/internal/domain/accounting"
	"github.com/shivfurniture/erp/internal/domain/catalog"
	"github.com/shivfurniture/erp/internal/domain/finance"
	"github.com/shivfurniture/erp/internal/domain/partner"
	"github.com/shivfurniture/erp/internal/domain/shared"
	"github.com/shivfurniture/erp/internal/domain/trade"
	"gorm.io/gorm"
)

// GormStore implements scope.Store. Its own repositories use the plain
// connection; Execute hands out repositories bound to one GORM transaction.
type GormStore struct {
	gormRepositories
}

// NewGormStore creates a new GormStore
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{gormRepositories{tx: db}}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormStore) Execute(ctx context.Context, fn func(repos scope.Repositories) error) error {
	return s.tx.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepositories{tx: tx})
	})
}

// gormRepositories provides access to all repositories on one handle
type gormRepositories struct {
	tx *gorm.DB
}

func (r *gormRepositories) Accounts() accounting.AnalyticalAccountRepository {
	return NewGormAnalyticalAccountRepository(r.tx)
}

func (r *gormRepositories) AutoRules() accounting.AutoAnalyticalModelRepository {
	return NewGormAutoAnalyticalModelRepository(r.tx)
}

func (r *gormRepositories) Budgets() accounting.BudgetRepository {
	return NewGormBudgetRepository(r.tx)
}

func (r *gormRepositories) Contacts() partner.ContactRepository {
	return NewGormContactRepository(r.tx)
}

func (r *gormRepositories) Products() catalog.ProductRepository {
	return NewGormProductRepository(r.tx)
}

func (r *gormRepositories) Transactions() trade.TransactionRepository {
	return NewGormTransactionRepository(r.tx)
}

func (r *gormRepositories) Payments() finance.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

func (r *gormRepositories) Sequences() shared.SequenceRepository {
	return NewGormSequenceRepository(r.tx)
}

var (
	_ scope.Store        = (*GormStore)(nil)
	_ scope.Repositories = (*gormRepositories)(nil)
)

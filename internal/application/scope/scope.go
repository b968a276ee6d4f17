// Package scope provides the unit of work that application services use to
// run multi-step writes atomically.
package scope

import (
	"context"

	"github.com/shivfurniture/erp/internal/domain/accounting"
	"github.com/shivfurniture/erp/internal/domain/catalog"
	"github.com/shivfurniture/erp/internal/domain/finance"
	"github.com/shivfurniture/erp/internal/domain/partner"
	"github.com/shivfurniture/erp/internal/domain/shared"
	"github.com/shivfurniture/erp/internal/domain/trade"
)

// Repositories gives access to every repository. Repositories obtained from
// the same value share one database handle (and therefore one transaction
// when handed out by TransactionScope.Execute).
type Repositories interface {
	Accounts() accounting.AnalyticalAccountRepository
	AutoRules() accounting.AutoAnalyticalModelRepository
	Budgets() accounting.BudgetRepository
	Contacts() partner.ContactRepository
	Products() catalog.ProductRepository
	Transactions() trade.TransactionRepository
	Payments() finance.PaymentRepository
	Sequences() shared.SequenceRepository
}

// TransactionScope runs fn inside a database transaction. If fn returns an
// error the transaction is rolled back, otherwise it is committed.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}

// Store is the root unit of work: repositories bound to the plain connection
// for reads plus Execute for atomic writes.
type Store interface {
	Repositories
	TransactionScope
}

// RepositorySet is a plain Repositories implementation
type RepositorySet struct {
	AccountRepo     accounting.AnalyticalAccountRepository
	AutoRuleRepo    accounting.AutoAnalyticalModelRepository
	BudgetRepo      accounting.BudgetRepository
	ContactRepo     partner.ContactRepository
	ProductRepo     catalog.ProductRepository
	TransactionRepo trade.TransactionRepository
	PaymentRepo     finance.PaymentRepository
	SequenceRepo    shared.SequenceRepository
}

func (s *RepositorySet) Accounts() accounting.AnalyticalAccountRepository { return s.AccountRepo }
func (s *RepositorySet) AutoRules() accounting.AutoAnalyticalModelRepository { return s.AutoRuleRepo }
func (s *RepositorySet) Budgets() accounting.BudgetRepository { return s.BudgetRepo }
func (s *RepositorySet) Contacts() partner.ContactRepository { return s.ContactRepo }
func (s *RepositorySet) Products() catalog.ProductRepository { return s.ProductRepo }
func (s *RepositorySet) Transactions() trade.TransactionRepository { return s.TransactionRepo }
func (s *RepositorySet) Payments() finance.PaymentRepository { return s.PaymentRepo }
func (s *RepositorySet) Sequences() shared.SequenceRepository { return s.SequenceRepo }

// NoOpStore is a Store that doesn't actually use transactions.
// This is useful for testing services against mock repositories.
type NoOpStore struct {
	RepositorySet
}

// NewNoOpStore creates a NoOpStore over the given repositories
func NewNoOpStore(repos RepositorySet) *NoOpStore {
	return &NoOpStore{RepositorySet: repos}
}

// Execute runs fn without a real transaction
func (s *NoOpStore) Execute(_ context.Context, fn func(repos Repositories) error) error {
	return fn(s)
}

// TransitionRecorder observes document state changes, typically for metrics
type TransitionRecorder interface {
	RecordTransition(document, status string)
}

// NopRecorder discards transitions
type NopRecorder struct{}

// RecordTransition does nothing
func (NopRecorder) RecordTransition(string, string) {}

var (
	_ TransitionRecorder = NopRecorder{}
	_ Repositories       = (*RepositorySet)(nil)
	_ Store              = (*NoOpStore)(nil)
)

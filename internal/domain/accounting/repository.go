package accounting

import (
	"context"

	"github.com/google/uuid"
	"github.com/shivfurniture/erp/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AccountFilter narrows account list queries. Lifecycle is mandatory so every
// read path states whether archived accounts are included.
type AccountFilter struct {
	shared.Filter
	Lifecycle LifecyclePolicy
	ParentID  *uuid.UUID
	RootOnly  bool
}

// AnalyticalAccountRepository persists analytical accounts
type AnalyticalAccountRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*AnalyticalAccount, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]AnalyticalAccount, error)
	FindByCode(ctx context.Context, code string) (*AnalyticalAccount, error)
	FindAll(ctx context.Context, filter AccountFilter) ([]AnalyticalAccount, int64, error)

	// FindForTree returns every account admitted by policy ordered by code
	FindForTree(ctx context.Context, policy LifecyclePolicy) ([]AnalyticalAccount, error)

	// AncestorIDs walks the parent chain of id, nearest ancestor first
	AncestorIDs(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error)

	ExistsByCode(ctx context.Context, code string, excludeID *uuid.UUID) (bool, error)

	// Save creates or updates; updates are rejected with CONCURRENCY_CONFLICT
	// when the stored version differs from the loaded one
	Save(ctx context.Context, account *AnalyticalAccount) error
}

// AutoAnalyticalModelRepository persists auto-assignment rules
type AutoAnalyticalModelRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*AutoAnalyticalModel, error)
	FindAll(ctx context.Context, filter shared.Filter, productID *uuid.UUID) ([]AutoAnalyticalModel, int64, error)

	// FindCandidates returns active rules for productID plus wildcard rules,
	// ordered priority DESC, created_at ASC, id ASC
	FindCandidates(ctx context.Context, productID uuid.UUID) ([]AutoAnalyticalModel, error)

	Save(ctx context.Context, rule *AutoAnalyticalModel) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// BudgetFilter narrows budget list queries
type BudgetFilter struct {
	shared.Filter
	Year                *int
	Month               *int
	AnalyticalAccountID *uuid.UUID
}

// BudgetRepository persists budgets
type BudgetRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Budget, error)
	FindByPeriod(ctx context.Context, accountID uuid.UUID, period Period) (*Budget, error)
	FindAll(ctx context.Context, filter BudgetFilter) ([]Budget, int64, error)
	FindRecentForAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]Budget, error)
	ExistsForPeriod(ctx context.Context, accountID uuid.UUID, period Period) (bool, error)
	Save(ctx context.Context, budget *Budget) error
	Delete(ctx context.Context, id uuid.UUID) error

	// AddUsage atomically adds amount (which may be negative) to used_amount of
	// the matching budget row. Reports false when no budget exists.
	AddUsage(ctx context.Context, accountID uuid.UUID, period Period, amount decimal.Decimal) (bool, error)
}

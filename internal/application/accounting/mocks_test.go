package accounting

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shivfurniture/erp/internal/domain/accounting"
	"github.com/shivfurniture/erp/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockAccountRepository is a mock implementation of AnalyticalAccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*accounting.AnalyticalAccount, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounting.AnalyticalAccount), args.Error(1)
}

func (m *MockAccountRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]accounting.AnalyticalAccount, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]accounting.AnalyticalAccount), args.Error(1)
}

func (m *MockAccountRepository) FindByCode(ctx context.Context, code string) (*accounting.AnalyticalAccount, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounting.AnalyticalAccount), args.Error(1)
}

func (m *MockAccountRepository) FindAll(ctx context.Context, filter accounting.AccountFilter) ([]accounting.AnalyticalAccount, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]accounting.AnalyticalAccount), args.Get(1).(int64), args.Error(2)
}

func (m *MockAccountRepository) FindForTree(ctx context.Context, policy accounting.LifecyclePolicy) ([]accounting.AnalyticalAccount, error) {
	args := m.Called(ctx, policy)
	return args.Get(0).([]accounting.AnalyticalAccount), args.Error(1)
}

func (m *MockAccountRepository) AncestorIDs(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, id)
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockAccountRepository) ExistsByCode(ctx context.Context, code string, excludeID *uuid.UUID) (bool, error) {
	args := m.Called(ctx, code, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccountRepository) Save(ctx context.Context, account *accounting.AnalyticalAccount) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

// MockRuleRepository is a mock implementation of AutoAnalyticalModelRepository
type MockRuleRepository struct {
	mock.Mock
}

func (m *MockRuleRepository) FindByID(ctx context.Context, id uuid.UUID) (*accounting.AutoAnalyticalModel, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounting.AutoAnalyticalModel), args.Error(1)
}

func (m *MockRuleRepository) FindAll(ctx context.Context, filter shared.Filter, productID *uuid.UUID) ([]accounting.AutoAnalyticalModel, int64, error) {
	args := m.Called(ctx, filter, productID)
	return args.Get(0).([]accounting.AutoAnalyticalModel), args.Get(1).(int64), args.Error(2)
}

func (m *MockRuleRepository) FindCandidates(ctx context.Context, productID uuid.UUID) ([]accounting.AutoAnalyticalModel, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).([]accounting.AutoAnalyticalModel), args.Error(1)
}

func (m *MockRuleRepository) Save(ctx context.Context, rule *accounting.AutoAnalyticalModel) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

func (m *MockRuleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockBudgetRepository is a mock implementation of BudgetRepository
type MockBudgetRepository struct {
	mock.Mock
}

func (m *MockBudgetRepository) FindByID(ctx context.Context, id uuid.UUID) (*accounting.Budget, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounting.Budget), args.Error(1)
}

func (m *MockBudgetRepository) FindByPeriod(ctx context.Context, accountID uuid.UUID, period accounting.Period) (*accounting.Budget, error) {
	args := m.Called(ctx, accountID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounting.Budget), args.Error(1)
}

func (m *MockBudgetRepository) FindAll(ctx context.Context, filter accounting.BudgetFilter) ([]accounting.Budget, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]accounting.Budget), args.Get(1).(int64), args.Error(2)
}

func (m *MockBudgetRepository) FindRecentForAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]accounting.Budget, error) {
	args := m.Called(ctx, accountID, limit)
	return args.Get(0).([]accounting.Budget), args.Error(1)
}

func (m *MockBudgetRepository) ExistsForPeriod(ctx context.Context, accountID uuid.UUID, period accounting.Period) (bool, error) {
	args := m.Called(ctx, accountID, period)
	return args.Bool(0), args.Error(1)
}

func (m *MockBudgetRepository) Save(ctx context.Context, budget *accounting.Budget) error {
	args := m.Called(ctx, budget)
	return args.Error(0)
}

func (m *MockBudgetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBudgetRepository) AddUsage(ctx context.Context, accountID uuid.UUID, period accounting.Period, amount decimal.Decimal) (bool, error) {
	args := m.Called(ctx, accountID, period, amount)
	return args.Bool(0), args.Error(1)
}

type stubExporter struct {
	got accounting.BudgetSummary
}

func (e *stubExporter) ExportBudgetSummary(summary accounting.BudgetSummary) ([]byte, error) {
	e.got = summary
	return []byte("xlsx"), nil
}

func (e *stubExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// MockReportArchive is a mock implementation of ReportArchive
type MockReportArchive struct {
	mock.Mock
}

func (m *MockReportArchive) Store(ctx context.Context, key string, data []byte, contentType string) error {
	args := m.Called(ctx, key, data, contentType)
	return args.Error(0)
}

func (m *MockReportArchive) DownloadURL(ctx context.Context, key string) (string, time.Time, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

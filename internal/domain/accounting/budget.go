package accounting

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shivfurniture/erp/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Period identifies a budget bucket by calendar year and month
type Period struct {
	Year  int
	Month int
}

// PeriodOf returns the period containing t
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: int(t.Month())}
}

// Validate checks the period bounds
func (p Period) Validate() error {
	if p.Year < 2000 || p.Year > 9999 {
		return shared.NewValidationError(fmt.Sprintf("budget year %d is out of range", p.Year))
	}
	if p.Month < 1 || p.Month > 12 {
		return shared.NewValidationError(fmt.Sprintf("budget month %d must be between 1 and 12", p.Month))
	}
	return nil
}

// String renders the period as YYYY-MM
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// Budget is the allocated vs used amount of one analytical account in one month.
// UsedAmount only moves through accrual, never through Update.
type Budget struct {
	shared.BaseAggregateRoot
	AnalyticalAccountID uuid.UUID
	Year                int
	Month               int
	AllocatedAmount     decimal.Decimal
	UsedAmount          decimal.Decimal
}

// NewBudget creates a budget with zero usage
func NewBudget(accountID uuid.UUID, period Period, allocated decimal.Decimal) (*Budget, error) {
	if accountID == uuid.Nil {
		return nil, shared.NewValidationError("analytical account is required")
	}
	if err := period.Validate(); err != nil {
		return nil, err
	}
	if allocated.IsNegative() {
		return nil, shared.NewValidationError("allocated amount cannot be negative")
	}
	return &Budget{
		BaseAggregateRoot:   shared.NewBaseAggregateRoot(),
		AnalyticalAccountID: accountID,
		Year:                period.Year,
		Month:               period.Month,
		AllocatedAmount:     shared.RoundAmount(allocated),
		UsedAmount:          decimal.Zero,
	}, nil
}

// Period returns the budget period
func (b *Budget) Period() Period {
	return Period{Year: b.Year, Month: b.Month}
}

// SetAllocated replaces the allocated amount
func (b *Budget) SetAllocated(allocated decimal.Decimal) error {
	if allocated.IsNegative() {
		return shared.NewValidationError("allocated amount cannot be negative")
	}
	b.AllocatedAmount = shared.RoundAmount(allocated)
	b.Touch()
	return nil
}

// Remaining is allocated minus used; negative when overspent
func (b *Budget) Remaining() decimal.Decimal {
	return b.AllocatedAmount.Sub(b.UsedAmount)
}

// Utilization is used/allocated*100, 0 when nothing is allocated
func (b *Budget) Utilization() decimal.Decimal {
	return shared.Percentage(b.UsedAmount, b.AllocatedAmount)
}

// WouldExceed reports whether spending amount on top of pending (unconfirmed
// spend already counted against this budget) overflows the allocation.
func (b *Budget) WouldExceed(pending, amount decimal.Decimal) bool {
	return b.UsedAmount.Add(pending).Add(amount).GreaterThan(b.AllocatedAmount)
}

// AccountUtilization is one row of a budget summary
type AccountUtilization struct {
	BudgetID            uuid.UUID
	AnalyticalAccountID uuid.UUID
	AccountCode         string
	AccountName         string
	Allocated           decimal.Decimal
	Used                decimal.Decimal
	Remaining           decimal.Decimal
	Utilization         decimal.Decimal
}

// BudgetSummary aggregates all budgets of a period
type BudgetSummary struct {
	Period         Period
	Accounts       []AccountUtilization
	TotalAllocated decimal.Decimal
	TotalUsed      decimal.Decimal
	TotalRemaining decimal.Decimal
	Utilization    decimal.Decimal
}

// Summarize aggregates budgets of one period. accounts resolves code and name
// for display and may be missing entries.
func Summarize(period Period, budgets []Budget, accounts map[uuid.UUID]AnalyticalAccount) BudgetSummary {
	s := BudgetSummary{
		Period:         period,
		Accounts:       make([]AccountUtilization, 0, len(budgets)),
		TotalAllocated: decimal.Zero,
		TotalUsed:      decimal.Zero,
	}
	for i := range budgets {
		b := &budgets[i]
		row := AccountUtilization{
			BudgetID:            b.ID,
			AnalyticalAccountID: b.AnalyticalAccountID,
			Allocated:           b.AllocatedAmount,
			Used:                b.UsedAmount,
			Remaining:           b.Remaining(),
			Utilization:         b.Utilization(),
		}
		if acc, ok := accounts[b.AnalyticalAccountID]; ok {
			row.AccountCode = acc.Code
			row.AccountName = acc.Name
		}
		s.Accounts = append(s.Accounts, row)
		s.TotalAllocated = s.TotalAllocated.Add(b.AllocatedAmount)
		s.TotalUsed = s.TotalUsed.Add(b.UsedAmount)
	}
	s.TotalRemaining = s.TotalAllocated.Sub(s.TotalUsed)
	s.Utilization = shared.Percentage(s.TotalUsed, s.TotalAllocated)
	return s
}

package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shivfurniture/erp/internal/domain/accounting"
	"github.com/shivfurniture/erp/internal/domain/shared"
	"github.com/shivfurniture/erp/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormBudgetRepository implements BudgetRepository using GORM
type GormBudgetRepository struct {
	db *gorm.DB
}

// NewGormBudgetRepository creates a new GormBudgetRepository
func NewGormBudgetRepository(db *gorm.DB) *GormBudgetRepository {
	return &GormBudgetRepository{db: db}
}

// FindByID finds a budget by its ID
func (r *GormBudgetRepository) FindByID(ctx context.Context, id uuid.UUID) (*accounting.Budget, error) {
	var model models.BudgetModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, mapFindError(err)
	}
	return model.ToDomain(), nil
}

// FindByPeriod finds the budget of an account for one month
func (r *GormBudgetRepository) FindByPeriod(ctx context.Context, accountID uuid.UUID, period accounting.Period) (*accounting.Budget, error) {
	var model models.BudgetModel
	if err := r.db.WithContext(ctx).
		Where("analytical_account_id = ? AND year = ? AND month = ?", accountID, period.Year, period.Month).
		First(&model).Error; err != nil {
		return nil, mapFindError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists budgets matching the filter
func (r *GormBudgetRepository) FindAll(ctx context.Context, filter accounting.BudgetFilter) ([]accounting.Budget, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.BudgetModel{})
	if filter.Year != nil {
		query = query.Where("year = ?", *filter.Year)
	}
	if filter.Month != nil {
		query = query.Where("month = ?", *filter.Month)
	}
	if filter.AnalyticalAccountID != nil {
		query = query.Where("analytical_account_id = ?", *filter.AnalyticalAccountID)
	}

	query, total, err := countAndPage(query, filter.Filter, budgetSort, "year DESC, month DESC, created_at ASC")
	if err != nil {
		return nil, 0, err
	}
	var rows []models.BudgetModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return budgetsToDomain(rows), total, nil
}

// FindRecentForAccount returns the latest periods of an account, newest first
func (r *GormBudgetRepository) FindRecentForAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]accounting.Budget, error) {
	var rows []models.BudgetModel
	if err := r.db.WithContext(ctx).
		Where("analytical_account_id = ?", accountID).
		Order("year DESC, month DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return budgetsToDomain(rows), nil
}

// ExistsForPeriod reports whether the account already has a budget for the month
func (r *GormBudgetRepository) ExistsForPeriod(ctx context.Context, accountID uuid.UUID, period accounting.Period) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.BudgetModel{}).
		Where("analytical_account_id = ? AND year = ? AND month = ?", accountID, period.Year, period.Month).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a budget with optimistic locking
func (r *GormBudgetRepository) Save(ctx context.Context, budget *accounting.Budget) error {
	model := models.BudgetModelFromDomain(budget)
	if err := saveAggregate(ctx, r.db, model); err != nil {
		return err
	}
	budget.Version = model.Version
	budget.UpdatedAt = model.UpdatedAt
	return nil
}

// Delete removes a budget
func (r *GormBudgetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.BudgetModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// AddUsage adds amount to used_amount in a single UPDATE so concurrent
// confirmations never lose an increment
func (r *GormBudgetRepository) AddUsage(ctx context.Context, accountID uuid.UUID, period accounting.Period, amount decimal.Decimal) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.BudgetModel{}).
		Where("analytical_account_id = ? AND year = ? AND month = ?", accountID, period.Year, period.Month).
		Updates(map[string]any{
			"used_amount": gorm.Expr("used_amount + ?", amount),
			"version":     gorm.Expr("version + 1"),
			"updated_at":  time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func budgetsToDomain(rows []models.BudgetModel) []accounting.Budget {
	out := make([]accounting.Budget, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

// Ensure GormBudgetRepository implements BudgetRepository
var _ accounting.BudgetRepository = (*GormBudgetRepository)(nil)

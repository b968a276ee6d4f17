package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/shivfurniture/erp/internal/domain/accounting"
	"github.com/shivfurniture/erp/internal/domain/shared"
	"github.com/shivfurniture/erp/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAutoAnalyticalModelRepository implements AutoAnalyticalModelRepository using GORM
type GormAutoAnalyticalModelRepository struct {
	db *gorm.DB
}

// NewGormAutoAnalyticalModelRepository creates a new GormAutoAnalyticalModelRepository
func NewGormAutoAnalyticalModelRepository(db *gorm.DB) *GormAutoAnalyticalModelRepository {
	return &GormAutoAnalyticalModelRepository{db: db}
}

// FindByID finds a rule by its ID
func (r *GormAutoAnalyticalModelRepository) FindByID(ctx context.Context, id uuid.UUID) (*accounting.AutoAnalyticalModel, error) {
	var model models.AutoAnalyticalModelModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, mapFindError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists rules, optionally only those bound to productID
func (r *GormAutoAnalyticalModelRepository) FindAll(ctx context.Context, filter shared.Filter, productID *uuid.UUID) ([]accounting.AutoAnalyticalModel, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.AutoAnalyticalModelModel{})
	if productID != nil {
		query = query.Where("product_id = ?", *productID)
	}

	query, total, err := countAndPage(query, filter, autoRuleSort, "priority DESC, created_at ASC, id ASC")
	if err != nil {
		return nil, 0, err
	}
	var rows []models.AutoAnalyticalModelModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rulesToDomain(rows), total, nil
}

// FindCandidates returns the active rules that could apply to productID:
// those bound to it plus wildcards, in evaluation order
func (r *GormAutoAnalyticalModelRepository) FindCandidates(ctx context.Context, productID uuid.UUID) ([]accounting.AutoAnalyticalModel, error) {
	var rows []models.AutoAnalyticalModelModel
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("product_id = ? OR product_id IS NULL", productID).
		Order("priority DESC, created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rulesToDomain(rows), nil
}

// Save creates or updates a rule with optimistic locking
func (r *GormAutoAnalyticalModelRepository) Save(ctx context.Context, rule *accounting.AutoAnalyticalModel) error {
	model := models.AutoAnalyticalModelModelFromDomain(rule)
	if err := saveAggregate(ctx, r.db, model); err != nil {
		return err
	}
	rule.Version = model.Version
	rule.UpdatedAt = model.UpdatedAt
	return nil
}

// Delete removes a rule
func (r *GormAutoAnalyticalModelRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.AutoAnalyticalModelModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func rulesToDomain(rows []models.AutoAnalyticalModelModel) []accounting.AutoAnalyticalModel {
	out := make([]accounting.AutoAnalyticalModel, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

// Ensure GormAutoAnalyticalModelRepository implements AutoAnalyticalModelRepository
var _ accounting.AutoAnalyticalModelRepository = (*GormAutoAnalyticalModelRepository)(nil)

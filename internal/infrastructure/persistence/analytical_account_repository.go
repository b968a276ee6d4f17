package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/shivfurniture/erp/internal/domain/accounting"
	"github.com/shivfurniture/erp/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// maxAccountDepth bounds the parent walk so a corrupted cycle cannot loop forever
const maxAccountDepth = 64

// GormAnalyticalAccountRepository implements AnalyticalAccountRepository using GORM
type GormAnalyticalAccountRepository struct {
	db *gorm.DB
}

// NewGormAnalyticalAccountRepository creates a new GormAnalyticalAccountRepository
func NewGormAnalyticalAccountRepository(db *gorm.DB) *GormAnalyticalAccountRepository {
	return &GormAnalyticalAccountRepository{db: db}
}

// FindByID finds an account by its ID
func (r *GormAnalyticalAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*accounting.AnalyticalAccount, error) {
	var model models.AnalyticalAccountModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, mapFindError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDs finds accounts by IDs, silently skipping unknown ones
func (r *GormAnalyticalAccountRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]accounting.AnalyticalAccount, error) {
	if len(ids) == 0 {
		return []accounting.AnalyticalAccount{}, nil
	}
	var rows []models.AnalyticalAccountModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return accountsToDomain(rows), nil
}

// FindByCode finds an account by its unique code
func (r *GormAnalyticalAccountRepository) FindByCode(ctx context.Context, code string) (*accounting.AnalyticalAccount, error) {
	var model models.AnalyticalAccountModel
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&model).Error; err != nil {
		return nil, mapFindError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists accounts matching the filter
func (r *GormAnalyticalAccountRepository) FindAll(ctx context.Context, filter accounting.AccountFilter) ([]accounting.AnalyticalAccount, int64, error) {
	query := applyLifecyclePolicy(r.db.WithContext(ctx).Model(&models.AnalyticalAccountModel{}), filter.Lifecycle)
	if filter.Search != "" {
		pattern := searchPattern(filter.Search)
		query = query.Where("LOWER(code) LIKE ? OR LOWER(name) LIKE ?", pattern, pattern)
	}
	switch {
	case filter.RootOnly:
		query = query.Where("parent_id IS NULL")
	case filter.ParentID != nil:
		query = query.Where("parent_id = ?", *filter.ParentID)
	}

	query, total, err := countAndPage(query, filter.Filter, accountSort, "code ASC")
	if err != nil {
		return nil, 0, err
	}
	var rows []models.AnalyticalAccountModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return accountsToDomain(rows), total, nil
}

// FindForTree returns every account admitted by policy ordered by code
func (r *GormAnalyticalAccountRepository) FindForTree(ctx context.Context, policy accounting.LifecyclePolicy) ([]accounting.AnalyticalAccount, error) {
	var rows []models.AnalyticalAccountModel
	if err := applyLifecyclePolicy(r.db.WithContext(ctx), policy).Order("code ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return accountsToDomain(rows), nil
}

// AncestorIDs walks the parent chain of id, nearest ancestor first
func (r *GormAnalyticalAccountRepository) AncestorIDs(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	var ancestors []uuid.UUID
	seen := map[uuid.UUID]bool{id: true}
	current := id
	for range maxAccountDepth {
		var model models.AnalyticalAccountModel
		if err := r.db.WithContext(ctx).Select("id", "parent_id").First(&model, "id = ?", current).Error; err != nil {
			return nil, mapFindError(err)
		}
		if model.ParentID == nil || seen[*model.ParentID] {
			return ancestors, nil
		}
		seen[*model.ParentID] = true
		ancestors = append(ancestors, *model.ParentID)
		current = *model.ParentID
	}
	return ancestors, nil
}

// ExistsByCode reports whether another account already uses code
func (r *GormAnalyticalAccountRepository) ExistsByCode(ctx context.Context, code string, excludeID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.AnalyticalAccountModel{}).Where("code = ?", code)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates an account with optimistic locking
func (r *GormAnalyticalAccountRepository) Save(ctx context.Context, account *accounting.AnalyticalAccount) error {
	model := models.AnalyticalAccountModelFromDomain(account)
	if err := saveAggregate(ctx, r.db, model); err != nil {
		return err
	}
	account.Version = model.Version
	account.UpdatedAt = model.UpdatedAt
	return nil
}

func applyLifecyclePolicy(query *gorm.DB, policy accounting.LifecyclePolicy) *gorm.DB {
	switch policy {
	case accounting.IncludeAll:
		return query
	case accounting.IncludeArchivedOnly:
		return query.Where("lifecycle = ?", accounting.AccountLifecycleArchived)
	}
	return query.Where("lifecycle = ?", accounting.AccountLifecycleActive)
}

func accountsToDomain(rows []models.AnalyticalAccountModel) []accounting.AnalyticalAccount {
	out := make([]accounting.AnalyticalAccount, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

// Ensure GormAnalyticalAccountRepository implements AnalyticalAccountRepository
var _ accounting.AnalyticalAccountRepository = (*GormAnalyticalAccountRepository)(nil)

package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shivfurniture/erp/internal/domain/shared"
	"github.com/shivfurniture/erp/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// versionedModel is implemented by every model embedding models.AggregateModel
type versionedModel interface {
	Aggregate() *models.AggregateModel
}

// saveAggregate inserts model when no row with its id exists, otherwise it
// updates every column guarded by the version the caller loaded. The model's
// Version and UpdatedAt reflect the stored row afterwards.
func saveAggregate(ctx context.Context, db *gorm.DB, model versionedModel) error {
	agg := model.Aggregate()

	var count int64
	if err := db.WithContext(ctx).Model(model).Where("id = ?", agg.ID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return insertAggregate(ctx, db, model)
	}
	return updateAggregate(ctx, db, model)
}

// insertAggregate creates the row without touching associations
func insertAggregate(ctx context.Context, db *gorm.DB, model versionedModel) error {
	agg := model.Aggregate()
	if agg.Version == 0 {
		agg.Version = 1
	}
	return mapWriteError(db.WithContext(ctx).Omit(clause.Associations).Create(model).Error)
}

// updateAggregate writes every column when the stored version still matches.
// Associations are never written; repositories replace child rows explicitly.
func updateAggregate(ctx context.Context, db *gorm.DB, model versionedModel) error {
	agg := model.Aggregate()
	expected := agg.Version
	prevUpdatedAt := agg.UpdatedAt

	agg.Version = expected + 1
	agg.UpdatedAt = time.Now()

	result := db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", agg.ID, expected).
		Select("*").
		Omit("id", "created_at", clause.Associations).
		Updates(model)
	if result.Error != nil {
		agg.Version = expected
		agg.UpdatedAt = prevUpdatedAt
		return mapWriteError(result.Error)
	}
	if result.RowsAffected == 0 {
		agg.Version = expected
		agg.UpdatedAt = prevUpdatedAt
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// mapWriteError turns unique-constraint violations into ALREADY_EXISTS
func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
		return shared.NewDomainError(shared.CodeAlreadyExists, "A record with the same unique key already exists")
	}
	return err
}

// isUniqueViolation matches driver messages for drivers that do not translate errors
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "sqlstate 23505")
}

// mapFindError maps gorm's not-found error to the domain one
func mapFindError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return err
}

// forUpdate adds a row lock; drivers without SELECT ... FOR UPDATE ignore it
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// searchPattern returns a lower-case LIKE pattern for a free-text search
func searchPattern(search string) string {
	return "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
}

// countAndPage counts the rows matched by query and then applies ordering and
// pagination from filter. The sort column is checked against allowed.
func countAndPage(query *gorm.DB, filter shared.Filter, allowed sortColumns, defaultOrder string) (*gorm.DB, int64, error) {
	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if order := allowed.orderBy(filter.OrderBy, filter.OrderDir); order != "" {
		query = query.Order(order).Order("id ASC")
	} else {
		query = query.Order(defaultOrder)
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return query, total, nil
}

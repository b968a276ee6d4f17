package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/shivfurniture/erp/internal/domain/shared"
	"github.com/shivfurniture/erp/internal/domain/trade"
	"github.com/shivfurniture/erp/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormTransactionRepository implements TransactionRepository using GORM.
// Lines are always written explicitly, never through association saving.
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GormTransactionRepository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// FindByID loads a transaction with its lines ordered by line number
func (r *GormTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Transaction, error) {
	return r.find(ctx, r.db.WithContext(ctx), id)
}

// FindByIDForUpdate is FindByID holding a row lock on the header
func (r *GormTransactionRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*trade.Transaction, error) {
	return r.find(ctx, forUpdate(r.db.WithContext(ctx)), id)
}

func (r *GormTransactionRepository) find(ctx context.Context, query *gorm.DB, id uuid.UUID) (*trade.Transaction, error) {
	var model models.TransactionModel
	if err := query.First(&model, "id = ?", id).Error; err != nil {
		return nil, mapFindError(err)
	}
	if err := r.db.WithContext(ctx).
		Where("transaction_id = ?", id).
		Order("line_no ASC").
		Find(&model.Lines).Error; err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists transaction headers matching the filter
func (r *GormTransactionRepository) FindAll(ctx context.Context, filter trade.TransactionFilter) ([]trade.Transaction, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.TransactionModel{})
	if filter.Search != "" {
		pattern := searchPattern(filter.Search)
		query = query.Where("LOWER(number) LIKE ? OR LOWER(reference) LIKE ?", pattern, pattern)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PaymentStatus != "" {
		query = query.Where("payment_status = ?", filter.PaymentStatus)
	}
	if filter.ContactID != nil {
		query = query.Where("vendor_id = ? OR customer_id = ?", *filter.ContactID, *filter.ContactID)
	}
	if filter.ParentID != nil {
		query = query.Where("parent_id = ?", *filter.ParentID)
	}
	if filter.From != nil {
		query = query.Where("transaction_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("transaction_date <= ?", *filter.To)
	}

	query, total, err := countAndPage(query, filter.Filter, transactionSort, "transaction_date DESC, number DESC")
	if err != nil {
		return nil, 0, err
	}
	var rows []models.TransactionModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return transactionsToDomain(rows), total, nil
}

// FindChildren lists documents derived from parentID, oldest first
func (r *GormTransactionRepository) FindChildren(ctx context.Context, parentID uuid.UUID) ([]trade.Transaction, error) {
	var rows []models.TransactionModel
	if err := r.db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("created_at ASC, number ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return transactionsToDomain(rows), nil
}

// FindOutstanding lists confirmed, not fully paid documents of type t for a contact
func (r *GormTransactionRepository) FindOutstanding(ctx context.Context, contactID uuid.UUID, t trade.TransactionType) ([]trade.Transaction, error) {
	var rows []models.TransactionModel
	if err := r.db.WithContext(ctx).
		Where("type = ? AND status = ?", t, trade.TransactionStatusConfirmed).
		Where("payment_status IN ?", []trade.PaymentStatus{trade.PaymentStatusNotPaid, trade.PaymentStatusPartiallyPaid}).
		Where("vendor_id = ? OR customer_id = ?", contactID, contactID).
		Order("transaction_date ASC, number ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return transactionsToDomain(rows), nil
}

// Create inserts the header and all lines
func (r *GormTransactionRepository) Create(ctx context.Context, t *trade.Transaction) error {
	model := models.TransactionModelFromDomain(t)
	if err := insertAggregate(ctx, r.db, model); err != nil {
		return err
	}
	t.Version = model.Version
	return r.insertLines(ctx, model.Lines)
}

// Save updates header fields guarded by the version column
func (r *GormTransactionRepository) Save(ctx context.Context, t *trade.Transaction) error {
	model := models.TransactionModelFromDomain(t)
	if err := updateAggregate(ctx, r.db, model); err != nil {
		return err
	}
	t.Version = model.Version
	t.UpdatedAt = model.UpdatedAt
	return nil
}

// ReplaceLines deletes every stored line and inserts t.Lines
func (r *GormTransactionRepository) ReplaceLines(ctx context.Context, t *trade.Transaction) error {
	if err := r.db.WithContext(ctx).
		Where("transaction_id = ?", t.ID).
		Delete(&models.TransactionLineModel{}).Error; err != nil {
		return err
	}
	return r.insertLines(ctx, models.TransactionLineModelsFromDomain(t.Lines))
}

func (r *GormTransactionRepository) insertLines(ctx context.Context, lines []models.TransactionLineModel) error {
	if len(lines) == 0 {
		return nil
	}
	return mapWriteError(r.db.WithContext(ctx).Create(&lines).Error)
}

// Delete removes the transaction and its lines
func (r *GormTransactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("transaction_id = ?", id).
		Delete(&models.TransactionLineModel{}).Error; err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Delete(&models.TransactionModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func transactionsToDomain(rows []models.TransactionModel) []trade.Transaction {
	out := make([]trade.Transaction, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

// Ensure GormTransactionRepository implements TransactionRepository
var _ trade.TransactionRepository = (*GormTransactionRepository)(nil)

package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/shivfurniture/erp/internal/domain/finance"
	"github.com/shivfurniture/erp/internal/domain/shared"
	"github.com/shivfurniture/erp/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormPaymentRepository implements PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByID loads a payment with its allocations
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Payment, error) {
	return r.find(ctx, r.db.WithContext(ctx).Where("id = ?", id))
}

// FindByIDForUpdate is FindByID holding a row lock on the payment
func (r *GormPaymentRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*finance.Payment, error) {
	return r.find(ctx, forUpdate(r.db.WithContext(ctx)).Where("id = ?", id))
}

// FindByGatewayPaymentID finds the payment recorded for a gateway payment
func (r *GormPaymentRepository) FindByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*finance.Payment, error) {
	if gatewayPaymentID == "" {
		return nil, shared.ErrNotFound
	}
	return r.find(ctx, r.db.WithContext(ctx).Where("gateway_payment_id = ?", gatewayPaymentID))
}

func (r *GormPaymentRepository) find(ctx context.Context, query *gorm.DB) (*finance.Payment, error) {
	var model models.PaymentModel
	if err := query.First(&model).Error; err != nil {
		return nil, mapFindError(err)
	}
	if err := r.db.WithContext(ctx).
		Where("payment_id = ?", model.ID).
		Order("created_at ASC, id ASC").
		Find(&model.Allocations).Error; err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists payments with their allocations
func (r *GormPaymentRepository) FindAll(ctx context.Context, filter finance.PaymentFilter) ([]finance.Payment, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.PaymentModel{})
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
	if filter.ContactID != nil {
		query = query.Where("contact_id = ?", *filter.ContactID)
	}
	if filter.From != nil {
		query = query.Where("payment_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("payment_date <= ?", *filter.To)
	}

	query, total, err := countAndPage(query, filter.Filter, paymentSort, "payment_date DESC, number DESC")
	if err != nil {
		return nil, 0, err
	}
	var rows []models.PaymentModel
	if err := query.Preload("Allocations", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC, id ASC")
	}).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]finance.Payment, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// Create inserts the payment and its allocations
func (r *GormPaymentRepository) Create(ctx context.Context, p *finance.Payment) error {
	model := models.PaymentModelFromDomain(p)
	if err := insertAggregate(ctx, r.db, model); err != nil {
		return err
	}
	p.Version = model.Version
	return r.insertAllocations(ctx, model.Allocations)
}

// Save updates payment fields guarded by the version column
func (r *GormPaymentRepository) Save(ctx context.Context, p *finance.Payment) error {
	model := models.PaymentModelFromDomain(p)
	if err := updateAggregate(ctx, r.db, model); err != nil {
		return err
	}
	p.Version = model.Version
	p.UpdatedAt = model.UpdatedAt
	return nil
}

// ReplaceAllocations deletes every stored allocation and inserts p.Allocations
func (r *GormPaymentRepository) ReplaceAllocations(ctx context.Context, p *finance.Payment) error {
	if err := r.db.WithContext(ctx).
		Where("payment_id = ?", p.ID).
		Delete(&models.PaymentAllocationModel{}).Error; err != nil {
		return err
	}
	return r.insertAllocations(ctx, models.PaymentAllocationModelsFromDomain(p.Allocations))
}

func (r *GormPaymentRepository) insertAllocations(ctx context.Context, allocs []models.PaymentAllocationModel) error {
	if len(allocs) == 0 {
		return nil
	}
	return mapWriteError(r.db.WithContext(ctx).Create(&allocs).Error)
}

// Delete removes the payment and its allocations
func (r *GormPaymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("payment_id = ?", id).
		Delete(&models.PaymentAllocationModel{}).Error; err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Delete(&models.PaymentModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SumAllocatedForTransaction sums allocations of non-voided payments against
// a transaction, optionally only those of CONFIRMED payments
func (r *GormPaymentRepository) SumAllocatedForTransaction(ctx context.Context, transactionID uuid.UUID, confirmedOnly bool) (decimal.Decimal, error) {
	query := r.db.WithContext(ctx).
		Table("payment_allocations AS pa").
		Joins("JOIN payments AS p ON p.id = pa.payment_id").
		Where("pa.transaction_id = ?", transactionID)
	if confirmedOnly {
		query = query.Where("p.status = ?", finance.PaymentStatusConfirmed)
	} else {
		query = query.Where("p.status <> ?", finance.PaymentStatusVoided)
	}

	var sum decimal.NullDecimal
	if err := query.Select("SUM(pa.allocated_amount)").Row().Scan(&sum); err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return shared.RoundAmount(sum.Decimal), nil
}

// Ensure GormPaymentRepository implements PaymentRepository
var _ finance.PaymentRepository = (*GormPaymentRepository)(nil)

package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shivfurniture/erp/internal/domain/partner"
	"github.com/shivfurniture/erp/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormContactRepository implements ContactRepository using GORM
type GormContactRepository struct {
	db *gorm.DB
}

// NewGormContactRepository creates a new GormContactRepository
func NewGormContactRepository(db *gorm.DB) *GormContactRepository {
	return &GormContactRepository{db: db}
}

// FindByID finds a contact by its ID
func (r *GormContactRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Contact, error) {
	var model models.ContactModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, mapFindError(err)
	}
	return model.ToDomain(), nil
}

// FindByEmail finds a contact by email. Email is not unique across vendors
// and customers, so portal users win, then active contacts, then the oldest.
func (r *GormContactRepository) FindByEmail(ctx context.Context, email string) (*partner.Contact, error) {
	var model models.ContactModel
	if err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Order("is_portal_user DESC, is_active DESC, created_at ASC").
		First(&model).Error; err != nil {
		return nil, mapFindError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists contacts matching the filter
func (r *GormContactRepository) FindAll(ctx context.Context, filter partner.ContactFilter) ([]partner.Contact, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ContactModel{})
	if filter.Search != "" {
		pattern := searchPattern(filter.Search)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?", pattern, pattern, pattern)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}

	query, total, err := countAndPage(query, filter.Filter, contactSort, "name ASC")
	if err != nil {
		return nil, 0, err
	}
	var rows []models.ContactModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]partner.Contact, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// Save creates or updates a contact with optimistic locking
func (r *GormContactRepository) Save(ctx context.Context, contact *partner.Contact) error {
	model := models.ContactModelFromDomain(contact)
	if err := saveAggregate(ctx, r.db, model); err != nil {
		return err
	}
	contact.Version = model.Version
	contact.UpdatedAt = model.UpdatedAt
	return nil
}

// Ensure GormContactRepository implements ContactRepository
var _ partner.ContactRepository = (*GormContactRepository)(nil)

package persistence

import (
	"context"
	"fmt"

	"github.com/shivfurniture/erp/internal/domain/shared"
	"gorm.io/gorm"
)

// nextSequenceSQL increments a counter, creating it at 1 on first use. The
// row lock taken by the upsert serializes concurrent callers on the same key.
const nextSequenceSQL = `INSERT INTO document_sequences (name, current_value) VALUES (?, 1)
ON CONFLICT (name) DO UPDATE SET current_value = document_sequences.current_value + 1
RETURNING current_value`

// GormSequenceRepository implements SequenceRepository on the document_sequences table
type GormSequenceRepository struct {
	db *gorm.DB
}

// NewGormSequenceRepository creates a new GormSequenceRepository
func NewGormSequenceRepository(db *gorm.DB) *GormSequenceRepository {
	return &GormSequenceRepository{db: db}
}

// Next returns the next value of the counter named key
func (r *GormSequenceRepository) Next(ctx context.Context, key string) (int64, error) {
	var value int64
	if err := r.db.WithContext(ctx).Raw(nextSequenceSQL, key).Scan(&value).Error; err != nil {
		return 0, fmt.Errorf("failed to advance sequence %s: %w", key, err)
	}
	return value, nil
}

// Ensure GormSequenceRepository implements SequenceRepository
var _ shared.SequenceRepository = (*GormSequenceRepository)(nil)

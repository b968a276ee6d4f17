package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shivfurniture/erp/internal/domain/shared"
)

// ProductFilter narrows product list queries
type ProductFilter struct {
	shared.Filter
	CategoryID *uuid.UUID
	ActiveOnly bool
}

// ProductRepository persists products
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)
	FindAll(ctx context.Context, filter ProductFilter) ([]Product, int64, error)
	Save(ctx context.Context, product *Product) error
}

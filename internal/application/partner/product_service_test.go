package partner

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shivfurniture/erp/internal/domain/catalog"
	"github.com/shivfurniture/erp/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestProductService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults GST to 18", func(t *testing.T) {
		repo := new(MockProductRepository)
		svc := NewProductService(repo)
		repo.On("Save", ctx, mock.AnythingOfType("*catalog.Product")).Return(nil)

		resp, err := svc.Create(ctx, CreateProductRequest{
			Name:          "Sheesham Dining Table",
			PurchasePrice: decimal.NewFromInt(18000),
			SalesPrice:    decimal.NewFromInt(26500),
		})
		require.NoError(t, err)
		assert.True(t, resp.GSTRate.Equal(decimal.NewFromInt(18)))
		assert.True(t, resp.IsActive)
	})

	t.Run("explicit GST rate", func(t *testing.T) {
		repo := new(MockProductRepository)
		svc := NewProductService(repo)
		repo.On("Save", ctx, mock.AnythingOfType("*catalog.Product")).Return(nil)

		rate := decimal.NewFromInt(12)
		resp, err := svc.Create(ctx, CreateProductRequest{Name: "Cushion", GSTRate: &rate})
		require.NoError(t, err)
		assert.True(t, resp.GSTRate.Equal(rate))
	})

	t.Run("rejects GST above 100", func(t *testing.T) {
		repo := new(MockProductRepository)
		svc := NewProductService(repo)

		rate := decimal.NewFromInt(101)
		_, err := svc.Create(ctx, CreateProductRequest{Name: "Cushion", GSTRate: &rate})
		assert.True(t, shared.IsKind(err, shared.CodeValidation))
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("rejects negative price", func(t *testing.T) {
		repo := new(MockProductRepository)
		svc := NewProductService(repo)

		_, err := svc.Create(ctx, CreateProductRequest{Name: "Cushion", SalesPrice: decimal.NewFromInt(-1)})
		assert.True(t, shared.IsKind(err, shared.CodeValidation))
	})
}

func TestProductService_Update(t *testing.T) {
	ctx := context.Background()
	repo := new(MockProductRepository)
	svc := NewProductService(repo)

	p, err := catalog.NewProduct("Bookshelf", decimal.NewFromInt(4000), decimal.NewFromInt(6000))
	require.NoError(t, err)
	category := uuid.New()
	p.SetCategory(&category)
	repo.On("FindByID", ctx, p.ID).Return(p, nil)
	repo.On("Save", ctx, p).Return(nil)

	sales := decimal.NewFromInt(6500)
	resp, err := svc.Update(ctx, p.ID, UpdateProductRequest{SalesPrice: &sales, ClearCategory: true})
	require.NoError(t, err)
	assert.True(t, resp.SalesPrice.Equal(sales))
	assert.True(t, resp.PurchasePrice.Equal(decimal.NewFromInt(4000)))
	assert.Nil(t, resp.CategoryID)

	resp, err = svc.Deactivate(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, resp.IsActive)
}

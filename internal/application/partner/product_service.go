package partner

import (
	"context"

	"github.com/google/uuid"
	"github.com/shivfurniture/erp/internal/domain/catalog"
	"github.com/shivfurniture/erp/internal/domain/shared"
)

// ProductService manages the product catalog
type ProductService struct {
	productRepo catalog.ProductRepository
}

// NewProductService creates a new ProductService
func NewProductService(productRepo catalog.ProductRepository) *ProductService {
	return &ProductService{productRepo: productRepo}
}

// List returns a page of products
func (s *ProductService) List(ctx context.Context, filter ProductListFilter) (shared.Paginated[ProductResponse], error) {
	domainFilter := catalog.ProductFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  "name",
			OrderDir: "asc",
			Search:   filter.Search,
		}.Normalize(),
		CategoryID: filter.CategoryID,
		ActiveOnly: filter.ActiveOnly,
	}

	products, total, err := s.productRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return shared.Paginated[ProductResponse]{}, err
	}
	return shared.NewPaginated(ToProductResponses(products), total, domainFilter.Page, domainFilter.PageSize), nil
}

// GetByID returns a product
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// Create adds a product; GST defaults to 18%
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	product, err := catalog.NewProduct(req.Name, req.PurchasePrice, req.SalesPrice)
	if err != nil {
		return nil, err
	}
	if req.GSTRate != nil {
		if err := product.SetGSTRate(*req.GSTRate); err != nil {
			return nil, err
		}
	}
	if req.CategoryID != nil {
		product.SetCategory(req.CategoryID)
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// Update applies a partial update. Confirmed documents keep the prices they were costed with.
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if err := product.Rename(*req.Name); err != nil {
			return nil, err
		}
	}
	if req.PurchasePrice != nil || req.SalesPrice != nil {
		purchase, sales := product.PurchasePrice, product.SalesPrice
		if req.PurchasePrice != nil {
			purchase = *req.PurchasePrice
		}
		if req.SalesPrice != nil {
			sales = *req.SalesPrice
		}
		if err := product.SetPrices(purchase, sales); err != nil {
			return nil, err
		}
	}
	if req.GSTRate != nil {
		if err := product.SetGSTRate(*req.GSTRate); err != nil {
			return nil, err
		}
	}
	if req.ClearCategory {
		product.SetCategory(nil)
	} else if req.CategoryID != nil {
		product.SetCategory(req.CategoryID)
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// Deactivate hides a product from new documents
func (s *ProductService) Deactivate(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	product.Deactivate()
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// Activate restores a deactivated product
func (s *ProductService) Activate(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	product.Activate()
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

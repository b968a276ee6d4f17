package catalog

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shivfurniture/erp/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DefaultGSTRate is applied to lines that do not state a rate
var DefaultGSTRate = decimal.NewFromInt(18)

var maxGSTRate = decimal.NewFromInt(100)

// Product is a sellable or purchasable item
type Product struct {
	shared.BaseAggregateRoot
	Name          string
	CategoryID    *uuid.UUID
	PurchasePrice decimal.Decimal
	SalesPrice    decimal.Decimal
	GSTRate       decimal.Decimal
	Active        bool
}

// NewProduct creates an active product with the default GST rate
func NewProduct(name string, purchasePrice, salesPrice decimal.Decimal) (*Product, error) {
	p := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		GSTRate:           DefaultGSTRate,
		Active:            true,
	}
	if err := p.Rename(name); err != nil {
		return nil, err
	}
	if err := p.SetPrices(purchasePrice, salesPrice); err != nil {
		return nil, err
	}
	return p, nil
}

// Rename changes the product name
func (p *Product) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewValidationError("product name is required")
	}
	if len(name) > 200 {
		return shared.NewValidationError("product name cannot exceed 200 characters")
	}
	p.Name = name
	p.Touch()
	return nil
}

// SetPrices replaces purchase and sales prices
func (p *Product) SetPrices(purchasePrice, salesPrice decimal.Decimal) error {
	if purchasePrice.IsNegative() || salesPrice.IsNegative() {
		return shared.NewValidationError("prices cannot be negative")
	}
	p.PurchasePrice = purchasePrice
	p.SalesPrice = salesPrice
	p.Touch()
	return nil
}

// SetGSTRate sets the product's GST percentage
func (p *Product) SetGSTRate(rate decimal.Decimal) error {
	if err := ValidateGSTRate(rate); err != nil {
		return err
	}
	p.GSTRate = rate
	p.Touch()
	return nil
}

// SetCategory assigns an optional category
func (p *Product) SetCategory(categoryID *uuid.UUID) {
	p.CategoryID = categoryID
	p.Touch()
}

// Deactivate hides the product from new documents
func (p *Product) Deactivate() {
	p.Active = false
	p.Touch()
}

// Activate re-enables the product
func (p *Product) Activate() {
	p.Active = true
	p.Touch()
}

// ValidateGSTRate checks 0 <= rate <= 100
func ValidateGSTRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(maxGSTRate) {
		return shared.NewValidationError("GST rate must be between 0 and 100")
	}
	return nil
}

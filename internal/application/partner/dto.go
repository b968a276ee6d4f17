package partner

import (
	"time"

	"github.com/google/uuid"
	"github.com/shivfurniture/erp/internal/domain/catalog"
	"github.com/shivfurniture/erp/internal/domain/partner"
	"github.com/shopspring/decimal"
)

// =============================================================================
// Contact DTOs
// =============================================================================

// CreateContactRequest represents a request to create a vendor or customer
type CreateContactRequest struct {
	Name       string `json:"name" binding:"required,min=1,max=200"`
	Type       string `json:"type" binding:"required,oneof=CUSTOMER VENDOR"`
	Email      string `json:"email" binding:"omitempty,email,max=200"`
	Phone      string `json:"phone" binding:"max=50"`
	Address    string `json:"address" binding:"max=500"`
	City       string `json:"city" binding:"max=100"`
	State      string `json:"state" binding:"max=100"`
	PostalCode string `json:"postal_code" binding:"max=20"`
	GSTIN      string `json:"gstin" binding:"max=15"`
}

// UpdateContactRequest represents a partial contact update. The contact type cannot change.
type UpdateContactRequest struct {
	Name       *string `json:"name" binding:"omitempty,min=1,max=200"`
	Email      *string `json:"email" binding:"omitempty,email,max=200"`
	Phone      *string `json:"phone" binding:"omitempty,max=50"`
	Address    *string `json:"address" binding:"omitempty,max=500"`
	City       *string `json:"city" binding:"omitempty,max=100"`
	State      *string `json:"state" binding:"omitempty,max=100"`
	PostalCode *string `json:"postal_code" binding:"omitempty,max=20"`
	GSTIN      *string `json:"gstin" binding:"omitempty,max=15"`
}

// EnablePortalRequest grants a customer portal access
type EnablePortalRequest struct {
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// ContactListFilter represents filter options for contact list
type ContactListFilter struct {
	Search     string `form:"search"`
	Type       string `form:"type" binding:"omitempty,oneof=CUSTOMER VENDOR"`
	ActiveOnly bool   `form:"active_only"`
	Page       int    `form:"page" binding:"min=0"`
	PageSize   int    `form:"page_size" binding:"min=0,max=100"`
}

// ContactResponse represents a contact in API responses. Password hashes never leave the service.
type ContactResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Type         string    `json:"type"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Address      string    `json:"address"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	PostalCode   string    `json:"postal_code"`
	GSTIN        string    `json:"gstin"`
	IsActive     bool      `json:"is_active"`
	IsPortalUser bool      `json:"is_portal_user"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ToContactResponse converts a domain Contact to ContactResponse
func ToContactResponse(c *partner.Contact) ContactResponse {
	return ContactResponse{
		ID:           c.ID,
		Name:         c.Name,
		Type:         string(c.Type),
		Email:        c.Email,
		Phone:        c.Phone,
		Address:      c.Address,
		City:         c.City,
		State:        c.State,
		PostalCode:   c.PostalCode,
		GSTIN:        c.GSTIN,
		IsActive:     c.Active,
		IsPortalUser: c.IsPortalUser,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

// ToContactResponses converts a slice of domain Contacts
func ToContactResponses(contacts []partner.Contact) []ContactResponse {
	responses := make([]ContactResponse, len(contacts))
	for i := range contacts {
		responses[i] = ToContactResponse(&contacts[i])
	}
	return responses
}

// =============================================================================
// Product DTOs
// =============================================================================

// CreateProductRequest represents a request to create a product
type CreateProductRequest struct {
	Name          string           `json:"name" binding:"required,min=1,max=200"`
	CategoryID    *uuid.UUID       `json:"category_id"`
	PurchasePrice decimal.Decimal  `json:"purchase_price" binding:"decimal_gte0"`
	SalesPrice    decimal.Decimal  `json:"sales_price" binding:"decimal_gte0"`
	GSTRate       *decimal.Decimal `json:"gst_rate"`
}

// UpdateProductRequest represents a partial product update
type UpdateProductRequest struct {
	Name          *string          `json:"name" binding:"omitempty,min=1,max=200"`
	CategoryID    *uuid.UUID       `json:"category_id"`
	ClearCategory bool             `json:"clear_category"`
	PurchasePrice *decimal.Decimal `json:"purchase_price"`
	SalesPrice    *decimal.Decimal `json:"sales_price"`
	GSTRate       *decimal.Decimal `json:"gst_rate"`
}

// ProductListFilter represents filter options for product list
type ProductListFilter struct {
	Search     string     `form:"search"`
	CategoryID *uuid.UUID `form:"category_id"`
	ActiveOnly bool       `form:"active_only"`
	Page       int        `form:"page" binding:"min=0"`
	PageSize   int        `form:"page_size" binding:"min=0,max=100"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	CategoryID    *uuid.UUID      `json:"category_id,omitempty"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SalesPrice    decimal.Decimal `json:"sales_price"`
	GSTRate       decimal.Decimal `json:"gst_rate"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:            p.ID,
		Name:          p.Name,
		CategoryID:    p.CategoryID,
		PurchasePrice: p.PurchasePrice,
		SalesPrice:    p.SalesPrice,
		GSTRate:       p.GSTRate,
		IsActive:      p.Active,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// ToProductResponses converts a slice of domain Products
func ToProductResponses(products []catalog.Product) []ProductResponse {
	responses := make([]ProductResponse, len(products))
	for i := range products {
		responses[i] = ToProductResponse(&products[i])
	}
	return responses
}

// =============================================================================
// Auth DTOs
// =============================================================================

// LoginRequest is the back-office login form
type LoginRequest struct {
	Username string `json:"username" binding:"required,max=100"`
	Password string `json:"password" binding:"required,max=72"`
}

// PortalLoginRequest is the customer portal login form
type PortalLoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=200"`
	Password string `json:"password" binding:"required,max=72"`
}

// LoginResponse carries the issued token
type LoginResponse struct {
	AccessToken string           `json:"access_token"`
	TokenType   string           `json:"token_type"`
	ExpiresAt   time.Time        `json:"expires_at"`
	Role        string           `json:"role"`
	Contact     *ContactResponse `json:"contact,omitempty"`
}

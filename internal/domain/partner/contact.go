package partner

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/shivfurniture/erp/internal/domain/shared"
)

// ContactType distinguishes vendors from customers
type ContactType string

const (
	ContactTypeCustomer ContactType = "CUSTOMER"
	ContactTypeVendor   ContactType = "VENDOR"
)

// IsValid checks if the contact type is known
func (t ContactType) IsValid() bool {
	return t == ContactTypeCustomer || t == ContactTypeVendor
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Contact is a vendor or customer that transactions and payments refer to
type Contact struct {
	shared.BaseAggregateRoot
	Name               string
	Type               ContactType
	Email              string
	Phone              string
	Address            string
	City               string
	State              string
	PostalCode         string
	GSTIN              string
	Active             bool
	IsPortalUser       bool
	PortalPasswordHash string
}

// NewContact creates an active contact
func NewContact(name string, contactType ContactType) (*Contact, error) {
	if !contactType.IsValid() {
		return nil, shared.NewValidationError("contact type must be CUSTOMER or VENDOR")
	}
	c := &Contact{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Type:              contactType,
		Active:            true,
	}
	if err := c.Rename(name); err != nil {
		return nil, err
	}
	return c, nil
}

// Rename changes the display name
func (c *Contact) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewValidationError("contact name is required")
	}
	if len(name) > 200 {
		return shared.NewValidationError("contact name cannot exceed 200 characters")
	}
	c.Name = name
	c.Touch()
	return nil
}

// SetContactInfo sets email and phone
func (c *Contact) SetContactInfo(email, phone string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email != "" && !emailPattern.MatchString(email) {
		return shared.NewValidationError("invalid email format")
	}
	if len(phone) > 50 {
		return shared.NewValidationError("phone cannot exceed 50 characters")
	}
	c.Email = email
	c.Phone = strings.TrimSpace(phone)
	c.Touch()
	return nil
}

// SetAddress sets the postal address and GST registration number
func (c *Contact) SetAddress(address, city, state, postalCode, gstin string) {
	c.Address = strings.TrimSpace(address)
	c.City = strings.TrimSpace(city)
	c.State = strings.TrimSpace(state)
	c.PostalCode = strings.TrimSpace(postalCode)
	c.GSTIN = strings.ToUpper(strings.TrimSpace(gstin))
	c.Touch()
}

// EnablePortal grants self-service portal access with an already hashed password
func (c *Contact) EnablePortal(passwordHash string) error {
	if c.Type != ContactTypeCustomer {
		return shared.NewValidationError("only customers can use the portal")
	}
	if c.Email == "" {
		return shared.NewValidationError("portal users need an email address")
	}
	if passwordHash == "" {
		return shared.NewValidationError("portal password is required")
	}
	c.IsPortalUser = true
	c.PortalPasswordHash = passwordHash
	c.Touch()
	return nil
}

// DisablePortal revokes portal access
func (c *Contact) DisablePortal() {
	c.IsPortalUser = false
	c.PortalPasswordHash = ""
	c.Touch()
}

// Deactivate hides the contact from new documents
func (c *Contact) Deactivate() {
	c.Active = false
	c.Touch()
}

// Activate re-enables the contact
func (c *Contact) Activate() {
	c.Active = true
	c.Touch()
}

// IsVendor reports whether the contact is a vendor
func (c *Contact) IsVendor() bool {
	return c.Type == ContactTypeVendor
}

// IsCustomer reports whether the contact is a customer
func (c *Contact) IsCustomer() bool {
	return c.Type == ContactTypeCustomer
}

// ContactFilter narrows contact list queries
type ContactFilter struct {
	shared.Filter
	Type       ContactType
	ActiveOnly bool
}

// ContactRepository persists contacts
type ContactRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Contact, error)
	FindByEmail(ctx context.Context, email string) (*Contact, error)
	FindAll(ctx context.Context, filter ContactFilter) ([]Contact, int64, error)
	Save(ctx context.Context, contact *Contact) error
}

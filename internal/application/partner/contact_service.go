package partner

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shivfurniture/erp/internal/domain/partner"
	"github.com/shivfurniture/erp/internal/domain/shared"
)

// PasswordHasher hashes and verifies portal passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

// ContactService manages vendors and customers
type ContactService struct {
	contactRepo partner.ContactRepository
	hasher      PasswordHasher
}

// NewContactService creates a new ContactService
func NewContactService(contactRepo partner.ContactRepository, hasher PasswordHasher) *ContactService {
	return &ContactService{
		contactRepo: contactRepo,
		hasher:      hasher,
	}
}

// List returns a page of contacts
func (s *ContactService) List(ctx context.Context, filter ContactListFilter) (shared.Paginated[ContactResponse], error) {
	domainFilter := partner.ContactFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  "name",
			OrderDir: "asc",
			Search:   filter.Search,
		}.Normalize(),
		Type:       partner.ContactType(filter.Type),
		ActiveOnly: filter.ActiveOnly,
	}

	contacts, total, err := s.contactRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return shared.Paginated[ContactResponse]{}, err
	}
	return shared.NewPaginated(ToContactResponses(contacts), total, domainFilter.Page, domainFilter.PageSize), nil
}

// GetByID returns a contact
func (s *ContactService) GetByID(ctx context.Context, id uuid.UUID) (*ContactResponse, error) {
	contact, err := s.contactRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToContactResponse(contact)
	return &resp, nil
}

// Create adds a new active contact
func (s *ContactService) Create(ctx context.Context, req CreateContactRequest) (*ContactResponse, error) {
	contact, err := partner.NewContact(req.Name, partner.ContactType(req.Type))
	if err != nil {
		return nil, err
	}
	if err := contact.SetContactInfo(req.Email, req.Phone); err != nil {
		return nil, err
	}
	contact.SetAddress(req.Address, req.City, req.State, req.PostalCode, req.GSTIN)

	if err := s.contactRepo.Save(ctx, contact); err != nil {
		return nil, err
	}
	resp := ToContactResponse(contact)
	return &resp, nil
}

// Update applies a partial update
func (s *ContactService) Update(ctx context.Context, id uuid.UUID, req UpdateContactRequest) (*ContactResponse, error) {
	contact, err := s.contactRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if err := contact.Rename(*req.Name); err != nil {
			return nil, err
		}
	}
	if req.Email != nil || req.Phone != nil {
		email, phone := contact.Email, contact.Phone
		if req.Email != nil {
			email = *req.Email
		}
		if req.Phone != nil {
			phone = *req.Phone
		}
		if err := contact.SetContactInfo(email, phone); err != nil {
			return nil, err
		}
		if contact.IsPortalUser && contact.Email == "" {
			return nil, shared.NewValidationError("portal users need an email address")
		}
	}
	if req.Address != nil || req.City != nil || req.State != nil || req.PostalCode != nil || req.GSTIN != nil {
		contact.SetAddress(
			valueOr(req.Address, contact.Address),
			valueOr(req.City, contact.City),
			valueOr(req.State, contact.State),
			valueOr(req.PostalCode, contact.PostalCode),
			valueOr(req.GSTIN, contact.GSTIN),
		)
	}

	if err := s.contactRepo.Save(ctx, contact); err != nil {
		return nil, err
	}
	resp := ToContactResponse(contact)
	return &resp, nil
}

// Deactivate archives a contact; existing documents keep referring to it
func (s *ContactService) Deactivate(ctx context.Context, id uuid.UUID) (*ContactResponse, error) {
	return s.mutate(ctx, id, func(c *partner.Contact) error {
		c.Deactivate()
		return nil
	})
}

// Activate restores an archived contact
func (s *ContactService) Activate(ctx context.Context, id uuid.UUID) (*ContactResponse, error) {
	return s.mutate(ctx, id, func(c *partner.Contact) error {
		c.Activate()
		return nil
	})
}

// EnablePortal grants a customer portal access with the given password
func (s *ContactService) EnablePortal(ctx context.Context, id uuid.UUID, req EnablePortalRequest) (*ContactResponse, error) {
	contact, err := s.contactRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if contact.Email != "" {
		existing, err := s.contactRepo.FindByEmail(ctx, contact.Email)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		if existing != nil && existing.ID != contact.ID && existing.IsPortalUser {
			return nil, shared.NewDomainError(shared.CodeAlreadyExists, "another portal user already uses this email")
		}
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, shared.NewValidationError(err.Error())
	}
	if err := contact.EnablePortal(hash); err != nil {
		return nil, err
	}
	if err := s.contactRepo.Save(ctx, contact); err != nil {
		return nil, err
	}
	resp := ToContactResponse(contact)
	return &resp, nil
}

// DisablePortal revokes portal access
func (s *ContactService) DisablePortal(ctx context.Context, id uuid.UUID) (*ContactResponse, error) {
	return s.mutate(ctx, id, func(c *partner.Contact) error {
		c.DisablePortal()
		return nil
	})
}

func (s *ContactService) mutate(ctx context.Context, id uuid.UUID, fn func(*partner.Contact) error) (*ContactResponse, error) {
	contact, err := s.contactRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(contact); err != nil {
		return nil, err
	}
	if err := s.contactRepo.Save(ctx, contact); err != nil {
		return nil, err
	}
	resp := ToContactResponse(contact)
	return &resp, nil
}

func valueOr(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return *v
}

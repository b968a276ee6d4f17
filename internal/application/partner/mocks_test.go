package partner

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shivfurniture/erp/internal/domain/catalog"
	"github.com/shivfurniture/erp/internal/domain/partner"
	"github.com/shivfurniture/erp/internal/infrastructure/auth"
	"github.com/stretchr/testify/mock"
)

// MockContactRepository is a mock implementation of ContactRepository
type MockContactRepository struct {
	mock.Mock
}

func (m *MockContactRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Contact, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Contact), args.Error(1)
}

func (m *MockContactRepository) FindByEmail(ctx context.Context, email string) (*partner.Contact, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Contact), args.Error(1)
}

func (m *MockContactRepository) FindAll(ctx context.Context, filter partner.ContactFilter) ([]partner.Contact, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]partner.Contact), args.Get(1).(int64), args.Error(2)
}

func (m *MockContactRepository) Save(ctx context.Context, contact *partner.Contact) error {
	args := m.Called(ctx, contact)
	return args.Error(0)
}

// MockProductRepository is a mock implementation of ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, filter catalog.ProductFilter) ([]catalog.Product, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]catalog.Product), args.Get(1).(int64), args.Error(2)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

// plainHasher stores passwords as "hashed:<password>"
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) {
	if len(password) < 8 {
		return "", errors.New("password must be at least 8 characters")
	}
	return "hashed:" + password, nil
}

func (plainHasher) Verify(hash, password string) bool {
	return hash != "" && hash == "hashed:"+password
}

type stubIssuer struct{}

func (stubIssuer) IssueAdminToken(username string) (*auth.Token, error) {
	return &auth.Token{AccessToken: "admin:" + username, TokenType: "Bearer", Role: auth.RoleAdmin, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (stubIssuer) IssuePortalToken(contactID uuid.UUID) (*auth.Token, error) {
	return &auth.Token{AccessToken: "portal:" + contactID.String(), TokenType: "Bearer", Role: auth.RolePortal, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

package testutil

import (
	"context"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shivfurniture/erp/internal/application/scope"
	"github.com/shivfurniture/erp/internal/domain/accounting"
	"github.com/shivfurniture/erp/internal/domain/catalog"
	"github.com/shivfurniture/erp/internal/domain/partner"
	"github.com/shivfurniture/erp/internal/infrastructure/persistence"
	"github.com/shivfurniture/erp/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteDB opens an isolated in-memory database with the full schema.
// A single connection keeps every query on the same in-memory database.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

// NewSQLiteStore returns a GORM store over a fresh in-memory database
func NewSQLiteStore(t *testing.T) *persistence.GormStore {
	t.Helper()
	return persistence.NewGormStore(NewSQLiteDB(t))
}

// Fixtures persists master data with realistic fake names
type Fixtures struct {
	t     *testing.T
	repos scope.Repositories
	faker *gofakeit.Faker
}

// NewFixtures creates fixtures writing through repos. The faker is seeded so
// that failures are reproducible.
func NewFixtures(t *testing.T, repos scope.Repositories) *Fixtures {
	return &Fixtures{t: t, repos: repos, faker: gofakeit.New(42)}
}

// Vendor saves an active vendor
func (f *Fixtures) Vendor() *partner.Contact {
	return f.contact(partner.ContactTypeVendor)
}

// Customer saves an active customer
func (f *Fixtures) Customer() *partner.Contact {
	return f.contact(partner.ContactTypeCustomer)
}

func (f *Fixtures) contact(contactType partner.ContactType) *partner.Contact {
	f.t.Helper()
	c, err := partner.NewContact(f.faker.Company(), contactType)
	require.NoError(f.t, err)
	require.NoError(f.t, c.SetContactInfo(f.faker.Email(), f.faker.Phone()))
	c.SetAddress(f.faker.Street(), f.faker.City(), f.faker.State(), f.faker.Zip(), "")
	require.NoError(f.t, f.repos.Contacts().Save(context.Background(), c))
	return c
}

// Product saves an active product with the given prices and the default GST rate
func (f *Fixtures) Product(purchasePrice, salesPrice string) *catalog.Product {
	f.t.Helper()
	p, err := catalog.NewProduct(f.faker.ProductName(),
		decimal.RequireFromString(purchasePrice), decimal.RequireFromString(salesPrice))
	require.NoError(f.t, err)
	require.NoError(f.t, f.repos.Products().Save(context.Background(), p))
	return p
}

// Account saves an active analytical account
func (f *Fixtures) Account(code string) *accounting.AnalyticalAccount {
	f.t.Helper()
	a, err := accounting.NewAnalyticalAccount(code, f.faker.JobTitle(), nil)
	require.NoError(f.t, err)
	require.NoError(f.t, f.repos.Accounts().Save(context.Background(), a))
	return a
}

// Budget saves a budget for the account and period
func (f *Fixtures) Budget(accountID uuid.UUID, period accounting.Period, allocated string) *accounting.Budget {
	f.t.Helper()
	b, err := accounting.NewBudget(accountID, period, decimal.RequireFromString(allocated))
	require.NoError(f.t, err)
	require.NoError(f.t, f.repos.Budgets().Save(context.Background(), b))
	return b
}

// AutoRule saves an auto-assignment rule. A nil productID matches every product.
func (f *Fixtures) AutoRule(productID *uuid.UUID, accountID uuid.UUID, priority int) *accounting.AutoAnalyticalModel {
	f.t.Helper()
	r, err := accounting.NewAutoAnalyticalModel(productID, accountID, priority)
	require.NoError(f.t, err)
	require.NoError(f.t, f.repos.AutoRules().Save(context.Background(), r))
	return r
}

// Amount parses a decimal literal
func Amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

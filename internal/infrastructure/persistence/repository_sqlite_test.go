package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shivfurniture/erp/internal/application/scope"
	"github.com/shivfurniture/erp/internal/domain/accounting"
	"github.com/shivfurniture/erp/internal/domain/finance"
	"github.com/shivfurniture/erp/internal/domain/partner"
	"github.com/shivfurniture/erp/internal/domain/shared"
	"github.com/shivfurniture/erp/internal/domain/trade"
	"github.com/shivfurniture/erp/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newSQLiteDB opens an isolated in-memory database with the full schema
func newSQLiteDB(t *testing.T) *gorm.DB {
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

func mustAccount(t *testing.T, repo *GormAnalyticalAccountRepository, code string, parent *uuid.UUID) *accounting.AnalyticalAccount {
	t.Helper()
	a, err := accounting.NewAnalyticalAccount(code, code+" name", parent)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), a))
	return a
}

func TestGormAnalyticalAccountRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("save, find by code and reject duplicates", func(t *testing.T) {
		repo := NewGormAnalyticalAccountRepository(newSQLiteDB(t))
		a := mustAccount(t, repo, "CC-100", nil)

		found, err := repo.FindByCode(ctx, "CC-100")
		require.NoError(t, err)
		assert.Equal(t, a.ID, found.ID)
		assert.Equal(t, 1, found.Version)

		exists, err := repo.ExistsByCode(ctx, "CC-100", nil)
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsByCode(ctx, "CC-100", &a.ID)
		require.NoError(t, err)
		assert.False(t, exists)

		dup, err := accounting.NewAnalyticalAccount("CC-100", "Other", nil)
		require.NoError(t, err)
		err = repo.Save(ctx, dup)
		assert.True(t, shared.IsKind(err, shared.CodeAlreadyExists))
	})

	t.Run("stale version is rejected", func(t *testing.T) {
		repo := NewGormAnalyticalAccountRepository(newSQLiteDB(t))
		a := mustAccount(t, repo, "CC-200", nil)

		first, err := repo.FindByID(ctx, a.ID)
		require.NoError(t, err)
		second, err := repo.FindByID(ctx, a.ID)
		require.NoError(t, err)

		first.SetDescription("first writer")
		require.NoError(t, repo.Save(ctx, first))
		assert.Equal(t, 2, first.Version)

		second.SetDescription("second writer")
		err = repo.Save(ctx, second)
		assert.True(t, errors.Is(err, shared.ErrConcurrencyConflict))
		assert.Equal(t, 1, second.Version)
	})

	t.Run("missing account is NOT_FOUND", func(t *testing.T) {
		repo := NewGormAnalyticalAccountRepository(newSQLiteDB(t))
		_, err := repo.FindByID(ctx, uuid.New())
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	t.Run("ancestors are nearest first", func(t *testing.T) {
		repo := NewGormAnalyticalAccountRepository(newSQLiteDB(t))
		root := mustAccount(t, repo, "ROOT", nil)
		mid := mustAccount(t, repo, "MID", &root.ID)
		leaf := mustAccount(t, repo, "LEAF", &mid.ID)

		ids, err := repo.AncestorIDs(ctx, leaf.ID)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{mid.ID, root.ID}, ids)

		ids, err = repo.AncestorIDs(ctx, root.ID)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("lifecycle policy filters tree and list", func(t *testing.T) {
		repo := NewGormAnalyticalAccountRepository(newSQLiteDB(t))
		mustAccount(t, repo, "B-ACTIVE", nil)
		archived := mustAccount(t, repo, "A-ARCHIVED", nil)
		require.NoError(t, archived.Archive())
		require.NoError(t, repo.Save(ctx, archived))

		active, err := repo.FindForTree(ctx, accounting.IncludeActiveOnly)
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, "B-ACTIVE", active[0].Code)

		all, err := repo.FindForTree(ctx, accounting.IncludeAll)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "A-ARCHIVED", all[0].Code)

		list, total, err := repo.FindAll(ctx, accounting.AccountFilter{
			Filter:    shared.Filter{Page: 1, PageSize: 10, Search: "archived"},
			Lifecycle: accounting.IncludeArchivedOnly,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, list, 1)
		assert.Equal(t, archived.ID, list[0].ID)
	})
}

func TestGormAutoAnalyticalModelRepository_FindCandidates(t *testing.T) {
	ctx := context.Background()
	repo := NewGormAutoAnalyticalModelRepository(newSQLiteDB(t))

	productID := uuid.New()
	accountA, accountB, accountC := uuid.New(), uuid.New(), uuid.New()

	wildcard, err := accounting.NewAutoAnalyticalModel(nil, accountA, 5)
	require.NoError(t, err)
	specific, err := accounting.NewAutoAnalyticalModel(&productID, accountB, 10)
	require.NoError(t, err)
	other, err := accounting.NewAutoAnalyticalModel(func() *uuid.UUID { id := uuid.New(); return &id }(), accountC, 99)
	require.NoError(t, err)
	inactive, err := accounting.NewAutoAnalyticalModel(&productID, accountC, 50)
	require.NoError(t, err)
	inactive.SetActive(false)

	for _, r := range []*accounting.AutoAnalyticalModel{wildcard, specific, other, inactive} {
		require.NoError(t, repo.Save(ctx, r))
	}

	candidates, err := repo.FindCandidates(ctx, productID)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, specific.ID, candidates[0].ID)
	assert.Equal(t, wildcard.ID, candidates[1].ID)

	require.NoError(t, repo.Delete(ctx, wildcard.ID))
	assert.True(t, errors.Is(repo.Delete(ctx, wildcard.ID), shared.ErrNotFound))
}

func TestGormBudgetRepository_AddUsage(t *testing.T) {
	ctx := context.Background()
	repo := NewGormBudgetRepository(newSQLiteDB(t))
	accountID := uuid.New()
	period := accounting.Period{Year: 2026, Month: 2}

	ok, err := repo.AddUsage(ctx, accountID, period, decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.False(t, ok, "no budget row means nothing to accrue")

	b, err := accounting.NewBudget(accountID, period, decimal.NewFromInt(50000))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, b))

	ok, err = repo.AddUsage(ctx, accountID, period, decimal.RequireFromString("1180.50"))
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.AddUsage(ctx, accountID, period, decimal.RequireFromString("-180.50"))
	require.NoError(t, err)
	assert.True(t, ok)

	stored, err := repo.FindByPeriod(ctx, accountID, period)
	require.NoError(t, err)
	assert.True(t, stored.UsedAmount.Equal(decimal.NewFromInt(1000)), "used = %s", stored.UsedAmount)
	assert.Equal(t, 3, stored.Version)

	exists, err := repo.ExistsForPeriod(ctx, accountID, accounting.Period{Year: 2026, Month: 3})
	require.NoError(t, err)
	assert.False(t, exists)
}

func newTestTransaction(t *testing.T, number string, txnType trade.TransactionType, contactID uuid.UUID, date time.Time) *trade.Transaction {
	t.Helper()
	header := trade.Header{TransactionDate: date}
	if txnType.IsPurchase() {
		header.VendorID = &contactID
	} else {
		header.CustomerID = &contactID
	}
	txn, err := trade.NewTransaction(number, txnType, header, nil, []trade.LineSpec{
		{ProductID: uuid.New(), Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(500), GSTRate: decimal.NewFromInt(18)},
		{ProductID: uuid.New(), Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(1000), GSTRate: decimal.NewFromInt(5)},
	})
	require.NoError(t, err)
	return txn
}

func TestGormTransactionRepository(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)

	t.Run("create and load with ordered lines", func(t *testing.T) {
		repo := NewGormTransactionRepository(newSQLiteDB(t))
		txn := newTestTransaction(t, "PO-2602-0001", trade.TransactionTypePurchaseOrder, uuid.New(), date)
		require.NoError(t, repo.Create(ctx, txn))

		loaded, err := repo.FindByIDForUpdate(ctx, txn.ID)
		require.NoError(t, err)
		require.Len(t, loaded.Lines, 2)
		assert.Equal(t, 1, loaded.Lines[0].LineNo)
		assert.Equal(t, 2, loaded.Lines[1].LineNo)
		assert.True(t, loaded.TotalAmount.Equal(txn.TotalAmount))
	})

	t.Run("replace lines and save header", func(t *testing.T) {
		repo := NewGormTransactionRepository(newSQLiteDB(t))
		txn := newTestTransaction(t, "SO-2602-0001", trade.TransactionTypeSalesOrder, uuid.New(), date)
		require.NoError(t, repo.Create(ctx, txn))

		require.NoError(t, txn.Revise(txn.Header(), txn.LineSpecs()[:1]))
		require.NoError(t, repo.ReplaceLines(ctx, txn))
		require.NoError(t, repo.Save(ctx, txn))

		loaded, err := repo.FindByID(ctx, txn.ID)
		require.NoError(t, err)
		assert.Len(t, loaded.Lines, 1)
		assert.Equal(t, 2, loaded.Version)
		assert.True(t, loaded.TotalAmount.Equal(txn.TotalAmount))
	})

	t.Run("outstanding lists confirmed unpaid documents oldest first", func(t *testing.T) {
		repo := NewGormTransactionRepository(newSQLiteDB(t))
		customer := uuid.New()

		newer := newTestTransaction(t, "INV-2602-0002", trade.TransactionTypeCustomerInvoice, customer, date.AddDate(0, 0, 5))
		older := newTestTransaction(t, "INV-2602-0001", trade.TransactionTypeCustomerInvoice, customer, date)
		draft := newTestTransaction(t, "INV-2602-0003", trade.TransactionTypeCustomerInvoice, customer, date)
		paid := newTestTransaction(t, "INV-2602-0004", trade.TransactionTypeCustomerInvoice, customer, date)
		for _, txn := range []*trade.Transaction{newer, older, paid} {
			require.NoError(t, txn.Confirm())
		}
		paid.ApplyPaidAmount(paid.TotalAmount)
		for _, txn := range []*trade.Transaction{newer, older, draft, paid} {
			require.NoError(t, repo.Create(ctx, txn))
		}

		outstanding, err := repo.FindOutstanding(ctx, customer, trade.TransactionTypeCustomerInvoice)
		require.NoError(t, err)
		require.Len(t, outstanding, 2)
		assert.Equal(t, older.ID, outstanding[0].ID)
		assert.Equal(t, newer.ID, outstanding[1].ID)

		list, total, err := repo.FindAll(ctx, trade.TransactionFilter{
			Filter:    shared.Filter{Page: 1, PageSize: 2},
			ContactID: &customer,
			Status:    trade.TransactionStatusConfirmed,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, list, 2)
	})

	t.Run("delete removes header and lines", func(t *testing.T) {
		db := newSQLiteDB(t)
		repo := NewGormTransactionRepository(db)
		txn := newTestTransaction(t, "BILL-2602-0001", trade.TransactionTypeVendorBill, uuid.New(), date)
		require.NoError(t, repo.Create(ctx, txn))

		require.NoError(t, repo.Delete(ctx, txn.ID))
		_, err := repo.FindByID(ctx, txn.ID)
		assert.True(t, errors.Is(err, shared.ErrNotFound))

		var lines int64
		require.NoError(t, db.Model(&models.TransactionLineModel{}).Count(&lines).Error)
		assert.Zero(t, lines)
	})
}

func TestGormPaymentRepository(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 2, 12, 0, 0, 0, 0, time.UTC)

	newPayment := func(t *testing.T, number string, txnID uuid.UUID, amount int64) *finance.Payment {
		t.Helper()
		p, err := finance.NewPayment(number, finance.PaymentTypeReceive, uuid.New(), finance.PaymentDetails{
			Amount:      decimal.NewFromInt(amount),
			PaymentDate: date,
			Method:      finance.PaymentMethodUPI,
		}, []finance.AllocationInput{{TransactionID: txnID, AllocatedAmount: decimal.NewFromInt(amount)}})
		require.NoError(t, err)
		return p
	}

	t.Run("sum allocations by payment status", func(t *testing.T) {
		repo := NewGormPaymentRepository(newSQLiteDB(t))
		txnID := uuid.New()

		confirmed := newPayment(t, "RCP-2602-0001", txnID, 300)
		require.NoError(t, confirmed.Confirm())
		draft := newPayment(t, "RCP-2602-0002", txnID, 200)
		require.NoError(t, repo.Create(ctx, confirmed))
		require.NoError(t, repo.Create(ctx, draft))

		all, err := repo.SumAllocatedForTransaction(ctx, txnID, false)
		require.NoError(t, err)
		assert.True(t, all.Equal(decimal.NewFromInt(500)), "all = %s", all)

		onlyConfirmed, err := repo.SumAllocatedForTransaction(ctx, txnID, true)
		require.NoError(t, err)
		assert.True(t, onlyConfirmed.Equal(decimal.NewFromInt(300)), "confirmed = %s", onlyConfirmed)

		none, err := repo.SumAllocatedForTransaction(ctx, uuid.New(), false)
		require.NoError(t, err)
		assert.True(t, none.IsZero())
	})

	t.Run("void clears allocations", func(t *testing.T) {
		repo := NewGormPaymentRepository(newSQLiteDB(t))
		txnID := uuid.New()
		p := newPayment(t, "RCP-2602-0003", txnID, 100)
		require.NoError(t, repo.Create(ctx, p))

		_, err := p.Void()
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, p))
		require.NoError(t, repo.ReplaceAllocations(ctx, p))

		loaded, err := repo.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, finance.PaymentStatusVoided, loaded.Status)
		assert.Empty(t, loaded.Allocations)

		sum, err := repo.SumAllocatedForTransaction(ctx, txnID, false)
		require.NoError(t, err)
		assert.True(t, sum.IsZero())
	})

	t.Run("gateway payment id is unique and searchable", func(t *testing.T) {
		repo := NewGormPaymentRepository(newSQLiteDB(t))
		first := newPayment(t, "RCP-2602-0004", uuid.New(), 100)
		first.AttachGatewayPayment("pay_ABC123")
		require.NoError(t, repo.Create(ctx, first))

		found, err := repo.FindByGatewayPaymentID(ctx, "pay_ABC123")
		require.NoError(t, err)
		assert.Equal(t, first.ID, found.ID)
		require.Len(t, found.Allocations, 1)

		second := newPayment(t, "RCP-2602-0005", uuid.New(), 100)
		second.AttachGatewayPayment("pay_ABC123")
		err = repo.Create(ctx, second)
		assert.True(t, shared.IsKind(err, shared.CodeAlreadyExists))

		// payments without a gateway id never collide
		third := newPayment(t, "RCP-2602-0006", uuid.New(), 100)
		fourth := newPayment(t, "RCP-2602-0007", uuid.New(), 100)
		require.NoError(t, repo.Create(ctx, third))
		require.NoError(t, repo.Create(ctx, fourth))

		_, err = repo.FindByGatewayPaymentID(ctx, "")
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})
}

func TestGormContactRepository_FindByEmailPrefersPortalUser(t *testing.T) {
	ctx := context.Background()
	repo := NewGormContactRepository(newSQLiteDB(t))

	vendor, err := partner.NewContact("Teak Supplies", partner.ContactTypeVendor)
	require.NoError(t, err)
	require.NoError(t, vendor.SetContactInfo("Accounts@Example.com", ""))
	require.NoError(t, repo.Save(ctx, vendor))

	customer, err := partner.NewContact("Asha Interiors", partner.ContactTypeCustomer)
	require.NoError(t, err)
	require.NoError(t, customer.SetContactInfo("accounts@example.com", "+91 98200 00000"))
	require.NoError(t, customer.EnablePortal("hash"))
	require.NoError(t, repo.Save(ctx, customer))

	found, err := repo.FindByEmail(ctx, " ACCOUNTS@example.com ")
	require.NoError(t, err)
	assert.Equal(t, customer.ID, found.ID)

	list, total, err := repo.FindAll(ctx, partner.ContactFilter{
		Filter: shared.Filter{Page: 1, PageSize: 10},
		Type:   partner.ContactTypeVendor,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, vendor.ID, list[0].ID)
}

func TestGormSequenceRepository_Next(t *testing.T) {
	ctx := context.Background()
	repo := NewGormSequenceRepository(newSQLiteDB(t))

	for want := int64(1); want <= 3; want++ {
		got, err := repo.Next(ctx, "PO-2602")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	got, err := repo.Next(ctx, "PO-2603")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got, "each month restarts at one")
}

func TestGormStore_ExecuteRollsBack(t *testing.T) {
	ctx := context.Background()
	store := NewGormStore(newSQLiteDB(t))

	boom := errors.New("boom")
	err := store.Execute(ctx, func(repos scope.Repositories) error {
		if _, err := repos.Sequences().Next(ctx, "INV-2602"); err != nil {
			return err
		}
		a, err := accounting.NewAnalyticalAccount("ROLLBACK", "Rolled back", nil)
		if err != nil {
			return err
		}
		if err := repos.Accounts().Save(ctx, a); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = store.Accounts().FindByCode(ctx, "ROLLBACK")
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	next, err := store.Sequences().Next(ctx, "INV-2602")
	require.NoError(t, err)
	assert.Equal(t, int64(1), next, "a rolled back number is handed out again")
}

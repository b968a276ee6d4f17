package integration

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	financeapp "github.com/shivfurniture/erp/internal/application/finance"
	tradeapp "github.com/shivfurniture/erp/internal/application/trade"
	"github.com/shivfurniture/erp/internal/domain/accounting"
	"github.com/shivfurniture/erp/internal/domain/finance"
	"github.com/shivfurniture/erp/internal/domain/trade"
	"github.com/shivfurniture/erp/internal/infrastructure/cache"
	"github.com/shivfurniture/erp/internal/infrastructure/config"
	"github.com/shivfurniture/erp/internal/infrastructure/migration"
	"github.com/shivfurniture/erp/internal/infrastructure/persistence"
	"github.com/shivfurniture/erp/migrations"
	"github.com/shivfurniture/erp/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ledgerNow = time.Date(2026, time.February, 10, 9, 30, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	code := m.Run()
	terminatePostgres()
	os.Exit(code)
}

type ledger struct {
	store        *persistence.GormStore
	fx           *testutil.Fixtures
	transactions *tradeapp.TransactionService
	payments     *financeapp.PaymentService
}

func newLedger(t *testing.T) *ledger {
	t.Helper()
	store := NewTestDB(t).Store()
	now := func() time.Time { return ledgerNow }
	return &ledger{
		store: store,
		fx:    testutil.NewFixtures(t, store),
		transactions: tradeapp.NewTransactionService(tradeapp.TransactionServiceConfig{
			Store: store, Policy: tradeapp.DefaultPolicy(), Now: now,
		}),
		payments: financeapp.NewPaymentService(financeapp.PaymentServiceConfig{Store: store, Now: now}),
	}
}

func (l *ledger) draft(t *testing.T, typ trade.TransactionType, contact uuid.UUID, product uuid.UUID, qty string, account *uuid.UUID) *tradeapp.TransactionResponse {
	t.Helper()
	req := tradeapp.CreateTransactionRequest{
		Type:            string(typ),
		TransactionDate: &ledgerNow,
		Lines: []tradeapp.LineRequest{{
			ProductID:           product,
			Quantity:            testutil.Amount(qty),
			AnalyticalAccountID: account,
		}},
	}
	if typ.IsSales() {
		req.CustomerID = &contact
	} else {
		req.VendorID = &contact
	}
	resp, err := l.transactions.Create(context.Background(), req)
	require.NoError(t, err)
	return resp
}

// parallel runs fn n times concurrently and returns the errors in call order
func parallel(n int, fn func(i int) error) []error {
	errs := make([]error, n)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			errs[i] = fn(i)
		}()
	}
	close(start)
	wg.Wait()
	return errs
}

func TestMigrations_DownAndUpAgain(t *testing.T) {
	tdb := NewTestDB(t)

	own, err := persistence.NewDatabase(context.Background(), &tdb.Config)
	require.NoError(t, err)
	sqlDB, err := own.SQL()
	require.NoError(t, err)
	m, err := migration.New(sqlDB, migrations.FS, logger(t))
	require.NoError(t, err)
	defer func() { _ = m.Close() }()

	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(4), version)
	assert.False(t, dirty)

	require.NoError(t, m.Steps(-1))
	version, _, err = m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(3), version)

	require.NoError(t, m.Up())
	version, _, err = m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(4), version)
}

func TestConcurrentCreate_NumbersAreUniqueAndGapless(t *testing.T) {
	l := newLedger(t)
	vendor := l.fx.Vendor()
	product := l.fx.Product("1000", "1500")

	const n = 12
	numbers := make([]string, n)
	errs := parallel(n, func(i int) error {
		resp, err := l.transactions.Create(context.Background(), tradeapp.CreateTransactionRequest{
			Type:            string(trade.TransactionTypePurchaseOrder),
			VendorID:        &vendor.ID,
			TransactionDate: &ledgerNow,
			Lines:           []tradeapp.LineRequest{{ProductID: product.ID, Quantity: testutil.Amount("1")}},
		})
		if err == nil {
			numbers[i] = resp.TransactionNumber
		}
		return err
	})
	for _, err := range errs {
		require.NoError(t, err)
	}

	want := make([]string, n)
	for i := range n {
		want[i] = fmt.Sprintf("PO-2602-%04d", i+1)
	}
	assert.ElementsMatch(t, want, numbers)
}

func TestConcurrentConfirm_AccruesEveryBill(t *testing.T) {
	l := newLedger(t)
	vendor := l.fx.Vendor()
	product := l.fx.Product("1000", "1500")
	account := l.fx.Account("CC-WORKSHOP")
	l.fx.Budget(account.ID, accounting.PeriodOf(ledgerNow), "100000")

	const n = 8
	ids := make([]uuid.UUID, n)
	for i := range n {
		ids[i] = l.draft(t, trade.TransactionTypeVendorBill, vendor.ID, product.ID, "1", &account.ID).ID
	}

	errs := parallel(n, func(i int) error {
		_, err := l.transactions.Confirm(context.Background(), ids[i])
		return err
	})
	for _, err := range errs {
		require.NoError(t, err)
	}

	budget, err := l.store.Budgets().FindByPeriod(context.Background(), account.ID, accounting.PeriodOf(ledgerNow))
	require.NoError(t, err)
	// 1000 + 18% GST per bill
	assert.Equal(t, "9440.00", budget.UsedAmount.StringFixed(2))
}

func TestConfirm_IndianDateOnFirstOfMonthAccruesThatMonth(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	vendor := l.fx.Vendor()
	product := l.fx.Product("1000", "1500")
	account := l.fx.Account("CC-JULY")
	june := accounting.Period{Year: 2026, Month: 6}
	july := accounting.Period{Year: 2026, Month: 7}
	l.fx.Budget(account.ID, june, "50000")
	l.fx.Budget(account.ID, july, "50000")

	date := time.Date(2026, time.July, 1, 10, 0, 0, 0, time.FixedZone("IST", 5*3600+1800))
	bill, err := l.transactions.Create(ctx, tradeapp.CreateTransactionRequest{
		Type:            string(trade.TransactionTypeVendorBill),
		VendorID:        &vendor.ID,
		TransactionDate: &date,
		Lines: []tradeapp.LineRequest{{
			ProductID:           product.ID,
			Quantity:            testutil.Amount("1"),
			AnalyticalAccountID: &account.ID,
		}},
	})
	require.NoError(t, err)

	_, err = l.transactions.Confirm(ctx, bill.ID)
	require.NoError(t, err)

	loaded, err := l.transactions.GetByID(ctx, bill.ID)
	require.NoError(t, err)
	y, m, d := loaded.TransactionDate.Date()
	assert.Equal(t, []int{2026, 7, 1}, []int{y, int(m), d})

	julyBudget, err := l.store.Budgets().FindByPeriod(ctx, account.ID, july)
	require.NoError(t, err)
	assert.Equal(t, "1180.00", julyBudget.UsedAmount.StringFixed(2))
	juneBudget, err := l.store.Budgets().FindByPeriod(ctx, account.ID, june)
	require.NoError(t, err)
	assert.True(t, juneBudget.UsedAmount.IsZero())
}

func TestConcurrentConfirm_SameDocumentOnce(t *testing.T) {
	l := newLedger(t)
	vendor := l.fx.Vendor()
	product := l.fx.Product("500", "800")
	account := l.fx.Account("CC-SHOWROOM")
	l.fx.Budget(account.ID, accounting.PeriodOf(ledgerNow), "10000")
	bill := l.draft(t, trade.TransactionTypeVendorBill, vendor.ID, product.ID, "2", &account.ID)

	errs := parallel(4, func(int) error {
		_, err := l.transactions.Confirm(context.Background(), bill.ID)
		return err
	})
	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded)

	budget, err := l.store.Budgets().FindByPeriod(context.Background(), account.ID, accounting.PeriodOf(ledgerNow))
	require.NoError(t, err)
	assert.Equal(t, "1180.00", budget.UsedAmount.StringFixed(2), "usage accrued exactly once")
}

func TestConcurrentPayments_CannotOverAllocate(t *testing.T) {
	l := newLedger(t)
	customer := l.fx.Customer()
	product := l.fx.Product("600", "1000")
	invoice := l.draft(t, trade.TransactionTypeCustomerInvoice, customer.ID, product.ID, "1", nil)
	_, err := l.transactions.Confirm(context.Background(), invoice.ID)
	require.NoError(t, err)

	// two receipts of 800 against an invoice of 1180
	errs := parallel(2, func(int) error {
		_, err := l.payments.Create(context.Background(), financeapp.CreatePaymentRequest{
			ContactID:   customer.ID,
			Amount:      testutil.Amount("800"),
			PaymentDate: &ledgerNow,
			Method:      string(finance.PaymentMethodBankTransfer),
			Allocations: []financeapp.AllocationRequest{{TransactionID: invoice.ID, AllocatedAmount: testutil.Amount("800")}},
			Confirm:     true,
		})
		return err
	})

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	assert.Equal(t, 1, failed, "the second allocation exceeds the outstanding balance")

	got, err := l.transactions.GetByID(context.Background(), invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, string(trade.PaymentStatusPartiallyPaid), got.PaymentStatus)

	paid, err := l.store.Payments().SumAllocatedForTransaction(context.Background(), invoice.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "800.00", paid.StringFixed(2))
}

func TestConcurrentGatewayReceipts_RecordOnePayment(t *testing.T) {
	l := newLedger(t)
	customer := l.fx.Customer()
	product := l.fx.Product("600", "1000")
	invoice := l.draft(t, trade.TransactionTypeCustomerInvoice, customer.ID, product.ID, "1", nil)
	_, err := l.transactions.Confirm(context.Background(), invoice.ID)
	require.NoError(t, err)

	gw := &stubGateway{charge: &finance.GatewayPayment{
		ID: "pay_Int1", OrderID: "order_Int1", AmountMinor: 118000, Currency: "INR",
		Status: finance.GatewayPaymentCaptured, Method: "upi",
	}}
	gateway := financeapp.NewGatewayService(financeapp.GatewayServiceConfig{
		Gateway:     gw,
		Payments:    l.payments,
		Store:       l.store,
		Idempotency: cache.NewInMemoryIdempotencyStore(),
	})

	receipts := make([]*financeapp.PaymentResponse, 5)
	errs := parallel(5, func(i int) error {
		resp, err := gateway.VerifyAndRecord(context.Background(), financeapp.VerifyPaymentRequest{
			TransactionID: invoice.ID,
			OrderID:       "order_Int1",
			PaymentID:     "pay_Int1",
			Signature:     "valid",
		}, &customer.ID)
		receipts[i] = resp
		return err
	})

	var ids []uuid.UUID
	for i, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, financeapp.ErrGatewayPaymentInFlight)
			continue
		}
		ids = append(ids, receipts[i].ID)
	}
	require.NotEmpty(t, ids)
	for _, id := range ids {
		assert.Equal(t, ids[0], id, "every caller sees the same receipt")
	}

	_, total, err := l.store.Payments().FindAll(context.Background(), finance.PaymentFilter{ContactID: &customer.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	got, err := l.transactions.GetByID(context.Background(), invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, string(trade.PaymentStatusPaid), got.PaymentStatus)
}

func TestRedisStores_ShareClaimsAcrossFactories(t *testing.T) {
	host, port := StartRedis(t)
	cfg := config.RedisConfig{Host: host, Port: port}
	ctx := context.Background()

	first, err := cache.NewStoreFactory(cfg, cache.WithInMemoryFallback(false)).CreateStores(ctx)
	require.NoError(t, err)
	defer func() { _ = first.Close() }()
	second, err := cache.NewStoreFactory(cfg, cache.WithInMemoryFallback(false)).CreateStores(ctx)
	require.NoError(t, err)
	defer func() { _ = second.Close() }()
	assert.Equal(t, "redis", first.Backend)

	claimed, err := first.Idempotency.Claim(ctx, "gateway:pay_Shared", time.Minute)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = second.Idempotency.Claim(ctx, "gateway:pay_Shared", time.Minute)
	require.NoError(t, err)
	assert.False(t, claimed, "a second instance sees the first claim")

	require.NoError(t, first.Idempotency.Release(ctx, "gateway:pay_Shared"))
	claimed, err = second.Idempotency.Claim(ctx, "gateway:pay_Shared", time.Minute)
	require.NoError(t, err)
	assert.True(t, claimed)

	require.NoError(t, first.Blacklist.AddToBlacklist(ctx, "jti-1", time.Minute))
	revoked, err := second.Blacklist.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
}

type stubGateway struct {
	charge *finance.GatewayPayment
}

func (g *stubGateway) CreateOrder(_ context.Context, req finance.GatewayOrderRequest) (*finance.GatewayOrder, error) {
	return &finance.GatewayOrder{ID: g.charge.OrderID, AmountMinor: req.AmountMinor, Currency: req.Currency, Status: "created"}, nil
}

func (g *stubGateway) VerifySignature(_, _, signature string) bool {
	return signature == "valid"
}

func (g *stubGateway) FetchPayment(context.Context, string) (*finance.GatewayPayment, error) {
	return g.charge, nil
}

func (g *stubGateway) Refund(_ context.Context, paymentID string, _ *int64) (*finance.GatewayRefund, error) {
	return &finance.GatewayRefund{ID: "rfnd_int", PaymentID: paymentID, AmountMinor: g.charge.AmountMinor, Status: "processed"}, nil
}

package finance

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	tradeapp "github.com/shivfurniture/erp/internal/application/trade"
	"github.com/shivfurniture/erp/internal/domain/shared"
	"github.com/shivfurniture/erp/internal/domain/trade"
	"github.com/shivfurniture/erp/internal/infrastructure/persistence"
	"github.com/shivfurniture/erp/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, time.February, 14, 11, 0, 0, 0, time.UTC)

type ledgerHarness struct {
	store    *persistence.GormStore
	fx       *testutil.Fixtures
	txns     *tradeapp.TransactionService
	payments *PaymentService
}

func newLedger(t *testing.T, confirmedOnly bool) *ledgerHarness {
	t.Helper()
	store := testutil.NewSQLiteStore(t)
	now := func() time.Time { return fixedNow }
	policy := tradeapp.DefaultPolicy()
	policy.PaidRequiresConfirmedPayment = confirmedOnly
	return &ledgerHarness{
		store: store,
		fx:    testutil.NewFixtures(t, store),
		txns: tradeapp.NewTransactionService(tradeapp.TransactionServiceConfig{
			Store: store, Policy: policy, Now: now,
		}),
		payments: NewPaymentService(PaymentServiceConfig{
			Store: store, PaidRequiresConfirmedPayment: confirmedOnly, Now: now,
		}),
	}
}

// confirmedDocument creates and confirms a document of 1 unit at price with 18% GST
func (h *ledgerHarness) confirmedDocument(t *testing.T, txnType trade.TransactionType, contactID uuid.UUID, price string) *tradeapp.TransactionResponse {
	t.Helper()
	ctx := context.Background()
	product := h.fx.Product(price, price)
	req := tradeapp.CreateTransactionRequest{
		Type:  string(txnType),
		Lines: []tradeapp.LineRequest{{ProductID: product.ID, Quantity: testutil.Amount("1")}},
	}
	if txnType.IsPurchase() {
		req.VendorID = &contactID
	} else {
		req.CustomerID = &contactID
	}
	created, err := h.txns.Create(ctx, req)
	require.NoError(t, err)
	confirmed, err := h.txns.Confirm(ctx, created.ID)
	require.NoError(t, err)
	return confirmed
}

func (h *ledgerHarness) transaction(t *testing.T, id uuid.UUID) *tradeapp.TransactionResponse {
	t.Helper()
	resp, err := h.txns.GetByID(context.Background(), id)
	require.NoError(t, err)
	return resp
}

func allocate(id uuid.UUID, amount string) []AllocationRequest {
	return []AllocationRequest{{TransactionID: id, AllocatedAmount: testutil.Amount(amount)}}
}

func TestPaymentService_CreateAllocatesAndRecomputes(t *testing.T) {
	ctx := context.Background()
	h := newLedger(t, false)
	vendor := h.fx.Vendor()
	bill := h.confirmedDocument(t, trade.TransactionTypeVendorBill, vendor.ID, "10000")
	require.Equal(t, "11800.00", bill.TotalAmount.StringFixed(2))

	first, err := h.payments.Create(ctx, CreatePaymentRequest{
		ContactID:   vendor.ID,
		Amount:      testutil.Amount("5000"),
		Method:      "BANK_TRANSFER",
		Allocations: allocate(bill.ID, "5000"),
	})
	require.NoError(t, err)
	assert.Equal(t, "PAY-2602-0001", first.PaymentNumber)
	assert.Equal(t, "SEND", first.Type)
	assert.Equal(t, "DRAFT", first.Status)
	assert.Equal(t, "0.00", first.UnallocatedAmount.StringFixed(2))

	got := h.transaction(t, bill.ID)
	assert.Equal(t, "PARTIALLY_PAID", got.PaymentStatus)
	assert.Equal(t, "5000.00", got.PaidAmount.StringFixed(2))
	assert.Equal(t, "6800.00", got.OutstandingAmount.StringFixed(2))

	second, err := h.payments.Create(ctx, CreatePaymentRequest{
		ContactID:   vendor.ID,
		Amount:      testutil.Amount("7000"),
		Method:      "CHEQUE",
		Allocations: allocate(bill.ID, "6800"),
		Confirm:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, "CONFIRMED", second.Status)
	assert.Equal(t, "200.00", second.UnallocatedAmount.StringFixed(2))

	got = h.transaction(t, bill.ID)
	assert.Equal(t, "PAID", got.PaymentStatus)
	assert.Equal(t, "11800.00", got.PaidAmount.StringFixed(2))
}

func TestPaymentService_CreateRejects(t *testing.T) {
	ctx := context.Background()
	h := newLedger(t, false)
	vendor := h.fx.Vendor()
	otherVendor := h.fx.Vendor()
	customer := h.fx.Customer()
	bill := h.confirmedDocument(t, trade.TransactionTypeVendorBill, vendor.ID, "1000")
	invoice := h.confirmedDocument(t, trade.TransactionTypeCustomerInvoice, customer.ID, "1000")

	product := h.fx.Product("100", "100")
	draft, err := h.txns.Create(ctx, tradeapp.CreateTransactionRequest{
		Type:     string(trade.TransactionTypeVendorBill),
		VendorID: &vendor.ID,
		Lines:    []tradeapp.LineRequest{{ProductID: product.ID, Quantity: testutil.Amount("1")}},
	})
	require.NoError(t, err)

	tests := []struct {
		name string
		req  CreatePaymentRequest
	}{
		{"allocations above amount", CreatePaymentRequest{
			ContactID: vendor.ID, Amount: testutil.Amount("100"), Method: "CASH",
			Allocations: allocate(bill.ID, "100.01")}},
		{"allocation above outstanding", CreatePaymentRequest{
			ContactID: vendor.ID, Amount: testutil.Amount("5000"), Method: "CASH",
			Allocations: allocate(bill.ID, "1180.01")}},
		{"draft document", CreatePaymentRequest{
			ContactID: vendor.ID, Amount: testutil.Amount("10"), Method: "CASH",
			Allocations: allocate(draft.ID, "10")}},
		{"document of another contact", CreatePaymentRequest{
			ContactID: otherVendor.ID, Amount: testutil.Amount("10"), Method: "CASH",
			Allocations: allocate(bill.ID, "10")}},
		{"receipt for a vendor", CreatePaymentRequest{
			ContactID: vendor.ID, Type: "RECEIVE", Amount: testutil.Amount("10"), Method: "CASH"}},
		{"sales document from a send payment", CreatePaymentRequest{
			ContactID: vendor.ID, Amount: testutil.Amount("10"), Method: "CASH",
			Allocations: allocate(invoice.ID, "10")}},
		{"unknown document", CreatePaymentRequest{
			ContactID: vendor.ID, Amount: testutil.Amount("10"), Method: "CASH",
			Allocations: allocate(uuid.New(), "10")}},
		{"duplicate allocation", CreatePaymentRequest{
			ContactID: vendor.ID, Amount: testutil.Amount("20"), Method: "CASH",
			Allocations: append(allocate(bill.ID, "10"), allocate(bill.ID, "10")...)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.payments.Create(ctx, tt.req)
			require.Error(t, err)
			assert.True(t, shared.IsKind(err, shared.CodeValidation), err.Error())
		})
	}

	got := h.transaction(t, bill.ID)
	assert.True(t, got.PaidAmount.IsZero(), "rejected payments leave no trace")
}

func TestPaymentService_Update(t *testing.T) {
	ctx := context.Background()
	h := newLedger(t, false)
	customer := h.fx.Customer()
	first := h.confirmedDocument(t, trade.TransactionTypeCustomerInvoice, customer.ID, "1000")
	second := h.confirmedDocument(t, trade.TransactionTypeCustomerInvoice, customer.ID, "1000")

	p, err := h.payments.Create(ctx, CreatePaymentRequest{
		ContactID: customer.ID, Amount: testutil.Amount("1180"), Method: "UPI",
		Allocations: allocate(first.ID, "1180"),
	})
	require.NoError(t, err)
	assert.Equal(t, "RECEIVE", p.Type)
	assert.Equal(t, "PAID", h.transaction(t, first.ID).PaymentStatus)

	updated, err := h.payments.Update(ctx, p.ID, UpdatePaymentRequest{
		Amount: testutil.Amount("1180"),
		Method: "UPI",
		Allocations: []AllocationRequest{
			{TransactionID: first.ID, AllocatedAmount: testutil.Amount("590")},
			{TransactionID: second.ID, AllocatedAmount: testutil.Amount("590")},
		},
	})
	require.NoError(t, err)
	assert.Len(t, updated.Allocations, 2)

	assert.Equal(t, "PARTIALLY_PAID", h.transaction(t, first.ID).PaymentStatus)
	assert.Equal(t, "PARTIALLY_PAID", h.transaction(t, second.ID).PaymentStatus)

	// keeping the full amount on the same document is allowed on re-edit
	_, err = h.payments.Update(ctx, p.ID, UpdatePaymentRequest{
		Amount: testutil.Amount("1180"), Method: "UPI", Allocations: allocate(first.ID, "1180"),
	})
	require.NoError(t, err)
	assert.Equal(t, "PAID", h.transaction(t, first.ID).PaymentStatus)
	assert.Equal(t, "NOT_PAID", h.transaction(t, second.ID).PaymentStatus)
}

func TestPaymentService_UpdateKeepsAllocationToCancelledDocument(t *testing.T) {
	ctx := context.Background()
	h := newLedger(t, false)
	customer := h.fx.Customer()
	cancelled := h.confirmedDocument(t, trade.TransactionTypeCustomerInvoice, customer.ID, "1000")
	open := h.confirmedDocument(t, trade.TransactionTypeCustomerInvoice, customer.ID, "1000")

	p, err := h.payments.Create(ctx, CreatePaymentRequest{
		ContactID: customer.ID, Amount: testutil.Amount("1180"), Method: "BANK_TRANSFER",
		Allocations: []AllocationRequest{
			{TransactionID: cancelled.ID, AllocatedAmount: testutil.Amount("590")},
			{TransactionID: open.ID, AllocatedAmount: testutil.Amount("590")},
		},
	})
	require.NoError(t, err)
	_, err = h.txns.Cancel(ctx, cancelled.ID)
	require.NoError(t, err)

	updated, err := h.payments.Update(ctx, p.ID, UpdatePaymentRequest{
		Amount: testutil.Amount("1180"), Method: "BANK_TRANSFER", Reference: "UTR-77812",
		Allocations: []AllocationRequest{
			{TransactionID: cancelled.ID, AllocatedAmount: testutil.Amount("590")},
			{TransactionID: open.ID, AllocatedAmount: testutil.Amount("590")},
		},
	})
	require.NoError(t, err, "unchanged allocations stay editable")
	assert.Equal(t, "UTR-77812", updated.Reference)

	_, err = h.payments.Update(ctx, p.ID, UpdatePaymentRequest{
		Amount: testutil.Amount("1180"), Method: "BANK_TRANSFER",
		Allocations: []AllocationRequest{
			{TransactionID: cancelled.ID, AllocatedAmount: testutil.Amount("600")},
			{TransactionID: open.ID, AllocatedAmount: testutil.Amount("580")},
		},
	})
	assert.True(t, shared.IsKind(err, shared.CodeValidation), "a cancelled document cannot take more")

	_, err = h.payments.Update(ctx, p.ID, UpdatePaymentRequest{
		Amount: testutil.Amount("1180"), Method: "BANK_TRANSFER", Allocations: allocate(open.ID, "1180"),
	})
	require.NoError(t, err, "moving money off a cancelled document is allowed")
	assert.Equal(t, "PAID", h.transaction(t, open.ID).PaymentStatus)
	assert.True(t, h.transaction(t, cancelled.ID).PaidAmount.IsZero())
}

func TestPaymentService_VoidAndDelete(t *testing.T) {
	ctx := context.Background()
	h := newLedger(t, false)
	vendor := h.fx.Vendor()
	bill := h.confirmedDocument(t, trade.TransactionTypeVendorBill, vendor.ID, "1000")

	confirmed, err := h.payments.Create(ctx, CreatePaymentRequest{
		ContactID: vendor.ID, Amount: testutil.Amount("1180"), Method: "CASH",
		Allocations: allocate(bill.ID, "1180"), Confirm: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "PAID", h.transaction(t, bill.ID).PaymentStatus)

	err = h.payments.Delete(ctx, confirmed.ID)
	assert.True(t, shared.IsKind(err, shared.CodeInvalidState))

	voided, err := h.payments.Void(ctx, confirmed.ID)
	require.NoError(t, err)
	assert.Equal(t, "VOIDED", voided.Status)
	assert.Empty(t, voided.Allocations)
	assert.Equal(t, "NOT_PAID", h.transaction(t, bill.ID).PaymentStatus)

	_, err = h.payments.Void(ctx, confirmed.ID)
	assert.True(t, shared.IsKind(err, shared.CodeInvalidState))
	_, err = h.payments.Update(ctx, confirmed.ID, UpdatePaymentRequest{Amount: testutil.Amount("1"), Method: "CASH"})
	assert.True(t, shared.IsKind(err, shared.CodeInvalidState))

	draft, err := h.payments.Create(ctx, CreatePaymentRequest{
		ContactID: vendor.ID, Amount: testutil.Amount("100"), Method: "CASH",
		Allocations: allocate(bill.ID, "100"),
	})
	require.NoError(t, err)
	assert.Equal(t, "PARTIALLY_PAID", h.transaction(t, bill.ID).PaymentStatus)

	require.NoError(t, h.payments.Delete(ctx, draft.ID))
	assert.Equal(t, "NOT_PAID", h.transaction(t, bill.ID).PaymentStatus)
	_, err = h.payments.GetByID(ctx, draft.ID)
	assert.True(t, shared.IsKind(err, shared.CodeNotFound))
}

func TestPaymentService_PaidRequiresConfirmedPayment(t *testing.T) {
	ctx := context.Background()
	h := newLedger(t, true)
	vendor := h.fx.Vendor()
	bill := h.confirmedDocument(t, trade.TransactionTypeVendorBill, vendor.ID, "1000")

	p, err := h.payments.Create(ctx, CreatePaymentRequest{
		ContactID: vendor.ID, Amount: testutil.Amount("1180"), Method: "CASH",
		Allocations: allocate(bill.ID, "1180"),
	})
	require.NoError(t, err)
	assert.Equal(t, "NOT_PAID", h.transaction(t, bill.ID).PaymentStatus, "draft payments do not count")

	// the draft still reserves the balance
	_, err = h.payments.Create(ctx, CreatePaymentRequest{
		ContactID: vendor.ID, Amount: testutil.Amount("1"), Method: "CASH",
		Allocations: allocate(bill.ID, "1"),
	})
	assert.True(t, shared.IsKind(err, shared.CodeValidation))

	_, err = h.payments.Confirm(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "PAID", h.transaction(t, bill.ID).PaymentStatus)

	_, err = h.payments.Confirm(ctx, p.ID)
	assert.True(t, shared.IsKind(err, shared.CodeInvalidState))
}

func TestPaymentService_GetOutstandingTransactions(t *testing.T) {
	ctx := context.Background()
	h := newLedger(t, false)
	vendor := h.fx.Vendor()
	customer := h.fx.Customer()
	paid := h.confirmedDocument(t, trade.TransactionTypeVendorBill, vendor.ID, "100")
	open := h.confirmedDocument(t, trade.TransactionTypeVendorBill, vendor.ID, "200")
	h.confirmedDocument(t, trade.TransactionTypePurchaseOrder, vendor.ID, "300")
	invoice := h.confirmedDocument(t, trade.TransactionTypeCustomerInvoice, customer.ID, "400")

	_, err := h.payments.Create(ctx, CreatePaymentRequest{
		ContactID: vendor.ID, Amount: testutil.Amount("118"), Method: "CASH",
		Allocations: allocate(paid.ID, "118"), Confirm: true,
	})
	require.NoError(t, err)

	bills, err := h.payments.GetOutstandingTransactions(ctx, vendor.ID)
	require.NoError(t, err)
	require.Len(t, bills, 1)
	assert.Equal(t, open.ID, bills[0].ID)

	invoices, err := h.payments.GetOutstandingTransactions(ctx, customer.ID)
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, invoice.ID, invoices[0].ID)
}

func TestPaymentService_RecordGatewayReceipt(t *testing.T) {
	ctx := context.Background()
	h := newLedger(t, false)
	customer := h.fx.Customer()
	vendor := h.fx.Vendor()
	invoice := h.confirmedDocument(t, trade.TransactionTypeCustomerInvoice, customer.ID, "1000")
	bill := h.confirmedDocument(t, trade.TransactionTypeVendorBill, vendor.ID, "1000")

	_, err := h.payments.RecordGatewayReceipt(ctx, RecordReceiptRequest{
		TransactionID: invoice.ID, VerifiedAmount: testutil.Amount("1000"), GatewayPaymentID: "pay_short",
	})
	assert.True(t, shared.IsKind(err, shared.CodeValidation), "verified amount below outstanding")

	_, err = h.payments.RecordGatewayReceipt(ctx, RecordReceiptRequest{
		TransactionID: bill.ID, VerifiedAmount: testutil.Amount("1180"), GatewayPaymentID: "pay_bill",
	})
	assert.True(t, shared.IsKind(err, shared.CodeValidation), "purchase documents")

	receipt, err := h.payments.RecordGatewayReceipt(ctx, RecordReceiptRequest{
		TransactionID: invoice.ID, VerifiedAmount: testutil.Amount("1180"), GatewayPaymentID: "pay_Xyz", Method: "UPI",
	})
	require.NoError(t, err)
	assert.Equal(t, "RCP-2602-0001", receipt.PaymentNumber)
	assert.Equal(t, "CONFIRMED", receipt.Status)
	assert.Equal(t, "UPI", receipt.Method)
	assert.Equal(t, "pay_Xyz", receipt.GatewayPaymentID)
	assert.Equal(t, "1180.00", receipt.Amount.StringFixed(2))
	assert.Equal(t, "PAID", h.transaction(t, invoice.ID).PaymentStatus)

	again, err := h.payments.RecordGatewayReceipt(ctx, RecordReceiptRequest{
		TransactionID: invoice.ID, VerifiedAmount: testutil.Amount("1180"), GatewayPaymentID: "pay_Xyz",
	})
	require.NoError(t, err)
	assert.Equal(t, receipt.ID, again.ID)

	_, err = h.payments.RecordGatewayReceipt(ctx, RecordReceiptRequest{
		TransactionID: invoice.ID, VerifiedAmount: testutil.Amount("1180"), GatewayPaymentID: "pay_other",
	})
	assert.True(t, shared.IsKind(err, shared.CodeInvalidState), "nothing left to pay")
}

func TestPaymentService_List(t *testing.T) {
	ctx := context.Background()
	h := newLedger(t, false)
	vendor := h.fx.Vendor()
	customer := h.fx.Customer()

	_, err := h.payments.Create(ctx, CreatePaymentRequest{ContactID: vendor.ID, Amount: testutil.Amount("10"), Method: "CASH"})
	require.NoError(t, err)
	_, err = h.payments.Create(ctx, CreatePaymentRequest{ContactID: customer.ID, Amount: testutil.Amount("20"), Method: "CASH", Confirm: true})
	require.NoError(t, err)

	page, err := h.payments.List(ctx, PaymentListFilter{Type: "RECEIVE"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "20.00", page.Items[0].Amount.StringFixed(2))

	page, err = h.payments.List(ctx, PaymentListFilter{ContactID: &vendor.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	page, err = h.payments.List(ctx, PaymentListFilter{Status: "CONFIRMED"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
}

package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	accountingapp "github.com/shivfurniture/erp/internal/application/accounting"
	financeapp "github.com/shivfurniture/erp/internal/application/finance"
	partnerapp "github.com/shivfurniture/erp/internal/application/partner"
	tradeapp "github.com/shivfurniture/erp/internal/application/trade"
	"github.com/shivfurniture/erp/internal/domain/finance"
	"github.com/shivfurniture/erp/internal/interfaces/http/handler"
	"github.com/shivfurniture/erp/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuth(t *testing.T) {
	h := newAPI(t)

	t.Run("wrong password", func(t *testing.T) {
		w := h.client.Post("/api/v1/auth/login", partnerapp.LoginRequest{Username: adminUser, Password: "nope-nope"})
		testutil.RequireStatus(t, http.StatusUnauthorized, w)
		assert.Equal(t, "UNAUTHORIZED", testutil.ErrorCode(t, w))
	})

	t.Run("missing token", func(t *testing.T) {
		w := h.client.Get("/api/v1/analytical-accounts")
		testutil.RequireStatus(t, http.StatusUnauthorized, w)
	})

	t.Run("logout revokes the token", func(t *testing.T) {
		token := h.login(t, "/api/v1/auth/login", partnerapp.LoginRequest{Username: adminUser, Password: adminPassword})
		session := h.client.As(token)

		testutil.RequireStatus(t, http.StatusOK, session.Get("/api/v1/analytical-accounts"))
		testutil.RequireStatus(t, http.StatusNoContent, session.Post("/api/v1/auth/logout", nil))
		testutil.RequireStatus(t, http.StatusUnauthorized, session.Get("/api/v1/analytical-accounts"))
	})
}

func TestAccountEndpoints(t *testing.T) {
	h := newAPI(t)

	w := h.admin.Post("/api/v1/analytical-accounts", accountingapp.CreateAccountRequest{Code: "CC-100", Name: "Workshop"})
	testutil.RequireStatus(t, http.StatusCreated, w)
	parent := testutil.Decode[accountingapp.AccountResponse](t, w).Data
	assert.Equal(t, "CC-100", parent.Code)

	w = h.admin.Post("/api/v1/analytical-accounts",
		accountingapp.CreateAccountRequest{Code: "CC-110", Name: "Polishing", ParentID: &parent.ID})
	testutil.RequireStatus(t, http.StatusCreated, w)

	t.Run("duplicate code", func(t *testing.T) {
		w := h.admin.Post("/api/v1/analytical-accounts", accountingapp.CreateAccountRequest{Code: "CC-100", Name: "Again"})
		testutil.RequireStatus(t, http.StatusConflict, w)
		assert.Equal(t, "ALREADY_EXISTS", testutil.ErrorCode(t, w))
	})

	t.Run("validation details name the field", func(t *testing.T) {
		w := h.admin.Post("/api/v1/analytical-accounts", map[string]string{"code": "CC-200"})
		testutil.RequireStatus(t, http.StatusBadRequest, w)
		env := testutil.Decode[json.RawMessage](t, w)
		require.NotNil(t, env.Error)
		assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
		require.Len(t, env.Error.Details, 1)
		assert.Equal(t, "name", env.Error.Details[0].Field)
	})

	t.Run("malformed and unknown ids", func(t *testing.T) {
		testutil.RequireStatus(t, http.StatusBadRequest, h.admin.Get("/api/v1/analytical-accounts/not-a-uuid"))
		testutil.RequireStatus(t, http.StatusNotFound, h.admin.Get("/api/v1/analytical-accounts/"+uuid.NewString()))
	})

	t.Run("list is paginated", func(t *testing.T) {
		w := h.admin.Get("/api/v1/analytical-accounts?page=1&page_size=1")
		testutil.RequireStatus(t, http.StatusOK, w)
		env := testutil.Decode[[]accountingapp.AccountResponse](t, w)
		require.NotNil(t, env.Meta)
		assert.Equal(t, int64(2), env.Meta.Total)
		assert.Len(t, env.Data, 1)
	})

	t.Run("tree nests children", func(t *testing.T) {
		w := h.admin.Get("/api/v1/analytical-accounts/tree")
		testutil.RequireStatus(t, http.StatusOK, w)
		tree := testutil.Decode[[]accountingapp.AccountTreeNode](t, w).Data
		require.Len(t, tree, 1)
		require.Len(t, tree[0].Children, 1)
		assert.Equal(t, "CC-110", tree[0].Children[0].Code)
	})
}

func TestBudgetAccrualThroughTheAPI(t *testing.T) {
	h := newAPI(t)
	account := h.fx.Account("CC-300")
	product := h.fx.Product("1000", "1500")
	vendor := h.fx.Vendor()

	w := h.admin.Post("/api/v1/auto-analytical-models",
		accountingapp.CreateRuleRequest{ProductID: &product.ID, AnalyticalAccountID: account.ID, Priority: 1})
	testutil.RequireStatus(t, http.StatusCreated, w)

	w = h.admin.Get("/api/v1/auto-analytical-models/resolve?product_id=" + product.ID.String())
	testutil.RequireStatus(t, http.StatusOK, w)
	resolved := testutil.Decode[accountingapp.ResolveResponse](t, w).Data
	require.NotNil(t, resolved.AnalyticalAccountID)
	assert.Equal(t, account.ID, *resolved.AnalyticalAccountID)

	w = h.admin.Post("/api/v1/budgets", accountingapp.CreateBudgetRequest{
		AnalyticalAccountID: account.ID, Year: 2026, Month: 2, AllocatedAmount: testutil.Amount("2000"),
	})
	testutil.RequireStatus(t, http.StatusCreated, w)

	bill := h.document(t, tradeapp.CreateTransactionRequest{
		Type:     "VENDOR_BILL",
		VendorID: &vendor.ID,
		Lines:    []tradeapp.LineRequest{{ProductID: product.ID, Quantity: testutil.Amount("1")}},
	})
	assert.Equal(t, "BILL-2602-0001", bill.TransactionNumber)
	assert.Equal(t, "CONFIRMED", bill.Status)

	w = h.admin.Get("/api/v1/budgets/summary?year=2026&month=2")
	testutil.RequireStatus(t, http.StatusOK, w)
	summary := testutil.Decode[accountingapp.BudgetSummaryResponse](t, w).Data
	assert.Equal(t, "1180.00", summary.TotalUsed.StringFixed(2))
	assert.Equal(t, "820.00", summary.TotalRemaining.StringFixed(2))

	t.Run("summary needs a period", func(t *testing.T) {
		testutil.RequireStatus(t, http.StatusBadRequest, h.admin.Get("/api/v1/budgets/summary?year=2026"))
	})

	t.Run("export is a spreadsheet", func(t *testing.T) {
		w := h.admin.Get("/api/v1/budgets/summary/export?year=2026&month=2")
		testutil.RequireStatus(t, http.StatusOK, w)
		assert.Contains(t, w.Header().Get("Content-Type"), "spreadsheetml")
		assert.Contains(t, w.Header().Get("Content-Disposition"), "budget-summary-2026-02.xlsx")
		assert.NotEmpty(t, w.Body.Bytes())
	})

	t.Run("archive is unavailable without object storage", func(t *testing.T) {
		w := h.admin.Post("/api/v1/budgets/summary/archive?year=2026&month=2", nil)
		testutil.RequireStatus(t, http.StatusUnprocessableEntity, w)
		assert.Equal(t, "INVALID_STATE", testutil.ErrorCode(t, w))
	})

	t.Run("confirmed documents cannot be edited", func(t *testing.T) {
		w := h.admin.Put("/api/v1/transactions/"+bill.ID.String(), tradeapp.UpdateTransactionRequest{
			VendorID: &vendor.ID,
			Lines:    []tradeapp.LineRequest{{ProductID: product.ID, Quantity: testutil.Amount("2")}},
		})
		testutil.RequireStatus(t, http.StatusUnprocessableEntity, w)
		assert.Equal(t, "INVALID_STATE", testutil.ErrorCode(t, w))
	})

	t.Run("zero quantity is rejected before the service", func(t *testing.T) {
		w := h.admin.Post("/api/v1/transactions", tradeapp.CreateTransactionRequest{
			Type:     "VENDOR_BILL",
			VendorID: &vendor.ID,
			Lines:    []tradeapp.LineRequest{{ProductID: product.ID, Quantity: testutil.Amount("0")}},
		})
		testutil.RequireStatus(t, http.StatusBadRequest, w)
		env := testutil.Decode[json.RawMessage](t, w)
		require.NotEmpty(t, env.Error.Details)
		assert.Equal(t, "lines[0].quantity", env.Error.Details[0].Field)
	})
}

func TestPaymentEndpoints(t *testing.T) {
	h := newAPI(t)
	vendor := h.fx.Vendor()
	product := h.fx.Product("1000", "1000")
	bill := h.document(t, tradeapp.CreateTransactionRequest{
		Type:     "VENDOR_BILL",
		VendorID: &vendor.ID,
		Lines:    []tradeapp.LineRequest{{ProductID: product.ID, Quantity: testutil.Amount("1")}},
	})

	w := h.admin.Get("/api/v1/payments/outstanding?contact_id=" + vendor.ID.String())
	testutil.RequireStatus(t, http.StatusOK, w)
	assert.Len(t, testutil.Decode[[]tradeapp.TransactionResponse](t, w).Data, 1)

	w = h.admin.Post("/api/v1/payments", financeapp.CreatePaymentRequest{
		ContactID: vendor.ID,
		Amount:    testutil.Amount("1180"),
		Method:    "BANK_TRANSFER",
		Allocations: []financeapp.AllocationRequest{
			{TransactionID: bill.ID, AllocatedAmount: testutil.Amount("1180")},
		},
		Confirm: true,
	})
	testutil.RequireStatus(t, http.StatusCreated, w)
	payment := testutil.Decode[financeapp.PaymentResponse](t, w).Data
	assert.Equal(t, "SEND", payment.Type)
	assert.Equal(t, "CONFIRMED", payment.Status)

	w = h.admin.Get("/api/v1/transactions/" + bill.ID.String())
	testutil.RequireStatus(t, http.StatusOK, w)
	assert.Equal(t, "PAID", testutil.Decode[tradeapp.TransactionResponse](t, w).Data.PaymentStatus)

	t.Run("over-allocation is rejected", func(t *testing.T) {
		w := h.admin.Post("/api/v1/payments", financeapp.CreatePaymentRequest{
			ContactID: vendor.ID,
			Amount:    testutil.Amount("10"),
			Method:    "CASH",
			Allocations: []financeapp.AllocationRequest{
				{TransactionID: bill.ID, AllocatedAmount: testutil.Amount("10")},
			},
		})
		assert.GreaterOrEqual(t, w.Code, http.StatusBadRequest)
		assert.Less(t, w.Code, http.StatusInternalServerError)
	})

	t.Run("void reopens the bill", func(t *testing.T) {
		w := h.admin.Post("/api/v1/payments/"+payment.ID.String()+"/void", nil)
		testutil.RequireStatus(t, http.StatusOK, w)
		assert.Equal(t, "VOIDED", testutil.Decode[financeapp.PaymentResponse](t, w).Data.Status)

		w = h.admin.Get("/api/v1/transactions/" + bill.ID.String())
		assert.Equal(t, "NOT_PAID", testutil.Decode[tradeapp.TransactionResponse](t, w).Data.PaymentStatus)
	})
}

func TestPortal(t *testing.T) {
	h := newAPI(t)
	product := h.fx.Product("500", "1000")
	stranger := h.fx.Customer()

	w := h.admin.Post("/api/v1/contacts", partnerapp.CreateContactRequest{
		Name: "Meera Interiors", Type: "CUSTOMER", Email: "meera@example.com",
	})
	testutil.RequireStatus(t, http.StatusCreated, w)
	customer := testutil.Decode[partnerapp.ContactResponse](t, w).Data
	testutil.RequireStatus(t, http.StatusOK,
		h.admin.Post("/api/v1/contacts/"+customer.ID.String()+"/portal", partnerapp.EnablePortalRequest{Password: "portal-pass"}))

	invoice := h.document(t, tradeapp.CreateTransactionRequest{
		Type:       "CUSTOMER_INVOICE",
		CustomerID: &customer.ID,
		Lines:      []tradeapp.LineRequest{{ProductID: product.ID, Quantity: testutil.Amount("1")}},
	})
	foreign := h.document(t, tradeapp.CreateTransactionRequest{
		Type:       "CUSTOMER_INVOICE",
		CustomerID: &stranger.ID,
		Lines:      []tradeapp.LineRequest{{ProductID: product.ID, Quantity: testutil.Amount("1")}},
	})

	portal := h.client.As(h.login(t, "/api/v1/portal/login",
		partnerapp.PortalLoginRequest{Email: "meera@example.com", Password: "portal-pass"}))

	t.Run("back-office routes are forbidden", func(t *testing.T) {
		testutil.RequireStatus(t, http.StatusForbidden, portal.Get("/api/v1/transactions"))
	})

	t.Run("only own invoices are visible", func(t *testing.T) {
		w := portal.Get("/api/v1/portal/invoices")
		testutil.RequireStatus(t, http.StatusOK, w)
		invoices := testutil.Decode[[]tradeapp.TransactionResponse](t, w).Data
		require.Len(t, invoices, 1)
		assert.Equal(t, invoice.ID, invoices[0].ID)

		testutil.RequireStatus(t, http.StatusOK, portal.Get("/api/v1/portal/invoices/"+invoice.ID.String()))
		testutil.RequireStatus(t, http.StatusNotFound, portal.Get("/api/v1/portal/invoices/"+foreign.ID.String()))
	})

	t.Run("profile", func(t *testing.T) {
		w := portal.Get("/api/v1/portal/me")
		testutil.RequireStatus(t, http.StatusOK, w)
		assert.Equal(t, customer.ID, testutil.Decode[partnerapp.ContactResponse](t, w).Data.ID)
	})

	t.Run("pay and verify is idempotent", func(t *testing.T) {
		w := portal.Post("/api/v1/portal/invoices/"+invoice.ID.String()+"/pay", nil)
		testutil.RequireStatus(t, http.StatusCreated, w)
		order := testutil.Decode[financeapp.CreateOrderResponse](t, w).Data
		assert.Equal(t, int64(118000), order.AmountMinor)
		assert.Equal(t, "rzp_test_key", order.KeyID)

		h.gateway.payments["pay_1"] = &finance.GatewayPayment{
			ID: "pay_1", OrderID: order.OrderID, AmountMinor: order.AmountMinor,
			Currency: "INR", Status: finance.GatewayPaymentCaptured, Method: "upi",
		}
		verify := financeapp.VerifyPaymentRequest{
			TransactionID: invoice.ID, OrderID: order.OrderID, PaymentID: "pay_1",
			Signature: "sig:" + order.OrderID + "|pay_1",
		}

		w = portal.Post("/api/v1/portal/payments/verify", verify)
		testutil.RequireStatus(t, http.StatusOK, w)
		first := testutil.Decode[financeapp.PaymentResponse](t, w).Data
		assert.Equal(t, "pay_1", first.GatewayPaymentID)

		w = portal.Post("/api/v1/portal/payments/verify", verify)
		testutil.RequireStatus(t, http.StatusOK, w)
		assert.Equal(t, first.ID, testutil.Decode[financeapp.PaymentResponse](t, w).Data.ID)

		w = portal.Get("/api/v1/portal/outstanding")
		testutil.RequireStatus(t, http.StatusOK, w)
		assert.Empty(t, testutil.Decode[[]tradeapp.TransactionResponse](t, w).Data)
	})

	t.Run("bad signature", func(t *testing.T) {
		w := portal.Post("/api/v1/portal/payments/verify", financeapp.VerifyPaymentRequest{
			TransactionID: invoice.ID, OrderID: "order_1", PaymentID: "pay_2", Signature: "forged",
		})
		testutil.RequireStatus(t, http.StatusBadRequest, w)
	})
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestSystemHandler(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		db     string
	}{
		{"database up", nil, http.StatusOK, "up"},
		{"database down", errors.New("connection refused"), http.StatusServiceUnavailable, "down"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handler.NewSystemHandler(stubPinger{err: tt.err}, "1.2.3")
			engine := gin.New()
			engine.GET("/health", h.Health)
			engine.GET("/ready", h.Ready)

			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, http.StatusOK, w.Code)

			w = httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
			assert.Equal(t, tt.status, w.Code)
			var body handler.HealthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.db, body.Database)
			assert.Equal(t, "1.2.3", body.Version)
		})
	}
}

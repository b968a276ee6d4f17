package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shivfurniture/erp/internal/domain/finance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKeyID     = "rzp_test_key"
	testKeySecret = "rzp_test_secret"
)

func newTestAdapter(t *testing.T, handler http.HandlerFunc) *RazorpayAdapter {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	adapter, err := NewRazorpayAdapter(&RazorpayConfig{
		KeyID:     testKeyID,
		KeySecret: testKeySecret,
		BaseURL:   server.URL,
	})
	require.NoError(t, err)
	return adapter
}

func requireBasicAuth(t *testing.T, r *http.Request) {
	t.Helper()
	user, pass, ok := r.BasicAuth()
	require.True(t, ok)
	assert.Equal(t, testKeyID, user)
	assert.Equal(t, testKeySecret, pass)
}

func TestRazorpayConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  RazorpayConfig
		wantErr error
	}{
		{"valid", RazorpayConfig{KeyID: "k", KeySecret: "s"}, nil},
		{"missing key id", RazorpayConfig{KeySecret: "s"}, ErrRazorpayMissingKeyID},
		{"missing secret", RazorpayConfig{KeyID: "k"}, ErrRazorpayMissingKeySecret},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantErr, tt.config.Validate())
		})
	}

	cfg := RazorpayConfig{KeyID: "k", KeySecret: "s"}
	assert.Equal(t, razorpayAPIBaseURL, cfg.baseURL())
	assert.Equal(t, razorpayDefaultTimeout, cfg.timeout())
}

func TestRazorpayAdapter_CreateOrder(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		requireBasicAuth(t, r)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/orders", r.URL.Path)

		var body razorpayOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, int64(1180000), body.Amount)
		assert.Equal(t, "INR", body.Currency)
		assert.Equal(t, "INV-2602-0001", body.Receipt)
		assert.Equal(t, "txn-1", body.Notes["transaction_id"])

		_ = json.NewEncoder(w).Encode(razorpayOrder{
			ID: "order_Abc123", Entity: "order", Amount: body.Amount,
			Currency: body.Currency, Receipt: body.Receipt, Status: "created",
		})
	})

	order, err := adapter.CreateOrder(context.Background(), finance.GatewayOrderRequest{
		AmountMinor: 1180000,
		Currency:    "INR",
		Receipt:     "INV-2602-0001",
		Notes:       map[string]string{"transaction_id": "txn-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "order_Abc123", order.ID)
	assert.Equal(t, int64(1180000), order.AmountMinor)
	assert.Equal(t, "created", order.Status)
}

func TestRazorpayAdapter_CreateOrder_RejectsBadAmount(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := adapter.CreateOrder(context.Background(), finance.GatewayOrderRequest{AmountMinor: 0, Currency: "INR"})
	assert.ErrorIs(t, err, finance.ErrGatewayInvalidAmount)
}

func TestRazorpayAdapter_ErrorResponses(t *testing.T) {
	t.Run("gateway error body", func(t *testing.T) {
		adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"The id provided does not exist"}}`))
		})

		_, err := adapter.FetchPayment(context.Background(), "pay_missing")
		require.Error(t, err)
		assert.True(t, errors.Is(err, finance.ErrGatewayRequestFailed))
		assert.Contains(t, err.Error(), "BAD_REQUEST_ERROR")
	})

	t.Run("bare server error", func(t *testing.T) {
		adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := adapter.FetchPayment(context.Background(), "pay_1")
		assert.ErrorIs(t, err, finance.ErrGatewayRequestFailed)
		assert.Contains(t, err.Error(), "HTTP 502")
	})

	t.Run("malformed success body", func(t *testing.T) {
		adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		})

		_, err := adapter.FetchPayment(context.Background(), "pay_1")
		assert.ErrorIs(t, err, finance.ErrGatewayInvalidResponse)
	})
}

func TestRazorpayAdapter_FetchPayment(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		requireBasicAuth(t, r)
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/payments/pay_Xyz", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"pay_Xyz","entity":"payment","amount":50000,"currency":"INR",` +
			`"status":"captured","order_id":"order_Abc123","method":"upi"}`))
	})

	p, err := adapter.FetchPayment(context.Background(), "pay_Xyz")
	require.NoError(t, err)
	assert.Equal(t, "order_Abc123", p.OrderID)
	assert.Equal(t, int64(50000), p.AmountMinor)
	assert.Equal(t, finance.GatewayPaymentCaptured, p.Status)
	assert.True(t, p.Status.IsSuccess())
	assert.Equal(t, "upi", p.Method)
}

func TestRazorpayAdapter_Refund(t *testing.T) {
	t.Run("full refund sends no amount", func(t *testing.T) {
		adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/payments/pay_Xyz/refund", r.URL.Path)
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.NotContains(t, body, "amount")
			_, _ = w.Write([]byte(`{"id":"rfnd_1","entity":"refund","amount":50000,"payment_id":"pay_Xyz","status":"processed"}`))
		})

		refund, err := adapter.Refund(context.Background(), "pay_Xyz", nil)
		require.NoError(t, err)
		assert.Equal(t, "rfnd_1", refund.ID)
		assert.Equal(t, int64(50000), refund.AmountMinor)
		assert.Equal(t, "processed", refund.Status)
	})

	t.Run("partial refund sends the amount", func(t *testing.T) {
		adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			var body razorpayRefundRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.NotNil(t, body.Amount)
			assert.Equal(t, int64(1000), *body.Amount)
			_, _ = w.Write([]byte(`{"id":"rfnd_2","amount":1000,"payment_id":"pay_Xyz","status":"pending"}`))
		})

		amount := int64(1000)
		refund, err := adapter.Refund(context.Background(), "pay_Xyz", &amount)
		require.NoError(t, err)
		assert.Equal(t, "pending", refund.Status)
	})

	t.Run("non-positive amount is rejected", func(t *testing.T) {
		adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("no request expected")
		})
		zero := int64(0)
		_, err := adapter.Refund(context.Background(), "pay_Xyz", &zero)
		assert.ErrorIs(t, err, finance.ErrGatewayInvalidAmount)
	})
}

func TestRazorpayAdapter_VerifySignature(t *testing.T) {
	adapter, err := NewRazorpayAdapter(&RazorpayConfig{KeyID: testKeyID, KeySecret: testKeySecret})
	require.NoError(t, err)

	mac := hmac.New(sha256.New, []byte(testKeySecret))
	mac.Write([]byte("order_Abc123|pay_Xyz"))
	valid := hex.EncodeToString(mac.Sum(nil))

	assert.True(t, adapter.VerifySignature("order_Abc123", "pay_Xyz", valid))
	assert.False(t, adapter.VerifySignature("order_Abc123", "pay_Other", valid))
	assert.False(t, adapter.VerifySignature("order_Abc123", "pay_Xyz", "zz-not-hex"))
	assert.False(t, adapter.VerifySignature("", "pay_Xyz", valid))
}

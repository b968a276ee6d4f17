package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/shivfurniture/erp/internal/domain/finance"
)

const (
	razorpayOrdersPath  = "/v1/orders"
	razorpayPaymentPath = "/v1/payments/%s"
	razorpayRefundPath  = "/v1/payments/%s/refund"
)

// RazorpayAdapter implements PaymentGateway against the Razorpay REST API
type RazorpayAdapter struct {
	config     *RazorpayConfig
	httpClient *http.Client
}

// NewRazorpayAdapter creates a new Razorpay adapter
func NewRazorpayAdapter(config *RazorpayConfig) (*RazorpayAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &RazorpayAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: config.timeout(),
		},
	}, nil
}

// CreateOrder opens an order that the checkout widget is then started with
func (a *RazorpayAdapter) CreateOrder(ctx context.Context, req finance.GatewayOrderRequest) (*finance.GatewayOrder, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var order razorpayOrder
	if err := a.doRequest(ctx, http.MethodPost, razorpayOrdersPath, razorpayOrderRequest{
		Amount:   req.AmountMinor,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Notes:    req.Notes,
	}, &order); err != nil {
		return nil, err
	}
	if order.ID == "" {
		return nil, fmt.Errorf("%w: order without id", finance.ErrGatewayInvalidResponse)
	}

	return &finance.GatewayOrder{
		ID:          order.ID,
		AmountMinor: order.Amount,
		Currency:    order.Currency,
		Receipt:     order.Receipt,
		Status:      order.Status,
	}, nil
}

// VerifySignature checks the checkout callback signature in constant time
func (a *RazorpayAdapter) VerifySignature(orderID, paymentID, signature string) bool {
	if orderID == "" || paymentID == "" || signature == "" {
		return false
	}
	got, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(got, a.sign(orderID+"|"+paymentID))
}

func (a *RazorpayAdapter) sign(payload string) []byte {
	mac := hmac.New(sha256.New, []byte(a.config.KeySecret))
	mac.Write([]byte(payload))
	return mac.Sum(nil)
}

// FetchPayment reads the current state of a charge
func (a *RazorpayAdapter) FetchPayment(ctx context.Context, paymentID string) (*finance.GatewayPayment, error) {
	if paymentID == "" {
		return nil, fmt.Errorf("%w: payment id is required", finance.ErrGatewayRequestFailed)
	}

	var p razorpayPayment
	if err := a.doRequest(ctx, http.MethodGet, fmt.Sprintf(razorpayPaymentPath, url.PathEscape(paymentID)), nil, &p); err != nil {
		return nil, err
	}
	if p.ID == "" {
		return nil, fmt.Errorf("%w: payment without id", finance.ErrGatewayInvalidResponse)
	}

	return &finance.GatewayPayment{
		ID:          p.ID,
		OrderID:     p.OrderID,
		AmountMinor: p.Amount,
		Currency:    p.Currency,
		Status:      finance.GatewayPaymentState(p.Status),
		Method:      p.Method,
	}, nil
}

// Refund refunds amountMinor of a captured charge, or all of it when nil
func (a *RazorpayAdapter) Refund(ctx context.Context, paymentID string, amountMinor *int64) (*finance.GatewayRefund, error) {
	if amountMinor != nil && *amountMinor <= 0 {
		return nil, finance.ErrGatewayInvalidAmount
	}

	var r razorpayRefund
	if err := a.doRequest(ctx, http.MethodPost, fmt.Sprintf(razorpayRefundPath, url.PathEscape(paymentID)),
		razorpayRefundRequest{Amount: amountMinor}, &r); err != nil {
		return nil, err
	}

	return &finance.GatewayRefund{
		ID:          r.ID,
		PaymentID:   r.PaymentID,
		AmountMinor: r.Amount,
		Status:      r.Status,
	}, nil
}

// doRequest sends an authenticated JSON request and decodes a 2xx body into out
func (a *RazorpayAdapter) doRequest(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("razorpay: failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.config.baseURL()+path, reqBody)
	if err != nil {
		return fmt.Errorf("razorpay: failed to create request: %w", err)
	}
	req.SetBasicAuth(a.config.KeyID, a.config.KeySecret)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", finance.ErrGatewayRequestFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("razorpay: failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp razorpayErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Code != "" {
			return fmt.Errorf("%w: %s - %s", finance.ErrGatewayRequestFailed, errResp.Error.Code, errResp.Error.Description)
		}
		return fmt.Errorf("%w: HTTP %d", finance.ErrGatewayRequestFailed, resp.StatusCode)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: %v", finance.ErrGatewayInvalidResponse, err)
	}
	return nil
}

// Ensure RazorpayAdapter implements PaymentGateway
var _ finance.PaymentGateway = (*RazorpayAdapter)(nil)

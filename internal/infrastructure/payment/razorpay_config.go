package payment

import (
	"errors"
	"strings"
	"time"
)

const (
	razorpayAPIBaseURL     = "https://api.razorpay.com"
	razorpayDefaultTimeout = 30 * time.Second
)

// RazorpayConfig contains the API credentials of a Razorpay-compatible gateway
type RazorpayConfig struct {
	// KeyID is the public key id, also handed to the checkout widget
	KeyID string
	// KeySecret signs checkout callbacks and authenticates API calls
	KeySecret string
	// BaseURL overrides the API host, e.g. for a mock server
	BaseURL string
	// Timeout bounds every API call (default 30s)
	Timeout time.Duration
}

// Errors for configuration validation
var (
	ErrRazorpayMissingKeyID     = errors.New("razorpay: missing key id")
	ErrRazorpayMissingKeySecret = errors.New("razorpay: missing key secret")
)

// Validate validates the configuration
func (c *RazorpayConfig) Validate() error {
	if c.KeyID == "" {
		return ErrRazorpayMissingKeyID
	}
	if c.KeySecret == "" {
		return ErrRazorpayMissingKeySecret
	}
	return nil
}

func (c *RazorpayConfig) baseURL() string {
	if c.BaseURL == "" {
		return razorpayAPIBaseURL
	}
	return strings.TrimRight(c.BaseURL, "/")
}

func (c *RazorpayConfig) timeout() time.Duration {
	if c.Timeout <= 0 {
		return razorpayDefaultTimeout
	}
	return c.Timeout
}

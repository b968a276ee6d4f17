// Package testutil holds the fixtures shared by the ERP test suites: a
// migrated SQLite store, seeded master data and an in-process API client.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shivfurniture/erp/internal/interfaces/http/dto"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// APIClient sends JSON requests to an in-process handler
type APIClient struct {
	t       *testing.T
	handler http.Handler
	token   string
}

// NewAPIClient creates an anonymous client for handler
func NewAPIClient(t *testing.T, handler http.Handler) *APIClient {
	return &APIClient{t: t, handler: handler}
}

// As returns a copy of the client that presents token as a bearer token
func (c *APIClient) As(token string) *APIClient {
	cp := *c
	cp.token = token
	return &cp
}

// Do sends a request, encoding body as JSON when it is not nil
func (c *APIClient) Do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)
	return w
}

// Get sends a GET request
func (c *APIClient) Get(path string) *httptest.ResponseRecorder {
	c.t.Helper()
	return c.Do(http.MethodGet, path, nil)
}

// Post sends a POST request
func (c *APIClient) Post(path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	return c.Do(http.MethodPost, path, body)
}

// Put sends a PUT request
func (c *APIClient) Put(path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	return c.Do(http.MethodPut, path, body)
}

// Delete sends a DELETE request
func (c *APIClient) Delete(path string) *httptest.ResponseRecorder {
	c.t.Helper()
	return c.Do(http.MethodDelete, path, nil)
}

// Envelope is the response envelope with a typed payload
type Envelope[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data"`
	Error   *dto.ErrorInfo `json:"error"`
	Meta    *dto.Meta      `json:"meta"`
}

// Decode parses the envelope of a recorded response
func Decode[T any](t *testing.T, w *httptest.ResponseRecorder) Envelope[T] {
	t.Helper()
	var env Envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	return env
}

// RequireStatus fails with the response body when the status differs
func RequireStatus(t *testing.T, want int, w *httptest.ResponseRecorder) {
	t.Helper()
	require.Equal(t, want, w.Code, "body: %s", w.Body.String())
}

// ErrorCode returns the error code of a failed response
func ErrorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	env := Decode[json.RawMessage](t, w)
	require.False(t, env.Success)
	require.NotNil(t, env.Error, "body: %s", w.Body.String())
	return env.Error.Code
}

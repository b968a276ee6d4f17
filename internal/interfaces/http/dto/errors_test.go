package dto

import (
	"net/http"
	"testing"

	"github.com/shivfurniture/erp/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{shared.CodeNotFound, http.StatusNotFound},
		{shared.CodeAlreadyExists, http.StatusConflict},
		{shared.CodeValidation, http.StatusBadRequest},
		{shared.CodeInvalidState, http.StatusUnprocessableEntity},
		{shared.CodeExternalService, http.StatusBadGateway},
		{shared.CodeInvalidSignature, http.StatusBadRequest},
		{shared.CodeUnauthorized, http.StatusUnauthorized},
		{shared.CodeForbidden, http.StatusForbidden},
		{CodeRateLimited, http.StatusTooManyRequests},
		{"SOMETHING_NEW", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.code))
		})
	}
}

func TestNewPageResponse(t *testing.T) {
	resp := NewPageResponse(shared.NewPaginated([]string{"a", "b"}, 5, 1, 2))
	assert.True(t, resp.Success)
	assert.Equal(t, []string{"a", "b"}, resp.Data)
	assert.Equal(t, &Meta{Total: 5, Page: 1, PageSize: 2, TotalPages: 3}, resp.Meta)

	empty := NewPageResponse(shared.NewPaginated[int](nil, 0, 1, 20))
	assert.Equal(t, []int{}, empty.Data)
	assert.Equal(t, 0, empty.Meta.TotalPages)
}

func TestNewValidationErrorResponse(t *testing.T) {
	resp := NewValidationErrorResponse("Request validation failed", "req-1",
		[]ValidationDetail{{Field: "amount", Message: "Must be greater than 0"}})

	assert.False(t, resp.Success)
	assert.Equal(t, shared.CodeValidation, resp.Error.Code)
	assert.Equal(t, "req-1", resp.Error.RequestID)
	assert.Len(t, resp.Error.Details, 1)
}

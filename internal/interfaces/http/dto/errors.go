package dto

import (
	"net/http"

	"github.com/shivfurniture/erp/internal/domain/shared"
)

// Codes produced by the HTTP layer itself. Domain failures keep the code of
// their shared.DomainError.
const (
	CodeBadRequest      = "BAD_REQUEST"
	CodeRateLimited     = "RATE_LIMITED"
	CodeRequestTooLarge = "REQUEST_TOO_LARGE"
	CodeInternal        = "INTERNAL_ERROR"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	shared.CodeNotFound:         http.StatusNotFound,
	shared.CodeAlreadyExists:    http.StatusConflict,
	shared.CodeConcurrency:      http.StatusConflict,
	shared.CodeValidation:       http.StatusBadRequest,
	shared.CodeInvalidInput:     http.StatusBadRequest,
	shared.CodeInvalidState:     http.StatusUnprocessableEntity,
	shared.CodeUnauthorized:     http.StatusUnauthorized,
	shared.CodeForbidden:        http.StatusForbidden,
	shared.CodeExternalService:  http.StatusBadGateway,
	shared.CodeInvalidSignature: http.StatusBadRequest,

	CodeBadRequest:      http.StatusBadRequest,
	CodeRateLimited:     http.StatusTooManyRequests,
	CodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	CodeInternal:        http.StatusInternalServerError,
}

// HTTPStatus returns the status for an error code, 500 when unknown
func HTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

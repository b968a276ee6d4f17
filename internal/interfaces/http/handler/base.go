// Package handler holds the gin handlers of the ERP API.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shivfurniture/erp/internal/domain/shared"
	"github.com/shivfurniture/erp/internal/infrastructure/logger"
	"github.com/shivfurniture/erp/internal/interfaces/http/dto"
	"github.com/shivfurniture/erp/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides the response helpers shared by all handlers
type BaseHandler struct{}

func requestID(c *gin.Context) string {
	return logger.GetRequestID(c.Request.Context())
}

// Success sends a 200 envelope
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 envelope
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a bare 204
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Page sends one page of a list with pagination meta
func Page[T any](c *gin.Context, page shared.Paginated[T]) {
	c.JSON(http.StatusOK, dto.NewPageResponse(page))
}

// BadRequest sends a 400 envelope
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.CodeBadRequest, message, requestID(c)))
}

// HandleError maps domain errors to their status and hides everything else
// behind a logged 500
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	var de *shared.DomainError
	if errors.As(err, &de) {
		c.JSON(dto.HTTPStatus(de.Code), dto.NewErrorResponse(de.Code, de.Message, requestID(c)))
		return
	}
	logger.FromContext(c.Request.Context(), nil).Error("Request failed",
		zap.String("route", c.FullPath()), zap.Error(err))
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError,
		dto.NewErrorResponse(dto.CodeInternal, "an unexpected error occurred", requestID(c)))
}

// bindJSON decodes the body into req, answering 400 on failure
func (h *BaseHandler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.bindError(c, err)
		return false
	}
	return true
}

// bindQuery decodes the query string into q, answering 400 on failure
func (h *BaseHandler) bindQuery(c *gin.Context, q any) bool {
	if err := c.ShouldBindQuery(q); err != nil {
		h.bindError(c, err)
		return false
	}
	return true
}

func (h *BaseHandler) bindError(c *gin.Context, err error) {
	if details := middleware.ValidationDetails(err); details != nil {
		c.JSON(http.StatusBadRequest,
			dto.NewValidationErrorResponse("request validation failed", requestID(c), details))
		return
	}
	c.JSON(http.StatusBadRequest, dto.NewErrorResponse(shared.CodeValidation, err.Error(), requestID(c)))
}

// pathID parses the :id path parameter, answering 400 when malformed
func (h *BaseHandler) pathID(c *gin.Context) (uuid.UUID, bool) {
	return h.uuidParam(c, c.Param("id"), "id")
}

// queryID parses a required uuid query parameter
func (h *BaseHandler) queryID(c *gin.Context, name string) (uuid.UUID, bool) {
	return h.uuidParam(c, c.Query(name), name)
}

func (h *BaseHandler) uuidParam(c *gin.Context, raw, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse("request validation failed", requestID(c),
			[]dto.ValidationDetail{{Field: name, Message: "must be a UUID"}}))
		return uuid.Nil, false
	}
	return id, true
}

package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shivfurniture/erp/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Pinger checks that a backing service answers
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler serves liveness and readiness checks
type SystemHandler struct {
	BaseHandler
	db      Pinger
	version string
	started time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(db Pinger, version string) *SystemHandler {
	return &SystemHandler{db: db, version: version, started: time.Now()}
}

// HealthResponse is the body of the health checks
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version,omitempty"`
	Uptime   string `json:"uptime"`
	Database string `json:"database,omitempty"`
}

// Health godoc
//
//	@Summary	Liveness check
//	@Tags		system
//	@Success	200	{object}	HealthResponse
//	@Router		/health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: h.version,
		Uptime:  time.Since(h.started).Truncate(time.Second).String(),
	})
}

// Ready godoc
//
//	@Summary	Readiness check, fails while the database is unreachable
//	@Tags		system
//	@Success	200	{object}	HealthResponse
//	@Failure	503	{object}	HealthResponse
//	@Router		/ready [get]
func (h *SystemHandler) Ready(c *gin.Context) {
	res := HealthResponse{
		Status:   "ready",
		Version:  h.version,
		Uptime:   time.Since(h.started).Truncate(time.Second).String(),
		Database: "up",
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		logger.FromContext(c.Request.Context(), nil).Warn("Readiness check failed", zap.Error(err))
		res.Status = "unavailable"
		res.Database = "down"
		c.JSON(http.StatusServiceUnavailable, res)
		return
	}
	c.JSON(http.StatusOK, res)
}

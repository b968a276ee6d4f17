package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/shivfurniture/erp/internal/infrastructure/logger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Tracing starts a server span per request through otelgin and tags it
// with the request id and, once known, the caller's role
func Tracing(serviceName string, enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return otelgin.Middleware(serviceName)
}

// TagSpan adds the request id and caller to the active span. It runs after
// Authenticate so the actor is available.
func TagSpan() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		span := trace.SpanFromContext(ctx)
		if span.IsRecording() {
			if id := logger.GetRequestID(ctx); id != "" {
				span.SetAttributes(attribute.String("erp.request_id", id))
			}
			if actor, ok := logger.GetActor(ctx); ok {
				span.SetAttributes(attribute.String("erp.role", actor.Role))
				if actor.ContactID != "" {
					span.SetAttributes(attribute.String("erp.contact_id", actor.ContactID))
				}
			}
		}
		c.Next()
	}
}

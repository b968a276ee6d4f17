package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ctxKey int

const (
	loggerKey ctxKey = iota
	requestIDKey
	actorKey
)

// Actor identifies who issued a request: the admin user or a portal contact
type Actor struct {
	Subject   string
	Role      string
	ContactID string
}

// WithRequestID stores the request correlation id
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID returns the request correlation id, or ""
func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithActor stores the authenticated caller
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// GetActor returns the authenticated caller, if any
func GetActor(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	a, ok := ctx.Value(actorKey).(Actor)
	return a, ok
}

// WithLogger attaches a logger to ctx
func WithLogger(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the logger attached to ctx, or fallback when none is,
// decorated with the request id, the caller and the active span.
func FromContext(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	l := fallback
	if ctx != nil {
		if attached, ok := ctx.Value(loggerKey).(*zap.Logger); ok && attached != nil {
			l = attached
		}
	}
	if l == nil {
		l = zap.NewNop()
	}
	if ctx == nil {
		return l
	}
	return withTrace(ctx, l.With(Fields(ctx)...))
}

// Fields returns the correlation fields carried by ctx
func Fields(ctx context.Context) []zap.Field {
	var fields []zap.Field
	if id := GetRequestID(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	if a, ok := GetActor(ctx); ok {
		fields = append(fields, zap.String("actor", a.Subject), zap.String("role", a.Role))
		if a.ContactID != "" {
			fields = append(fields, zap.String("contact_id", a.ContactID))
		}
	}
	return fields
}

func withTrace(ctx context.Context, l *zap.Logger) *zap.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return l
	}
	return l.With(zap.String("trace_id", sc.TraceID().String()), zap.String("span_id", sc.SpanID().String()))
}

package telemetry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type budgetRow struct {
	ID     uint `gorm:"primaryKey"`
	Period string
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&budgetRow{}))
	return db
}

func withSpanRecorder(t *testing.T) (*sdktrace.TracerProvider, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = tp.Shutdown(context.Background())
	})
	return tp, recorder
}

func TestSetup_Disabled(t *testing.T) {
	tel, err := Setup(context.Background(), Config{ServiceName: "erp-test"}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, tel.Tracer.IsEnabled())
	assert.False(t, tel.Profiler.IsEnabled())
	assert.NotNil(t, tel.Tracer.Tracer("test"))
	assert.NotNil(t, tel.Meter.Meter("test"))

	log := zap.NewNop()
	assert.Same(t, log, tel.Logs.Attach(log))
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestNewProfiler_RequiresServer(t *testing.T) {
	_, err := NewProfiler(Config{ProfilingEnabled: true}, zap.NewNop())
	require.Error(t, err)

	p, err := NewProfiler(Config{}, zap.NewNop())
	require.NoError(t, err)
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())
}

func TestSamplerFor(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{1, "AlwaysOnSampler"},
		{2, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{-1, "AlwaysOffSampler"},
		{0.25, "TraceIDRatioBased{0.25}"},
	}
	for _, tt := range tests {
		desc := samplerFor(tt.ratio).Description()
		assert.True(t, strings.HasPrefix(desc, "ParentBased{root:"+tt.want), desc)
	}
}

func TestDBTracing_Disabled(t *testing.T) {
	db := setupTestDB(t)
	_, recorder := withSpanRecorder(t)

	require.NoError(t, NewDBTracing(DBTracingConfig{}, zap.NewNop()).Register(db))
	require.NoError(t, db.Create(&budgetRow{Period: "2026-02"}).Error)

	assert.Empty(t, recorder.Ended())
}

func TestDBTracing_RecordsSpans(t *testing.T) {
	db := setupTestDB(t)
	tp, recorder := withSpanRecorder(t)

	tracing := NewDBTracing(DBTracingConfig{Enabled: true, DBSystem: "sqlite"}, zap.NewNop())
	require.NoError(t, tracing.Register(db))

	ctx, parent := tp.Tracer("test").Start(context.Background(), "request")
	require.NoError(t, db.WithContext(ctx).Create(&budgetRow{Period: "2026-02"}).Error)
	var rows []budgetRow
	require.NoError(t, db.WithContext(ctx).Find(&rows).Error)
	parent.End()

	var dbSpans []sdktrace.ReadOnlySpan
	for _, s := range recorder.Ended() {
		if s.Name() != "request" {
			dbSpans = append(dbSpans, s)
		}
	}
	require.NotEmpty(t, dbSpans)
	for _, s := range dbSpans {
		assert.Equal(t, parent.SpanContext().TraceID(), s.SpanContext().TraceID())
	}
}

func TestDBTracing_MarksSlowQueries(t *testing.T) {
	db := setupTestDB(t)
	tp, recorder := withSpanRecorder(t)

	tracing := NewDBTracing(DBTracingConfig{Enabled: true, SlowQueryThresh: time.Nanosecond}, zap.NewNop())
	require.NoError(t, tracing.Register(db))

	ctx, parent := tp.Tracer("test").Start(context.Background(), "request")
	require.NoError(t, db.WithContext(ctx).Create(&budgetRow{Period: "2026-03"}).Error)
	parent.End()

	found := false
	for _, s := range recorder.Ended() {
		for _, attr := range s.Attributes() {
			if attr.Key == attribute.Key("db.slow_query") && attr.Value.AsBool() {
				found = true
			}
		}
	}
	assert.True(t, found, "expected a span marked as slow")
}

func TestRegisterDBPoolMetrics(t *testing.T) {
	db := setupTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	reg, err := RegisterDBPoolMetrics(provider.Meter("test"), sqlDB)
	require.NoError(t, err)
	defer func() { _ = reg.Unregister() }()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	names := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = true
		}
	}
	for _, want := range []string{"db.pool.open_connections", "db.pool.in_use", "db.pool.idle", "db.pool.wait_count"} {
		assert.True(t, names[want], want)
	}
}

func TestLedgerMetrics_RecordTransition(t *testing.T) {
	m := NewLedgerMetrics()
	m.RecordTransition("INV", "confirmed")
	m.RecordTransition("INV", "confirmed")
	m.RecordTransition("PO", "cancelled")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.transitions.WithLabelValues("INV", "confirmed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("PO", "cancelled")))
}

func TestLedgerMetrics_RecordGatewayCall(t *testing.T) {
	m := NewLedgerMetrics()
	m.RecordGatewayCall("create_order", nil)
	m.RecordGatewayCall("create_order", errors.New("timeout"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.gatewayRequests.WithLabelValues("create_order", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.gatewayRequests.WithLabelValues("create_order", "error")))
}

func TestLedgerMetrics_HandlerAndMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewLedgerMetrics()

	r := gin.New()
	r.Use(m.GinMiddleware())
	r.GET("/api/v1/transactions/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/transactions/abc", nil))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 1, testutil.CollectAndCount(m.requestDuration))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, MetricHTTPRequestDuration)
	assert.Contains(t, body, `route="/api/v1/transactions/:id"`)
	assert.Contains(t, body, "go_goroutines")
}

func TestLoggerProvider_AttachDisabled(t *testing.T) {
	lp, err := NewLoggerProvider(context.Background(), Config{}, zap.NewNop())
	require.NoError(t, err)

	core, logs := observer.New(zap.InfoLevel)
	log := lp.Attach(zap.New(core))
	log.Info("budget confirmed")
	assert.Equal(t, 1, logs.Len())
	assert.NoError(t, lp.Shutdown(context.Background()))
}

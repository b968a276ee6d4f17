package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus metric names.
const (
	MetricDocumentTransitionsTotal = "erp_document_transitions_total"
	MetricHTTPRequestDuration      = "erp_http_request_duration_seconds"
	MetricGatewayRequestsTotal     = "erp_gateway_requests_total"
)

// LedgerMetrics exposes document lifecycle and API metrics for scraping.
//
// Thread Safety: Safe for concurrent use by multiple goroutines.
type LedgerMetrics struct {
	registry        *prometheus.Registry
	transitions     *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	gatewayRequests *prometheus.CounterVec
}

// NewLedgerMetrics creates the collectors on a private registry together
// with the Go runtime and process collectors.
func NewLedgerMetrics() *LedgerMetrics {
	m := &LedgerMetrics{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricDocumentTransitionsTotal,
			Help: "Document state transitions by document type and resulting status",
		}, []string{"document", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricHTTPRequestDuration,
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "code"}),
		gatewayRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricGatewayRequestsTotal,
			Help: "Payment gateway calls by operation and outcome",
		}, []string{"operation", "outcome"}),
	}
	m.registry.MustRegister(
		m.transitions,
		m.requestDuration,
		m.gatewayRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// RecordTransition counts a document reaching status.
func (m *LedgerMetrics) RecordTransition(document, status string) {
	m.transitions.WithLabelValues(document, status).Inc()
}

// RecordGatewayCall counts a payment gateway call.
func (m *LedgerMetrics) RecordGatewayCall(operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.gatewayRequests.WithLabelValues(operation, outcome).Inc()
}

// Registry returns the underlying registry.
func (m *LedgerMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *LedgerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// GinMiddleware observes request latency labelled by the matched route, so
// path parameters do not explode cardinality.
func (m *LedgerMetrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

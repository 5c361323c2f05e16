package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the coordinator.
type Metrics struct {
	// Message router metrics
	MessagesTotal   *prometheus.CounterVec
	MessageDuration *prometheus.HistogramVec

	// DApp RPC metrics
	RPCCalls  *prometheus.CounterVec
	RPCErrors *prometheus.CounterVec

	// Pending request metrics
	PendingActive  prometheus.Gauge
	PendingCreated prometheus.Counter
	PendingExpired prometheus.Counter

	// Session metrics
	Unlocks   prometheus.Counter
	AutoLocks prometheus.Counter

	// WebSocket metrics
	WSConnections prometheus.Gauge

	// HTTP ingress metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	startTime time.Time
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		startTime: time.Now(),

		MessagesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wallet_messages_total",
				Help: "Total number of routed extension messages",
			},
			[]string{"kind", "status"},
		),
		MessageDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wallet_message_duration_seconds",
				Help:    "Message handling duration in seconds",
				Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 30, 60, 300},
			},
			[]string{"kind"},
		),

		RPCCalls: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wallet_rpc_calls_total",
				Help: "Total number of DApp RPC calls",
			},
			[]string{"method", "status"},
		),
		RPCErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wallet_rpc_errors_total",
				Help: "Total number of DApp RPC failures by code",
			},
			[]string{"method", "code"},
		),

		PendingActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "wallet_pending_requests_active",
				Help: "Number of requests currently awaiting a decision",
			},
		),
		PendingCreated: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "wallet_pending_requests_total",
				Help: "Total number of pending requests created",
			},
		),
		PendingExpired: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "wallet_pending_requests_expired_total",
				Help: "Total number of pending requests that timed out",
			},
		),

		Unlocks: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "wallet_unlocks_total",
				Help: "Total number of successful unlocks",
			},
		),
		AutoLocks: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "wallet_auto_locks_total",
				Help: "Total number of inactivity auto-locks",
			},
		),

		WSConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "wallet_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),

		HTTPRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wallet_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wallet_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
}

// RecordHTTPRequest records one HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.HTTPRequests.WithLabelValues(method, path, status).Inc()
	m.HTTPDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordMessage records one routed message.
func (m *Metrics) RecordMessage(kind, status string, duration time.Duration) {
	m.MessagesTotal.WithLabelValues(kind, status).Inc()
	m.MessageDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordRPC records one DApp RPC call.
func (m *Metrics) RecordRPC(method, status string) {
	m.RPCCalls.WithLabelValues(method, status).Inc()
}

// Uptime returns time since process start.
func (m *Metrics) Uptime() time.Duration {
	return time.Since(m.startTime)
}

// Package metrics exposes the service's prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wmsd"

// Metrics holds a private registry so tests can create independent instances.
type Metrics struct {
	registry *prometheus.Registry

	requests       *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	exports        *prometheus.CounterVec
	skippedTables  *prometheus.CounterVec
	activeSessions prometheus.Gauge
	snapshots      *prometheus.CounterVec
}

// New registers all collectors plus the Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Report exports by format and result (ok, partial, failed).",
		}, []string{"format", "result"}),
		skippedTables: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "export_skipped_tables_total",
			Help:      "Tables left out of an export because they failed to render.",
		}, []string{"format"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Survey sessions currently held in memory.",
		}),
		snapshots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_operations_total",
			Help:      "Snapshot archive operations by kind.",
		}, []string{"op"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.requestLatency,
		m.exports,
		m.skippedTables,
		m.activeSessions,
		m.snapshots,
	)
	return m
}

// ObserveRequest matches the middleware.Metrics callback.
func (m *Metrics) ObserveRequest(method, route string, status int, latency time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestLatency.WithLabelValues(method, route).Observe(latency.Seconds())
}

// ObserveExport records one export. skipped is the number of tables that
// were left out; failed marks an export that produced no file.
func (m *Metrics) ObserveExport(format string, skipped int, failed bool) {
	result := "ok"
	switch {
	case failed:
		result = "failed"
	case skipped > 0:
		result = "partial"
	}
	m.exports.WithLabelValues(format, result).Inc()
	if skipped > 0 {
		m.skippedTables.WithLabelValues(format).Add(float64(skipped))
	}
}

func (m *Metrics) SetActiveSessions(n int) {
	m.activeSessions.Set(float64(n))
}

func (m *Metrics) ObserveSnapshot(op string) {
	m.snapshots.WithLabelValues(op).Inc()
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

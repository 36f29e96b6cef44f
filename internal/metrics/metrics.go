// Package metrics holds the Prometheus collectors for the shop server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "creditshop"

// Metrics owns a private registry so tests and multiple apps in one process
// do not collide
type Metrics struct {
	registry *prometheus.Registry

	activeConnections prometheus.Gauge
	connections       prometheus.Counter
	requests          *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	storageFaults     prometheus.Counter
	httpRequests      *prometheus.CounterVec
}

// New creates and registers all collectors. Process and Go runtime
// collectors are included when withRuntime is set.
func New(withRuntime bool) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		activeConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "tcp",
			Name:      "active_connections",
			Help:      "Current number of open client connections.",
		}),
		connections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tcp",
			Name:      "connections_total",
			Help:      "Total number of accepted client connections.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "requests_total",
			Help:      "Total number of session requests by action and result code.",
		}, []string{"action", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "request_duration_seconds",
			Help:      "Time spent routing a session request.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
		}, []string{"action"}),
		storageFaults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "storage_faults_total",
			Help:      "Total number of ledger operations that failed on storage.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP API requests.",
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		m.activeConnections,
		m.connections,
		m.requests,
		m.requestDuration,
		m.storageFaults,
		m.httpRequests,
	)
	if withRuntime {
		m.registry.MustRegister(
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewGoCollector(),
		)
	}
	return m
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ConnectionOpened records an accepted connection
func (m *Metrics) ConnectionOpened() {
	m.connections.Inc()
	m.activeConnections.Inc()
}

// ConnectionClosed records a torn down connection
func (m *Metrics) ConnectionClosed() {
	m.activeConnections.Dec()
}

// RecordRequest records one routed request. code is "OK" on success.
func (m *Metrics) RecordRequest(action, code string, duration time.Duration) {
	m.requests.WithLabelValues(action, code).Inc()
	m.requestDuration.WithLabelValues(action).Observe(duration.Seconds())
}

// RecordStorageFault counts a ledger operation lost to a storage failure
func (m *Metrics) RecordStorageFault() {
	m.storageFaults.Inc()
}

// RecordHTTPRequest records one HTTP API request against its route template
func (m *Metrics) RecordHTTPRequest(method, route string, status int) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

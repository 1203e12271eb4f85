// Package telemetry provides the Prometheus metrics and OpenTelemetry
// tracing instrumentation shared across mcpweave's backend-facing
// components. It never starts an HTTP listener itself: exposing
// /metrics (or any other endpoint) is the hosting layer's job, which
// spec.md places outside the core's scope.
package telemetry

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles the gauges/counters the server manager and proxy wrapper
// update. A zero-value Metrics (via NewMetrics(nil)) is fully usable: it
// registers against prometheus.NewRegistry() internally and simply never
// gets scraped if the caller doesn't expose it.
type Metrics struct {
	BackendStatus       *prometheus.GaugeVec
	ConsecutiveFailures *prometheus.GaugeVec
	ReconnectTotal      *prometheus.CounterVec
	RetryTotal          *prometheus.CounterVec
	RebuildTotal        *prometheus.CounterVec
	InflightCalls       *prometheus.GaugeVec
	CallDurationSeconds *prometheus.HistogramVec
}

// NewMetrics constructs and registers the metric family against reg. If reg
// is nil, a private registry is created so callers that don't care about
// exposing metrics can still use the instrumentation for free.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		BackendStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "mcpweave",
			Name:      "backend_status",
			Help:      "Current backend health status (1 for the active status label, 0 otherwise).",
		}, []string{"backend", "status"}),
		ConsecutiveFailures: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "mcpweave",
			Name:      "backend_consecutive_failures",
			Help:      "Consecutive health-check failures observed for a backend.",
		}, []string{"backend"}),
		ReconnectTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mcpweave",
			Name:      "backend_reconnect_total",
			Help:      "Total number of reconnect attempts per backend.",
		}, []string{"backend"}),
		RetryTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mcpweave",
			Name:      "proxy_retry_total",
			Help:      "Total number of retry attempts performed by the resilient proxy wrapper.",
		}, []string{"backend", "operation", "reason"}),
		RebuildTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mcpweave",
			Name:      "proxy_rebuild_total",
			Help:      "Total number of transport rebuilds triggered by the resilient proxy wrapper.",
		}, []string{"backend"}),
		InflightCalls: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "mcpweave",
			Name:      "proxy_inflight_calls",
			Help:      "Current number of in-flight remote calls per backend.",
		}, []string{"backend"}),
		CallDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mcpweave",
			Name:      "proxy_call_duration_seconds",
			Help:      "Duration of remote calls through the resilient proxy wrapper.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"backend", "operation"}),
	}

	for _, c := range []prometheus.Collector{
		m.BackendStatus, m.ConsecutiveFailures, m.ReconnectTotal,
		m.RetryTotal, m.RebuildTotal, m.InflightCalls, m.CallDurationSeconds,
	} {
		_ = reg.Register(c) // AlreadyRegisteredError is harmless on re-init in tests
	}

	return m
}

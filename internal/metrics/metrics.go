package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the tool server
type Metrics struct {
	registry *prometheus.Registry

	// RPC metrics
	RPCRequestsTotal *prometheus.CounterVec

	// Tool metrics
	ToolInvocationsTotal   *prometheus.CounterVec
	ToolInvocationDuration *prometheus.HistogramVec

	// Startup metrics
	InitializerFailuresTotal prometheus.Counter
	ToolsRegistered          prometheus.Gauge
}

// New creates and registers all metrics
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		RPCRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rpc_requests_total",
				Help: "Total number of JSON-RPC requests by method and result code",
			},
			[]string{"method", "code"},
		),

		ToolInvocationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tool_invocations_total",
				Help: "Total number of tool invocations by outcome status",
			},
			[]string{"tool", "status"},
		),
		ToolInvocationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tool_invocation_duration_seconds",
				Help:    "Duration of tool invocations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool"},
		),

		InitializerFailuresTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tool_initializer_failures_total",
				Help: "Total number of tool initializer failures at startup",
			},
		),
		ToolsRegistered: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tools_registered",
				Help: "Number of tools currently registered",
			},
		),
	}

	m.registerMetrics()

	return m
}

// registerMetrics registers all metrics with the registry
func (m *Metrics) registerMetrics() {
	m.registry.MustRegister(m.RPCRequestsTotal)
	m.registry.MustRegister(m.ToolInvocationsTotal)
	m.registry.MustRegister(m.ToolInvocationDuration)
	m.registry.MustRegister(m.InitializerFailuresTotal)
	m.registry.MustRegister(m.ToolsRegistered)
}

// Handler returns an HTTP handler for the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

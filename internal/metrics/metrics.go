// Package metrics holds the Prometheus collectors for dispatch and streaming.
// All methods are safe to call on a nil *Metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rfcontrol"

// Metrics groups the service collectors
type Metrics struct {
	registry      *prometheus.Registry
	dispatch      *prometheus.CounterVec
	streamChunks  *prometheus.CounterVec
	streamErrors  *prometheus.CounterVec
	activeStreams prometheus.Gauge
}

// New creates the collectors and registers them with a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		dispatch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_total",
			Help:      "Dispatched RPC calls by method and outcome.",
		}, []string{"method", "outcome"}),
		streamChunks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_chunks_total",
			Help:      "Chunks processed by streaming sessions.",
		}, []string{"stream"}),
		streamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_errors_total",
			Help:      "Streaming sessions terminated by an error.",
		}, []string{"stream", "code"}),
		activeStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_streams",
			Help:      "Streaming sessions currently open.",
		}),
	}
	m.registry.MustRegister(m.dispatch, m.streamChunks, m.streamErrors, m.activeStreams)
	return m
}

// Registry exposes the underlying registry, mostly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveDispatch(method, outcome string) {
	if m == nil {
		return
	}
	m.dispatch.WithLabelValues(method, outcome).Inc()
}

func (m *Metrics) ObserveChunk(stream string) {
	if m == nil {
		return
	}
	m.streamChunks.WithLabelValues(stream).Inc()
}

func (m *Metrics) ObserveStreamError(stream, code string) {
	if m == nil {
		return
	}
	m.streamErrors.WithLabelValues(stream, code).Inc()
}

// StreamOpened increments the active stream gauge and returns the matching decrement
func (m *Metrics) StreamOpened() func() {
	if m == nil {
		return func() {}
	}
	m.activeStreams.Inc()
	return m.activeStreams.Dec
}

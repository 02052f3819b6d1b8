// Package metrics exposes Prometheus collectors for tutoring sessions.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gosuda/kairos/internal/domain"
)

const namespace = "kairos"

// Metrics implements capability.Observer and stream.Observer and tracks
// live sessions.
type Metrics struct {
	registry *prometheus.Registry

	calls       *prometheus.CounterVec
	fallbacks   *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	units       *prometheus.CounterVec
	aborts      prometheus.Counter
	sessions    prometheus.Gauge
	adaptations *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capability_calls_total",
			Help:      "Capability gateway calls by capability.",
		}, []string{"capability"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capability_fallbacks_total",
			Help:      "Capability calls answered with a fallback value.",
		}, []string{"capability"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "capability_duration_seconds",
			Help:      "Capability call latency.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
		}, []string{"capability"}),
		units: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_units_total",
			Help:      "Content units delivered by type.",
		}, []string{"type"}),
		aborts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_aborts_total",
			Help:      "Deliveries stopped because the client went away.",
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Open tutoring sessions.",
		}),
		adaptations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "adaptations_total",
			Help:      "Committed adaptations at session close, by outcome.",
		}, []string{"kind"}),
	}

	m.registry.MustRegister(
		m.calls, m.fallbacks, m.latency, m.units, m.aborts, m.sessions, m.adaptations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveCall(c domain.Capability, elapsed time.Duration, fellBack bool) {
	m.calls.WithLabelValues(string(c)).Inc()
	m.latency.WithLabelValues(string(c)).Observe(elapsed.Seconds())
	if fellBack {
		m.fallbacks.WithLabelValues(string(c)).Inc()
	}
}

func (m *Metrics) ObserveUnit(t domain.ContentType) {
	m.units.WithLabelValues(string(t)).Inc()
}

func (m *Metrics) ObserveAbort() {
	m.aborts.Inc()
}

func (m *Metrics) SessionOpened() { m.sessions.Inc() }

// SessionClosed records the end of a session and its analytics totals.
func (m *Metrics) SessionClosed(a domain.Analytics) {
	m.sessions.Dec()
	m.adaptations.WithLabelValues("escalated").Add(float64(a.TotalAdaptations))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "purify"

// Metrics holds the engine collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry    *prometheus.Registry
	detections  *prometheus.CounterVec
	refinements *prometheus.CounterVec
	callLatency *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		detections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detections_total",
			Help:      "Detected items by verdict.",
		}, []string{"verdict"}),
		refinements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refinements_total",
			Help:      "Refinement outcomes by status.",
		}, []string{"status"}),
		callLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "external_call_duration_seconds",
			Help:      "Latency of classifier and rewriter calls.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"collaborator"}),
	}

	m.registry.MustRegister(
		m.detections,
		m.refinements,
		m.callLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveDetection(abusive bool) {
	if m == nil {
		return
	}
	verdict := "clean"
	if abusive {
		verdict = "abusive"
	}
	m.detections.WithLabelValues(verdict).Inc()
}

func (m *Metrics) ObserveRefinement(status string) {
	if m == nil {
		return
	}
	m.refinements.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveCall(collaborator string, started time.Time) {
	if m == nil {
		return
	}
	m.callLatency.WithLabelValues(collaborator).Observe(time.Since(started).Seconds())
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

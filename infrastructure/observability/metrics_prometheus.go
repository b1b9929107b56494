// Package observability provides the production implementations of the
// ports.Logger, ports.MetricsCollector, and ports.Tracer interfaces, plus
// cheap no-op defaults for when observability is not configured.
package observability

import (
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/meridianhq/meridian-runtime/internal/ports"
)

var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)

// PrometheusMetrics implements ports.MetricsCollector by lazily registering
// a CounterVec/GaugeVec/HistogramVec per distinct metric name the first
// time it is observed, using the label keys of that first call. Every
// subsequent call for the same metric name must supply exactly the same
// label keys; this mirrors Prometheus's own requirement that a Vec's label
// names are fixed at registration and keeps call sites simple (no manual
// Vec pre-declaration) the way the teacher's budget manager metrics
// registered a fixed Vec per concern up front.
type PrometheusMetrics struct {
	registerer prometheus.Registerer

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec
}

// NewPrometheusMetrics constructs a PrometheusMetrics that registers its
// Vecs against registerer. Pass prometheus.DefaultRegisterer to publish on
// the process-wide /metrics endpoint.
func NewPrometheusMetrics(registerer prometheus.Registerer) *PrometheusMetrics {
	return &PrometheusMetrics{
		registerer: registerer,
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}
}

func labelNames(labels map[string]string) []string {
	names := make([]string, 0, len(labels))
	for k := range labels {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func labelValues(names []string, labels map[string]string) []string {
	values := make([]string, len(names))
	for i, n := range names {
		values[i] = labels[n]
	}
	return values
}

// Counter increments the named counter by value.
func (m *PrometheusMetrics) Counter(name string, value float64, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	vec, ok := m.counters[name]
	if !ok {
		vec = promauto.With(m.registerer).NewCounterVec(prometheus.CounterOpts{
			Name: name,
			Help: "Meridian runtime counter " + name,
		}, labelNames(labels))
		m.counters[name] = vec
	}
	vec.WithLabelValues(labelValues(labelNames(labels), labels)...).Add(value)
}

// Gauge sets the named gauge to value.
func (m *PrometheusMetrics) Gauge(name string, value float64, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	vec, ok := m.gauges[name]
	if !ok {
		vec = promauto.With(m.registerer).NewGaugeVec(prometheus.GaugeOpts{
			Name: name,
			Help: "Meridian runtime gauge " + name,
		}, labelNames(labels))
		m.gauges[name] = vec
	}
	vec.WithLabelValues(labelValues(labelNames(labels), labels)...).Set(value)
}

// Histogram records an observation into the named histogram.
func (m *PrometheusMetrics) Histogram(name string, value float64, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	vec, ok := m.histograms[name]
	if !ok {
		vec = promauto.With(m.registerer).NewHistogramVec(prometheus.HistogramOpts{
			Name:    name,
			Help:    "Meridian runtime histogram " + name,
			Buckets: prometheus.DefBuckets,
		}, labelNames(labels))
		m.histograms[name] = vec
	}
	vec.WithLabelValues(labelValues(labelNames(labels), labels)...).Observe(value)
}

// Package metrics exposes analysis counters and timings to Prometheus
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ppiankov/clauserisk/internal/model"
)

// Recorder receives analysis events
type Recorder interface {
	// ObserveAnalysis records one finished analysis and its wall time
	ObserveAnalysis(status model.Status, took time.Duration)

	// ObserveFailure records an analysis rejected with a fatal error
	ObserveFailure(reason string)

	// ObserveClause records one scored clause
	ObserveClause(band model.Band)

	// ObserveSemanticFallback records a clause that fell back to rule-based scoring
	ObserveSemanticFallback(code model.DiagnosticCode)
}

// PrometheusRecorder implements Recorder on a private registry
type PrometheusRecorder struct {
	registry  *prometheus.Registry
	analyses  *prometheus.CounterVec
	failures  *prometheus.CounterVec
	clauses   *prometheus.CounterVec
	fallbacks *prometheus.CounterVec
	duration  prometheus.Histogram
}

// NewPrometheusRecorder creates a recorder with metrics under namespace
func NewPrometheusRecorder(namespace string) *PrometheusRecorder {
	if namespace == "" {
		namespace = "clauserisk"
	}

	r := &PrometheusRecorder{
		registry: prometheus.NewRegistry(),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Completed analyses by status.",
		}, []string{"status"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_failures_total",
			Help:      "Analyses rejected with a fatal error, by reason.",
		}, []string{"reason"}),
		clauses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clauses_total",
			Help:      "Scored clauses by risk band.",
		}, []string{"band"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "semantic_fallbacks_total",
			Help:      "Clauses scored without a semantic judgment, by reason.",
		}, []string{"reason"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Wall time of one document analysis.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 2.5, 5, 10, 30},
		}),
	}

	r.registry.MustRegister(
		r.analyses, r.failures, r.clauses, r.fallbacks, r.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ObserveAnalysis implements Recorder
func (r *PrometheusRecorder) ObserveAnalysis(status model.Status, took time.Duration) {
	r.analyses.WithLabelValues(string(status)).Inc()
	r.duration.Observe(took.Seconds())
}

// ObserveFailure implements Recorder
func (r *PrometheusRecorder) ObserveFailure(reason string) {
	r.failures.WithLabelValues(reason).Inc()
}

// ObserveClause implements Recorder
func (r *PrometheusRecorder) ObserveClause(band model.Band) {
	r.clauses.WithLabelValues(string(band)).Inc()
}

// ObserveSemanticFallback implements Recorder
func (r *PrometheusRecorder) ObserveSemanticFallback(code model.DiagnosticCode) {
	r.fallbacks.WithLabelValues(string(code)).Inc()
}

// Handler serves the registry in the Prometheus exposition format
func (r *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

type nopRecorder struct{}

func (nopRecorder) ObserveAnalysis(model.Status, time.Duration)  {}
func (nopRecorder) ObserveFailure(string)                        {}
func (nopRecorder) ObserveClause(model.Band)                     {}
func (nopRecorder) ObserveSemanticFallback(model.DiagnosticCode) {}

// NewNopRecorder returns a Recorder that drops everything
func NewNopRecorder() Recorder { return nopRecorder{} }

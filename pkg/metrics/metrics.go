// Package metrics holds the Prometheus instrumentation for the study
// pipeline: scenario outcomes, solve latencies and integrity gate results.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metrics for a study run.
type Registry struct {
	// Contingency engine
	ScenariosTotal    *prometheus.CounterVec
	SolveDuration     prometheus.Histogram
	ThermalViolations prometheus.Counter
	MaxLoadingPct     prometheus.Gauge

	// Integrity gate
	IntegrityViolations *prometheus.CounterVec

	// Pipeline
	StudiesTotal  *prometheus.CounterVec
	StudyDuration prometheus.Histogram

	registry *prometheus.Registry
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a registry with all metrics initialized.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	r := &Registry{registry: reg}

	r.ScenariosTotal = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridtwin_scenarios_total",
			Help: "Contingency scenarios evaluated, by outcome",
		},
		[]string{"outcome"},
	)
	r.SolveDuration = promauto.With(reg).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gridtwin_solve_duration_seconds",
			Help:    "Power flow solve duration in seconds",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 0.5, 1.0, 5.0, 10.0},
		},
	)
	r.ThermalViolations = promauto.With(reg).NewCounter(
		prometheus.CounterOpts{
			Name: "gridtwin_thermal_violations_total",
			Help: "Branches found loaded above their thermal rating",
		},
	)
	r.MaxLoadingPct = promauto.With(reg).NewGauge(
		prometheus.GaugeOpts{
			Name: "gridtwin_max_loading_percent",
			Help: "Worst branch loading observed across the last pass",
		},
	)
	r.IntegrityViolations = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridtwin_integrity_violations_total",
			Help: "Integrity gate violations, by check",
		},
		[]string{"check"},
	)
	r.StudiesTotal = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridtwin_studies_total",
			Help: "Full study runs, by result",
		},
		[]string{"result"},
	)
	r.StudyDuration = promauto.With(reg).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gridtwin_study_duration_seconds",
			Help:    "End-to-end study duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.1, 1, 10, 60},
		},
	)

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry, for
// wiring a /metrics handler.
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

// RecordScenario records one evaluated scenario.
func (r *Registry) RecordScenario(outcome string, duration time.Duration, violations int) {
	r.ScenariosTotal.WithLabelValues(outcome).Inc()
	r.SolveDuration.Observe(duration.Seconds())
	if violations > 0 {
		r.ThermalViolations.Add(float64(violations))
	}
}

// RecordStudy records one full pipeline run.
func (r *Registry) RecordStudy(result string, duration time.Duration) {
	r.StudiesTotal.WithLabelValues(result).Inc()
	r.StudyDuration.Observe(duration.Seconds())
}

// RecordIntegrityViolation counts one gate violation by check name.
func (r *Registry) RecordIntegrityViolation(check string) {
	r.IntegrityViolations.WithLabelValues(check).Inc()
}

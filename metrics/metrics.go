// Package metrics exposes Prometheus counters and histograms for
// orchestrator runs and leaf steps. It is an optional observability hook the
// engine package never imports; a caller wires a *Collector in around its
// own Runner.Run call.
//
// Method shapes (RecordRunStart/Complete, RecordStepStart/Complete, with the
// terminal status or outcome passed as a label rather than through separate
// Failed methods, plus RecordCompensation) are carried over from the teacher's
// MetricsCollector (internal/workflow/metrics.go), with the backing store
// swapped from a redis hash to prometheus/client_golang collectors, since
// here the data is for scraping rather than point lookups.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the Prometheus collectors for one registry. NewCollector
// registers them; call MustRegister only once per process per registry.
type Collector struct {
	runsTotal     *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	stepsTotal    *prometheus.CounterVec
	stepDuration  *prometheus.HistogramVec
	stepRetries   *prometheus.CounterVec
	compensations *prometheus.CounterVec
}

// NewCollector builds a Collector and registers its metrics against reg. Pass
// prometheus.NewRegistry() in tests to avoid colliding with the global
// DefaultRegisterer across parallel test runs.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sagaflow",
			Name:      "runs_total",
			Help:      "Total orchestrator runs by terminal status.",
		}, []string{"orchestrator", "status"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sagaflow",
			Name:      "run_duration_seconds",
			Help:      "Orchestrator run wall-clock duration.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"orchestrator"}),
		stepsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sagaflow",
			Name:      "steps_total",
			Help:      "Total leaf executions by terminal outcome.",
		}, []string{"orchestrator", "step", "outcome"}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sagaflow",
			Name:      "step_duration_seconds",
			Help:      "Leaf execution duration, including retries.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"orchestrator", "step"}),
		stepRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sagaflow",
			Name:      "step_retries_total",
			Help:      "Total retry attempts across all leaves.",
		}, []string{"orchestrator", "step"}),
		compensations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sagaflow",
			Name:      "compensations_total",
			Help:      "Total compensator invocations by outcome.",
		}, []string{"orchestrator", "step", "outcome"}),
	}
	reg.MustRegister(c.runsTotal, c.runDuration, c.stepsTotal, c.stepDuration, c.stepRetries, c.compensations)
	return c
}

func (c *Collector) RecordRunStart(orchestrator string) {
	// Start is implicit in RecordRunComplete's duration observation; kept as
	// a named entry point for symmetry with RecordStepStart and for callers
	// that want a start-side hook (e.g. a gauge of in-flight runs) later.
}

func (c *Collector) RecordRunComplete(orchestrator, status string, duration time.Duration) {
	c.runsTotal.WithLabelValues(orchestrator, status).Inc()
	c.runDuration.WithLabelValues(orchestrator).Observe(duration.Seconds())
}

func (c *Collector) RecordStepStart(orchestrator, step string) {}

func (c *Collector) RecordStepComplete(orchestrator, step, outcome string, duration time.Duration, retries int) {
	c.stepsTotal.WithLabelValues(orchestrator, step, outcome).Inc()
	c.stepDuration.WithLabelValues(orchestrator, step).Observe(duration.Seconds())
	if retries > 0 {
		c.stepRetries.WithLabelValues(orchestrator, step).Add(float64(retries))
	}
}

func (c *Collector) RecordCompensation(orchestrator, step, outcome string) {
	c.compensations.WithLabelValues(orchestrator, step, outcome).Inc()
}

// Package metrics exposes scheduler counters on a dedicated Prometheus
// registry. There is no HTTP listener; WriteTextfile dumps the registry in
// the text exposition format for the node-exporter textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/roach88/ittm/internal/ir"
)

const (
	namespace = "ittm"
	subsystem = "scheduler"
)

// Metrics holds the scheduler collectors. A nil *Metrics is valid and
// records nothing, so the engine can call it unconditionally.
type Metrics struct {
	registry *prometheus.Registry

	StagesTotal  prometheus.Counter
	StepsTotal   prometheus.Counter
	VerdictTotal *prometheus.CounterVec
	FaultsTotal  prometheus.Counter
	Population   prometheus.Gauge
	RunDuration  prometheus.Histogram
}

// New registers a fresh set of collectors on their own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		StagesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "stages_total",
			Help:      "Total global stages executed",
		}),
		StepsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "steps_total",
			Help:      "Total machine steps executed",
		}),
		VerdictTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "verdicts_total",
			Help:      "Machines classified, by verdict",
		}, []string{"verdict"}),
		FaultsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "faults_total",
			Help:      "Machines stopped by an isolated tape or symbol fault",
		}),
		Population: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "population",
			Help:      "Number of machines in the current run",
		}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of complete runs",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
	}
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveStage records one executed stage that stepped the given number of machines.
func (m *Metrics) ObserveStage(steps int) {
	if m == nil {
		return
	}
	m.StagesTotal.Inc()
	m.StepsTotal.Add(float64(steps))
}

// ObserveVerdict records a machine reaching a verdict.
func (m *Metrics) ObserveVerdict(v ir.Verdict) {
	if m == nil {
		return
	}
	m.VerdictTotal.WithLabelValues(string(v)).Inc()
	if v == ir.VerdictFaulted {
		m.FaultsTotal.Inc()
	}
}

// SetPopulation records the population size of the current run.
func (m *Metrics) SetPopulation(n int) {
	if m == nil {
		return
	}
	m.Population.Set(float64(n))
}

// ObserveRun records the duration of a finished run.
func (m *Metrics) ObserveRun(d time.Duration) {
	if m == nil {
		return
	}
	m.RunDuration.Observe(d.Seconds())
}

// WriteTextfile writes the registry to path atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}

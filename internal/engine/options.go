package engine

import "github.com/roach88/ittm/internal/metrics"

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithWorkers steps the machines eligible in a stage concurrently with at
// most n goroutines. n <= 1 keeps the default single-goroutine stepping.
//
// Verdicts, snapshots and the order of step events are identical to
// sequential mode.
func WithWorkers(n int) Option {
	return func(s *Scheduler) {
		if n < 1 {
			n = 1
		}
		s.workers = n
	}
}

// WithObserver registers a callback invoked for every machine step, in
// ascending machine order within each stage. The callback runs on the
// goroutine calling Step and must not call back into the Scheduler.
func WithObserver(fn func(StepEvent)) Option {
	return func(s *Scheduler) {
		s.observers = append(s.observers, fn)
	}
}

// WithMetrics records stages, steps and verdicts on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) {
		s.metrics = m
	}
}

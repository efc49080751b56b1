package report

import (
	"io"

	"github.com/roach88/ittm/internal/engine"
)

// TraceWriter prints step events under a "Stage N:" header per stage.
// Pass Observe to engine.WithObserver.
type TraceWriter struct {
	ew    errWriter
	stage uint64
}

// NewTraceWriter returns a TraceWriter writing to w.
func NewTraceWriter(w io.Writer) *TraceWriter {
	return &TraceWriter{ew: errWriter{w: w}}
}

// Observe writes one event, preceded by a stage header when the stage changes.
func (t *TraceWriter) Observe(ev engine.StepEvent) {
	if ev.Stage != t.stage {
		t.stage = ev.Stage
		t.ew.printf("Stage %d:\n", ev.Stage)
	}
	t.ew.printf("  %s\n", TraceLine(ev))
}

// Err returns the first write error.
func (t *TraceWriter) Err() error {
	return t.ew.err
}

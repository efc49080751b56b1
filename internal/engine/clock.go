package engine

import "sync/atomic"

// Clock is the global stage counter.
//
// Stages are numbered from 1. The clock only moves forward, and only the
// scheduler advances it, once per executed stage. Reads are safe from any
// goroutine, so observers and the CLI may poll Current while a run is in
// progress.
type Clock struct {
	stage atomic.Uint64
}

// NewClock creates a clock before the first stage.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock positioned after the given stage.
func NewClockAt(stage uint64) *Clock {
	c := &Clock{}
	c.stage.Store(stage)
	return c
}

// Next advances to and returns the next stage number.
func (c *Clock) Next() uint64 {
	return c.stage.Add(1)
}

// Current returns the last executed stage (0 before the first).
func (c *Clock) Current() uint64 {
	return c.stage.Load()
}

package engine

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// stepParallel steps the eligible machines of one stage with at most
// s.workers goroutines. Each goroutine owns exactly one machine; the only
// shared write is HaltingSet.Mark, which is atomic. Events are returned in
// the order of eligible, ascending machine index.
func (s *Scheduler) stepParallel(ctx context.Context, stage uint64, eligible []*machine) ([]StepEvent, error) {
	events := make([]StepEvent, len(eligible))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for k, m := range eligible {
		g.Go(func() error {
			events[k] = m.step(stage, s.cfg.Observe, s.oracle, s.halting)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return events, nil
}

package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/ittm/internal/engine"
	"github.com/roach88/ittm/internal/ir"
	"github.com/roach88/ittm/internal/testutil"
)

// createTestStore creates a new store with sequential run ids for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithIDGenerator(&SequentialIDs{Prefix: "run"}))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// mixedPopulation halts machine 0 at stage 1, loops machine 1 at stage 9 and
// leaves machine 2 (period 3, undetectable with W=4) undetermined at stage 20.
func mixedPopulation() *ir.Population {
	return testutil.Population(testutil.Config(4, 8, 20),
		testutil.HaltAfter(1), testutil.SelfLoop(), testutil.Counter(3))
}

// runPopulation runs pop to completion and returns the result with every
// step event.
func runPopulation(t *testing.T, pop *ir.Population) (*engine.Result, []engine.StepEvent) {
	t.Helper()
	var events []engine.StepEvent
	sched, err := engine.New(pop, engine.WithObserver(func(ev engine.StepEvent) {
		events = append(events, ev)
	}))
	if err != nil {
		t.Fatalf("engine.New() failed: %v", err)
	}
	res, err := sched.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	return res, events
}

// archiveRun runs pop and writes it to s.
func archiveRun(t *testing.T, s *Store, pop *ir.Population, withSteps bool) (RunRecord, *engine.Result, []engine.StepEvent) {
	t.Helper()
	res, events := runPopulation(t, pop)
	rec, err := NewRunRecord(pop, res)
	if err != nil {
		t.Fatalf("NewRunRecord() failed: %v", err)
	}
	var steps []engine.StepEvent
	if withSteps {
		steps = events
	}
	rec, err = s.WriteRun(context.Background(), rec, res.Machines, steps)
	if err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}
	return rec, res, events
}

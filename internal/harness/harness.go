package harness

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/ittm/internal/compiler"
	"github.com/roach88/ittm/internal/engine"
	"github.com/roach88/ittm/internal/ir"
	"github.com/roach88/ittm/internal/store"
)

// Harness is the scenario execution engine.
type Harness struct {
	scenario *Scenario
	steps    int
	events   []engine.StepEvent
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Compile and validate the population file
//  2. Run it to completion, counting step events
//  3. Archive and replay when the scenario asks for it
//  4. Evaluate expectations and assertions
//
// An error is returned only when the scenario cannot execute; failed
// expectations are reported in Result.Errors.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	pop, err := compiler.LoadFile(scenario.Population)
	if err != nil {
		return nil, fmt.Errorf("failed to load population: %w", err)
	}
	if verrs := compiler.Validate(pop); len(verrs) > 0 {
		errs := make([]error, len(verrs))
		for i, e := range verrs {
			errs[i] = e
		}
		return nil, fmt.Errorf("invalid population: %w", errors.Join(errs...))
	}

	h := &Harness{scenario: scenario}
	sched, err := engine.New(pop,
		engine.WithWorkers(scenario.Workers),
		engine.WithObserver(h.observe),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	res, err := sched.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run population: %w", err)
	}

	result, err := h.collect(res)
	if err != nil {
		return nil, err
	}

	if scenario.Archive {
		if err := h.archive(ctx, pop, res, result); err != nil {
			return nil, fmt.Errorf("failed to archive run: %w", err)
		}
	}

	for _, msg := range EvaluateExpect(result, scenario.Expect) {
		result.AddError(msg)
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) observe(ev engine.StepEvent) {
	h.steps++
	if h.scenario.Archive {
		h.events = append(h.events, ev)
	}
}

func (h *Harness) collect(res *engine.Result) (*Result, error) {
	digest, err := res.Digest()
	if err != nil {
		return nil, fmt.Errorf("failed to digest result: %w", err)
	}

	result := NewResult()
	result.Outcome = res.Outcome
	result.Stages = res.Stages
	result.HaltingSet = res.HaltingSet.String()
	result.Halted = res.Halted()
	result.Steps = h.steps
	result.Digest = digest
	for _, m := range res.Machines {
		result.Machines = append(result.Machines, MachineResult{
			Index:    m.Index,
			Verdict:  m.Verdict,
			HaltStep: m.HaltStep,
			Period:   m.Period,
		})
	}
	return result, nil
}

// archive writes the run to a fresh in-memory database and replays it.
// A replay mismatch is a scenario failure, not an execution error.
func (h *Harness) archive(ctx context.Context, pop *ir.Population, res *engine.Result, result *Result) error {
	st, err := store.Open(":memory:", store.WithIDGenerator(&store.SequentialIDs{Prefix: h.scenario.Name}))
	if err != nil {
		return err
	}
	defer st.Close()

	rec, err := store.NewRunRecord(pop, res)
	if err != nil {
		return err
	}
	rec, err = st.WriteRun(ctx, rec, res.Machines, h.events)
	if err != nil {
		return err
	}

	steps, err := st.ReadSteps(ctx, rec.ID)
	if err != nil {
		return err
	}
	if len(steps) != h.steps {
		result.AddError(fmt.Sprintf("archive: %d step events stored, %d observed", len(steps), h.steps))
	}

	report, err := st.Replay(ctx, rec.ID, engine.WithWorkers(h.scenario.Workers))
	if err != nil {
		return err
	}
	if !report.Match {
		result.AddError(fmt.Sprintf("replay: %s", report.Diff))
	}
	return nil
}

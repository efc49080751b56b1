package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/ittm/internal/ir"
	"github.com/roach88/ittm/internal/metrics"
)

// ErrFinished is returned by Step once the run has concluded.
var ErrFinished = errors.New("scheduler finished")

// Scheduler is the dovetail scheduler.
//
// Thread-safety model:
//   - Step(), Run(): must be called from exactly one goroutine
//   - Stage(): safe from any goroutine
//   - Snapshot(), Snapshots(), Result(): call between stages, from the
//     goroutine driving the run
//
// INVARIANTS:
//   - machines slice order NEVER changes after construction
//   - a done machine is never stepped again
//   - the halting set only grows
type Scheduler struct {
	cfg      ir.Config
	machines []*machine
	halting  *HaltingSet
	oracle   LoopOracle
	clock    *Clock
	budget   *StageBudget
	outcome  ir.Outcome

	workers   int
	observers []func(StepEvent)
	metrics   *metrics.Metrics
}

// StageReport summarizes one executed stage.
type StageReport struct {
	Stage    uint64
	Stepped  []int // machines stepped, ascending
	Finished []int // machines that became done during this stage, ascending
	Events   []StepEvent
	Outcome  ir.Outcome
}

// New creates a Scheduler for a population.
//
// The population is rejected before any stepping if its bounds are invalid,
// if it has more machines than max_population, or if a machine has no rule
// table. Tapes are materialized here: a shared source is wrapped once and
// viewed per machine; otherwise each machine gets a private tape of
// tape_length cells.
func New(pop *ir.Population, opts ...Option) (*Scheduler, error) {
	cfg := pop.Config
	if err := cfg.Validate(); err != nil {
		return nil, NewConfigError(-1, err)
	}
	n := len(pop.Machines)
	if n > cfg.MaxPopulation {
		return nil, NewPopulationError(n, cfg.MaxPopulation)
	}

	var source *SourceTape
	if pop.Shared() {
		source = NewSourceTape(pop.Source)
	}

	machines := make([]*machine, n)
	for i, spec := range pop.Machines {
		if spec.Table == nil {
			return nil, NewConfigError(i, fmt.Errorf("%w: machine %d has no rule table", ir.ErrInvalidRuleTable, i))
		}
		var tape Tape
		if source != nil {
			tape = source.View(cfg.TapeMode)
		} else {
			tape = NewPrivateTape(spec.Tape.Materialize(cfg.TapeLength), cfg.TapeMode)
		}
		machines[i] = newMachine(i, spec, tape, cfg.Window)
	}

	s := &Scheduler{
		cfg:      cfg,
		machines: machines,
		halting:  NewHaltingSet(n),
		oracle:   NewLoopOracle(cfg.Warmup),
		clock:    NewClock(),
		budget:   NewStageBudget(cfg.MaxStages),
		outcome:  ir.OutcomeRunning,
		workers:  1,
	}
	for _, opt := range opts {
		opt(s)
	}
	if n == 0 {
		s.outcome = ir.OutcomeComplete
	}
	s.metrics.SetPopulation(n)

	return s, nil
}

// Config returns the run bounds.
func (s *Scheduler) Config() ir.Config {
	return s.cfg
}

// Len returns the population size N.
func (s *Scheduler) Len() int {
	return len(s.machines)
}

// Stage returns the last executed global stage.
func (s *Scheduler) Stage() uint64 {
	return s.clock.Current()
}

// Outcome returns the current run outcome.
func (s *Scheduler) Outcome() ir.Outcome {
	return s.outcome
}

// Finished reports whether the run has concluded.
func (s *Scheduler) Finished() bool {
	return s.outcome != ir.OutcomeRunning
}

// HaltingSet returns the live halting set. Use Result for a frozen copy.
func (s *Scheduler) HaltingSet() *HaltingSet {
	return s.halting
}

// Step executes exactly one global stage.
//
// At stage s every machine with index < min(s, N) that is not done takes one
// step in ascending index order. After the stage the run concludes as
// complete if every machine is done, or as inconclusive if the stage budget
// is exhausted. Context cancellation is honored between stages only; a
// stage always completes once started.
func (s *Scheduler) Step(ctx context.Context) (StageReport, error) {
	if s.Finished() {
		return StageReport{Stage: s.Stage(), Outcome: s.outcome}, ErrFinished
	}
	if err := ctx.Err(); err != nil {
		return StageReport{Stage: s.Stage(), Outcome: s.outcome}, err
	}
	if err := s.budget.Check(s.Stage() + 1); err != nil {
		s.conclude(ir.OutcomeInconclusive)
		return StageReport{Stage: s.Stage(), Outcome: s.outcome}, ErrFinished
	}

	stage := s.clock.Next()
	eligible := s.eligible(stage)

	var events []StepEvent
	if s.workers > 1 && len(eligible) > 1 {
		var err error
		events, err = s.stepParallel(ctx, stage, eligible)
		if err != nil {
			return StageReport{}, err
		}
	} else {
		events = make([]StepEvent, len(eligible))
		for k, m := range eligible {
			events[k] = m.step(stage, s.cfg.Observe, s.oracle, s.halting)
		}
	}

	report := StageReport{
		Stage:   stage,
		Stepped: make([]int, len(eligible)),
		Events:  events,
	}
	for k, ev := range events {
		report.Stepped[k] = ev.Machine
		s.emit(ev)
		if ev.Verdict.Terminal() {
			report.Finished = append(report.Finished, ev.Machine)
		}
	}
	s.metrics.ObserveStage(len(events))

	slog.Debug("stage complete",
		"stage", stage,
		"stepped", len(events),
		"finished", len(report.Finished),
	)

	switch {
	case s.allDone():
		s.conclude(ir.OutcomeComplete)
	case s.budget.Exhausted(stage):
		s.conclude(ir.OutcomeInconclusive)
	}
	report.Outcome = s.outcome

	return report, nil
}

// Run steps until every machine is done or the stage budget is exhausted.
//
// The returned Result is always populated when err is nil. An inconclusive
// run is not an error here; inspect Result.Err to treat it as one.
func (s *Scheduler) Run(ctx context.Context) (*Result, error) {
	slog.Info("scheduler starting",
		"machines", len(s.machines),
		"window", s.cfg.Window,
		"warmup", s.cfg.Warmup,
		"max_stages", s.cfg.MaxStages,
		"workers", s.workers,
	)
	start := time.Now()

	for !s.Finished() {
		if _, err := s.Step(ctx); err != nil {
			if errors.Is(err, ErrFinished) {
				break
			}
			slog.Info("scheduler stopping: context cancelled", "stage", s.Stage())
			return nil, err
		}
	}
	s.metrics.ObserveRun(time.Since(start))

	res := s.Result()
	slog.Info("scheduler finished",
		"outcome", res.Outcome,
		"stages", res.Stages,
		"halted", res.HaltingSet.Count(),
		"machines", len(res.Machines),
	)
	return res, nil
}

// Snapshot returns the externally visible state of machine i.
func (s *Scheduler) Snapshot(i int) (ir.MachineSnapshot, error) {
	if i < 0 || i >= len(s.machines) {
		return ir.MachineSnapshot{}, fmt.Errorf("machine %d out of range [0, %d)", i, len(s.machines))
	}
	return s.machines[i].snapshot(), nil
}

// Snapshots returns every machine's state in index order.
func (s *Scheduler) Snapshots() []ir.MachineSnapshot {
	out := make([]ir.MachineSnapshot, len(s.machines))
	for i, m := range s.machines {
		out[i] = m.snapshot()
	}
	return out
}

// Result returns the run result so far. The halting set is a frozen copy.
func (s *Scheduler) Result() *Result {
	return &Result{
		Stages:     s.Stage(),
		Limit:      s.budget.Limit(),
		Outcome:    s.outcome,
		HaltingSet: s.halting.Clone(),
		Machines:   s.Snapshots(),
	}
}

func (s *Scheduler) eligible(stage uint64) []*machine {
	bound := len(s.machines)
	if stage < uint64(bound) {
		bound = int(stage)
	}
	eligible := make([]*machine, 0, bound)
	for _, m := range s.machines[:bound] {
		if !m.done {
			eligible = append(eligible, m)
		}
	}
	return eligible
}

func (s *Scheduler) emit(ev StepEvent) {
	if ev.Err != nil {
		slog.Warn("machine faulted",
			"machine", ev.Machine,
			"stage", ev.Stage,
			"personal_step", ev.PersonalStep,
			"error", ev.Err,
			"event", "machine_fault",
		)
	} else {
		slog.Debug("machine step",
			"machine", ev.Machine,
			"stage", ev.Stage,
			"personal_step", ev.PersonalStep,
			"read", ev.Read,
			"write", ev.Write,
			"next", ev.Next,
		)
	}
	if ev.Verdict.Terminal() {
		s.metrics.ObserveVerdict(ev.Verdict)
	}
	for _, fn := range s.observers {
		fn(ev)
	}
}

func (s *Scheduler) allDone() bool {
	for _, m := range s.machines {
		if !m.done {
			return false
		}
	}
	return true
}

// conclude fixes the outcome. Machines without a verdict become undetermined.
func (s *Scheduler) conclude(outcome ir.Outcome) {
	s.outcome = outcome
	if outcome != ir.OutcomeInconclusive {
		return
	}
	for _, m := range s.machines {
		if !m.done {
			m.verdict = ir.VerdictUndetermined
			s.metrics.ObserveVerdict(ir.VerdictUndetermined)
		}
	}
	slog.Warn("stage budget exhausted",
		"stage", s.Stage(),
		"limit", s.budget.Limit(),
		"event", "budget_exhausted",
	)
}

package store

import (
	"context"
	"fmt"
	"reflect"

	"github.com/roach88/ittm/internal/engine"
	"github.com/roach88/ittm/internal/ir"
)

// ReplayReport is the outcome of re-running one archived run.
type ReplayReport struct {
	Run     RunRecord
	Digests [2]string // digests of the two reruns

	// Match is true when both reruns reproduce the archived digest.
	Match bool

	// Diff describes the first difference found when Match is false.
	Diff string
}

// Replay rebuilds the population of an archived run, runs it twice and
// verifies both result digests equal the archived digest. opts are passed
// to both schedulers, so replay can also check that parallel stepping
// reproduces a sequential archive.
func (s *Store) Replay(ctx context.Context, id string, opts ...engine.Option) (ReplayReport, error) {
	rec, err := s.ReadRun(ctx, id)
	if err != nil {
		return ReplayReport{}, fmt.Errorf("replay: %w", err)
	}

	report := ReplayReport{Run: rec, Match: true}
	var results [2]*engine.Result
	for i := range results {
		res, err := rerun(ctx, rec.Population, opts...)
		if err != nil {
			return ReplayReport{}, fmt.Errorf("replay %s: run %d: %w", id, i+1, err)
		}
		digest, err := res.Digest()
		if err != nil {
			return ReplayReport{}, fmt.Errorf("replay %s: %w", id, err)
		}
		results[i] = res
		report.Digests[i] = digest
	}

	if report.Digests[0] == rec.Digest && report.Digests[1] == rec.Digest {
		return report, nil
	}

	report.Match = false
	archived, err := s.ReadMachines(ctx, id)
	if err != nil {
		return ReplayReport{}, fmt.Errorf("replay %s: %w", id, err)
	}
	for i, res := range results {
		if report.Digests[i] != rec.Digest {
			report.Diff = fmt.Sprintf("run %d: %s", i+1, diffResult(rec, archived, res))
			break
		}
	}
	return report, nil
}

// ReplayAll replays every archived run in seq order.
func (s *Store) ReplayAll(ctx context.Context, opts ...engine.Option) ([]ReplayReport, error) {
	runs, err := s.ListRuns(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("replay all: %w", err)
	}

	reports := make([]ReplayReport, 0, len(runs))
	for _, run := range runs {
		report, err := s.Replay(ctx, run.ID, opts...)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func rerun(ctx context.Context, pop *ir.Population, opts ...engine.Option) (*engine.Result, error) {
	sched, err := engine.New(pop, opts...)
	if err != nil {
		return nil, err
	}
	return sched.Run(ctx)
}

// diffResult names the first field that differs between the archive and a rerun.
func diffResult(rec RunRecord, archived []ir.MachineSnapshot, res *engine.Result) string {
	switch {
	case res.Outcome != rec.Outcome:
		return fmt.Sprintf("outcome %s, archived %s", res.Outcome, rec.Outcome)
	case res.Stages != rec.Stages:
		return fmt.Sprintf("stages %d, archived %d", res.Stages, rec.Stages)
	case res.HaltingSet.String() != rec.HaltingSet:
		return fmt.Sprintf("halting set %s, archived %s", res.HaltingSet, rec.HaltingSet)
	case len(res.Machines) != len(archived):
		return fmt.Sprintf("%d machines, archived %d", len(res.Machines), len(archived))
	}
	for i := range archived {
		if !reflect.DeepEqual(normalize(res.Machines[i]), normalize(archived[i])) {
			return fmt.Sprintf("machine %d snapshot differs", i)
		}
	}
	return "digest differs"
}

// normalize maps an empty window to nil so archived and live snapshots compare.
func normalize(m ir.MachineSnapshot) ir.MachineSnapshot {
	if len(m.Window) == 0 {
		m.Window = nil
	}
	return m
}

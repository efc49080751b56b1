package engine

import "github.com/roach88/ittm/internal/ir"

// Result is the frozen outcome of a run.
type Result struct {
	Stages     uint64
	Limit      uint64
	Outcome    ir.Outcome
	HaltingSet *HaltingSet
	Machines   []ir.MachineSnapshot
}

// Halted returns the number of machines that reached HALT.
func (r *Result) Halted() int {
	return r.HaltingSet.Count()
}

// Count returns the number of machines with verdict v.
func (r *Result) Count(v ir.Verdict) int {
	n := 0
	for _, m := range r.Machines {
		if m.Verdict == v {
			n++
		}
	}
	return n
}

// Inconclusive returns the indexes of undetermined machines.
func (r *Result) Inconclusive() []int {
	var idx []int
	for _, m := range r.Machines {
		if m.Verdict == ir.VerdictUndetermined {
			idx = append(idx, m.Index)
		}
	}
	return idx
}

// Err returns a *StagesExceededError for an inconclusive run and nil otherwise.
func (r *Result) Err() error {
	if r.Outcome != ir.OutcomeInconclusive {
		return nil
	}
	return &StagesExceededError{
		Stages:       r.Stages,
		Limit:        r.Limit,
		Undetermined: r.Inconclusive(),
	}
}

// Digest returns the content digest used to verify replays.
func (r *Result) Digest() (string, error) {
	return ir.ResultDigest(r.Outcome, r.Stages, r.HaltingSet.String(), r.Machines)
}

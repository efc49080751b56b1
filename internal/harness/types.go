package harness

import "github.com/roach88/ittm/internal/ir"

// MachineResult is the per-machine part of a scenario result.
type MachineResult struct {
	Index    int        `json:"index"`
	Verdict  ir.Verdict `json:"verdict"`
	HaltStep uint64     `json:"halt_step"`
	Period   int        `json:"period"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every expectation and assertion holds.
	Pass bool `json:"pass"`

	Outcome    ir.Outcome      `json:"outcome"`
	Stages     uint64          `json:"stages"`
	HaltingSet string          `json:"halting_set"`
	Halted     int             `json:"halted"`
	Steps      int             `json:"steps"`
	Digest     string          `json:"digest"`
	Machines   []MachineResult `json:"machines"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Machines: []MachineResult{},
		Errors:   []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

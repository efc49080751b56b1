package ir

// Verdict is the classification of a single machine.
type Verdict string

const (
	// VerdictPending means the machine has not been admitted yet.
	VerdictPending Verdict = "pending"
	// VerdictRunning means the machine is admitted and not done.
	VerdictRunning Verdict = "running"
	// VerdictHalted means the machine entered HALT. Only this verdict sets a halting bit.
	VerdictHalted Verdict = "halted"
	// VerdictLooped means the loop oracle found a period in the history window.
	VerdictLooped Verdict = "looped"
	// VerdictFaulted means the machine was stopped by an isolated tape or symbol fault.
	VerdictFaulted Verdict = "faulted"
	// VerdictUndetermined means the stage budget ran out before any verdict.
	VerdictUndetermined Verdict = "undetermined"
)

// Terminal reports whether the verdict marks a done machine.
func (v Verdict) Terminal() bool {
	switch v {
	case VerdictHalted, VerdictLooped, VerdictFaulted:
		return true
	}
	return false
}

// Outcome is the classification of a whole run.
type Outcome string

const (
	// OutcomeRunning means stages remain and some machine is not done.
	OutcomeRunning Outcome = "running"
	// OutcomeComplete means every machine is done.
	OutcomeComplete Outcome = "complete"
	// OutcomeInconclusive means the stage budget ran out with machines undetermined.
	OutcomeInconclusive Outcome = "inconclusive"
)

// MachineSnapshot is the externally visible state of one machine.
type MachineSnapshot struct {
	Index        int     `json:"index"`
	Name         string  `json:"name,omitempty"`
	State        State   `json:"state"`
	TapePosition uint64  `json:"tape_position"`
	PersonalStep uint64  `json:"personal_step"`
	Done         bool    `json:"done"`
	HaltStep     uint64  `json:"halt_step"`
	Verdict      Verdict `json:"verdict"`

	// Period is the smallest period found by the loop oracle (looped only).
	Period int `json:"period,omitempty"`

	// FirstStage is the global stage of the machine's first step (0 if never stepped).
	FirstStage uint64 `json:"first_stage,omitempty"`

	// Fault describes the isolated fault that stopped the machine.
	Fault string `json:"fault,omitempty"`

	// Window is a copy of the history buffer in slot order.
	Window Symbols `json:"window"`
}

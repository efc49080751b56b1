package engine

import (
	"errors"
	"fmt"
)

// StageBudget enforces the hard cap on global stages.
//
// Loop detection is a heuristic and may never fire, so every run needs a
// bound independent of the machines. The budget does not count stages
// itself; it judges stage numbers handed out by the Clock.
type StageBudget struct {
	limit uint64
}

// NewStageBudget creates a budget allowing maxStages stages.
func NewStageBudget(maxStages int) *StageBudget {
	return &StageBudget{limit: uint64(maxStages)}
}

// Check returns StagesExceededError if stage lies beyond the budget.
func (b *StageBudget) Check(stage uint64) error {
	if stage > b.limit {
		return &StagesExceededError{Stages: stage - 1, Limit: b.limit}
	}
	return nil
}

// Exhausted reports whether stage was the last one the budget allows.
func (b *StageBudget) Exhausted(stage uint64) bool {
	return stage >= b.limit
}

// Remaining returns the number of stages left after stage.
func (b *StageBudget) Remaining(stage uint64) uint64 {
	if stage >= b.limit {
		return 0
	}
	return b.limit - stage
}

// Limit returns the maximum number of stages.
func (b *StageBudget) Limit() uint64 {
	return b.limit
}

// StagesExceededError reports a run that used its whole stage budget with
// machines still undetermined. The run result is inconclusive; it is not
// treated as halted or looped.
type StagesExceededError struct {
	Stages       uint64 // Stages executed
	Limit        uint64 // Maximum allowed stages
	Undetermined []int  // Machines left without a verdict
}

// Error implements the error interface.
func (e *StagesExceededError) Error() string {
	if len(e.Undetermined) == 0 {
		return fmt.Sprintf("stage budget exhausted: %d stages >= %d limit", e.Stages, e.Limit)
	}
	return fmt.Sprintf("stage budget exhausted: %d stages >= %d limit, %d machines undetermined",
		e.Stages, e.Limit, len(e.Undetermined))
}

// RuntimeError returns the error type for matching.
func (e *StagesExceededError) RuntimeError() string {
	return "StagesExceededError"
}

// IsStagesExceededError returns true if the error is a StagesExceededError.
// Uses errors.As to handle wrapped errors.
func IsStagesExceededError(err error) bool {
	var se *StagesExceededError
	return errors.As(err, &se)
}

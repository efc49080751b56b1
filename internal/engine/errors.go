package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents an error detected by the scheduler.
//
// Runtime errors include:
//   - Tape fault: a machine's cursor left a bounded tape
//   - Symbol fault: a machine read a symbol outside its table's alphabet
//   - Population exceeded: more machines than max_population
//   - Invalid config: the run bounds are inconsistent
//
// Tape and symbol faults are isolated to one machine and never stop a run.
// Population and config errors are rejected before any stepping.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Machine is the affected machine index, or -1 when not machine-specific.
	Machine int

	// Stage is the global stage at which the error occurred (0 at construction).
	Stage uint64

	// Details contains additional context.
	Details map[string]string

	err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeTapeFault indicates a cursor outside a bounded tape.
	ErrCodeTapeFault RuntimeErrorCode = "TAPE_FAULT"

	// ErrCodeSymbolOutOfRange indicates a symbol outside the rule table's alphabet.
	ErrCodeSymbolOutOfRange RuntimeErrorCode = "SYMBOL_OUT_OF_RANGE"

	// ErrCodePopulationExceeded indicates more machines than the configured maximum.
	ErrCodePopulationExceeded RuntimeErrorCode = "POPULATION_EXCEEDED"

	// ErrCodeInvalidConfig indicates inconsistent run bounds or machine definitions.
	ErrCodeInvalidConfig RuntimeErrorCode = "INVALID_CONFIG"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Machine >= 0 && e.Stage > 0 {
		return fmt.Sprintf("%s: %s (machine=%d, stage=%d)", e.Code, e.Message, e.Machine, e.Stage)
	}
	if e.Machine >= 0 {
		return fmt.Sprintf("%s: %s (machine=%d)", e.Code, e.Message, e.Machine)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *RuntimeError) Unwrap() error {
	return e.err
}

// IsTapeFault returns true if the error is an isolated machine fault
// (tape bounds or symbol range). Uses errors.As to handle wrapped errors.
func IsTapeFault(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeTapeFault || re.Code == ErrCodeSymbolOutOfRange
	}
	return false
}

// IsPopulationError returns true if the population exceeded the configured maximum.
func IsPopulationError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodePopulationExceeded
	}
	return false
}

// IsConfigError returns true if the run was rejected for invalid bounds.
func IsConfigError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeInvalidConfig
	}
	return false
}

// NewTapeFault creates a RuntimeError for a cursor outside a bounded tape.
func NewTapeFault(machine int, stage, position uint64, cause error) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeTapeFault,
		Message: fmt.Sprintf("tape position %d out of range", position),
		Machine: machine,
		Stage:   stage,
		Details: map[string]string{
			"position": fmt.Sprintf("%d", position),
		},
		err: cause,
	}
}

// NewSymbolFault creates a RuntimeError for a symbol outside a table's alphabet.
func NewSymbolFault(machine int, stage uint64, symbol, alphabet int, cause error) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeSymbolOutOfRange,
		Message: fmt.Sprintf("read symbol %d outside alphabet of %d", symbol, alphabet),
		Machine: machine,
		Stage:   stage,
		Details: map[string]string{
			"symbol":   fmt.Sprintf("%d", symbol),
			"alphabet": fmt.Sprintf("%d", alphabet),
		},
		err: cause,
	}
}

// NewPopulationError creates a RuntimeError for an oversized population.
func NewPopulationError(size, limit int) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodePopulationExceeded,
		Message: fmt.Sprintf("population of %d exceeds max_population %d", size, limit),
		Machine: -1,
		Details: map[string]string{
			"size":  fmt.Sprintf("%d", size),
			"limit": fmt.Sprintf("%d", limit),
		},
	}
}

// NewConfigError creates a RuntimeError wrapping a validation failure.
func NewConfigError(machine int, cause error) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeInvalidConfig,
		Message: cause.Error(),
		Machine: machine,
		err:     cause,
	}
}

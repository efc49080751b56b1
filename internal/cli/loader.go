package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/roach88/ittm/internal/compiler"
	"github.com/roach88/ittm/internal/ir"
)

// LoadError represents an error that occurred while loading a population.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadPopulation reads and compiles a population file.
// Every failure is a *LoadError.
func LoadPopulation(path string) (*ir.Population, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("population file not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing population file: %v", err)}
	}
	if info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a file: %s", path)}
	}

	pop, err := compiler.LoadFile(path)
	if err != nil {
		return nil, convertCompileError(err)
	}
	return pop, nil
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: fmt.Sprintf("%s: %s", compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeLoadFailed,
		Message: err.Error(),
	}
}

// Error code constants - unified across all CLI commands.
// Validation codes (E101-E105) come from compiler.Validate.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeDatabase    = "E002" // Database open or query error
	ErrCodeRunFailed   = "E003" // Scheduler error (cancelled run)
	ErrCodeLoadFailed  = "E004" // Population file unreadable
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeBadFilter   = "E008" // Invalid run filter flags

	// Population compile errors
	ErrCodeSchema    = "E120" // Schema violation
	ErrCodeTable     = "E121" // Invalid rule table
	ErrCodeTape      = "E122" // Invalid tape
	ErrCodeGenerator = "E123" // Generator failed
	ErrCodeSource    = "E124" // Conflicting shared source
)

// MapFieldToErrorCode maps a compiler error field to an error code.
func MapFieldToErrorCode(field string) string {
	switch {
	case field == "cue":
		return ErrCodeBuildFailed
	case field == "schema":
		return ErrCodeSchema
	case field == "config":
		return compiler.ErrInvalidConfig
	case field == "source":
		return ErrCodeSource
	case strings.HasPrefix(field, "generate"):
		return ErrCodeGenerator
	case strings.HasSuffix(field, ".table"):
		return ErrCodeTable
	case strings.HasSuffix(field, ".tape"):
		return ErrCodeTape
	default:
		return ErrCodeGeneric
	}
}

// loadErrorCode returns the code of a LoadError, or ErrCodeGeneric.
func loadErrorCode(err error) string {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code
	}
	return ErrCodeGeneric
}

package compiler

import (
	"fmt"

	"github.com/roach88/ittm/internal/ir"
)

// Validation error codes (E100-E199)
const (
	// General validation errors (E100)
	ErrUnsupportedType = "E100" // unsupported value for validation

	// Population errors (E101-E109)
	ErrEmptyPopulation    = "E101" // at least one machine required
	ErrDuplicateName      = "E102" // duplicate machine name
	ErrInvalidConfig      = "E103" // config bounds inconsistent
	ErrPopulationExceeded = "E104" // more machines than max_population
	ErrMissingTable       = "E105" // machine without a rule table
)

// ValidationError represents a population validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled population. Returns all errors found (does not
// fail-fast). Populations that validate can still produce faulted machines;
// those are reported by AnalyzeTables as warnings.
func Validate(v any) []ValidationError {
	switch pop := v.(type) {
	case *ir.Population:
		return validatePopulation(pop)
	case ir.Population:
		return validatePopulation(&pop)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported type: %T", v),
			Code:    ErrUnsupportedType,
		}}
	}
}

func validatePopulation(pop *ir.Population) []ValidationError {
	var errs []ValidationError

	if err := pop.Config.Validate(); err != nil {
		errs = append(errs, ValidationError{
			Field:   "config",
			Message: err.Error(),
			Code:    ErrInvalidConfig,
		})
	}

	// E101: at least one machine
	if len(pop.Machines) == 0 {
		errs = append(errs, ValidationError{
			Field:   "machines",
			Message: "at least one machine is required",
			Code:    ErrEmptyPopulation,
		})
	}

	// E104: capacity is checked before any stepping
	if pop.Config.MaxPopulation > 0 && len(pop.Machines) > pop.Config.MaxPopulation {
		errs = append(errs, ValidationError{
			Field:   "machines",
			Message: fmt.Sprintf("%d machines exceed max_population %d", len(pop.Machines), pop.Config.MaxPopulation),
			Code:    ErrPopulationExceeded,
		})
	}

	names := make(map[string]int)
	for i, m := range pop.Machines {
		// E102: duplicate name
		if prev, dup := names[m.Name]; dup && m.Name != "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("machines[%d].name", i),
				Message: fmt.Sprintf("duplicate machine name %q (first used by machine %d)", m.Name, prev),
				Code:    ErrDuplicateName,
			})
		} else {
			names[m.Name] = i
		}

		// E105: table required
		if m.Table == nil {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("machines[%d].table", i),
				Message: "rule table is required",
				Code:    ErrMissingTable,
			})
		}
	}

	return errs
}

package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/ittm/internal/compiler"
	"github.com/roach88/ittm/internal/ir"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Machines int                        `json:"machines"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
	Warnings []compiler.TableWarning    `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <population.cue>",
		Short: "Validate a population without running it",
		Long: `Validate a population file without running it.

Compiles the CUE file, checks the run bounds and every machine, then runs the
static table analysis: machines that can never reach HALT, trap cycles and
tape symbols outside a table's alphabet are reported as warnings.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	pop, err := LoadPopulation(path)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	formatter.VerboseLog("Loaded population %q with %d machine(s)", pop.Name, len(pop.Machines))

	warnings := compiler.AnalyzeTables(pop)
	if errs := validatePopulation(pop); len(errs) > 0 {
		return outputValidationErrors(formatter, errs, warnings)
	}

	result := ValidationResult{
		Valid:    true,
		Machines: len(pop.Machines),
		Warnings: warnings,
	}
	return formatter.Success(result, func(w io.Writer) error {
		fmt.Fprintf(w, "✓ Population %s valid (%d machines)\n", pop.Name, len(pop.Machines))
		writeWarnings(w, warnings)
		return nil
	})
}

// validatePopulation runs compiler validation on a loaded population.
func validatePopulation(pop *ir.Population) []compiler.ValidationError {
	return compiler.Validate(pop)
}

func writeWarnings(w io.Writer, warnings []compiler.TableWarning) {
	if len(warnings) == 0 {
		return
	}
	fmt.Fprintln(w)
	for _, warn := range warnings {
		fmt.Fprintf(w, "%s: machine %d: %s\n", warn.Level, warn.Machine, warn.Message)
	}
}

// outputLoadError reports a population that could not be loaded.
// Load failures are command errors (exit code 2).
func outputLoadError(formatter *OutputFormatter, err error) error {
	code := loadErrorCode(err)
	_ = formatter.Error(code, err.Error(), nil)
	return WrapExitError(ExitCommandError, "failed to load population", err)
}

// outputValidationErrors reports a population that loaded but is invalid.
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError, warnings []compiler.TableWarning) error {
	result := ValidationResult{
		Valid:    false,
		Errors:   errs,
		Warnings: warnings,
	}
	msg := fmt.Sprintf("validation failed with %d error(s)", len(errs))

	err := formatter.Failure(errs[0].Code, errs[0].Message, result, func(w io.Writer) error {
		fmt.Fprintln(w, "✗ Validation failed")
		fmt.Fprintln(w)
		for _, e := range errs {
			fmt.Fprintf(w, "  %s: %s: %s\n", e.Code, e.Field, e.Message)
		}
		writeWarnings(w, warnings)
		return nil
	})
	if err != nil {
		return err
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, msg)
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/ittm/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult is the compiled form of a population file.
type CompilationResult struct {
	Digest     string         `json:"digest"`
	Population *ir.Population `json:"population"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <population.cue>",
		Short: "Compile a population file to JSON",
		Long: `Compile a CUE population file to its resolved JSON form.

Generators are expanded, defaults applied and rule tables validated. The
output carries the population digest that archived runs are keyed by.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	pop, err := LoadPopulation(path)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	if errs := validatePopulation(pop); len(errs) > 0 {
		return outputValidationErrors(formatter, errs, nil)
	}

	digest, err := ir.PopulationDigest(pop)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to digest population", err)
	}
	result := CompilationResult{Digest: digest, Population: pop}

	if opts.Output == "" {
		return formatter.Success(result, func(w io.Writer) error {
			return writeIndentedJSON(w, result)
		})
	}

	if err := writeJSONFile(opts.Output, result); err != nil {
		_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to write output", err)
	}
	formatter.VerboseLog("Wrote %s", opts.Output)

	return formatter.Success(map[string]any{
		"output":   opts.Output,
		"digest":   digest,
		"machines": len(pop.Machines),
	}, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "✓ Compiled %s (%d machines) to %s\n", pop.Name, len(pop.Machines), opts.Output)
		return err
	})
}

func writeIndentedJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func writeJSONFile(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := writeIndentedJSON(f, v); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

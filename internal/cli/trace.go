package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/ittm/internal/engine"
	"github.com/roach88/ittm/internal/ir"
	"github.com/roach88/ittm/internal/report"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string
	Machine  int // optional - filter to one machine; -1 for all
}

// TraceStep is one archived machine step.
type TraceStep struct {
	Stage        uint64     `json:"stage"`
	Machine      int        `json:"machine"`
	PersonalStep uint64     `json:"personal_step"`
	Read         ir.Symbol  `json:"read"`
	Write        ir.Symbol  `json:"write"`
	Next         ir.State   `json:"next"`
	Verdict      ir.Verdict `json:"verdict"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	RunID string      `json:"run_id"`
	Name  string      `json:"name"`
	Steps []TraceStep `json:"steps"`
	Stats TraceStats  `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	TotalSteps int    `json:"total_steps"`
	Stages     uint64 `json:"stages"`
	Finished   int    `json:"finished"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the step trace of an archived run",
		Long: `Show every machine step recorded for an archived run, grouped by
global stage.

Examples:
  ittm trace --db ./ittm.db --run 0190a3c4-...
  ittm trace --db ./ittm.db --run 0190a3c4-... --machine 3
  ittm trace --db ./ittm.db --run 0190a3c4-... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run id to trace (required)")
	_ = cmd.MarkFlagRequired("run")
	cmd.Flags().IntVar(&opts.Machine, "machine", -1, "only show steps of this machine")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := commandContext(cmd)

	st, err := openDatabase(formatter, opts.Database)
	if err != nil {
		return err
	}
	defer closeDatabase(st)

	rec, err := readRun(ctx, formatter, st, opts.RunID)
	if err != nil {
		return err
	}
	if opts.Machine >= rec.Size {
		msg := fmt.Sprintf("machine %d out of range [0, %d)", opts.Machine, rec.Size)
		_ = formatter.Error(ErrCodeGeneric, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	events, err := st.ReadSteps(ctx, rec.ID)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read steps", err)
	}
	events = filterSteps(events, opts.Machine)

	result := TraceResult{
		RunID: rec.ID,
		Name:  rec.Name,
		Steps: make([]TraceStep, len(events)),
		Stats: TraceStats{TotalSteps: len(events), Stages: rec.Stages},
	}
	for i, ev := range events {
		result.Steps[i] = TraceStep{
			Stage:        ev.Stage,
			Machine:      ev.Machine,
			PersonalStep: ev.PersonalStep,
			Read:         ev.Read,
			Write:        ev.Write,
			Next:         ev.Next,
			Verdict:      ev.Verdict,
		}
		if ev.Verdict.Terminal() {
			result.Stats.Finished++
		}
	}

	return formatter.Success(result, func(w io.Writer) error {
		fmt.Fprintf(w, "Run %s (%s), %d stages\n", rec.ID, rec.Name, rec.Stages)
		if len(events) == 0 {
			_, err := fmt.Fprintln(w, "No steps recorded.")
			return err
		}
		fmt.Fprintln(w)
		tw := report.NewTraceWriter(w)
		for _, ev := range events {
			tw.Observe(ev)
		}
		if err := tw.Err(); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "\n%d steps, %d machines finished\n", result.Stats.TotalSteps, result.Stats.Finished)
		return err
	})
}

// filterSteps keeps the steps of one machine; a negative machine keeps all.
func filterSteps(events []engine.StepEvent, machine int) []engine.StepEvent {
	if machine < 0 {
		return events
	}
	kept := make([]engine.StepEvent, 0, len(events))
	for _, ev := range events {
		if ev.Machine == machine {
			kept = append(kept, ev)
		}
	}
	return kept
}

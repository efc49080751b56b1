package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/ittm/internal/engine"
	"github.com/roach88/ittm/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - specific run only
	Workers  int
}

// ReplayRunResult holds the replay result for a single run.
type ReplayRunResult struct {
	RunID         string `json:"run_id"`
	Seq           int64  `json:"seq"`
	Name          string `json:"name"`
	Digest        string `json:"digest"`
	Deterministic bool   `json:"deterministic"`
	Diff          string `json:"diff,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Runs             []ReplayRunResult `json:"runs"`
	TotalRuns        int               `json:"total_runs"`
	AllDeterministic bool              `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-run archived runs and verify determinism",
		Long: `Rebuild archived populations, run each one twice and verify that both
reruns reproduce the archived result digest.

Exit codes:
  0 - All runs are deterministic
  1 - Determinism verification failed (differences detected)
  2 - Command error (database not found, etc.)

Examples:
  ittm replay --db ./ittm.db
  ittm replay --db ./ittm.db --run 0190a3c4-...
  ittm replay --db ./ittm.db --workers 8 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "replay specific run only")
	cmd.Flags().IntVar(&opts.Workers, "workers", 1, "machines stepped concurrently within a stage")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := commandContext(cmd)

	st, err := openDatabase(formatter, opts.Database)
	if err != nil {
		return err
	}
	defer closeDatabase(st)

	var reports []store.ReplayReport
	if opts.RunID != "" {
		if _, err := readRun(ctx, formatter, st, opts.RunID); err != nil {
			return err
		}
		rep, err := st.Replay(ctx, opts.RunID, engine.WithWorkers(opts.Workers))
		if err != nil {
			_ = formatter.Error(ErrCodeRunFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay run %s", opts.RunID), err)
		}
		reports = []store.ReplayReport{rep}
	} else {
		reports, err = st.ReplayAll(ctx, engine.WithWorkers(opts.Workers))
		if err != nil {
			_ = formatter.Error(ErrCodeRunFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to replay runs", err)
		}
	}

	result := ReplayResult{
		Runs:             make([]ReplayRunResult, 0, len(reports)),
		TotalRuns:        len(reports),
		AllDeterministic: true,
	}
	for _, rep := range reports {
		result.Runs = append(result.Runs, ReplayRunResult{
			RunID:         rep.Run.ID,
			Seq:           rep.Run.Seq,
			Name:          rep.Run.Name,
			Digest:        rep.Run.Digest,
			Deterministic: rep.Match,
			Diff:          rep.Diff,
		})
		if !rep.Match {
			result.AllDeterministic = false
		}
	}

	text := func(w io.Writer) error {
		return outputReplayText(w, result, opts.Verbose)
	}
	if !result.AllDeterministic {
		if err := formatter.Failure(ErrCodeRunFailed, "determinism verification failed", result, text); err != nil {
			return err
		}
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return formatter.Success(result, text)
}

func outputReplayText(w io.Writer, result ReplayResult, verbose bool) error {
	if result.TotalRuns == 0 {
		_, err := fmt.Fprintln(w, "No runs found in database.")
		return err
	}

	for _, r := range result.Runs {
		mark := "✓"
		if !r.Deterministic {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s run %d %s (%s)\n", mark, r.Seq, r.RunID, r.Name)
		if verbose {
			fmt.Fprintf(w, "    digest: %s\n", r.Digest)
		}
		if r.Diff != "" {
			fmt.Fprintf(w, "    %s\n", r.Diff)
		}
	}

	fmt.Fprintln(w)
	if result.AllDeterministic {
		_, err := fmt.Fprintf(w, "All %d run(s) replayed deterministically.\n", result.TotalRuns)
		return err
	}
	_, err := fmt.Fprintln(w, "Determinism verification FAILED.")
	return err
}

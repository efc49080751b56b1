package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/ittm/internal/ir"
	"github.com/roach88/ittm/internal/runquery"
	"github.com/roach88/ittm/internal/store"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Database  string
	Name      string // optional - filter to one population
	Outcome   string // optional - complete or inconclusive
	MinHalted int
	Limit     int
}

// RunEntry is one archived run in the runs listing.
type RunEntry struct {
	ID         string `json:"id"`
	Seq        int64  `json:"seq"`
	Name       string `json:"name"`
	Outcome    string `json:"outcome"`
	Stages     uint64 `json:"stages"`
	HaltingSet string `json:"halting_set"`
	Halted     int    `json:"halted"`
	Size       int    `json:"size"`
	Digest     string `json:"digest"`
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List archived runs",
		Long: `List the runs archived in a database, oldest first.

Examples:
  ittm runs --db ./ittm.db
  ittm runs --db ./ittm.db --name dovetail --format json
  ittm runs --db ./ittm.db --outcome inconclusive --limit 10
  ittm runs --db ./ittm.db --min-halted 5`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Name, "name", "", "only list runs of this population")
	cmd.Flags().StringVar(&opts.Outcome, "outcome", "", "only list runs with this outcome (complete, inconclusive)")
	cmd.Flags().IntVar(&opts.MinHalted, "min-halted", 0, "only list runs with at least this many halted machines")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "list at most this many runs (0 = all)")

	return cmd
}

func runRuns(opts *RunsOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := commandContext(cmd)

	q, err := opts.query()
	if err != nil {
		_ = formatter.Error(ErrCodeBadFilter, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid run filter", err)
	}

	st, err := openDatabase(formatter, opts.Database)
	if err != nil {
		return err
	}
	defer closeDatabase(st)

	runs, err := st.QueryRuns(ctx, q)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	entries := make([]RunEntry, len(runs))
	for i, r := range runs {
		entries[i] = RunEntry{
			ID:         r.ID,
			Seq:        r.Seq,
			Name:       r.Name,
			Outcome:    string(r.Outcome),
			Stages:     r.Stages,
			HaltingSet: r.HaltingSet,
			Halted:     r.Halted,
			Size:       r.Size,
			Digest:     r.Digest,
		}
	}

	return formatter.Success(entries, func(w io.Writer) error {
		if len(entries) == 0 {
			_, err := fmt.Fprintln(w, "No runs archived.")
			return err
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "SEQ\tID\tNAME\tOUTCOME\tSTAGES\tHALTED")
		for _, e := range entries {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d/%d\n", e.Seq, e.ID, e.Name, e.Outcome, e.Stages, e.Halted, e.Size)
		}
		return tw.Flush()
	})
}

// query builds the run filter from the flags.
func (opts *RunsOptions) query() (runquery.Query, error) {
	var preds []runquery.Predicate
	if opts.Name != "" {
		preds = append(preds, runquery.Equals{Column: "name", Value: opts.Name})
	}
	if opts.Outcome != "" {
		switch o := ir.Outcome(opts.Outcome); o {
		case ir.OutcomeComplete, ir.OutcomeInconclusive:
			preds = append(preds, runquery.Equals{Column: "outcome", Value: string(o)})
		default:
			return runquery.Query{}, fmt.Errorf("invalid outcome %q (must be %s or %s)", opts.Outcome, ir.OutcomeComplete, ir.OutcomeInconclusive)
		}
	}
	if opts.MinHalted > 0 {
		preds = append(preds, runquery.AtLeast{Column: "halted", Value: int64(opts.MinHalted)})
	}

	q := runquery.Query{Filter: runquery.Where(preds...), Limit: opts.Limit}
	if err := runquery.Validate(q); err != nil {
		return runquery.Query{}, err
	}
	return q, nil
}

// openDatabase opens an existing archive. Unlike store.Open it refuses to
// create a new database, so a mistyped path is reported instead of
// silently producing an empty archive.
func openDatabase(formatter *OutputFormatter, path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		msg := fmt.Sprintf("database not found: %s", path)
		_ = formatter.Error(ErrCodeNotFound, msg, nil)
		return nil, WrapExitError(ExitCommandError, msg, err)
	}
	st, err := store.Open(path)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func closeDatabase(st *store.Store) {
	if err := st.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// readRun looks up one archived run, reporting a missing id as not found.
func readRun(ctx context.Context, formatter *OutputFormatter, st *store.Store, id string) (store.RunRecord, error) {
	rec, err := st.ReadRun(ctx, id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		msg := fmt.Sprintf("run not found: %s", id)
		_ = formatter.Error(ErrCodeNotFound, msg, nil)
		return store.RunRecord{}, WrapExitError(ExitCommandError, msg, err)
	case err != nil:
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return store.RunRecord{}, WrapExitError(ExitCommandError, "failed to read run", err)
	}
	return rec, nil
}

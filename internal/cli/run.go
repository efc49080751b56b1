package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/roach88/ittm/internal/engine"
	"github.com/roach88/ittm/internal/ir"
	"github.com/roach88/ittm/internal/metrics"
	"github.com/roach88/ittm/internal/report"
	"github.com/roach88/ittm/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database      string
	Workers       int
	MaxStages     int
	StageInterval time.Duration
	Trace         bool
	MetricsFile   string

	// IDGenerator overrides run id generation when archiving (for testing).
	// If nil, the store default (UUIDv7) is used.
	IDGenerator store.IDGenerator
}

// RunOutput is the JSON payload of the run command.
type RunOutput struct {
	report.Summary
	RunID   string `json:"run_id,omitempty"`
	Seq     int64  `json:"seq,omitempty"`
	Warning string `json:"warning,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <population.cue>",
		Short: "Run a population to completion",
		Long: `Run every machine of a population under the dovetail schedule until all
of them are done or the stage budget is spent.

An inconclusive run is reported, not treated as a failure: the exit code is 0
and the undetermined machines are listed.

Example:
  ittm run ./populations/dovetail.cue
  ittm run --db ./ittm.db --workers 4 ./populations/champernowne.cue
  ittm run --trace --stage-interval 100ms ./populations/dovetail.cue`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPopulation(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "archive the run to this SQLite database")
	cmd.Flags().IntVar(&opts.Workers, "workers", 1, "machines stepped concurrently within a stage")
	cmd.Flags().IntVar(&opts.MaxStages, "max-stages", 0, "override the population's stage budget")
	cmd.Flags().DurationVar(&opts.StageInterval, "stage-interval", 0, "minimum wall-clock time between stages")
	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "print every machine step")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "write Prometheus metrics to this file after the run")

	return cmd
}

func runPopulation(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	pop, err := LoadPopulation(path)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	if opts.MaxStages > 0 {
		pop.Config.MaxStages = opts.MaxStages
	}
	if verrs := validatePopulation(pop); len(verrs) > 0 {
		return outputValidationErrors(formatter, verrs, nil)
	}

	m := metrics.New()
	engineOpts := []engine.Option{
		engine.WithWorkers(opts.Workers),
		engine.WithMetrics(m),
	}

	var events []engine.StepEvent
	if opts.Database != "" {
		engineOpts = append(engineOpts, engine.WithObserver(func(ev engine.StepEvent) {
			events = append(events, ev)
		}))
	}

	var trace *report.TraceWriter
	if opts.Trace {
		// In JSON mode the trace goes to stderr to keep stdout parseable
		var w io.Writer = formatter.Writer
		if formatter.JSON() {
			w = formatter.GetErrWriter()
		}
		trace = report.NewTraceWriter(w)
		engineOpts = append(engineOpts, engine.WithObserver(trace.Observe))
	}

	sched, err := engine.New(pop, engineOpts...)
	if err != nil {
		_ = formatter.Error(ErrCodeRunFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to create scheduler", err)
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("running population",
		"path", path,
		"name", pop.Name,
		"machines", len(pop.Machines),
		"workers", opts.Workers,
	)
	res, err := drive(ctx, sched, opts.StageInterval)
	if err != nil {
		_ = formatter.Error(ErrCodeRunFailed, fmt.Sprintf("run stopped at stage %d: %v", sched.Stage(), err), nil)
		return WrapExitError(ExitFailure, "run stopped", err)
	}
	if trace != nil && trace.Err() != nil {
		return WrapExitError(ExitCommandError, "failed to write trace", trace.Err())
	}

	summary, err := report.NewSummary(pop, res)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to summarize run", err)
	}
	out := RunOutput{Summary: summary}
	if err := res.Err(); err != nil {
		out.Warning = err.Error()
	}

	if opts.Database != "" {
		rec, err := archiveRun(ctx, opts.Database, opts.IDGenerator, pop, res, events)
		if err != nil {
			_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to archive run", err)
		}
		out.RunID = rec.ID
		out.Seq = rec.Seq
	}

	if opts.MetricsFile != "" {
		if err := m.WriteTextfile(opts.MetricsFile); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to write metrics", err)
		}
		formatter.VerboseLog("Metrics written to %s", opts.MetricsFile)
	}

	return formatter.Success(out, func(w io.Writer) error {
		if err := report.Write(w, pop, res); err != nil {
			return err
		}
		if out.Warning != "" {
			fmt.Fprintf(w, "\nWarning: %s\n", out.Warning)
		}
		if out.RunID != "" {
			fmt.Fprintf(w, "\nArchived run %s (seq %d)\n", out.RunID, out.Seq)
		}
		return nil
	})
}

// drive runs the scheduler to its outcome. A positive interval paces
// the stages with a token bucket; otherwise the run goes flat out.
func drive(ctx context.Context, sched *engine.Scheduler, interval time.Duration) (*engine.Result, error) {
	if interval <= 0 {
		return sched.Run(ctx)
	}

	limiter := rate.NewLimiter(rate.Every(interval), 1)
	for !sched.Finished() {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}
		if _, err := sched.Step(ctx); err != nil {
			if errors.Is(err, engine.ErrFinished) {
				break
			}
			return nil, err
		}
	}
	return sched.Result(), nil
}

// archiveRun writes a finished run and its step events to the database at path.
func archiveRun(ctx context.Context, path string, ids store.IDGenerator, pop *ir.Population, res *engine.Result, events []engine.StepEvent) (store.RunRecord, error) {
	var storeOpts []store.Option
	if ids != nil {
		storeOpts = append(storeOpts, store.WithIDGenerator(ids))
	}
	st, err := store.Open(path, storeOpts...)
	if err != nil {
		return store.RunRecord{}, fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	rec, err := store.NewRunRecord(pop, res)
	if err != nil {
		return store.RunRecord{}, err
	}
	rec, err = st.WriteRun(ctx, rec, res.Machines, events)
	if err != nil {
		return store.RunRecord{}, err
	}
	slog.Info("run archived", "id", rec.ID, "seq", rec.Seq, "db", path)
	return rec, nil
}

// commandContext returns the command's context, or Background when the
// command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

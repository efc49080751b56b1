package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/roach88/ittm/internal/engine"
	"github.com/roach88/ittm/internal/ir"
	"github.com/roach88/ittm/internal/report"
)

// StepOptions holds flags for the step command.
type StepOptions struct {
	*RootOptions
	Workers   int
	MaxStages int
}

const stepHelp = `Commands:
  <enter>, step [n]   execute one (or n) global stages
  run                 run to completion
  show                print every machine and the halting set
  machine <i>         print one machine
  help                show this help
  quit                stop and print the report`

// NewStepCommand creates the step command.
func NewStepCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StepOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "step <population.cue>",
		Short: "Step through a population interactively",
		Long: `Step through a population one global stage at a time.

Every machine step is printed as it happens. Press enter to advance a
stage, or type help for the other commands. When stdin is not a terminal
commands are read one per line, so a session can be scripted.

Example:
  ittm step ./populations/dovetail.cue
  printf 'step 10\nshow\nquit\n' | ittm step ./populations/dovetail.cue`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStep(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Workers, "workers", 1, "machines stepped concurrently within a stage")
	cmd.Flags().IntVar(&opts.MaxStages, "max-stages", 0, "override the population's stage budget")

	return cmd
}

// lineReader reads one command per call and returns io.EOF at end of input.
type lineReader interface {
	ReadLine(prompt string) (string, error)
	Close() error
}

// linerReader reads commands from a terminal with line editing and history.
type linerReader struct {
	ln *liner.State
}

func newLinerReader() *linerReader {
	ln := liner.NewLiner()
	ln.SetCtrlCAborts(true)
	return &linerReader{ln: ln}
}

func (r *linerReader) ReadLine(prompt string) (string, error) {
	line, err := r.ln.Prompt(prompt)
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", io.EOF
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(line) != "" {
		r.ln.AppendHistory(line)
	}
	return line, nil
}

func (r *linerReader) Close() error {
	return r.ln.Close()
}

// scanReader reads commands from a pipe or file. No prompt is printed.
type scanReader struct {
	sc *bufio.Scanner
}

func (r *scanReader) ReadLine(string) (string, error) {
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.sc.Text(), nil
}

func (r *scanReader) Close() error { return nil }

func newLineReader(cmd *cobra.Command) lineReader {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && f == os.Stdin && term.IsTerminal(int(f.Fd())) {
		return newLinerReader()
	}
	return &scanReader{sc: bufio.NewScanner(in)}
}

// stepSession is one interactive run.
type stepSession struct {
	sched *engine.Scheduler
	pop   *ir.Population
	w     io.Writer
}

func runStep(opts *StepOptions, path string, cmd *cobra.Command) error {
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

	// Interactive output stays off stdout in JSON mode
	var w io.Writer = formatter.Writer
	if formatter.JSON() {
		w = formatter.GetErrWriter()
	}

	trace := report.NewTraceWriter(w)
	sched, err := engine.New(pop,
		engine.WithWorkers(opts.Workers),
		engine.WithObserver(trace.Observe),
	)
	if err != nil {
		_ = formatter.Error(ErrCodeRunFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to create scheduler", err)
	}

	s := &stepSession{sched: sched, pop: pop, w: w}
	in := newLineReader(cmd)
	defer in.Close()

	fmt.Fprintf(w, "Population: %s (%d machines). Type help for commands.\n", pop.Name, len(pop.Machines))
	if err := s.loop(commandContext(cmd), in); err != nil {
		_ = formatter.Error(ErrCodeRunFailed, err.Error(), nil)
		return WrapExitError(ExitFailure, "step session failed", err)
	}
	if err := trace.Err(); err != nil {
		return WrapExitError(ExitCommandError, "failed to write trace", err)
	}

	res := sched.Result()
	summary, err := report.NewSummary(pop, res)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to summarize run", err)
	}
	fmt.Fprintln(w)
	return formatter.Success(RunOutput{Summary: summary}, func(w io.Writer) error {
		return report.Write(w, pop, res)
	})
}

// loop reads and executes commands until quit, end of input or the end of the run.
func (s *stepSession) loop(ctx context.Context, in lineReader) error {
	for !s.sched.Finished() {
		line, err := in.ReadLine(fmt.Sprintf("stage %d> ", s.sched.Stage()))
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		fields := strings.Fields(line)
		verb := ""
		if len(fields) > 0 {
			verb = strings.ToLower(fields[0])
		}

		switch verb {
		case "", "s", "step":
			n := 1
			if len(fields) > 1 {
				if n, err = strconv.Atoi(fields[1]); err != nil || n < 1 {
					fmt.Fprintf(s.w, "invalid stage count %q\n", fields[1])
					continue
				}
			}
			for i := 0; i < n && !s.sched.Finished(); i++ {
				if err := s.stage(ctx); err != nil {
					return err
				}
			}
		case "r", "run":
			for !s.sched.Finished() {
				if err := s.stage(ctx); err != nil {
					return err
				}
			}
		case "show":
			if err := s.show(); err != nil {
				return err
			}
		case "m", "machine":
			s.machine(fields[1:])
		case "h", "help", "?":
			fmt.Fprintln(s.w, stepHelp)
		case "q", "quit", "exit":
			return nil
		default:
			fmt.Fprintf(s.w, "unknown command %q. Type help for commands.\n", verb)
		}
	}
	return nil
}

// stage executes one stage. Step lines are printed by the trace observer.
func (s *stepSession) stage(ctx context.Context) error {
	rep, err := s.sched.Step(ctx)
	if errors.Is(err, engine.ErrFinished) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, i := range rep.Finished {
		snap, err := s.sched.Snapshot(i)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.w, "  -> %s\n", report.Termination(snap, rep.Stage))
	}
	if rep.Outcome != ir.OutcomeRunning {
		fmt.Fprintf(s.w, "Run %s after %d stages\n", rep.Outcome, rep.Stage)
	}
	return nil
}

func (s *stepSession) show() error {
	if err := report.WriteTable(s.w, s.sched.Snapshots()); err != nil {
		return err
	}
	return report.WriteHaltingSet(s.w, s.sched.HaltingSet())
}

func (s *stepSession) machine(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.w, "usage: machine <index>")
		return
	}
	i, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(s.w, "invalid machine index %q\n", args[0])
		return
	}
	snap, err := s.sched.Snapshot(i)
	if err != nil {
		fmt.Fprintln(s.w, err)
		return
	}
	fmt.Fprintln(s.w, report.RulesLine(i, s.pop.Machines[i].Table, s.pop.Machines[i].Description))
	fmt.Fprintf(s.w, "State %d, tape position %d, personal step %d, verdict %s\n",
		snap.State, snap.TapePosition, snap.PersonalStep, snap.Verdict)
	fmt.Fprintf(s.w, "Window: %s\n", report.Window(snap))
}

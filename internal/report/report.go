package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/roach88/ittm/internal/engine"
	"github.com/roach88/ittm/internal/ir"
)

const (
	headerFormat = "%-8s %-6s %-6s %-5s %-10s %-13s %s\n"
	rowFormat    = "%-8d %-6d %-6d %-5d %-10d %-13s %s\n"
)

// Write renders the full text report of a finished run.
func Write(w io.Writer, pop *ir.Population, res *engine.Result) error {
	ew := &errWriter{w: w}
	ew.printf("Population: %s (%d machines)\n", pop.Name, len(res.Machines))
	ew.printf("Outcome: %s after %d stages\n\n", res.Outcome, res.Stages)
	ew.printf("Final Machine States and Simulation Window:\n")
	writeTable(ew, res.Machines)
	ew.printf("\n")
	writeHaltingSet(ew, res.HaltingSet.String(), res.Halted())
	ew.printf("\n")
	for _, m := range res.Machines {
		ew.printf("%s\n", Termination(m, res.Stages))
	}
	return ew.err
}

// WriteTable renders the machine table with a header row.
func WriteTable(w io.Writer, machines []ir.MachineSnapshot) error {
	ew := &errWriter{w: w}
	writeTable(ew, machines)
	return ew.err
}

func writeTable(ew *errWriter, machines []ir.MachineSnapshot) {
	ew.printf(headerFormat, "Machine", "State", "Pos", "Done", "HaltStep", "Verdict", "Window")
	for _, m := range machines {
		done := 0
		if m.Done {
			done = 1
		}
		ew.printf(rowFormat, m.Index, m.State, m.TapePosition, done, m.HaltStep, m.Verdict, Window(m))
	}
}

// Window renders the history buffer in slot order, bracketing the slot
// written by the latest step.
func Window(m ir.MachineSnapshot) string {
	last := -1
	if m.HaltStep > 0 && len(m.Window) > 0 {
		last = int((m.HaltStep - 1) % uint64(len(m.Window)))
	}

	var sb strings.Builder
	sb.WriteByte('[')
	for j, s := range m.Window {
		if j > 0 {
			sb.WriteByte(',')
		}
		if j == last {
			fmt.Fprintf(&sb, "[%d]", s)
		} else {
			fmt.Fprintf(&sb, "%d", s)
		}
	}
	sb.WriteByte(']')
	return sb.String()
}

// WriteHaltingSet renders the halting set in groups of eight followed by
// the halted count.
func WriteHaltingSet(w io.Writer, hs *engine.HaltingSet) error {
	ew := &errWriter{w: w}
	writeHaltingSet(ew, hs.String(), hs.Count())
	return ew.err
}

func writeHaltingSet(ew *errWriter, bits string, halted int) {
	ew.printf("Tape 4 (1=halted):\n")
	ew.printf("%s\n", Group(bits, 8))
	ew.printf("Halted: %d/%d\n", halted, len(bits))
}

// Group splits bits into space-separated groups of n.
func Group(bits string, n int) string {
	if n <= 0 || len(bits) <= n {
		return bits
	}
	groups := make([]string, 0, (len(bits)+n-1)/n)
	for start := 0; start < len(bits); start += n {
		groups = append(groups, bits[start:min(start+n, len(bits))])
	}
	return strings.Join(groups, " ")
}

// Termination describes how a machine finished. stages is the run's final
// stage count, used for machines that never finished.
func Termination(m ir.MachineSnapshot, stages uint64) string {
	switch m.Verdict {
	case ir.VerdictHalted:
		return fmt.Sprintf("Machine %d halted at step %d", m.Index, m.HaltStep)
	case ir.VerdictLooped:
		return fmt.Sprintf("Machine %d looped at step %d (period %d)", m.Index, m.HaltStep, m.Period)
	case ir.VerdictFaulted:
		return fmt.Sprintf("Machine %d faulted at step %d", m.Index, m.HaltStep)
	default:
		return fmt.Sprintf("Machine %d still running at stage %d", m.Index, stages)
	}
}

// TraceLine renders one step event.
func TraceLine(ev engine.StepEvent) string {
	return fmt.Sprintf("Machine %d: Personal step %d (global stage %d), Read %d, Write %d, Next State %d",
		ev.Machine, ev.PersonalStep, ev.Stage, ev.Read, ev.Write, ev.Next)
}

// RulesLine renders a rule table in row-major order as [symbol->write,next]
// pairs, followed by the description if any.
func RulesLine(index int, t *ir.RuleTable, description string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Machine %d: Rules=", index)
	first := true
	for _, row := range t.Rows() {
		for sym, r := range row {
			if !first {
				sb.WriteByte(' ')
			}
			first = false
			fmt.Fprintf(&sb, "[%d->%d,%d]", sym, r.Write, r.Next)
		}
	}
	if description != "" {
		sb.WriteByte(' ')
		sb.WriteString(description)
	}
	return sb.String()
}

// errWriter keeps the first write error so rendering code stays linear.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

package rulegen

import (
	"fmt"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/roach88/ittm/internal/ir"
)

var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
}

// ScriptDefaults are used when a script does not define STATES, SYMBOLS or COUNT.
type ScriptDefaults struct {
	States  int
	Symbols int
	Count   int
}

// FromStarlark executes a script and builds COUNT rule tables from its
// rule(machine, state, symbol) function, which must return a
// (write, next) pair. next == STATES means HALT.
//
// The script may set the globals STATES, SYMBOLS and COUNT; otherwise the
// defaults apply. The script runs once; rule is called for every
// (machine, state, symbol) triple in ascending order.
func FromStarlark(filename string, src []byte, defaults ScriptDefaults) ([]*ir.RuleTable, error) {
	thread := &starlark.Thread{Name: filename}
	globals, err := starlark.ExecFileOptions(fileOptions, thread, filename, src, nil)
	if err != nil {
		return nil, fmt.Errorf("exec %s: %w", filename, err)
	}

	ruleFn, ok := globals["rule"].(starlark.Callable)
	if !ok {
		return nil, fmt.Errorf("%s: rule(machine, state, symbol) is not defined", filename)
	}

	states, err := intGlobal(globals, "STATES", defaults.States)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	symbols, err := intGlobal(globals, "SYMBOLS", defaults.Symbols)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	count, err := intGlobal(globals, "COUNT", defaults.Count)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	if states < 1 || symbols < 1 || count < 0 {
		return nil, fmt.Errorf("%s: STATES=%d SYMBOLS=%d COUNT=%d out of range", filename, states, symbols, count)
	}

	tables := make([]*ir.RuleTable, count)
	for m := 0; m < count; m++ {
		rows := make([][]ir.Rule, states)
		for s := 0; s < states; s++ {
			rows[s] = make([]ir.Rule, symbols)
			for sym := 0; sym < symbols; sym++ {
				rule, err := callRule(thread, ruleFn, m, s, sym)
				if err != nil {
					return nil, fmt.Errorf("%s: rule(%d, %d, %d): %w", filename, m, s, sym, err)
				}
				rows[s][sym] = rule
			}
		}
		table, err := ir.NewRuleTable(states, symbols, rows)
		if err != nil {
			return nil, fmt.Errorf("%s: machine %d: %w", filename, m, err)
		}
		tables[m] = table
	}
	return tables, nil
}

func intGlobal(globals starlark.StringDict, name string, def int) (int, error) {
	v, ok := globals[name]
	if !ok {
		return def, nil
	}
	n, err := starlark.AsInt32(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return n, nil
}

func callRule(thread *starlark.Thread, fn starlark.Callable, m, s, sym int) (ir.Rule, error) {
	args := starlark.Tuple{starlark.MakeInt(m), starlark.MakeInt(s), starlark.MakeInt(sym)}
	out, err := starlark.Call(thread, fn, args, nil)
	if err != nil {
		return ir.Rule{}, err
	}
	pair, ok := out.(starlark.Indexable)
	if !ok || pair.Len() != 2 {
		return ir.Rule{}, fmt.Errorf("want (write, next), got %s", out.Type())
	}
	write, err := starlark.AsInt32(pair.Index(0))
	if err != nil {
		return ir.Rule{}, fmt.Errorf("write: %w", err)
	}
	next, err := starlark.AsInt32(pair.Index(1))
	if err != nil {
		return ir.Rule{}, fmt.Errorf("next: %w", err)
	}
	if write < 0 || write >= ir.MaxSymbols || next < 0 || next > ir.MaxStates {
		return ir.Rule{}, fmt.Errorf("write %d or next %d out of range", write, next)
	}
	return ir.Rule{Write: ir.Symbol(write), Next: ir.State(next)}, nil
}

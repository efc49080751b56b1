// Package testutil provides rule-table and population builders shared by
// the package tests.
package testutil

import (
	"fmt"

	"github.com/roach88/ittm/internal/ir"
)

// HaltAfter returns a table that enters HALT on exactly its k-th step,
// whatever the tape holds. States 0..k-1 each advance to the next state and
// write 0. k must be in [1, 255].
func HaltAfter(k int) *ir.RuleTable {
	rows := make([][]ir.Rule, k)
	for s := range rows {
		rows[s] = []ir.Rule{
			{Write: 0, Next: ir.State(s + 1)},
			{Write: 0, Next: ir.State(s + 1)},
		}
	}
	return ir.MustRuleTable(k, 2, rows)
}

// SelfLoop returns a one-state, two-symbol table that writes back the
// symbol it reads and never leaves state 0.
func SelfLoop() *ir.RuleTable {
	return ir.MustRuleTable(1, 2, [][]ir.Rule{
		{{Write: 0, Next: 0}, {Write: 1, Next: 0}},
	})
}

// Constant returns a one-state table that always writes sym.
func Constant(sym ir.Symbol) *ir.RuleTable {
	numSymbols := max(int(sym)+1, 2)
	row := make([]ir.Rule, numSymbols)
	for i := range row {
		row[i] = ir.Rule{Write: sym, Next: 0}
	}
	return ir.MustRuleTable(1, numSymbols, [][]ir.Rule{row})
}

// Counter returns a p-state, p-symbol table whose written sequence is
// 0, 1, ..., p-1, 0, 1, ... regardless of the tape. Its smallest period is p.
// p must be in [2, 255].
func Counter(p int) *ir.RuleTable {
	rows := make([][]ir.Rule, p)
	for s := range rows {
		row := make([]ir.Rule, p)
		for sym := range row {
			row[sym] = ir.Rule{Write: ir.Symbol(s), Next: ir.State((s + 1) % p)}
		}
		rows[s] = row
	}
	return ir.MustRuleTable(p, p, rows)
}

// Toggle returns a two-state table that always writes 0 while alternating
// between states 0 and 1. Observing writes it has period 1; observing
// states it has period 2.
func Toggle() *ir.RuleTable {
	return ir.MustRuleTable(2, 2, [][]ir.Rule{
		{{Write: 0, Next: 1}, {Write: 0, Next: 1}},
		{{Write: 0, Next: 0}, {Write: 0, Next: 0}},
	})
}

// Machines wraps tables into machine specs named m0, m1, ...
func Machines(tables ...*ir.RuleTable) []ir.MachineSpec {
	specs := make([]ir.MachineSpec, len(tables))
	for i, t := range tables {
		specs[i] = ir.MachineSpec{Name: fmt.Sprintf("m%d", i), Table: t}
	}
	return specs
}

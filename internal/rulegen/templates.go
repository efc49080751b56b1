package rulegen

import (
	"fmt"

	"github.com/roach88/ittm/internal/ir"
)

// Template is a built-in rule table with a short description of its
// behavior on a blank tape.
type Template struct {
	Index       int
	Description string
	Halts       bool
	Table       *ir.RuleTable
}

// templateRows holds the working-state rows only; HALT (state 2) has no
// outgoing rules.
var templateRows = [20][2][2]ir.Rule{
	{{{0, 0}, {0, 0}}, {{0, 0}, {0, 0}}},
	{{{1, 1}, {1, 1}}, {{1, 2}, {1, 2}}},
	{{{0, 1}, {1, 0}}, {{1, 0}, {0, 1}}},
	{{{1, 1}, {1, 1}}, {{1, 1}, {1, 1}}},
	{{{1, 1}, {1, 1}}, {{0, 2}, {0, 2}}},
	{{{1, 2}, {1, 2}}, {{0, 0}, {0, 0}}},
	{{{0, 1}, {0, 1}}, {{0, 1}, {0, 1}}},
	{{{1, 1}, {1, 1}}, {{1, 2}, {1, 2}}},
	{{{0, 2}, {0, 2}}, {{0, 0}, {0, 0}}},
	{{{0, 0}, {1, 1}}, {{0, 2}, {0, 2}}},
	{{{1, 1}, {1, 0}}, {{1, 0}, {1, 1}}},
	{{{0, 2}, {0, 2}}, {{0, 0}, {0, 0}}},
	{{{0, 1}, {0, 1}}, {{0, 2}, {0, 2}}},
	{{{1, 2}, {1, 2}}, {{0, 0}, {0, 0}}},
	{{{0, 0}, {0, 0}}, {{0, 0}, {0, 0}}},
	{{{0, 0}, {0, 0}}, {{0, 0}, {0, 0}}},
	{{{0, 1}, {0, 0}}, {{0, 0}, {0, 1}}},
	{{{0, 2}, {0, 2}}, {{0, 0}, {0, 0}}},
	{{{0, 1}, {0, 0}}, {{0, 0}, {0, 1}}},
	{{{0, 1}, {0, 0}}, {{1, 0}, {1, 1}}},
}

var templateDescriptions = [20]string{
	"Loop (stay in state 0)",
	"Halt after two steps",
	"Loop (cycle 0<->1)",
	"Loop (write 1, stay 1)",
	"Halt after two steps",
	"Halt immediately",
	"Loop (write 0, stay 1)",
	"Halt after two steps",
	"Halt immediately",
	"Halt after three steps",
	"Loop (write 1, cycle 0<->1)",
	"Halt immediately",
	"Halt after two steps",
	"Halt immediately",
	"Loop (stay in state 0)",
	"Loop (stay in state 0)",
	"Loop (write 0, cycle 0<->1)",
	"Halt immediately",
	"Loop (write 0, cycle 0<->1)",
	"Loop (write 0, cycle 0<->1)",
}

// NumTemplates is the number of built-in templates.
const NumTemplates = len(templateRows)

var templates = buildTemplates()

func buildTemplates() []Template {
	out := make([]Template, NumTemplates)
	for i, rows := range templateRows {
		table := ir.MustRuleTable(2, 2, [][]ir.Rule{rows[0][:], rows[1][:]})
		out[i] = Template{
			Index:       i,
			Description: templateDescriptions[i],
			Halts:       reachesHalt(table),
			Table:       table,
		}
	}
	return out
}

// reachesHalt reports whether any rule enters HALT.
func reachesHalt(t *ir.RuleTable) bool {
	for _, row := range t.Rows() {
		for _, rule := range row {
			if rule.Next == t.HaltState() {
				return true
			}
		}
	}
	return false
}

// Templates returns the built-in templates in index order.
func Templates() []Template {
	out := make([]Template, len(templates))
	copy(out, templates)
	return out
}

// TemplateFor returns the template assigned to machine i (i mod 20).
func TemplateFor(i int) Template {
	return templates[i%NumTemplates]
}

// DovetailPopulation builds the classic blank-tape population: n machines
// cycling through the templates, every tape zero except machine 9, whose
// cell 1 holds a 1.
func DovetailPopulation(n int) *ir.Population {
	cfg := ir.DefaultConfig()
	if n > cfg.MaxPopulation {
		cfg.MaxPopulation = n
	}
	machines := make([]ir.MachineSpec, n)
	for i := range machines {
		tpl := TemplateFor(i)
		machines[i] = ir.MachineSpec{
			Name:        fmt.Sprintf("template-%d", tpl.Index),
			Description: tpl.Description,
			Table:       tpl.Table,
		}
		if i == 9 {
			machines[i].Tape = ir.TapeSpec{Set: map[int]ir.Symbol{1: 1}}
		}
	}
	return &ir.Population{
		Name:     "dovetail",
		Config:   cfg,
		Machines: machines,
	}
}

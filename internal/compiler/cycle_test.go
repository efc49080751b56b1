package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ittm/internal/ir"
	"github.com/roach88/ittm/internal/testutil"
)

func table(states, symbols int, rows ...[]ir.Rule) *ir.RuleTable {
	return ir.MustRuleTable(states, symbols, rows)
}

func TestAnalyzeTables_Empty(t *testing.T) {
	warnings := AnalyzeTables(&ir.Population{Config: ir.DefaultConfig()})
	assert.Empty(t, warnings)
}

func TestAnalyzeTables_Halter(t *testing.T) {
	pop := testutil.Population(ir.DefaultConfig(), testutil.HaltAfter(3))
	assert.Empty(t, AnalyzeTables(pop))
}

func TestAnalyzeTables_HaltUnreachable(t *testing.T) {
	pop := testutil.Population(ir.DefaultConfig(), testutil.HaltAfter(1), testutil.SelfLoop())

	warnings := AnalyzeTables(pop)
	require.Len(t, warnings, 1)
	assert.Equal(t, 1, warnings[0].Machine)
	assert.Equal(t, "warning", warnings[0].Level)
	assert.Contains(t, warnings[0].Message, "unreachable")
}

func TestAnalyzeTables_SelfTrap(t *testing.T) {
	// 0 -> {1, HALT}; 1 -> 1
	tbl := table(2, 2,
		[]ir.Rule{{Write: 0, Next: 1}, {Write: 0, Next: 2}},
		[]ir.Rule{{Write: 0, Next: 1}, {Write: 1, Next: 1}},
	)
	pop := testutil.Population(ir.DefaultConfig(), tbl)

	warnings := AnalyzeTables(pop)
	require.Len(t, warnings, 1)
	assert.Equal(t, "info", warnings[0].Level)
	assert.Equal(t, []string{"1", "1"}, warnings[0].Path)
	assert.Contains(t, warnings[0].Message, "1 → 1")
}

func TestAnalyzeTables_MultiStateTrap(t *testing.T) {
	// 0 -> {1, HALT}; 1 -> 2; 2 -> 1
	tbl := table(3, 2,
		[]ir.Rule{{Write: 0, Next: 1}, {Write: 0, Next: 3}},
		[]ir.Rule{{Write: 0, Next: 2}, {Write: 0, Next: 2}},
		[]ir.Rule{{Write: 1, Next: 1}, {Write: 1, Next: 1}},
	)
	pop := testutil.Population(ir.DefaultConfig(), tbl)

	warnings := AnalyzeTables(pop)
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"1", "2", "1"}, warnings[0].Path)
}

// TestAnalyzeTables_OpenCycle verifies a cycle with an exit to HALT is not a trap.
func TestAnalyzeTables_OpenCycle(t *testing.T) {
	// 0 -> {1}; 1 -> {0, HALT}
	tbl := table(2, 2,
		[]ir.Rule{{Write: 0, Next: 1}, {Write: 0, Next: 1}},
		[]ir.Rule{{Write: 0, Next: 0}, {Write: 0, Next: 2}},
	)
	pop := testutil.Population(ir.DefaultConfig(), tbl)
	assert.Empty(t, AnalyzeTables(pop))
}

func TestAnalyzeTables_UnreachableTrapIgnored(t *testing.T) {
	// 0 -> HALT; 1 -> 1 is never entered.
	tbl := table(2, 2,
		[]ir.Rule{{Write: 0, Next: 2}, {Write: 0, Next: 2}},
		[]ir.Rule{{Write: 0, Next: 1}, {Write: 0, Next: 1}},
	)
	pop := testutil.Population(ir.DefaultConfig(), tbl)
	assert.Empty(t, AnalyzeTables(pop))
}

func TestAnalyzeTables_TapeSymbolOutsideAlphabet(t *testing.T) {
	pop := testutil.Population(ir.DefaultConfig(), testutil.HaltAfter(1))
	pop.Machines[0].Tape = ir.TapeSpec{Cells: ir.Symbols{0, 0, 5}}

	warnings := AnalyzeTables(pop)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "tape symbol 5 at cell 2")
}

func TestAnalyzeTables_SourceSymbolOutsideAlphabet(t *testing.T) {
	pop := testutil.SharedPopulation(ir.DefaultConfig(), ir.Symbols{0, 1, 3}, testutil.HaltAfter(1))

	warnings := AnalyzeTables(pop)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "source symbol 3 at cell 2")
}

func TestAnalyzeTables_Templates(t *testing.T) {
	pop, err := CompileSource("t.cue", []byte(`generate: templates: count: 20`), t.TempDir())
	require.NoError(t, err)

	unreachable := 0
	for _, w := range AnalyzeTables(pop) {
		if w.Level == "warning" {
			unreachable++
		}
	}
	assert.Equal(t, 10, unreachable)
}

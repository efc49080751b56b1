package rulegen

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ittm/internal/engine"
	"github.com/roach88/ittm/internal/ir"
)

func TestTemplates_Balanced(t *testing.T) {
	tpls := Templates()
	require.Len(t, tpls, 20)

	halting := 0
	for i, tpl := range tpls {
		assert.Equal(t, i, tpl.Index)
		assert.Equal(t, 2, tpl.Table.NumStates(), "template %d", i)
		assert.Equal(t, 2, tpl.Table.NumSymbols(), "template %d", i)
		assert.Equal(t, tpl.Halts, strings.HasPrefix(tpl.Description, "Halt"), "template %d: %s", i, tpl.Description)
		if tpl.Halts {
			halting++
		}
	}
	assert.Equal(t, 10, halting)
}

func TestTemplateFor_Cycles(t *testing.T) {
	assert.Equal(t, 5, TemplateFor(25).Index)
	assert.Equal(t, 0, TemplateFor(20).Index)
	assert.True(t, TemplateFor(9).Table.Equal(Templates()[9].Table))
}

func TestTemplates_ReturnsCopy(t *testing.T) {
	tpls := Templates()
	tpls[0].Description = "changed"

	assert.Equal(t, "Loop (stay in state 0)", Templates()[0].Description)
}

func TestDovetailPopulation(t *testing.T) {
	pop := DovetailPopulation(20)

	require.NoError(t, pop.Config.Validate())
	require.Len(t, pop.Machines, 20)
	assert.Equal(t, "template-9", pop.Machines[9].Name)
	assert.Equal(t, map[int]ir.Symbol{1: 1}, pop.Machines[9].Tape.Set)
	assert.Nil(t, pop.Machines[8].Tape.Set)
	assert.Equal(t, "Halt after three steps", pop.Machines[9].Description)
}

func TestDovetailPopulation_RaisesCapacity(t *testing.T) {
	pop := DovetailPopulation(100)
	assert.Equal(t, 100, pop.Config.MaxPopulation)
}

// TestDovetailPopulation_Run pins the verdicts of the classic 20-machine run.
func TestDovetailPopulation_Run(t *testing.T) {
	s, err := engine.New(DovetailPopulation(20))
	require.NoError(t, err)

	res, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, ir.OutcomeComplete, res.Outcome)
	assert.Equal(t, uint64(119), res.Stages)
	assert.Equal(t, "01001101110111000100", res.HaltingSet.String())
	assert.Equal(t, 10, res.Halted())

	// Machine 9's seeded 1 drives it through state 1 before halting.
	assert.Equal(t, uint64(3), res.Machines[9].HaltStep)
	assert.Equal(t, ir.VerdictHalted, res.Machines[9].Verdict)

	// Template 19 alternates its writes.
	assert.Equal(t, ir.VerdictLooped, res.Machines[19].Verdict)
	assert.Equal(t, 2, res.Machines[19].Period)
	assert.Equal(t, uint64(100), res.Machines[19].HaltStep)
}

package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ittm/internal/ir"
)

func TestHaltAfter(t *testing.T) {
	table := HaltAfter(3)
	assert.Equal(t, 3, table.NumStates())

	state := ir.State(0)
	for step := 1; step <= 3; step++ {
		r, err := table.Lookup(state, 1)
		require.NoError(t, err)
		state = r.Next
	}
	assert.Equal(t, table.HaltState(), state)
}

func TestCounter(t *testing.T) {
	table := Counter(3)

	var writes []ir.Symbol
	state := ir.State(0)
	for i := 0; i < 6; i++ {
		r, err := table.Lookup(state, 0)
		require.NoError(t, err)
		writes = append(writes, r.Write)
		state = r.Next
	}
	assert.Equal(t, []ir.Symbol{0, 1, 2, 0, 1, 2}, writes)
}

func TestConstant(t *testing.T) {
	table := Constant(1)
	assert.Equal(t, 2, table.NumSymbols())

	r, err := table.Lookup(0, 0)
	require.NoError(t, err)
	assert.Equal(t, ir.Rule{Write: 1, Next: 0}, r)
}

func TestPopulation(t *testing.T) {
	p := Population(Config(4, 8, 10), SelfLoop(), Toggle())

	require.NoError(t, p.Config.Validate())
	require.Len(t, p.Machines, 2)
	assert.Equal(t, "m1", p.Machines[1].Name)
	assert.False(t, p.Shared())

	shared := SharedPopulation(p.Config, ir.Symbols{1, 0}, SelfLoop())
	assert.True(t, shared.Shared())
}

package rulegen

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ittm/internal/engine"
	"github.com/roach88/ittm/internal/ir"
)

func TestChampernowne(t *testing.T) {
	assert.Equal(t, "123456789101112", Champernowne(12))
	assert.Len(t, Champernowne(1000), 2893)
	assert.Equal(t, "", Champernowne(0))
}

func TestParity(t *testing.T) {
	assert.Equal(t, ir.Symbols{1, 0, 1, 0, 1, 0}, Parity("123450"))
	assert.Equal(t, ir.Symbols{0, 1}, Parity("x7"))
}

func TestParseNumbers(t *testing.T) {
	tests := []struct {
		name     string
		digits   string
		count    int
		expected []int
	}{
		{"champernowne prefix", Champernowne(1000), 4, []int{1234, 5678, 9101, 1121}},
		{"short tail", "12345", 5, []int{1234, 5}},
		{"leading zero", "10001", 2, []int{1000, 1}},
		{"empty", "", 3, nil},
		{"count limits", "11112222", 1, []int{1111}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseNumbers(tt.digits, tt.count))
		})
	}
}

func TestArchetypeFor(t *testing.T) {
	assert.Equal(t, ArchetypeCycleProne, ArchetypeFor(0))
	assert.Equal(t, ArchetypeCycleProne, ArchetypeFor(1))
	assert.Equal(t, ArchetypeMixed, ArchetypeFor(2))
	assert.Equal(t, ArchetypeHaltProne, ArchetypeFor(3))
	assert.Equal(t, ArchetypeCycleProne, ArchetypeFor(4))
	assert.Equal(t, ArchetypeHaltProne, ArchetypeFor(7))
}

// TestArchetype_Table verifies archetypes echo the read symbol and only
// choose next states.
func TestArchetype_Table(t *testing.T) {
	table := ArchetypeMixed.Table()

	r, err := table.Lookup(1, 0)
	require.NoError(t, err)
	assert.Equal(t, ir.Rule{Write: 0, Next: 2}, r)

	r, err = table.Lookup(1, 1)
	require.NoError(t, err)
	assert.Equal(t, ir.Rule{Write: 1, Next: 0}, r)

	r, err = ArchetypeHaltProne.Table().Lookup(0, 1)
	require.NoError(t, err)
	assert.Equal(t, ir.Rule{Write: 1, Next: 1}, r)
}

func TestChampernownePopulation(t *testing.T) {
	pop, info := ChampernownePopulation(32, 1000)

	require.NoError(t, pop.Config.Validate())
	require.Len(t, pop.Machines, 32)
	require.Len(t, info, 32)
	assert.True(t, pop.Shared())
	assert.Len(t, pop.Source, 2893)

	assert.Equal(t, 1234, info[0].Number)
	assert.Equal(t, "2^1 × 617", info[0].Factorization.String())
	assert.Equal(t, ArchetypeCycleProne, info[0].Archetype)

	assert.Equal(t, 1222, info[8].Number)
	assert.Equal(t, ArchetypeHaltProne, info[8].Archetype)

	assert.Equal(t, "n1234", pop.Machines[0].Name)
}

// TestChampernownePopulation_FewerChunks verifies machines past the parsed
// chunks fall back to i+1.
func TestChampernownePopulation_FewerChunks(t *testing.T) {
	_, info := ChampernownePopulation(5, 9)

	// "123456789" yields 1234, 5678, 9.
	assert.Equal(t, []int{1234, 5678, 9, 4, 5}, []int{
		info[0].Number, info[1].Number, info[2].Number, info[3].Number, info[4].Number,
	})
}

// TestChampernownePopulation_Run pins the verdicts of the 32-machine run.
func TestChampernownePopulation_Run(t *testing.T) {
	pop, _ := ChampernownePopulation(32, 1000)
	s, err := engine.New(pop)
	require.NoError(t, err)

	res, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, ir.OutcomeComplete, res.Outcome)
	assert.Equal(t, uint64(62), res.Stages)
	assert.Equal(t, "01010001101111001010000100111000", res.HaltingSet.String())
	assert.Equal(t, 14, res.Halted())

	assert.Equal(t, ir.VerdictLooped, res.Machines[0].Verdict)
	assert.Equal(t, uint64(31), res.Machines[0].HaltStep)
	assert.Equal(t, ir.VerdictHalted, res.Machines[1].Verdict)
	assert.Equal(t, uint64(2), res.Machines[1].HaltStep)
}

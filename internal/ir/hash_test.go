package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshots() []MachineSnapshot {
	return []MachineSnapshot{
		{Index: 0, Name: "halt", State: 2, TapePosition: 1, PersonalStep: 1, Done: true, HaltStep: 1, Verdict: VerdictHalted, FirstStage: 1, Window: Symbols{1, 0, 0, 0}},
		{Index: 1, Name: "loop", State: 0, TapePosition: 8, PersonalStep: 8, Done: true, HaltStep: 8, Verdict: VerdictLooped, Period: 1, FirstStage: 2, Window: Symbols{0, 0, 0, 0}},
	}
}

func TestResultDigestDeterminism(t *testing.T) {
	d1, err := ResultDigest(OutcomeComplete, 9, "10", sampleSnapshots())
	require.NoError(t, err)
	d2, err := ResultDigest(OutcomeComplete, 9, "10", sampleSnapshots())
	require.NoError(t, err)

	assert.Equal(t, d1, d2, "ResultDigest must be deterministic")
	assert.Len(t, d1, 64, "SHA-256 hex is 64 characters")
}

func TestResultDigestChangesWithInput(t *testing.T) {
	base := MustResultDigest(OutcomeComplete, 9, "10", sampleSnapshots())

	changed := sampleSnapshots()
	changed[1].HaltStep = 9

	assert.NotEqual(t, base, MustResultDigest(OutcomeInconclusive, 9, "10", sampleSnapshots()), "outcome")
	assert.NotEqual(t, base, MustResultDigest(OutcomeComplete, 10, "10", sampleSnapshots()), "stages")
	assert.NotEqual(t, base, MustResultDigest(OutcomeComplete, 9, "11", sampleSnapshots()), "halting set")
	assert.NotEqual(t, base, MustResultDigest(OutcomeComplete, 9, "10", changed), "snapshot")
}

func TestHashWithDomainSeparation(t *testing.T) {
	data := []byte(`{"a":1}`)
	assert.NotEqual(t, hashWithDomain(DomainResult, data), hashWithDomain(DomainPopulation, data))
}

func TestPopulationDigest(t *testing.T) {
	table := MustRuleTable(1, 2, [][]Rule{{{Write: 1, Next: 1}, {Write: 0, Next: 0}}})
	p := &Population{
		Name:   "p",
		Config: DefaultConfig(),
		Machines: []MachineSpec{
			{Name: "m0", Table: table, Tape: TapeSpec{Set: map[int]Symbol{3: 1}}},
		},
	}

	d1, err := PopulationDigest(p)
	require.NoError(t, err)
	d2, err := PopulationDigest(p)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)

	p.Machines[0].Tape.Set[4] = 1
	d3, err := PopulationDigest(p)
	require.NoError(t, err)
	assert.NotEqual(t, d1, d3)
}

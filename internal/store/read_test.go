package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ittm/internal/ir"
	"github.com/roach88/ittm/internal/runquery"
	"github.com/roach88/ittm/internal/testutil"
)

func TestReadRun_Exists(t *testing.T) {
	s := createTestStore(t)
	pop := mixedPopulation()
	written, _, _ := archiveRun(t, s, pop, false)

	rec, err := s.ReadRun(context.Background(), written.ID)
	require.NoError(t, err)

	assert.Equal(t, written.ID, rec.ID)
	assert.Equal(t, written.Seq, rec.Seq)
	assert.Equal(t, written.Digest, rec.Digest)
	assert.Equal(t, written.PopulationDigest, rec.PopulationDigest)
	assert.Equal(t, uint64(20), rec.Stages)
	assert.Equal(t, ir.OutcomeInconclusive, rec.Outcome)
	assert.Equal(t, "100", rec.HaltingSet)

	// The archived population is rebuilt well enough to hash identically.
	digest, err := ir.PopulationDigest(rec.Population)
	require.NoError(t, err)
	assert.Equal(t, written.PopulationDigest, digest)
	require.Len(t, rec.Population.Machines, 3)
	assert.True(t, pop.Machines[2].Table.Equal(rec.Population.Machines[2].Table))
	assert.Equal(t, pop.Config, rec.Population.Config)
}

func TestReadRun_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadRun(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestListRuns_Empty(t *testing.T) {
	s := createTestStore(t)

	runs, err := s.ListRuns(context.Background(), "")
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestListRuns_OrderedBySeq(t *testing.T) {
	s := createTestStore(t)

	other := testutil.Population(testutil.Config(4, 8, 20), testutil.HaltAfter(2))
	other.Name = "other"

	archiveRun(t, s, mixedPopulation(), false)
	archiveRun(t, s, other, false)
	archiveRun(t, s, mixedPopulation(), false)

	runs, err := s.ListRuns(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, runs, 3)
	for i, run := range runs {
		assert.Equal(t, int64(i+1), run.Seq)
	}

	named, err := s.ListRuns(context.Background(), "other")
	require.NoError(t, err)
	require.Len(t, named, 1)
	assert.Equal(t, "run-2", named[0].ID)
	assert.Equal(t, ir.OutcomeComplete, named[0].Outcome)
}

func TestQueryRuns(t *testing.T) {
	s := createTestStore(t)

	other := testutil.Population(testutil.Config(4, 8, 20), testutil.HaltAfter(2))
	other.Name = "other"

	archiveRun(t, s, mixedPopulation(), false)
	archiveRun(t, s, other, false)
	archiveRun(t, s, mixedPopulation(), false)

	inconclusive, err := s.QueryRuns(context.Background(), runquery.Query{
		Filter: runquery.Equals{Column: "outcome", Value: string(ir.OutcomeInconclusive)},
	})
	require.NoError(t, err)
	require.Len(t, inconclusive, 2)
	assert.Equal(t, "run-1", inconclusive[0].ID)
	assert.Equal(t, "run-3", inconclusive[1].ID)

	limited, err := s.QueryRuns(context.Background(), runquery.Query{
		Filter: runquery.Where(
			runquery.AtLeast{Column: "halted", Value: 1},
			runquery.AtLeast{Column: "population_size", Value: 3},
		),
		Limit: 1,
	})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "run-1", limited[0].ID)

	none, err := s.QueryRuns(context.Background(), runquery.Query{
		Filter: runquery.Equals{Column: "name", Value: "missing"},
	})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestQueryRuns_InvalidQuery(t *testing.T) {
	s := createTestStore(t)

	_, err := s.QueryRuns(context.Background(), runquery.Query{
		Filter: runquery.AtLeast{Column: "outcome", Value: 1},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid run query")
}

func TestReadMachines(t *testing.T) {
	s := createTestStore(t)
	rec, res, _ := archiveRun(t, s, mixedPopulation(), false)

	machines, err := s.ReadMachines(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Machines, machines)

	assert.Equal(t, ir.VerdictHalted, machines[0].Verdict)
	assert.Equal(t, ir.VerdictLooped, machines[1].Verdict)
	assert.Equal(t, 1, machines[1].Period)
	assert.Equal(t, ir.VerdictUndetermined, machines[2].Verdict)
}

func TestReadMachines_UnknownRun(t *testing.T) {
	s := createTestStore(t)

	machines, err := s.ReadMachines(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, machines)
}

func TestReadSteps(t *testing.T) {
	s := createTestStore(t)
	rec, _, events := archiveRun(t, s, mixedPopulation(), true)

	steps, err := s.ReadSteps(context.Background(), rec.ID)
	require.NoError(t, err)
	require.Len(t, steps, len(events))

	for i := range events {
		assert.Equal(t, events[i].Stage, steps[i].Stage, "step %d", i)
		assert.Equal(t, events[i].Machine, steps[i].Machine, "step %d", i)
		assert.Equal(t, events[i].PersonalStep, steps[i].PersonalStep, "step %d", i)
		assert.Equal(t, events[i].Write, steps[i].Write, "step %d", i)
		assert.Equal(t, events[i].Next, steps[i].Next, "step %d", i)
		assert.Equal(t, events[i].Verdict, steps[i].Verdict, "step %d", i)
	}
}

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ittm/internal/ir"
)

func TestNewRunRecord(t *testing.T) {
	pop := mixedPopulation()
	res, _ := runPopulation(t, pop)

	rec, err := NewRunRecord(pop, res)
	require.NoError(t, err)

	assert.Equal(t, "test", rec.Name)
	assert.Equal(t, uint64(20), rec.Stages)
	assert.Equal(t, ir.OutcomeInconclusive, rec.Outcome)
	assert.Equal(t, "100", rec.HaltingSet)
	assert.Equal(t, 1, rec.Halted)
	assert.Equal(t, 3, rec.Size)
	assert.Equal(t, ir.EngineVersion, rec.EngineVersion)
	assert.Len(t, rec.Digest, 64)
	assert.Len(t, rec.PopulationDigest, 64)
	assert.Empty(t, rec.ID)
}

func TestWriteRun_AssignsIDAndSeq(t *testing.T) {
	s := createTestStore(t)

	first, _, _ := archiveRun(t, s, mixedPopulation(), false)
	second, _, _ := archiveRun(t, s, mixedPopulation(), false)

	assert.Equal(t, "run-1", first.ID)
	assert.Equal(t, int64(1), first.Seq)
	assert.Equal(t, "run-2", second.ID)
	assert.Equal(t, int64(2), second.Seq)
	assert.Equal(t, first.Digest, second.Digest)
}

func TestWriteRun_Machines(t *testing.T) {
	s := createTestStore(t)
	rec, res, _ := archiveRun(t, s, mixedPopulation(), false)

	var count int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM machines WHERE run_id = ?", rec.ID).Scan(&count))
	assert.Equal(t, len(res.Machines), count)

	var history string
	require.NoError(t, s.db.QueryRow("SELECT history FROM machines WHERE run_id = ? AND idx = 1", rec.ID).Scan(&history))
	assert.Equal(t, "[0,0,0,0]", history)
}

func TestWriteRun_Steps(t *testing.T) {
	s := createTestStore(t)

	withSteps, _, events := archiveRun(t, s, mixedPopulation(), true)
	without, _, _ := archiveRun(t, s, mixedPopulation(), false)

	var count int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM steps WHERE run_id = ?", withSteps.ID).Scan(&count))
	assert.Equal(t, 27, count)
	assert.Len(t, events, 27)

	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM steps WHERE run_id = ?", without.ID).Scan(&count))
	assert.Zero(t, count)
}

// TestWriteRun_Atomic verifies a failing machine insert leaves no run row.
func TestWriteRun_Atomic(t *testing.T) {
	s := createTestStore(t)
	pop := mixedPopulation()
	res, _ := runPopulation(t, pop)
	rec, err := NewRunRecord(pop, res)
	require.NoError(t, err)

	dup := append(res.Machines, res.Machines[0])
	_, err = s.WriteRun(context.Background(), rec, dup, nil)
	require.Error(t, err)

	runs, err := s.ListRuns(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, runs)
}

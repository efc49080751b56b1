package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ittm/internal/engine"
)

func TestReplay_Match(t *testing.T) {
	s := createTestStore(t)
	rec, _, _ := archiveRun(t, s, mixedPopulation(), false)

	report, err := s.Replay(context.Background(), rec.ID)
	require.NoError(t, err)

	assert.True(t, report.Match)
	assert.Empty(t, report.Diff)
	assert.Equal(t, rec.Digest, report.Digests[0])
	assert.Equal(t, rec.Digest, report.Digests[1])
}

// TestReplay_ParallelReproducesSequential verifies a sequential archive
// replays identically with parallel stepping.
func TestReplay_ParallelReproducesSequential(t *testing.T) {
	s := createTestStore(t)
	rec, _, _ := archiveRun(t, s, mixedPopulation(), false)

	report, err := s.Replay(context.Background(), rec.ID, engine.WithWorkers(4))
	require.NoError(t, err)
	assert.True(t, report.Match)
}

func TestReplay_TamperedDigest(t *testing.T) {
	s := createTestStore(t)
	rec, _, _ := archiveRun(t, s, mixedPopulation(), false)

	_, err := s.db.Exec("UPDATE runs SET digest = 'bogus' WHERE id = ?", rec.ID)
	require.NoError(t, err)

	report, err := s.Replay(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.False(t, report.Match)
	assert.Equal(t, "run 1: digest differs", report.Diff)
}

func TestReplay_TamperedHaltingSet(t *testing.T) {
	s := createTestStore(t)
	rec, _, _ := archiveRun(t, s, mixedPopulation(), false)

	_, err := s.db.Exec("UPDATE runs SET digest = 'bogus', halting_set = '110' WHERE id = ?", rec.ID)
	require.NoError(t, err)

	report, err := s.Replay(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.False(t, report.Match)
	assert.Equal(t, "run 1: halting set 100, archived 110", report.Diff)
}

func TestReplay_TamperedMachine(t *testing.T) {
	s := createTestStore(t)
	rec, _, _ := archiveRun(t, s, mixedPopulation(), false)

	_, err := s.db.Exec("UPDATE runs SET digest = 'bogus' WHERE id = ?", rec.ID)
	require.NoError(t, err)
	_, err = s.db.Exec("UPDATE machines SET halt_step = 99 WHERE run_id = ? AND idx = 2", rec.ID)
	require.NoError(t, err)

	report, err := s.Replay(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "run 1: machine 2 snapshot differs", report.Diff)
}

func TestReplay_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Replay(context.Background(), "missing")
	require.Error(t, err)
}

func TestReplayAll(t *testing.T) {
	s := createTestStore(t)
	archiveRun(t, s, mixedPopulation(), false)
	archiveRun(t, s, mixedPopulation(), true)

	reports, err := s.ReplayAll(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 2)
	for _, r := range reports {
		assert.True(t, r.Match, r.Diff)
	}
	assert.Equal(t, "run-1", reports[0].Run.ID)
}

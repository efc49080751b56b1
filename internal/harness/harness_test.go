package harness

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ittm/internal/ir"
)

func TestScenarios_Golden(t *testing.T) {
	paths, err := Discover("testdata/scenarios")
	require.NoError(t, err)
	require.Len(t, paths, 5)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Empty(t, result.Errors)
			assert.Len(t, result.Digest, 64)
		})
	}
}

func TestRun_WorkersDoNotChangeResult(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/dovetail.yaml")
	require.NoError(t, err)

	sequential, err := Run(context.Background(), scenario)
	require.NoError(t, err)

	scenario.Workers = 8
	parallel, err := Run(context.Background(), scenario)
	require.NoError(t, err)

	assert.Equal(t, sequential.Digest, parallel.Digest)
	assert.Equal(t, sequential.Steps, parallel.Steps)
	assert.True(t, parallel.Pass, "errors: %v", parallel.Errors)
}

func TestRun_ReportsFailedExpectations(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/staircase.yaml")
	require.NoError(t, err)

	scenario.Expect.HaltingSet = "11111"
	scenario.Assertions = append(scenario.Assertions, Assertion{
		Type:    AssertVerdictCount,
		Verdict: ir.VerdictLooped,
		Count:   intPtr(2),
	})

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "Assertion failed: halting_set")
	assert.Contains(t, result.Errors[0], "Expected: 11111")
	assert.Contains(t, result.Errors[0], "Actual: 11110")
	assert.Contains(t, result.Errors[1], "Expected: 2 machines looped")
	assert.Contains(t, result.Errors[1], "Actual: 1 machines looped")
}

func TestRun_InvalidPopulation(t *testing.T) {
	dir := t.TempDir()
	pop := filepath.Join(dir, "full.cue")
	require.NoError(t, os.WriteFile(pop, []byte(`
config: max_population: 2
generate: templates: count: 3
`), 0644))

	scenario := &Scenario{
		Name:        "full",
		Description: "too many machines",
		Population:  pop,
		Expect:      Expect{Outcome: ir.OutcomeComplete},
	}
	_, err := Run(context.Background(), scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid population")
	assert.Contains(t, err.Error(), "[E104]")
}

func TestRun_BrokenPopulation(t *testing.T) {
	dir := t.TempDir()
	pop := filepath.Join(dir, "broken.cue")
	require.NoError(t, os.WriteFile(pop, []byte(`machines: [{table: {states: 0}}]`), 0644))

	scenario := &Scenario{
		Name:        "broken",
		Description: "schema violation",
		Population:  pop,
		Expect:      Expect{Outcome: ir.OutcomeComplete},
	}
	_, err := Run(context.Background(), scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load population")
}

func TestRun_CancelledContext(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/dovetail.yaml")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Run(ctx, scenario)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func intPtr(n int) *int { return &n }

func uint64Ptr(n uint64) *uint64 { return &n }

package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ittm/internal/ir"
)

// writeScenario writes a population stub and a scenario next to it.
func writeScenario(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pop.cue"), []byte("generate: templates: count: 2\n"), 0644))
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, `
name: pair
description: "Two templates"
population: pop.cue
workers: 2
expect:
  outcome: complete
  stages: 102
  halting_set: "01"
assertions:
  - type: machine
    machine: 1
    verdict: halted
    halt_step: 2
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "pair", scenario.Name)
	assert.Equal(t, "Two templates", scenario.Description)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "pop.cue"), scenario.Population)
	assert.Equal(t, 2, scenario.Workers)
	assert.False(t, scenario.Archive)
	assert.Equal(t, ir.OutcomeComplete, scenario.Expect.Outcome)
	assert.Equal(t, uint64Ptr(102), scenario.Expect.Stages)
	assert.Nil(t, scenario.Expect.Halted)
	require.Len(t, scenario.Assertions, 1)
	assert.Equal(t, ir.VerdictHalted, scenario.Assertions[0].Verdict)
	assert.Equal(t, intPtr(1), scenario.Assertions[0].Machine)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "unknown field",
			content: "name: x\ndescription: y\npopulation: pop.cue\nexpect: {outcome: complete}\nasertions: []\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "missing name",
			content: "description: y\npopulation: pop.cue\nexpect: {outcome: complete}\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			content: "name: x\npopulation: pop.cue\nexpect: {outcome: complete}\n",
			wantErr: "description is required",
		},
		{
			name:    "missing population",
			content: "name: x\ndescription: y\nexpect: {outcome: complete}\n",
			wantErr: "population is required",
		},
		{
			name:    "population not found",
			content: "name: x\ndescription: y\npopulation: nope.cue\nexpect: {outcome: complete}\n",
			wantErr: "population file not found",
		},
		{
			name:    "missing outcome",
			content: "name: x\ndescription: y\npopulation: pop.cue\n",
			wantErr: "expect.outcome is required",
		},
		{
			name:    "running outcome",
			content: "name: x\ndescription: y\npopulation: pop.cue\nexpect: {outcome: running}\n",
			wantErr: "expect.outcome must be",
		},
		{
			name:    "bad halting set",
			content: "name: x\ndescription: y\npopulation: pop.cue\nexpect: {outcome: complete, halting_set: \"012\"}\n",
			wantErr: "halting_set must contain only 0 and 1",
		},
		{
			name:    "assertion without type",
			content: "name: x\ndescription: y\npopulation: pop.cue\nexpect: {outcome: complete}\nassertions: [{machine: 0}]\n",
			wantErr: "assertions[0]: type is required",
		},
		{
			name:    "machine without index",
			content: "name: x\ndescription: y\npopulation: pop.cue\nexpect: {outcome: complete}\nassertions: [{type: machine, verdict: halted}]\n",
			wantErr: "machine is required",
		},
		{
			name:    "machine without checks",
			content: "name: x\ndescription: y\npopulation: pop.cue\nexpect: {outcome: complete}\nassertions: [{type: machine, machine: 0}]\n",
			wantErr: "needs at least one of",
		},
		{
			name:    "verdict count without verdict",
			content: "name: x\ndescription: y\npopulation: pop.cue\nexpect: {outcome: complete}\nassertions: [{type: verdict_count, count: 1}]\n",
			wantErr: "verdict is required for verdict_count",
		},
		{
			name:    "negative step count",
			content: "name: x\ndescription: y\npopulation: pop.cue\nexpect: {outcome: complete}\nassertions: [{type: step_count, count: -1}]\n",
			wantErr: "non-negative count is required for step_count",
		},
		{
			name:    "unknown assertion",
			content: "name: x\ndescription: y\npopulation: pop.cue\nexpect: {outcome: complete}\nassertions: [{type: trace_order}]\n",
			wantErr: `unknown assertion type "trace_order"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.yaml", "a.yml", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.yaml"), 0755))

	paths, err := Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.yml"), filepath.Join(dir, "b.yaml")}, paths)
}

func TestDiscover_Empty(t *testing.T) {
	dir := t.TempDir()
	_, err := Discover(dir)
	var nse *NoScenariosError
	require.ErrorAs(t, err, &nse)
	assert.Equal(t, dir, nse.Dir)

	_, err = Discover(filepath.Join(dir, "missing"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario directory")
}

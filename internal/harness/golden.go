package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/ittm/internal/ir"
)

// ResultSnapshot captures what a scenario golden file pins: the outcome,
// the halting set and every machine verdict. Digests are left out and
// checked by replay instead.
type ResultSnapshot struct {
	ScenarioName string
	Result       *Result
}

// toCanonicalMap converts a ResultSnapshot to a map[string]any for canonical JSON serialization.
func (s *ResultSnapshot) toCanonicalMap() map[string]any {
	machines := make([]any, len(s.Result.Machines))
	for i, m := range s.Result.Machines {
		machines[i] = map[string]any{
			"index":     m.Index,
			"verdict":   string(m.Verdict),
			"halt_step": m.HaltStep,
			"period":    m.Period,
		}
	}
	return map[string]any{
		"scenario_name": s.ScenarioName,
		"outcome":       string(s.Result.Outcome),
		"stages":        s.Result.Stages,
		"halting_set":   s.Result.HaltingSet,
		"halted":        s.Result.Halted,
		"steps":         s.Result.Steps,
		"machines":      machines,
	}
}

// MarshalSnapshot renders the golden form of a result as canonical JSON.
func MarshalSnapshot(scenarioName string, result *Result) ([]byte, error) {
	snapshot := ResultSnapshot{ScenarioName: scenarioName, Result: result}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares the result against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}

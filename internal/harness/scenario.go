package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/ittm/internal/ir"
)

// Scenario defines a conformance scenario: a population file and the
// outcome, halting set and per-machine verdicts it must produce.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Population is the path to a CUE population file.
	// Relative paths are resolved against the scenario file's directory.
	Population string `yaml:"population"`

	// Workers steps machines concurrently when > 1. Results must not change.
	Workers int `yaml:"workers,omitempty"`

	// Archive stores the run in an in-memory database and replays it.
	Archive bool `yaml:"archive,omitempty"`

	// Expect checks the run as a whole.
	Expect Expect `yaml:"expect"`

	// Assertions check individual machines and counts.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Expect is the expected run-level result. Nil fields are not checked.
type Expect struct {
	Outcome    ir.Outcome `yaml:"outcome"`
	Stages     *uint64    `yaml:"stages,omitempty"`
	HaltingSet string     `yaml:"halting_set,omitempty"`
	Halted     *int       `yaml:"halted,omitempty"`
}

// Assertion validates one aspect of the result.
type Assertion struct {
	// Type specifies the assertion type:
	// - "machine": verdict, halt step and period of one machine
	// - "verdict_count": number of machines with a verdict
	// - "step_count": number of step events observed
	Type string `yaml:"type"`

	// Machine is the machine index (machine).
	Machine *int `yaml:"machine,omitempty"`

	// Verdict is the expected verdict (machine, verdict_count).
	Verdict ir.Verdict `yaml:"verdict,omitempty"`

	// HaltStep is the expected halt step (machine).
	HaltStep *uint64 `yaml:"halt_step,omitempty"`

	// Period is the expected loop period (machine).
	Period *int `yaml:"period,omitempty"`

	// Count is the expected number (verdict_count, step_count).
	Count *int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertMachine      = "machine"
	AssertVerdictCount = "verdict_count"
	AssertStepCount    = "step_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Population != "" && !filepath.IsAbs(scenario.Population) {
		scenario.Population = filepath.Join(filepath.Dir(path), scenario.Population)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Population == "" {
		return fmt.Errorf("population is required")
	}
	if _, err := os.Stat(s.Population); os.IsNotExist(err) {
		return fmt.Errorf("population file not found: %s", s.Population)
	}

	switch s.Expect.Outcome {
	case ir.OutcomeComplete, ir.OutcomeInconclusive:
	case "":
		return fmt.Errorf("expect.outcome is required")
	default:
		return fmt.Errorf("expect.outcome must be %q or %q, got %q", ir.OutcomeComplete, ir.OutcomeInconclusive, s.Expect.Outcome)
	}

	for _, c := range s.Expect.HaltingSet {
		if c != '0' && c != '1' {
			return fmt.Errorf("expect.halting_set must contain only 0 and 1, got %q", s.Expect.HaltingSet)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertMachine:
		if a.Machine == nil {
			return fmt.Errorf("assertions[%d]: machine is required for machine", index)
		}
		if a.Verdict == "" && a.HaltStep == nil && a.Period == nil {
			return fmt.Errorf("assertions[%d]: machine needs at least one of verdict, halt_step, period", index)
		}
	case AssertVerdictCount:
		if a.Verdict == "" {
			return fmt.Errorf("assertions[%d]: verdict is required for verdict_count", index)
		}
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for verdict_count", index)
		}
	case AssertStepCount:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for step_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

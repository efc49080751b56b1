package harness

import (
	"fmt"
	"strings"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// EvaluateExpect checks the run-level expectations.
// Returns a slice of error messages for failed checks.
func EvaluateExpect(result *Result, expect Expect) []string {
	var errors []string
	check := func(field, expected, actual string) {
		if expected != actual {
			errors = append(errors, (&AssertionError{Type: field, Expected: expected, Actual: actual}).Error())
		}
	}

	check("outcome", string(expect.Outcome), string(result.Outcome))
	if expect.Stages != nil {
		check("stages", fmt.Sprint(*expect.Stages), fmt.Sprint(result.Stages))
	}
	if expect.HaltingSet != "" {
		check("halting_set", expect.HaltingSet, result.HaltingSet)
	}
	if expect.Halted != nil {
		check("halted", fmt.Sprint(*expect.Halted), fmt.Sprint(result.Halted))
	}
	return errors
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertMachine:
			err = assertMachine(result, assertion)
		case AssertVerdictCount:
			err = assertVerdictCount(result, assertion)
		case AssertStepCount:
			err = assertStepCount(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

// assertMachine checks the specified fields of one machine.
func assertMachine(result *Result, a Assertion) error {
	idx := *a.Machine
	if idx < 0 || idx >= len(result.Machines) {
		return &AssertionError{
			Type:     AssertMachine,
			Expected: fmt.Sprintf("machine %d", idx),
			Actual:   fmt.Sprintf("%d machines", len(result.Machines)),
		}
	}
	m := result.Machines[idx]

	var expected, actual []string
	if a.Verdict != "" {
		expected = append(expected, fmt.Sprintf("verdict=%s", a.Verdict))
		actual = append(actual, fmt.Sprintf("verdict=%s", m.Verdict))
	}
	if a.HaltStep != nil {
		expected = append(expected, fmt.Sprintf("halt_step=%d", *a.HaltStep))
		actual = append(actual, fmt.Sprintf("halt_step=%d", m.HaltStep))
	}
	if a.Period != nil {
		expected = append(expected, fmt.Sprintf("period=%d", *a.Period))
		actual = append(actual, fmt.Sprintf("period=%d", m.Period))
	}

	want := strings.Join(expected, " ")
	got := strings.Join(actual, " ")
	if want != got {
		return &AssertionError{
			Type:     AssertMachine,
			Expected: fmt.Sprintf("machine %d %s", idx, want),
			Actual:   fmt.Sprintf("machine %d %s", idx, got),
		}
	}
	return nil
}

// assertVerdictCount checks how many machines carry a verdict.
func assertVerdictCount(result *Result, a Assertion) error {
	n := 0
	for _, m := range result.Machines {
		if m.Verdict == a.Verdict {
			n++
		}
	}
	if n != *a.Count {
		return &AssertionError{
			Type:     AssertVerdictCount,
			Expected: fmt.Sprintf("%d machines %s", *a.Count, a.Verdict),
			Actual:   fmt.Sprintf("%d machines %s", n, a.Verdict),
		}
	}
	return nil
}

// assertStepCount checks the number of observed step events.
func assertStepCount(result *Result, a Assertion) error {
	if result.Steps != *a.Count {
		return &AssertionError{
			Type:     AssertStepCount,
			Expected: fmt.Sprintf("%d steps", *a.Count),
			Actual:   fmt.Sprintf("%d steps", result.Steps),
		}
	}
	return nil
}

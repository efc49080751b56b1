package ir

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Symbol is a tape symbol. The alphabet of a rule table is [0, NumSymbols).
type Symbol uint8

// State is a machine state. Working states are [0, NumStates); the value
// NumStates is the distinguished HALT state.
type State uint8

// MaxStates is the largest number of working states a table can declare.
// HALT must still fit in a State.
const MaxStates = 255

// MaxSymbols is the largest alphabet a table can declare.
const MaxSymbols = 256

var (
	// ErrInvalidRuleTable is returned when a rule table fails validation.
	ErrInvalidRuleTable = errors.New("invalid rule table")

	// ErrSymbolOutOfRange is returned by Lookup for a symbol outside the alphabet.
	ErrSymbolOutOfRange = errors.New("symbol out of range")

	// ErrStateOutOfRange is returned by Lookup for HALT or an unknown state.
	ErrStateOutOfRange = errors.New("state out of range")
)

// Rule is one transition: the symbol to write and the state to enter.
type Rule struct {
	Write Symbol `json:"write"`
	Next  State  `json:"next"`
}

// RuleTable maps (state, symbol) to a Rule.
//
// A RuleTable is immutable once built and may be shared by any number of
// machines without synchronization. A "3-state" machine in the classic
// counting has two working states plus HALT, so NumStates() == 2 and
// HaltState() == 2.
type RuleTable struct {
	numStates  int
	numSymbols int
	rules      []Rule // row-major: rules[state*numSymbols+symbol]
}

// NewRuleTable validates rows and builds a table.
//
// rows must have exactly numStates rows of numSymbols rules each. Every
// written symbol must be in the alphabet and every next state must be a
// working state or HALT. The rows are copied.
func NewRuleTable(numStates, numSymbols int, rows [][]Rule) (*RuleTable, error) {
	if numStates < 1 || numStates > MaxStates {
		return nil, fmt.Errorf("%w: states must be in [1, %d], got %d", ErrInvalidRuleTable, MaxStates, numStates)
	}
	if numSymbols < 1 || numSymbols > MaxSymbols {
		return nil, fmt.Errorf("%w: symbols must be in [1, %d], got %d", ErrInvalidRuleTable, MaxSymbols, numSymbols)
	}
	if len(rows) != numStates {
		return nil, fmt.Errorf("%w: expected %d rows, got %d", ErrInvalidRuleTable, numStates, len(rows))
	}

	t := &RuleTable{
		numStates:  numStates,
		numSymbols: numSymbols,
		rules:      make([]Rule, 0, numStates*numSymbols),
	}
	for s, row := range rows {
		if len(row) != numSymbols {
			return nil, fmt.Errorf("%w: state %d: expected %d rules, got %d", ErrInvalidRuleTable, s, numSymbols, len(row))
		}
		for sym, r := range row {
			if int(r.Write) >= numSymbols {
				return nil, fmt.Errorf("%w: state %d symbol %d: write %d outside alphabet", ErrInvalidRuleTable, s, sym, r.Write)
			}
			if int(r.Next) > numStates {
				return nil, fmt.Errorf("%w: state %d symbol %d: next state %d beyond HALT (%d)", ErrInvalidRuleTable, s, sym, r.Next, numStates)
			}
			t.rules = append(t.rules, r)
		}
	}
	return t, nil
}

// MustRuleTable is like NewRuleTable but panics on error.
// Use only in tests or for built-in tables known to be valid.
func MustRuleTable(numStates, numSymbols int, rows [][]Rule) *RuleTable {
	t, err := NewRuleTable(numStates, numSymbols, rows)
	if err != nil {
		panic(err)
	}
	return t
}

// NumStates returns the number of working states.
func (t *RuleTable) NumStates() int { return t.numStates }

// NumSymbols returns the alphabet size.
func (t *RuleTable) NumSymbols() int { return t.numSymbols }

// HaltState returns the terminal state.
func (t *RuleTable) HaltState() State { return State(t.numStates) }

// Lookup returns the rule for (state, symbol).
func (t *RuleTable) Lookup(state State, symbol Symbol) (Rule, error) {
	if int(state) >= t.numStates {
		return Rule{}, fmt.Errorf("%w: state %d (halt=%d)", ErrStateOutOfRange, state, t.numStates)
	}
	if int(symbol) >= t.numSymbols {
		return Rule{}, fmt.Errorf("%w: symbol %d (alphabet=%d)", ErrSymbolOutOfRange, symbol, t.numSymbols)
	}
	return t.rules[int(state)*t.numSymbols+int(symbol)], nil
}

// Rows returns a copy of the table as rows of rules.
func (t *RuleTable) Rows() [][]Rule {
	rows := make([][]Rule, t.numStates)
	for s := range rows {
		row := make([]Rule, t.numSymbols)
		copy(row, t.rules[s*t.numSymbols:(s+1)*t.numSymbols])
		rows[s] = row
	}
	return rows
}

// Equal reports whether two tables have identical shape and rules.
func (t *RuleTable) Equal(o *RuleTable) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.numStates != o.numStates || t.numSymbols != o.numSymbols {
		return false
	}
	for i := range t.rules {
		if t.rules[i] != o.rules[i] {
			return false
		}
	}
	return true
}

type ruleTableJSON struct {
	States  int      `json:"states"`
	Symbols int      `json:"symbols"`
	Rules   [][]Rule `json:"rules"`
}

// MarshalJSON implements json.Marshaler.
func (t *RuleTable) MarshalJSON() ([]byte, error) {
	return json.Marshal(ruleTableJSON{
		States:  t.numStates,
		Symbols: t.numSymbols,
		Rules:   t.Rows(),
	})
}

// UnmarshalJSON implements json.Unmarshaler. The decoded table is validated.
func (t *RuleTable) UnmarshalJSON(data []byte) error {
	var raw ruleTableJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	built, err := NewRuleTable(raw.States, raw.Symbols, raw.Rules)
	if err != nil {
		return err
	}
	*t = *built
	return nil
}

// Symbols is a symbol sequence that serializes as a JSON array of integers
// rather than the base64 string encoding/json uses for byte slices.
type Symbols []Symbol

// MarshalJSON implements json.Marshaler.
func (s Symbols) MarshalJSON() ([]byte, error) {
	ints := make([]int, len(s))
	for i, v := range s {
		ints[i] = int(v)
	}
	return json.Marshal(ints)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Symbols) UnmarshalJSON(data []byte) error {
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return err
	}
	out := make(Symbols, len(ints))
	for i, v := range ints {
		if v < 0 || v >= MaxSymbols {
			return fmt.Errorf("symbol %d at index %d out of range", v, i)
		}
		out[i] = Symbol(v)
	}
	*s = out
	return nil
}

// Ints returns the symbols as plain integers.
func (s Symbols) Ints() []int {
	ints := make([]int, len(s))
	for i, v := range s {
		ints[i] = int(v)
	}
	return ints
}

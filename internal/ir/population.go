package ir

import (
	"errors"
	"fmt"
	"sort"
)

// ObserveMode selects what a machine records into its history window.
type ObserveMode string

const (
	// ObserveWrite records the symbol written on each step.
	ObserveWrite ObserveMode = "write"
	// ObserveState records the state entered on each step.
	ObserveState ObserveMode = "state"
)

// TapeMode selects how a tape cursor beyond the physical length is handled.
type TapeMode string

const (
	// TapeWrap reduces the cursor modulo the tape length.
	TapeWrap TapeMode = "wrap"
	// TapeBounded treats a cursor beyond the tape length as a machine fault.
	TapeBounded TapeMode = "bounded"
)

// ErrInvalidConfig is returned when a Config fails validation.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds the finite resource bounds of a run.
type Config struct {
	// Window is the history buffer capacity W. Periods up to W/2 are detectable.
	Window int `json:"window"`

	// Warmup is the personal step count before loop detection is consulted.
	// Must be at least Window.
	Warmup int `json:"warmup"`

	// MaxStages is the hard cap on global stages.
	MaxStages int `json:"max_stages"`

	// MaxPopulation bounds the number of machines accepted at construction.
	MaxPopulation int `json:"max_population"`

	// TapeLength is the physical length of private tapes.
	TapeLength int `json:"tape_length"`

	Observe  ObserveMode `json:"observe"`
	TapeMode TapeMode    `json:"tape_mode"`
}

// DefaultConfig returns the bounds used by the classic dovetail simulation.
func DefaultConfig() Config {
	return Config{
		Window:        20,
		Warmup:        100,
		MaxStages:     500,
		MaxPopulation: 64,
		TapeLength:    1000,
		Observe:       ObserveWrite,
		TapeMode:      TapeWrap,
	}
}

// Validate checks that the bounds are internally consistent.
func (c Config) Validate() error {
	switch {
	case c.Window < 2:
		return fmt.Errorf("%w: window must be >= 2, got %d", ErrInvalidConfig, c.Window)
	case c.Warmup < c.Window:
		return fmt.Errorf("%w: warmup (%d) must be >= window (%d)", ErrInvalidConfig, c.Warmup, c.Window)
	case c.MaxStages < 1:
		return fmt.Errorf("%w: max_stages must be >= 1, got %d", ErrInvalidConfig, c.MaxStages)
	case c.MaxPopulation < 1:
		return fmt.Errorf("%w: max_population must be >= 1, got %d", ErrInvalidConfig, c.MaxPopulation)
	case c.TapeLength < 1:
		return fmt.Errorf("%w: tape_length must be >= 1, got %d", ErrInvalidConfig, c.TapeLength)
	}
	switch c.Observe {
	case ObserveWrite, ObserveState:
	default:
		return fmt.Errorf("%w: observe must be %q or %q, got %q", ErrInvalidConfig, ObserveWrite, ObserveState, c.Observe)
	}
	switch c.TapeMode {
	case TapeWrap, TapeBounded:
	default:
		return fmt.Errorf("%w: tape_mode must be %q or %q, got %q", ErrInvalidConfig, TapeWrap, TapeBounded, c.TapeMode)
	}
	return nil
}

// TapeSpec describes the initial content of a private tape.
//
// Cells, when present, is copied verbatim and padded with Fill. Set
// overrides individual cells afterwards.
type TapeSpec struct {
	Fill  Symbol         `json:"fill"`
	Cells Symbols        `json:"cells,omitempty"`
	Set   map[int]Symbol `json:"set,omitempty"`
}

// Materialize builds the initial cells of a tape of the given length.
// Set entries outside [0, length) are ignored.
func (t TapeSpec) Materialize(length int) Symbols {
	cells := make(Symbols, length)
	for i := range cells {
		cells[i] = t.Fill
	}
	copy(cells, t.Cells)
	for _, i := range t.setIndexes() {
		if i >= 0 && i < length {
			cells[i] = t.Set[i]
		}
	}
	return cells
}

func (t TapeSpec) setIndexes() []int {
	idx := make([]int, 0, len(t.Set))
	for i := range t.Set {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}

// MachineSpec is one member of a population.
type MachineSpec struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Table       *RuleTable `json:"table"`

	// Tape is ignored when the population has a shared Source.
	Tape TapeSpec `json:"tape"`
}

// Population is a complete, self-contained run definition: the bounds,
// an optional shared read-only source tape, and the machines in index order.
type Population struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Config      Config        `json:"config"`
	Source      Symbols       `json:"source,omitempty"`
	Machines    []MachineSpec `json:"machines"`
}

// Shared reports whether machines read a shared source tape.
func (p *Population) Shared() bool {
	return len(p.Source) > 0
}

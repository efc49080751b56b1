package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/ittm/internal/ir"
)

// ErrOutOfBounds is returned by a bounded tape for a cursor beyond its length.
var ErrOutOfBounds = errors.New("tape position out of bounds")

// Tape is the read/write surface a machine scans.
//
// Positions are logically unbounded. A wrapping tape reduces them modulo
// Len(); a bounded tape rejects positions >= Len().
type Tape interface {
	Read(pos uint64) (ir.Symbol, error)
	Write(pos uint64, sym ir.Symbol) error
	Len() int
}

func tapeIndex(pos uint64, length int, mode ir.TapeMode) (int, error) {
	if mode == ir.TapeBounded {
		if pos >= uint64(length) {
			return 0, fmt.Errorf("%w: %d >= %d", ErrOutOfBounds, pos, length)
		}
		return int(pos), nil
	}
	return int(pos % uint64(length)), nil
}

// PrivateTape is a tape exclusively owned by one machine.
type PrivateTape struct {
	cells ir.Symbols
	mode  ir.TapeMode
}

// NewPrivateTape creates a tape over a copy of cells.
func NewPrivateTape(cells ir.Symbols, mode ir.TapeMode) *PrivateTape {
	c := make(ir.Symbols, len(cells))
	copy(c, cells)
	return &PrivateTape{cells: c, mode: mode}
}

// Read implements Tape.
func (t *PrivateTape) Read(pos uint64) (ir.Symbol, error) {
	i, err := tapeIndex(pos, len(t.cells), t.mode)
	if err != nil {
		return 0, err
	}
	return t.cells[i], nil
}

// Write implements Tape.
func (t *PrivateTape) Write(pos uint64, sym ir.Symbol) error {
	i, err := tapeIndex(pos, len(t.cells), t.mode)
	if err != nil {
		return err
	}
	t.cells[i] = sym
	return nil
}

// Len implements Tape.
func (t *PrivateTape) Len() int {
	return len(t.cells)
}

// SourceTape is a read-only input shared by every machine of a population.
// Machines never write to it; each gets a View with a private overlay.
type SourceTape struct {
	cells ir.Symbols
}

// NewSourceTape wraps a copy of cells.
func NewSourceTape(cells ir.Symbols) *SourceTape {
	c := make(ir.Symbols, len(cells))
	copy(c, cells)
	return &SourceTape{cells: c}
}

// Len returns the source length.
func (s *SourceTape) Len() int {
	return len(s.cells)
}

// View returns a per-machine tape that reads through to the source until a
// cell is overwritten.
func (s *SourceTape) View(mode ir.TapeMode) Tape {
	return &overlayTape{src: s, mode: mode, writes: make(map[int]ir.Symbol)}
}

type overlayTape struct {
	src    *SourceTape
	mode   ir.TapeMode
	writes map[int]ir.Symbol
}

func (t *overlayTape) Read(pos uint64) (ir.Symbol, error) {
	i, err := tapeIndex(pos, len(t.src.cells), t.mode)
	if err != nil {
		return 0, err
	}
	if sym, ok := t.writes[i]; ok {
		return sym, nil
	}
	return t.src.cells[i], nil
}

func (t *overlayTape) Write(pos uint64, sym ir.Symbol) error {
	i, err := tapeIndex(pos, len(t.src.cells), t.mode)
	if err != nil {
		return err
	}
	t.writes[i] = sym
	return nil
}

func (t *overlayTape) Len() int {
	return len(t.src.cells)
}

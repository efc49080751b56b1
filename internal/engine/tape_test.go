package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ittm/internal/ir"
)

func TestPrivateTape_Wrap(t *testing.T) {
	tape := NewPrivateTape(ir.Symbols{0, 1}, ir.TapeWrap)

	sym, err := tape.Read(5)
	require.NoError(t, err)
	assert.Equal(t, ir.Symbol(1), sym)

	require.NoError(t, tape.Write(4, 1))
	sym, err = tape.Read(0)
	require.NoError(t, err)
	assert.Equal(t, ir.Symbol(1), sym)
	assert.Equal(t, 2, tape.Len())
}

func TestPrivateTape_Bounded(t *testing.T) {
	tape := NewPrivateTape(ir.Symbols{0, 1, 0}, ir.TapeBounded)

	_, err := tape.Read(2)
	require.NoError(t, err)

	_, err = tape.Read(3)
	assert.ErrorIs(t, err, ErrOutOfBounds)
	assert.ErrorIs(t, tape.Write(3, 1), ErrOutOfBounds)
}

func TestPrivateTape_CopiesCells(t *testing.T) {
	cells := ir.Symbols{0, 0}
	tape := NewPrivateTape(cells, ir.TapeWrap)
	require.NoError(t, tape.Write(0, 1))

	assert.Equal(t, ir.Symbol(0), cells[0])
}

// TestSourceTape_ViewsAreIsolated verifies writes never reach the shared
// source or other views.
func TestSourceTape_ViewsAreIsolated(t *testing.T) {
	src := NewSourceTape(ir.Symbols{1, 0, 1})
	a := src.View(ir.TapeWrap)
	b := src.View(ir.TapeWrap)

	require.NoError(t, a.Write(0, 0))

	symA, err := a.Read(0)
	require.NoError(t, err)
	symB, err := b.Read(0)
	require.NoError(t, err)

	assert.Equal(t, ir.Symbol(0), symA)
	assert.Equal(t, ir.Symbol(1), symB)
	assert.Equal(t, 3, b.Len())

	// Wrapped position reads through the same overlay cell.
	symA, err = a.Read(3)
	require.NoError(t, err)
	assert.Equal(t, ir.Symbol(0), symA)
}

func TestSourceTape_BoundedView(t *testing.T) {
	src := NewSourceTape(ir.Symbols{1, 0})
	v := src.View(ir.TapeBounded)

	_, err := v.Read(2)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

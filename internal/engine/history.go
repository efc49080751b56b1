package engine

import "github.com/roach88/ittm/internal/ir"

// History is a fixed-capacity ring buffer of a machine's most recent
// observations, indexed by personal_step mod W.
//
// Slots start at zero. An observation is a written symbol or an entered
// state depending on the configured ObserveMode; both fit in a byte.
type History struct {
	slots []uint8
}

// NewHistory creates a zeroed buffer of capacity w.
func NewHistory(w int) *History {
	return &History{slots: make([]uint8, w)}
}

// Cap returns W.
func (h *History) Cap() int {
	return len(h.slots)
}

// Record stores obs at slot step mod W.
func (h *History) Record(step uint64, obs uint8) {
	h.slots[step%uint64(len(h.slots))] = obs
}

// At returns the observation recorded at logical step k (slot k mod W).
func (h *History) At(k uint64) uint8 {
	return h.slots[k%uint64(len(h.slots))]
}

// Window returns a copy of the buffer in slot order.
func (h *History) Window() ir.Symbols {
	w := make(ir.Symbols, len(h.slots))
	for i, v := range h.slots {
		w[i] = ir.Symbol(v)
	}
	return w
}

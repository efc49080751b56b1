package engine

import (
	"math/bits"
	"strings"
	"sync/atomic"
)

// HaltingSet is a bit per machine index, set exactly when that machine
// entered HALT. Bits only flip 0 to 1; there is no removal.
//
// Mark is safe for concurrent use, which parallel stepping relies on.
type HaltingSet struct {
	n     int
	words []atomic.Uint64
}

// NewHaltingSet creates an all-zero set over [0, n).
func NewHaltingSet(n int) *HaltingSet {
	return &HaltingSet{
		n:     n,
		words: make([]atomic.Uint64, (n+63)/64),
	}
}

// Len returns the number of indexes the set covers.
func (h *HaltingSet) Len() int {
	return h.n
}

// Mark sets bit i. It is idempotent and ignores indexes outside [0, Len()).
func (h *HaltingSet) Mark(i int) {
	if i < 0 || i >= h.n {
		return
	}
	h.words[i/64].Or(1 << (uint(i) % 64))
}

// IsSet reports whether bit i is set.
func (h *HaltingSet) IsSet(i int) bool {
	if i < 0 || i >= h.n {
		return false
	}
	return h.words[i/64].Load()&(1<<(uint(i)%64)) != 0
}

// Count returns the number of set bits.
func (h *HaltingSet) Count() int {
	count := 0
	for i := range h.words {
		count += bits.OnesCount64(h.words[i].Load())
	}
	return count
}

// Render returns '0'/'1' for indexes 0..n-1 in ascending order.
// Indexes beyond Len() render as '0'.
func (h *HaltingSet) Render(n int) string {
	var sb strings.Builder
	sb.Grow(n)
	for i := 0; i < n; i++ {
		if h.IsSet(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// String renders the whole set.
func (h *HaltingSet) String() string {
	return h.Render(h.n)
}

// Indexes returns the set indexes in ascending order.
func (h *HaltingSet) Indexes() []int {
	var idx []int
	for i := 0; i < h.n; i++ {
		if h.IsSet(i) {
			idx = append(idx, i)
		}
	}
	return idx
}

// Clone returns an independent copy. Results carry a clone so the set they
// expose is frozen.
func (h *HaltingSet) Clone() *HaltingSet {
	c := NewHaltingSet(h.n)
	for i := range h.words {
		c.words[i].Store(h.words[i].Load())
	}
	return c
}

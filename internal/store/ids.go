package store

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator produces run ids.
type IDGenerator interface {
	NewID() (string, error)
}

// UUIDv7 generates time-ordered UUIDs. The ids are opaque: ordering always
// uses seq, never the id.
type UUIDv7 struct{}

// NewID implements IDGenerator.
func (UUIDv7) NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate run id: %w", err)
	}
	return id.String(), nil
}

// SequentialIDs generates "<prefix>-1", "<prefix>-2", ... for tests and
// golden output.
type SequentialIDs struct {
	Prefix string
	n      atomic.Int64
}

// NewID implements IDGenerator.
func (g *SequentialIDs) NewID() (string, error) {
	return fmt.Sprintf("%s-%d", g.Prefix, g.n.Add(1)), nil
}

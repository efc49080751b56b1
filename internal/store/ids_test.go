package store

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDv7(t *testing.T) {
	id, err := UUIDv7{}.NewID()
	require.NoError(t, err)

	parsed, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())

	other, err := UUIDv7{}.NewID()
	require.NoError(t, err)
	assert.NotEqual(t, id, other)
}

func TestSequentialIDs(t *testing.T) {
	g := &SequentialIDs{Prefix: "run"}

	first, err := g.NewID()
	require.NoError(t, err)
	second, err := g.NewID()
	require.NoError(t, err)

	assert.Equal(t, "run-1", first)
	assert.Equal(t, "run-2", second)
}

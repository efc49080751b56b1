package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplatesText(t *testing.T) {
	out, err := execute(t, NewTemplatesCommand(&RootOptions{Format: "text"}))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 20)
	assert.Equal(t, "Machine 0: Rules=[0->0,0] [1->0,0] [0->0,0] [1->0,0] Loop (stay in state 0)", lines[0])
	assert.True(t, strings.HasPrefix(lines[19], "Machine 19: Rules="))
}

func TestTemplatesJSON(t *testing.T) {
	out, err := execute(t, NewTemplatesCommand(&RootOptions{Format: "json"}))
	require.NoError(t, err)

	var resp struct {
		Status string         `json:"status"`
		Data   []TemplateInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 20)
	assert.False(t, resp.Data[0].Halts)
	assert.True(t, resp.Data[1].Halts)
	assert.Equal(t, "Halt after two steps", resp.Data[1].Description)
	require.NotNil(t, resp.Data[1].Table)
	assert.Equal(t, 2, resp.Data[1].Table.NumStates())
}

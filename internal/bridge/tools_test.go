package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMCPToolsReturnsFrozenFourToolSurface(t *testing.T) {
	tools := mcpTools(nil)
	require := assert.New(t)
	require.Len(tools, 4)

	names := make(map[string]bool)
	for _, tool := range tools {
		names[tool.Name()] = true
		assert.NotEmpty(t, tool.Description())
		assert.NotEmpty(t, tool.Schema())
	}

	for _, expected := range []string{"execute_bash", "write_file", "read_file", "read_docstring"} {
		assert.True(t, names[expected], "missing tool %s", expected)
	}
}

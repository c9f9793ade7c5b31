package bridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mcpexec/backend/internal/agent"
	mcpclient "github.com/mcpexec/backend/internal/mcp"
)

// toolSchemas mirrors the frozen MCP tool surface of §4.A-C: the Agent
// Bridge never discovers tools dynamically, it advertises exactly the
// four tools the Tool & Prompt Server is contractually guaranteed to
// expose.
var toolSchemas = map[string]json.RawMessage{
	"execute_bash": json.RawMessage(`{
		"type": "object",
		"properties": {
			"command": {"type": "string", "description": "The shell command to run"},
			"timeout": {"type": "number", "description": "Timeout in seconds (default 30)"}
		},
		"required": ["command"]
	}`),
	"write_file": json.RawMessage(`{
		"type": "object",
		"properties": {
			"file_path": {"type": "string", "description": "Absolute path inside the container"},
			"content": {"type": "string", "description": "The file's new contents"}
		},
		"required": ["file_path", "content"]
	}`),
	"read_file": json.RawMessage(`{
		"type": "object",
		"properties": {
			"file_path": {"type": "string", "description": "Absolute path inside the container"},
			"offset": {"type": "number", "description": "0-indexed starting line (default 0)"},
			"line_count": {"type": "number", "description": "Number of lines to return; omit for the rest of the file"}
		},
		"required": ["file_path"]
	}`),
	"read_docstring": json.RawMessage(`{
		"type": "object",
		"properties": {
			"file_path": {"type": "string", "description": "Absolute path inside the container"},
			"function_name": {"type": "string", "description": "The top-level function name"}
		},
		"required": ["file_path", "function_name"]
	}`),
}

var toolDescriptions = map[string]string{
	"execute_bash":   "Run a shell command inside the caller's sandboxed container.",
	"write_file":     "Overwrite a file inside the caller's container.",
	"read_file":      "Read a range of lines from a text file inside the caller's container.",
	"read_docstring": "Extract the documentation string attached to a top-level Python function.",
}

// mcpTool adapts one Tool & Prompt Server tool to agent.Tool so the
// model client can offer it to the upstream model and dispatch the
// model's resulting call over MCP.
type mcpTool struct {
	name   string
	client *mcpclient.Client
}

func mcpTools(client *mcpclient.Client) []agent.Tool {
	names := []string{"execute_bash", "write_file", "read_file", "read_docstring"}
	tools := make([]agent.Tool, 0, len(names))
	for _, name := range names {
		tools = append(tools, mcpTool{name: name, client: client})
	}
	return tools
}

func (t mcpTool) Name() string { return t.name }

func (t mcpTool) Description() string { return toolDescriptions[t.name] }

func (t mcpTool) Schema() json.RawMessage { return toolSchemas[t.name] }

func (t mcpTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var args map[string]any
	if len(params) > 0 {
		if err := json.Unmarshal(params, &args); err != nil {
			return nil, fmt.Errorf("unmarshal tool arguments for %s: %w", t.name, err)
		}
	}

	result, err := t.client.CallTool(ctx, t.name, args)
	if err != nil {
		return &agent.ToolResult{Content: err.Error(), IsError: true}, nil
	}
	return &agent.ToolResult{Content: result.Text, IsError: result.IsError}, nil
}

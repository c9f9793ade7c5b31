// Package mcp implements the Agent Bridge's MCP client: a thin wrapper
// around github.com/mark3labs/mcp-go/client that talks to exactly one
// Tool & Prompt Server over streamable HTTP, carrying the caller's user
// id as the x-user-id header the server requires on every tool call.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	mcpgo "github.com/mark3labs/mcp-go/mcp"
)

// Client is a connection to the Tool & Prompt Server scoped to a single
// user id. The Agent Bridge constructs one per cached agent runtime.
type Client struct {
	userID string
	client *mcpclient.Client
	logger *slog.Logger
}

// New dials serverURL and completes the MCP initialize handshake. The
// returned Client's tool calls all carry x-user-id: userID.
func New(ctx context.Context, serverURL, userID string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	c, err := mcpclient.NewStreamableHttpClient(serverURL,
		transport.WithHTTPHeaders(map[string]string{"x-user-id": userID}))
	if err != nil {
		return nil, fmt.Errorf("mcp: create client: %w", err)
	}

	if err := c.Start(ctx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("mcp: start transport: %w", err)
	}

	initReq := mcpgo.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcpgo.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcpgo.Implementation{
		Name:    "agent-bridge",
		Version: "1.0.0",
	}
	if _, err := c.Initialize(ctx, initReq); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("mcp: initialize: %w", err)
	}

	return &Client{userID: userID, client: c, logger: logger.With("user_id", userID)}, nil
}

// Close closes the underlying transport.
func (c *Client) Close() error {
	return c.client.Close()
}

// ToolResult is the collapsed result of one tools/call round-trip: the
// concatenated text content blocks, plus whether the server flagged the
// result as an error.
type ToolResult struct {
	Text    string
	IsError bool
}

// CallTool invokes one of the four MCP tools the Tool & Prompt Server
// exposes (execute_bash, read_file, write_file, read_docstring).
func (c *Client) CallTool(ctx context.Context, name string, arguments map[string]any) (*ToolResult, error) {
	req := mcpgo.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = arguments

	result, err := c.client.CallTool(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("mcp: call tool %s: %w", name, err)
	}

	var b strings.Builder
	for _, content := range result.Content {
		if text, ok := mcpgo.AsTextContent(content); ok {
			b.WriteString(text.Text)
		}
	}

	return &ToolResult{Text: b.String(), IsError: result.IsError}, nil
}

// FetchSystemPrompt calls the agent_system_prompt MCP prompt and
// concatenates its message content into one string.
func (c *Client) FetchSystemPrompt(ctx context.Context) (string, error) {
	req := mcpgo.GetPromptRequest{}
	req.Params.Name = "agent_system_prompt"

	result, err := c.client.GetPrompt(ctx, req)
	if err != nil {
		return "", fmt.Errorf("mcp: get prompt: %w", err)
	}

	var b strings.Builder
	for _, msg := range result.Messages {
		if text, ok := mcpgo.AsTextContent(msg.Content); ok {
			b.WriteString(text.Text)
		}
	}
	return b.String(), nil
}

// Ping checks whether the server is still reachable; used by health
// checks and reconnect logic, not by the per-request hot path.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return c.client.Ping(ctx)
}

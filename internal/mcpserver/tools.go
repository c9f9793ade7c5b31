package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mcpexec/backend/internal/containers"
	"github.com/mcpexec/backend/internal/fileio"
)

func registerTools(mcpServer *server.MCPServer, s *Server) {
	mcpServer.AddTool(
		mcp.NewTool("execute_bash",
			mcp.WithDescription("Run a shell command inside the caller's sandboxed container and return its exit code, stdout, and stderr."),
			mcp.WithString("command", mcp.Required(), mcp.Description("The shell command to run")),
			mcp.WithNumber("timeout", mcp.Description("Timeout in seconds (default 30)")),
		),
		s.executeBashHandler,
	)

	mcpServer.AddTool(
		mcp.NewTool("write_file",
			mcp.WithDescription("Overwrite a file inside the caller's container, creating parent directories as needed."),
			mcp.WithString("file_path", mcp.Required(), mcp.Description("Absolute path inside the container")),
			mcp.WithString("content", mcp.Required(), mcp.Description("The file's new contents")),
		),
		s.writeFileHandler,
	)

	mcpServer.AddTool(
		mcp.NewTool("read_file",
			mcp.WithDescription("Read a range of lines from a text file inside the caller's container."),
			mcp.WithString("file_path", mcp.Required(), mcp.Description("Absolute path inside the container")),
			mcp.WithNumber("offset", mcp.Description("0-indexed starting line (default 0)")),
			mcp.WithNumber("line_count", mcp.Description("Number of lines to return; omit for the rest of the file")),
		),
		s.readFileHandler,
	)

	mcpServer.AddTool(
		mcp.NewTool("read_docstring",
			mcp.WithDescription("Extract the documentation string attached to a top-level Python function."),
			mcp.WithString("file_path", mcp.Required(), mcp.Description("Absolute path inside the container")),
			mcp.WithString("function_name", mcp.Required(), mcp.Description("The top-level function name")),
		),
		s.readDocstringHandler,
	)
}

func (s *Server) executeBashHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	command, err := req.RequireString("command")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	timeoutSeconds := req.GetFloat("timeout", 30)
	timeout := time.Duration(timeoutSeconds) * time.Second

	if s.metrics != nil {
		defer func() { s.metrics.ToolCalls.WithLabelValues("execute_bash", outcomeLabel(err)).Inc() }()
	}

	result, execErr := s.exec.Execute(ctx, userID, command, timeout)
	if execErr != nil {
		err = execErr
		return mcp.NewToolResultError(toolErrorMessage(execErr)), nil
	}

	payload, _ := json.Marshal(map[string]any{
		"exit_code": result.ExitCode,
		"stdout":    result.Stdout,
		"stderr":    result.Stderr,
	})
	return mcp.NewToolResultText(string(payload)), nil
}

func (s *Server) writeFileHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err := req.RequireString("file_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if s.metrics != nil {
		defer func() { s.metrics.ToolCalls.WithLabelValues("write_file", outcomeLabel(err)).Inc() }()
	}

	n, writeErr := s.io.WriteFile(ctx, userID, path, content)
	if writeErr != nil {
		err = writeErr
		return mcp.NewToolResultError(toolErrorMessage(writeErr)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("wrote %d bytes to %s", n, path)), nil
}

func (s *Server) readFileHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err := req.RequireString("file_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	offset := int(req.GetFloat("offset", 0))
	var lineCount *int
	if v := req.GetFloat("line_count", -1); v >= 0 {
		n := int(v)
		lineCount = &n
	}

	if s.metrics != nil {
		defer func() { s.metrics.ToolCalls.WithLabelValues("read_file", outcomeLabel(err)).Inc() }()
	}

	text, readErr := s.io.ReadFile(ctx, userID, path, offset, lineCount)
	if readErr != nil {
		err = readErr
		return mcp.NewToolResultError(toolErrorMessage(readErr)), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) readDocstringHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err := req.RequireString("file_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	functionName, err := req.RequireString("function_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if s.metrics != nil {
		defer func() { s.metrics.ToolCalls.WithLabelValues("read_docstring", outcomeLabel(err)).Inc() }()
	}

	doc, docErr := s.io.ReadDocstring(ctx, userID, path, functionName)
	if docErr != nil {
		err = docErr
		return mcp.NewToolResultError(toolErrorMessage(docErr)), nil
	}
	return mcp.NewToolResultText(doc), nil
}

func outcomeLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// toolErrorMessage prefixes a tool failure with a stable, machine-greppable
// category so callers (and the Agent Bridge, which only sees this string as
// the tool result) can distinguish a missing container image from a plain
// file-not-found without parsing prose.
func toolErrorMessage(err error) string {
	var imgErr *containers.ImageUnavailableError
	var ctrErr *containers.ContainerUnavailableError
	var notFound *fileio.FileNotFoundError
	var docErr *fileio.DocstringExtractionFailedError
	switch {
	case errors.As(err, &imgErr):
		return "image unavailable: " + err.Error()
	case errors.As(err, &ctrErr):
		return "container unavailable: " + err.Error()
	case errors.As(err, &notFound):
		return "file not found: " + err.Error()
	case errors.As(err, &docErr):
		return "docstring extraction failed: " + err.Error()
	default:
		return err.Error()
	}
}

package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mcpexec/backend/internal/skills"
)

const systemPromptName = "agent_system_prompt"

func registerPrompt(mcpServer *server.MCPServer, s *Server) {
	mcpServer.AddPrompt(
		mcp.NewPrompt(systemPromptName,
			mcp.WithPromptDescription("The agent's dynamic system prompt, rendered over the currently installed skill set."),
		),
		s.systemPromptHandler,
	)
}

func (s *Server) systemPromptHandler(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	installed, err := s.registry.List()
	if err != nil {
		s.logger.Error("failed to list skills for system prompt", "error", err)
		installed = nil
	}

	rendered := skills.RenderPrompt(installed)

	return &mcp.GetPromptResult{
		Description: "Agent system prompt",
		Messages: []mcp.PromptMessage{
			{
				Role:    mcp.RoleAssistant,
				Content: mcp.NewTextContent(rendered),
			},
		},
	}, nil
}

package bridge

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mcpexec/backend/internal/agent"
	"github.com/mcpexec/backend/internal/sessions"
	"github.com/mcpexec/backend/pkg/models"
	openai "github.com/sashabaranov/go-openai"
)

// maxToolRounds bounds how many times the bridge will re-prompt the
// model after executing tool calls before giving up on a single
// request. The frozen tool surface (§4.A-C) means a well-behaved model
// converges in a handful of rounds; this is a backstop against a model
// stuck calling tools forever.
const maxToolRounds = 8

// promptCacheGetter is the slice of *promptcache.Cache's API the
// runtime cache needs, named here so this package doesn't have to
// import internal/promptcache just to spell the constructor signature.
type promptCacheGetter interface {
	Get(ctx context.Context) string
}

// Bridge implements component H: one upstream model client per user,
// fanned out over the frozen four-tool MCP surface, speaking an
// OpenAI-compatible streaming chat completions API to callers.
type Bridge struct {
	appName  string
	sessions *sessions.Store
	runtimes *runtimeCache
	logger   *slog.Logger
}

// New builds a Bridge. appName scopes the session store's composite
// key (userID, appName) to this deployment.
func New(appName, mcpServerURL string, model agent.LLMProvider, promptCache promptCacheGetter, sessionStore *sessions.Store, logger *slog.Logger) *Bridge {
	return &Bridge{
		appName:  appName,
		sessions: sessionStore,
		runtimes: newRuntimeCache(mcpServerURL, model, promptCache, logger),
		logger:   logger,
	}
}

// Close releases every cached per-user runtime's MCP connection.
func (b *Bridge) Close() {
	b.runtimes.CloseAll()
}

// chatRequest is the inbound wire shape of POST /v1/chat/completions:
// an OpenAI chat completion request plus an optional caller-supplied
// user id.
type chatRequest struct {
	Model    string                         `json:"model"`
	Messages []openai.ChatCompletionMessage `json:"messages"`
	Stream   bool                           `json:"stream"`
	User     string                         `json:"user"`
}

// validationError marks a request as rejected before any model or
// session work started, distinguishing a 400/422 from a mid-stream
// failure.
type validationError struct {
	status int
	msg    string
}

func (e *validationError) Error() string { return e.msg }

func validateChatRequest(req chatRequest) error {
	if !req.Stream {
		return &validationError{status: 422, msg: "stream must be true: the bridge only serves streaming responses"}
	}
	if len(req.Messages) == 0 {
		return &validationError{status: 400, msg: "messages must not be empty"}
	}
	if req.Model == "" {
		return &validationError{status: 400, msg: "model is required"}
	}
	return nil
}

func toCompletionMessages(messages []openai.ChatCompletionMessage) []agent.CompletionMessage {
	out := make([]agent.CompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, agent.CompletionMessage{Role: m.Role, Content: m.Content})
	}
	return out
}

// run executes one chat completion request end to end, writing SSE
// frames to sse as output is produced. It resolves (or mints) the
// caller's user id, ensures a session exists for that user, gets or
// builds the user's runtime, and drives the tool-call loop against the
// upstream model.
func (b *Bridge) run(ctx context.Context, req chatRequest, sse *sseWriter) {
	userID := req.User
	if userID == "" {
		userID = uuid.NewString()
	}

	if _, err := b.sessions.EnsureSession(ctx, userID, b.appName); err != nil {
		sse.Error(fmt.Sprintf("ensure session: %v", err), "server_error")
		sse.Done()
		return
	}

	rt, err := b.runtimes.Get(ctx, userID)
	if err != nil {
		sse.Error(fmt.Sprintf("prepare agent runtime: %v", err), "server_error")
		sse.Done()
		return
	}

	messages := toCompletionMessages(req.Messages)

	for round := 0; round < maxToolRounds; round++ {
		completionReq := &agent.CompletionRequest{
			Model:    req.Model,
			System:   rt.systemPrompt,
			Messages: messages,
			Tools:    rt.tools,
		}

		chunks, err := rt.model.Complete(ctx, completionReq)
		if err != nil {
			sse.Error(err.Error(), "server_error")
			sse.Done()
			return
		}

		assistantText, toolCalls, streamErr := b.drainRound(sse, chunks)
		if streamErr != nil {
			sse.Error(streamErr.Error(), "server_error")
			sse.Done()
			return
		}

		if len(toolCalls) == 0 {
			sse.Finish(openai.FinishReasonStop)
			sse.Done()
			return
		}

		messages = append(messages, agent.CompletionMessage{
			Role:      "assistant",
			Content:   assistantText,
			ToolCalls: toolCalls,
		})
		messages = append(messages, b.executeToolCalls(ctx, rt, toolCalls)...)
	}

	sse.Error("exceeded maximum tool-call rounds for this request", "server_error")
	sse.Done()
}

// drainRound consumes one model turn's chunk stream, forwarding text
// as it arrives and collecting any tool calls the model asked for.
func (b *Bridge) drainRound(sse *sseWriter, chunks <-chan *agent.CompletionChunk) (string, []models.ToolCall, error) {
	var text string
	var calls []models.ToolCall

	for chunk := range chunks {
		if chunk.Error != nil {
			return text, calls, chunk.Error
		}
		if chunk.Text != "" {
			text += chunk.Text
			sse.Content(chunk.Text)
		}
		if chunk.ToolCall != nil {
			calls = append(calls, *chunk.ToolCall)
			sse.ToolCallAnnounce(chunk.ToolCall.ID, chunk.ToolCall.Name, string(chunk.ToolCall.Input))
		}
		if chunk.Done {
			break
		}
	}

	return text, calls, nil
}

// executeToolCalls runs every pending tool call against the user's MCP
// client and returns one "tool" role message per result.
func (b *Bridge) executeToolCalls(ctx context.Context, rt *runtime, calls []models.ToolCall) []agent.CompletionMessage {
	results := make([]agent.CompletionMessage, 0, len(calls))
	for _, call := range calls {
		var tool agent.Tool
		for _, candidate := range rt.tools {
			if candidate.Name() == call.Name {
				tool = candidate
				break
			}
		}
		if tool == nil {
			results = append(results, agent.CompletionMessage{
				Role: "tool",
				ToolResults: []models.ToolResult{
					{ToolCallID: call.ID, Content: fmt.Sprintf("unknown tool %q", call.Name), IsError: true},
				},
			})
			continue
		}

		result, err := tool.Execute(ctx, call.Input)
		if err != nil {
			results = append(results, agent.CompletionMessage{
				Role: "tool",
				ToolResults: []models.ToolResult{
					{ToolCallID: call.ID, Content: err.Error(), IsError: true},
				},
			})
			continue
		}
		results = append(results, agent.CompletionMessage{
			Role: "tool",
			ToolResults: []models.ToolResult{
				{ToolCallID: call.ID, Content: result.Content, IsError: result.IsError},
			},
		})
	}
	return results
}

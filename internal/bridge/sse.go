package bridge

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// sseWriter emits OpenAI-shaped chat completion chunks as
// "data: <json>\n\n" frames, flushing after every write so the client
// sees each chunk as it is produced.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	id      string
	model   string
	created int64
}

func newSSEWriter(w http.ResponseWriter, id, model string, created int64) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("bridge: response writer does not support streaming")
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	return &sseWriter{w: w, flusher: flusher, id: id, model: model, created: created}, nil
}

func (s *sseWriter) writeFrame(chunk openai.ChatCompletionStreamResponse) {
	chunk.ID = s.id
	chunk.Object = "chat.completion.chunk"
	chunk.Created = s.created
	chunk.Model = s.model
	payload, err := json.Marshal(chunk)
	if err != nil {
		return
	}
	fmt.Fprintf(s.w, "data: %s\n\n", payload)
	s.flusher.Flush()
}

// Content emits a textual partial as choices[0].delta.content.
func (s *sseWriter) Content(text string) {
	s.writeFrame(openai.ChatCompletionStreamResponse{
		Choices: []openai.ChatCompletionStreamChoice{
			{Index: 0, Delta: openai.ChatCompletionStreamChoiceDelta{Content: text}},
		},
	})
}

// ToolCallAnnounce emits a tool call request as
// choices[0].delta.tool_calls.
func (s *sseWriter) ToolCallAnnounce(id, name, arguments string) {
	index := 0
	s.writeFrame(openai.ChatCompletionStreamResponse{
		Choices: []openai.ChatCompletionStreamChoice{
			{
				Index: 0,
				Delta: openai.ChatCompletionStreamChoiceDelta{
					ToolCalls: []openai.ToolCall{
						{
							Index: &index,
							ID:    id,
							Type:  openai.ToolTypeFunction,
							Function: openai.FunctionCall{
								Name:      name,
								Arguments: arguments,
							},
						},
					},
				},
			},
		},
	})
}

// Finish emits the terminal "stop" chunk: an empty delta with
// finish_reason set.
func (s *sseWriter) Finish(reason openai.FinishReason) {
	s.writeFrame(openai.ChatCompletionStreamResponse{
		Choices: []openai.ChatCompletionStreamChoice{
			{Index: 0, Delta: openai.ChatCompletionStreamChoiceDelta{}, FinishReason: reason},
		},
	})
}

// Error emits a single mid-stream error frame. The caller must still
// call Done after this.
func (s *sseWriter) Error(message, errType string) {
	payload, _ := json.Marshal(map[string]any{
		"error": map[string]string{"message": message, "type": errType},
	})
	fmt.Fprintf(s.w, "data: %s\n\n", payload)
	s.flusher.Flush()
}

// Done writes the terminating "[DONE]" frame.
func (s *sseWriter) Done() {
	fmt.Fprint(s.w, "data: [DONE]\n\n")
	s.flusher.Flush()
}

func nowUnix() int64 {
	return time.Now().Unix()
}

package bridge

import (
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateChatRequestRejectsNonStreaming(t *testing.T) {
	err := validateChatRequest(chatRequest{
		Model:    "gpt-4o",
		Messages: []openai.ChatCompletionMessage{{Role: "user", Content: "hi"}},
		Stream:   false,
	})
	require.Error(t, err)
	ve, ok := err.(*validationError)
	require.True(t, ok)
	assert.Equal(t, 422, ve.status)
}

func TestValidateChatRequestRejectsEmptyMessages(t *testing.T) {
	err := validateChatRequest(chatRequest{Model: "gpt-4o", Stream: true})
	require.Error(t, err)
	ve, ok := err.(*validationError)
	require.True(t, ok)
	assert.Equal(t, 400, ve.status)
}

func TestValidateChatRequestRejectsEmptyModel(t *testing.T) {
	err := validateChatRequest(chatRequest{
		Messages: []openai.ChatCompletionMessage{{Role: "user", Content: "hi"}},
		Stream:   true,
	})
	require.Error(t, err)
	ve, ok := err.(*validationError)
	require.True(t, ok)
	assert.Equal(t, 400, ve.status)
}

func TestValidateChatRequestAcceptsWellFormedRequest(t *testing.T) {
	err := validateChatRequest(chatRequest{
		Model:    "gpt-4o",
		Messages: []openai.ChatCompletionMessage{{Role: "user", Content: "hi"}},
		Stream:   true,
	})
	assert.NoError(t, err)
}

func TestToCompletionMessagesPreservesRoleAndContent(t *testing.T) {
	out := toCompletionMessages([]openai.ChatCompletionMessage{
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: "hi there"},
	})
	require.Len(t, out, 2)
	assert.Equal(t, "user", out[0].Role)
	assert.Equal(t, "hello", out[0].Content)
	assert.Equal(t, "assistant", out[1].Role)
	assert.Equal(t, "hi there", out[1].Content)
}

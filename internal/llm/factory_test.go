package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patternlab/structmark/internal/config"
)

func TestNewClientUnsupportedProvider(t *testing.T) {
	_, err := NewClient(context.Background(), config.LLMConfig{Provider: "watson"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported llm provider")
}

func TestNewClientOpenAI(t *testing.T) {
	client, err := NewClient(context.Background(), config.LLMConfig{Provider: "openai", APIKey: "k", Model: "gpt-4o-mini"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, client)
}

func TestNewClientOllamaSpeaksOpenAI(t *testing.T) {
	client, err := NewClient(context.Background(), config.LLMConfig{Provider: "ollama", Model: "llama3"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, client)
}

func TestNewClientClaude(t *testing.T) {
	client, err := NewClient(context.Background(), config.LLMConfig{Provider: "claude", APIKey: "k", Model: "claude-sonnet"})
	require.NoError(t, err)
	assert.IsType(t, &ClaudeClient{}, client)
}

func TestNewClientProviderIsCaseInsensitive(t *testing.T) {
	_, err := NewClient(context.Background(), config.LLMConfig{Provider: "OpenAI", APIKey: "k"})
	assert.NoError(t, err)
}

package providers

import (
	"context"
	"errors"
	"testing"

	"github.com/meysamhadeli/codoc/providers/models"
	"github.com/meysamhadeli/codoc/token_management"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatProviderFactory(t *testing.T) {
	tokens := token_management.NewTokenManager()

	_, err := ChatProviderFactory(&AIProviderConfig{Provider: "openai", Model: "gpt-4o"}, tokens)
	assert.True(t, errors.Is(err, ErrMissingAPIKey))

	_, err = ChatProviderFactory(&AIProviderConfig{Provider: "azure-openai"}, tokens)
	assert.True(t, errors.Is(err, ErrMissingAPIKey))

	provider, err := ChatProviderFactory(&AIProviderConfig{Provider: "OpenAI", ApiKey: "k"}, tokens)
	require.NoError(t, err)
	assert.NotNil(t, provider)

	provider, err = ChatProviderFactory(&AIProviderConfig{Provider: "ollama", Model: "llama3"}, tokens)
	require.NoError(t, err)
	assert.NotNil(t, provider)

	_, err = ChatProviderFactory(&AIProviderConfig{Provider: "unknown"}, tokens)
	assert.Error(t, err)

	_, err = ChatProviderFactory(nil, tokens)
	assert.Error(t, err)
}

// scriptedProvider replays fixed stream responses.
type scriptedProvider struct {
	responses []models.StreamResponse
	request   models.ChatRequest
}

func (p *scriptedProvider) ChatCompletionRequest(_ context.Context, request models.ChatRequest) <-chan models.StreamResponse {
	p.request = request
	ch := make(chan models.StreamResponse)
	go func() {
		defer close(ch)
		for _, r := range p.responses {
			ch <- r
		}
	}()
	return ch
}

func TestChatGenerator_Generate(t *testing.T) {
	provider := &scriptedProvider{responses: []models.StreamResponse{
		{Content: "```py\n"},
		{Content: "x = 1\n```"},
		{Done: true},
	}}

	text, err := NewChatGenerator(provider).Generate(context.Background(), "gpt-4o", "prompt")

	require.NoError(t, err)
	assert.Equal(t, "```py\nx = 1\n```", text)
	assert.Equal(t, "gpt-4o", provider.request.Model)
	assert.Equal(t, "prompt", provider.request.UserInput)
}

func TestChatGenerator_GenerateError(t *testing.T) {
	provider := &scriptedProvider{responses: []models.StreamResponse{
		{Content: "partial"},
		{Err: errors.New("stream broken")},
		{Content: "ignored"},
	}}

	text, err := NewChatGenerator(provider).Generate(context.Background(), "m", "p")

	assert.EqualError(t, err, "stream broken")
	assert.Empty(t, text)
}

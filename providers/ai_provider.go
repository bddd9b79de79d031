package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/meysamhadeli/codoc/providers/contracts"
	"github.com/meysamhadeli/codoc/providers/models"
	"github.com/meysamhadeli/codoc/providers/ollama"
	"github.com/meysamhadeli/codoc/providers/openai"
	contracts2 "github.com/meysamhadeli/codoc/token_management/contracts"
)

// ErrMissingAPIKey is returned when a hosted provider is configured without credentials.
var ErrMissingAPIKey = errors.New("missing API key for AI provider")

// AIProviderConfig holds the connection settings of the generation backend
type AIProviderConfig struct {
	Provider    string   `mapstructure:"provider"`
	BaseURL     string   `mapstructure:"base_url"`
	Model       string   `mapstructure:"model"`
	Temperature *float32 `mapstructure:"temperature"`
	MaxTokens   int      `mapstructure:"max_tokens"`
	ApiKey      string   `mapstructure:"api_key"`
	ApiVersion  string   `mapstructure:"api_version"`
}

// ChatProviderFactory creates a provider based on the configured provider name.
func ChatProviderFactory(config *AIProviderConfig, tokenManagement contracts2.ITokenManagement) (contracts.IChatAIProvider, error) {
	if config == nil {
		return nil, errors.New("AI provider config is required")
	}

	switch strings.ToLower(config.Provider) {
	case "ollama":
		return ollama.NewOllamaChatProvider(&ollama.OllamaConfig{
			BaseURL:         config.BaseURL,
			Model:           config.Model,
			Temperature:     config.Temperature,
			MaxTokens:       config.MaxTokens,
			TokenManagement: tokenManagement,
		}), nil
	case "openai", "azure-openai", "deepseek", "openrouter":
		if config.ApiKey == "" {
			return nil, fmt.Errorf("%w '%s': set api_key in config, the API_KEY environment variable or --api_key", ErrMissingAPIKey, config.Provider)
		}
		return openai.NewOpenAIChatProvider(&openai.OpenAIConfig{
			ProviderName:    strings.ToLower(config.Provider),
			BaseURL:         config.BaseURL,
			Model:           config.Model,
			Temperature:     config.Temperature,
			MaxTokens:       config.MaxTokens,
			ApiKey:          config.ApiKey,
			ApiVersion:      config.ApiVersion,
			TokenManagement: tokenManagement,
		}), nil
	default:
		return nil, fmt.Errorf("provider '%s' is not supported", config.Provider)
	}
}

// ChatGenerator adapts a streaming chat provider to a blocking text generator.
type ChatGenerator struct {
	provider contracts.IChatAIProvider
}

// NewChatGenerator wraps provider.
func NewChatGenerator(provider contracts.IChatAIProvider) *ChatGenerator {
	return &ChatGenerator{provider: provider}
}

// Generate sends prompt to the provider and collects the streamed text.
func (g *ChatGenerator) Generate(ctx context.Context, model string, prompt string) (string, error) {
	responseChan := g.provider.ChatCompletionRequest(ctx, models.ChatRequest{
		Model:     model,
		UserInput: prompt,
	})

	var builder strings.Builder
	for response := range responseChan {
		if response.Err != nil {
			// drain so the provider goroutine can exit
			for range responseChan {
			}
			return "", response.Err
		}
		builder.WriteString(response.Content)
	}
	return builder.String(), nil
}

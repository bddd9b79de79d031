package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/meysamhadeli/codoc/providers/contracts"
	"github.com/meysamhadeli/codoc/providers/models"
	openai_models "github.com/meysamhadeli/codoc/providers/openai/models"
	contracts2 "github.com/meysamhadeli/codoc/token_management/contracts"
)

// OpenAIConfig implements the chat provider interface for OpenAI compatible APIs.
type OpenAIConfig struct {
	ProviderName    string
	BaseURL         string
	Model           string
	Temperature     *float32
	MaxTokens       int
	ApiKey          string
	ApiVersion      string
	TokenManagement contracts2.ITokenManagement
	Client          *http.Client
}

const (
	defaultBaseURL = "https://api.openai.com/v1"
	dataPrefix     = "data: "
	doneMarker     = "[DONE]"
)

// NewOpenAIChatProvider initializes a new OpenAI compatible provider.
func NewOpenAIChatProvider(config *OpenAIConfig) contracts.IChatAIProvider {
	baseURL := strings.TrimSuffix(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	client := config.Client
	if client == nil {
		client = &http.Client{}
	}
	providerName := config.ProviderName
	if providerName == "" {
		providerName = "openai"
	}
	return &OpenAIConfig{
		ProviderName:    providerName,
		BaseURL:         baseURL,
		Model:           config.Model,
		Temperature:     config.Temperature,
		MaxTokens:       config.MaxTokens,
		ApiKey:          config.ApiKey,
		ApiVersion:      config.ApiVersion,
		TokenManagement: config.TokenManagement,
		Client:          client,
	}
}

func (openAIProvider *OpenAIConfig) endpoint() string {
	url := fmt.Sprintf("%s/chat/completions", openAIProvider.BaseURL)
	if openAIProvider.ApiVersion != "" {
		url += "?api-version=" + openAIProvider.ApiVersion
	}
	return url
}

func (openAIProvider *OpenAIConfig) ChatCompletionRequest(ctx context.Context, request models.ChatRequest) <-chan models.StreamResponse {
	responseChan := make(chan models.StreamResponse)

	go func() {
		defer close(responseChan)

		model := request.Model
		if model == "" {
			model = openAIProvider.Model
		}

		var messages []openai_models.Message
		if request.SystemPrompt != "" {
			messages = append(messages, openai_models.Message{Role: "system", Content: request.SystemPrompt})
		}
		messages = append(messages, openai_models.Message{Role: "user", Content: request.UserInput})

		reqBody := openai_models.OpenAIChatCompletionRequest{
			Model:         model,
			Messages:      messages,
			Stream:        true,
			Temperature:   openAIProvider.Temperature,
			MaxTokens:     openAIProvider.MaxTokens,
			StreamOptions: &openai_models.StreamOptions{IncludeUsage: true},
		}

		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			responseChan <- models.StreamResponse{Err: fmt.Errorf("error marshalling request body: %w", err)}
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, openAIProvider.endpoint(), bytes.NewBuffer(jsonData))
		if err != nil {
			responseChan <- models.StreamResponse{Err: fmt.Errorf("error creating request: %w", err)}
			return
		}
		req.Header.Set("Content-Type", "application/json")
		if openAIProvider.ProviderName == "azure-openai" {
			req.Header.Set("api-key", openAIProvider.ApiKey)
		} else {
			req.Header.Set("Authorization", "Bearer "+openAIProvider.ApiKey)
		}

		resp, err := openAIProvider.Client.Do(req)
		if err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				responseChan <- models.StreamResponse{Err: fmt.Errorf("request canceled: %w", err)}
				return
			}
			responseChan <- models.StreamResponse{Err: fmt.Errorf("error sending request: %w", err)}
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			var apiError models.AIError
			if err := json.Unmarshal(body, &apiError); err != nil || apiError.Error.Message == "" {
				responseChan <- models.StreamResponse{Err: fmt.Errorf("API request failed with status code '%d'", resp.StatusCode)}
				return
			}
			responseChan <- models.StreamResponse{Err: fmt.Errorf("API request failed with status code '%d' - %s", resp.StatusCode, apiError.Error.Message)}
			return
		}

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if !strings.HasPrefix(line, dataPrefix) {
				continue
			}
			payload := strings.TrimPrefix(line, dataPrefix)
			if payload == doneMarker {
				responseChan <- models.StreamResponse{Done: true}
				return
			}

			var response openai_models.OpenAIChatCompletionResponse
			if err := json.Unmarshal([]byte(payload), &response); err != nil {
				responseChan <- models.StreamResponse{Err: fmt.Errorf("error unmarshalling chunk: %w", err)}
				return
			}

			for _, choice := range response.Choices {
				if choice.Delta.Content != "" {
					responseChan <- models.StreamResponse{Content: choice.Delta.Content}
				}
			}

			if response.Usage != nil && openAIProvider.TokenManagement != nil {
				openAIProvider.TokenManagement.UsedTokens(response.Usage.PromptTokens, response.Usage.CompletionTokens)
			}
		}

		if err := scanner.Err(); err != nil {
			responseChan <- models.StreamResponse{Err: fmt.Errorf("error reading stream: %w", err)}
		}
	}()

	return responseChan
}

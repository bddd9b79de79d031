package ollama

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
	ollama_models "github.com/meysamhadeli/codoc/providers/ollama/models"
	contracts2 "github.com/meysamhadeli/codoc/token_management/contracts"
)

// OllamaConfig implements the chat provider interface for a local Ollama server.
type OllamaConfig struct {
	BaseURL         string
	Model           string
	Temperature     *float32
	MaxTokens       int
	TokenManagement contracts2.ITokenManagement
	Client          *http.Client
}

const (
	defaultBaseURL = "http://localhost:11434/api"
)

// NewOllamaChatProvider initializes a new Ollama provider.
func NewOllamaChatProvider(config *OllamaConfig) contracts.IChatAIProvider {
	baseURL := strings.TrimSuffix(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	client := config.Client
	if client == nil {
		client = &http.Client{}
	}
	return &OllamaConfig{
		BaseURL:         baseURL,
		Model:           config.Model,
		Temperature:     config.Temperature,
		MaxTokens:       config.MaxTokens,
		TokenManagement: config.TokenManagement,
		Client:          client,
	}
}

func (ollamaProvider *OllamaConfig) ChatCompletionRequest(ctx context.Context, request models.ChatRequest) <-chan models.StreamResponse {
	responseChan := make(chan models.StreamResponse)

	go func() {
		defer close(responseChan)

		model := request.Model
		if model == "" {
			model = ollamaProvider.Model
		}

		var messages []ollama_models.Message
		if request.SystemPrompt != "" {
			messages = append(messages, ollama_models.Message{Role: "system", Content: request.SystemPrompt})
		}
		messages = append(messages, ollama_models.Message{Role: "user", Content: request.UserInput})

		reqBody := ollama_models.OllamaChatCompletionRequest{
			Model:    model,
			Messages: messages,
			Stream:   true,
		}
		if ollamaProvider.Temperature != nil || ollamaProvider.MaxTokens > 0 {
			reqBody.Options = &ollama_models.Options{
				Temperature: ollamaProvider.Temperature,
				NumPredict:  ollamaProvider.MaxTokens,
			}
		}

		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			responseChan <- models.StreamResponse{Err: fmt.Errorf("error marshalling request body: %w", err)}
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/chat", ollamaProvider.BaseURL), bytes.NewBuffer(jsonData))
		if err != nil {
			responseChan <- models.StreamResponse{Err: fmt.Errorf("error creating request: %w", err)}
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := ollamaProvider.Client.Do(req)
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
			var apiError ollama_models.OllamaError
			if err := json.Unmarshal(body, &apiError); err != nil || apiError.Error == "" {
				responseChan <- models.StreamResponse{Err: fmt.Errorf("API request failed with status code '%d'", resp.StatusCode)}
				return
			}
			responseChan <- models.StreamResponse{Err: fmt.Errorf("API request failed with status code '%d' - %s", resp.StatusCode, apiError.Error)}
			return
		}

		reader := bufio.NewReader(resp.Body)
		for {
			line, err := reader.ReadBytes('\n')
			if len(bytes.TrimSpace(line)) > 0 {
				var response ollama_models.OllamaChatCompletionResponse
				if jsonErr := json.Unmarshal(line, &response); jsonErr != nil {
					responseChan <- models.StreamResponse{Err: fmt.Errorf("error unmarshalling chunk: %w", jsonErr)}
					return
				}

				if response.Message.Content != "" {
					responseChan <- models.StreamResponse{Content: response.Message.Content}
				}

				if response.Done {
					if ollamaProvider.TokenManagement != nil && response.PromptEvalCount > 0 {
						ollamaProvider.TokenManagement.UsedTokens(response.PromptEvalCount, response.EvalCount)
					}
					responseChan <- models.StreamResponse{Done: true}
					return
				}
			}

			if err != nil {
				if err == io.EOF {
					return
				}
				responseChan <- models.StreamResponse{Err: fmt.Errorf("error reading stream: %w", err)}
				return
			}
		}
	}()

	return responseChan
}

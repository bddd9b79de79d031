package token_management

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/meysamhadeli/codoc/constants/lipgloss"
	"github.com/meysamhadeli/codoc/embed_data"
	"github.com/meysamhadeli/codoc/token_management/contracts"
)

// TokenManager implementation
type tokenManager struct {
	usedToken       int
	usedInputToken  int
	usedOutputToken int
	mutex           sync.Mutex
}

type details struct {
	MaxTokens                  int     `json:"max_tokens"`
	MaxInputTokens             int     `json:"max_input_tokens"`
	MaxOutputTokens            int     `json:"max_output_tokens"`
	InputCostPerMillionTokens  float64 `json:"input_cost_per_million_tokens,omitempty"`
	OutputCostPerMillionTokens float64 `json:"output_cost_per_million_tokens,omitempty"`
	Mode                       string  `json:"mode"`
}

type Models struct {
	ModelDetails map[string]details `json:"models"`
}

// NewTokenManager creates a new token manager
func NewTokenManager() contracts.ITokenManagement {
	return &tokenManager{}
}

// UsedTokens accumulates the token count for the session.
func (tm *tokenManager) UsedTokens(inputToken int, outputToken int) {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()
	tm.usedInputToken += inputToken
	tm.usedOutputToken += outputToken
	tm.usedToken += inputToken + outputToken
}

func (tm *tokenManager) DisplayTokens(chatProviderName string, chatModel string) {
	total, input, output := tm.GetCurrentTokenUsage()
	cost := tm.CalculateCost(chatProviderName, chatModel, input, output)

	tokenInfo := fmt.Sprintf("Token Used: %d - Cost: %.6f $ - Chat Model: %s", total, cost, chatModel)
	fmt.Println(lipgloss.BoxStyle.Render(tokenInfo))
}

func (tm *tokenManager) GetCurrentTokenUsage() (total int, input int, output int) {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()
	return tm.usedToken, tm.usedInputToken, tm.usedOutputToken
}

func (tm *tokenManager) ClearToken() {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()
	tm.usedToken = 0
	tm.usedInputToken = 0
	tm.usedOutputToken = 0
}

// CalculateCost prices the given token counts; unknown models cost nothing.
func (tm *tokenManager) CalculateCost(providerName string, modelName string, inputToken int, outputToken int) float64 {
	modelDetails, err := getModelDetails(providerName, modelName)
	if err != nil {
		return 0
	}
	inputCost := float64(inputToken) * modelDetails.InputCostPerMillionTokens / 1000000.0
	outputCost := float64(outputToken) * modelDetails.OutputCostPerMillionTokens / 1000000.0
	return inputCost + outputCost
}

func getModelDetails(providerName string, modelName string) (details, error) {
	providerName = strings.ToLower(providerName)
	modelName = strings.ToLower(modelName)

	if strings.HasPrefix(providerName, "azure") {
		modelName = "azure/" + modelName
	}

	models := Models{
		ModelDetails: make(map[string]details),
	}
	if err := json.Unmarshal(embed_data.ModelDetails, &models); err != nil {
		return details{}, fmt.Errorf("failed to parse model details: %w", err)
	}

	model, exists := models.ModelDetails[modelName]
	if !exists {
		return details{}, fmt.Errorf("model details price with name '%s' not found for provider '%s'", modelName, providerName)
	}
	return model, nil
}

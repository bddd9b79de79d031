package contracts

import (
	"context"

	"github.com/meysamhadeli/codoc/providers/models"
)

type IChatAIProvider interface {
	ChatCompletionRequest(ctx context.Context, request models.ChatRequest) <-chan models.StreamResponse
}

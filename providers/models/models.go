package models

// ChatRequest is a single prompt sent to a chat provider
type ChatRequest struct {
	Model        string
	SystemPrompt string
	UserInput    string
}

// StreamResponse is one chunk of a streamed completion
type StreamResponse struct {
	Content string
	Err     error
	Done    bool
}

// AIError is the error body returned by OpenAI compatible APIs
type AIError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

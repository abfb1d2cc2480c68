package ai

import "context"

// CompletionRequest is everything the assessment provider receives for one run.
type CompletionRequest struct {
	System    string
	Prompt    string
	MaxTokens int
	Model     string
}

// Provider port untuk LLM eksternal. Returns the raw text completion.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

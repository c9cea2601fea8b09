package llm

import (
	"context"
)

// Prompt is a single-turn completion request.
type Prompt struct {
	System string
	User   string
}

// LLMClient returns the plain-text completion for a prompt. Errors wrap
// ErrRateLimited, ErrService or ErrEmptyCompletion.
type LLMClient interface {
	Generate(ctx context.Context, prompt Prompt) (string, error)
}

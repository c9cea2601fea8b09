package refinement

import (
	"context"
	"fmt"
	"strings"

	"github.com/agenthands/purify/internal/config"
	"github.com/agenthands/purify/internal/core/model"
	"github.com/agenthands/purify/internal/llm"
)

// Rewriter produces a softened version of text. Errors wrap
// llm.ErrRateLimited or llm.ErrService when the service reported them;
// anything else is treated as unexpected.
type Rewriter interface {
	Rewrite(ctx context.Context, text string, labels []model.Label) (string, error)
}

// LLMRewriter asks a completion model for the rewrite.
type LLMRewriter struct {
	LLM     llm.LLMClient
	Prompts config.RefinementPrompts
}

func NewLLMRewriter(llmClient llm.LLMClient, prompts config.RefinementPrompts) *LLMRewriter {
	return &LLMRewriter{
		LLM:     llmClient,
		Prompts: prompts,
	}
}

func (r *LLMRewriter) Rewrite(ctx context.Context, text string, labels []model.Label) (string, error) {
	names := make([]string, len(labels))
	for i, l := range labels {
		names[i] = string(l)
	}

	prompt := llm.Prompt{
		System: r.Prompts.System,
		User:   fmt.Sprintf(r.Prompts.User, text, strings.Join(names, ", ")),
	}

	response, err := r.LLM.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate rewrite: %w", err)
	}
	return response, nil
}

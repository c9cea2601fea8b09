package llm

import (
	"context"
	"errors"

	"github.com/liushuangls/go-anthropic/v2"
)

type ClaudeClient struct {
	client      *anthropic.Client
	model       string
	temperature float32
	maxTokens   int
}

func NewClaudeClient(apiKey string, model string, baseURL string, temperature float32, maxTokens int) *ClaudeClient {
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}
	if maxTokens <= 0 {
		maxTokens = 1000
	}

	return &ClaudeClient{
		client:      anthropic.NewClient(apiKey, opts...),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

func (c *ClaudeClient) Generate(ctx context.Context, prompt Prompt) (string, error) {
	temperature := c.temperature
	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:  anthropic.Model(c.model),
		System: prompt.System,
		Messages: []anthropic.Message{
			{
				Role: anthropic.RoleUser,
				Content: []anthropic.MessageContent{
					anthropic.NewTextMessageContent(prompt.User),
				},
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return "", classify("claude", err, claudeErrorKind)
	}

	if len(resp.Content) > 0 && resp.Content[0].Text != nil && *resp.Content[0].Text != "" {
		return *resp.Content[0].Text, nil
	}
	return "", wrap(ErrEmptyCompletion, "claude", nil)
}

func claudeErrorKind(err error) error {
	var apiErr *anthropic.APIError
	if errors.As(err, &apiErr) {
		if apiErr.IsRateLimitErr() {
			return ErrRateLimited
		}
		return ErrService
	}
	var reqErr *anthropic.RequestError
	if errors.As(err, &reqErr) {
		return statusKind(reqErr.StatusCode)
	}
	return nil
}

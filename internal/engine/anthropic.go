package engine

import (
	"context"

	"github.com/kalambet/loanbot/internal/anthropic"
)

// AnthropicEngine talks to the Anthropic Messages API.
type AnthropicEngine struct {
	client *anthropic.Client
}

func NewAnthropicEngine(apiKey, baseURL string) *AnthropicEngine {
	return &AnthropicEngine{client: anthropic.NewClientWithBaseURL(apiKey, baseURL)}
}

func (e *AnthropicEngine) Chat(ctx context.Context, req Request) (string, error) {
	msgs := make([]anthropic.Message, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = anthropic.Message{Role: m.Role, Content: m.Content}
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	return e.client.CreateMessage(ctx, anthropic.MessagesRequest{
		Model:       req.Model,
		MaxTokens:   maxTokens,
		System:      req.System,
		Messages:    msgs,
		Temperature: req.Temperature,
		TopP:        req.TopP,
	})
}

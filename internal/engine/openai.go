package engine

import (
	"context"

	"github.com/kalambet/loanbot/internal/proxy"
)

// OpenAIEngine talks to an OpenAI-compatible chat completions API.
type OpenAIEngine struct {
	client *proxy.Client
}

func NewOpenAIEngine(apiKey, baseURL string) *OpenAIEngine {
	return &OpenAIEngine{client: proxy.NewClientWithBaseURL(apiKey, baseURL)}
}

func (e *OpenAIEngine) Chat(ctx context.Context, req Request) (string, error) {
	msgs := make([]proxy.Message, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, proxy.Message{Role: "system", Content: req.System})
	}
	for _, m := range req.Messages {
		msgs = append(msgs, proxy.Message{Role: m.Role, Content: m.Content})
	}

	return e.client.Complete(ctx, proxy.ChatRequest{
		Model:       req.Model,
		Messages:    msgs,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		TopP:        req.TopP,
	})
}

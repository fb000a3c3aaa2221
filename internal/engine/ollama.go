package engine

import (
	"context"

	"github.com/kalambet/loanbot/internal/ollama"
)

// OllamaEngine adapts the internal/ollama.Client to the Engine and
// Provisioner interfaces.
type OllamaEngine struct {
	client *ollama.Client
}

// NewOllamaEngine creates an OllamaEngine backed by an Ollama server at baseURL.
func NewOllamaEngine(baseURL string) *OllamaEngine {
	return &OllamaEngine{client: ollama.New(baseURL)}
}

func (e *OllamaEngine) Chat(ctx context.Context, req Request) (string, error) {
	msgs := make([]ollama.Message, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, ollama.Message{Role: "system", Content: req.System})
	}
	for _, m := range req.Messages {
		msgs = append(msgs, ollama.Message{Role: m.Role, Content: m.Content})
	}

	var format any
	if req.Schema != nil {
		format = req.Schema
	}

	return e.client.Chat(ctx, req.Model, msgs, format, &ollama.Options{
		Temperature: req.Temperature,
		TopP:        req.TopP,
		NumPredict:  req.MaxTokens,
	})
}

func (e *OllamaEngine) IsRunning(ctx context.Context) bool {
	return e.client.IsRunning(ctx)
}

func (e *OllamaEngine) HasModel(ctx context.Context, name string) bool {
	return e.client.HasModel(ctx, name)
}

func (e *OllamaEngine) PullModel(ctx context.Context, name string, onProgress func(PullProgress)) error {
	var cb func(ollama.PullProgress)
	if onProgress != nil {
		cb = func(p ollama.PullProgress) {
			onProgress(PullProgress{
				Status:    p.Status,
				Total:     p.Total,
				Completed: p.Completed,
			})
		}
	}
	return e.client.PullModel(ctx, name, cb)
}

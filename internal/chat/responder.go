package chat

import (
	"context"

	"github.com/kalambet/loanbot/internal/engine"
)

const (
	replyTemperature = 0.4
	replyMaxTokens   = 512
	replyTopP        = 0.9
)

// LLMResponder answers with a remote model, grounded by a system prompt
// built once from the catalog.
type LLMResponder struct {
	engine engine.Engine
	model  string
	system string
}

func NewLLMResponder(eng engine.Engine, model, systemPrompt string) *LLMResponder {
	return &LLMResponder{engine: eng, model: model, system: systemPrompt}
}

func (r *LLMResponder) Reply(ctx context.Context, history []Turn) (string, error) {
	msgs := make([]engine.Message, len(history))
	for i, t := range history {
		msgs[i] = engine.Message{Role: t.Role, Content: t.Content}
	}

	return r.engine.Chat(ctx, engine.Request{
		Model:       r.model,
		System:      r.system,
		Messages:    msgs,
		Temperature: replyTemperature,
		MaxTokens:   replyMaxTokens,
		TopP:        replyTopP,
	})
}

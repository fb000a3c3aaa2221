// Package engine abstracts the text-generation backends loanbot talks to:
// an OpenAI-compatible API (Groq by default), Anthropic, or a local Ollama.
package engine

import "context"

// Engine produces one assistant reply for a conversation.
type Engine interface {
	Chat(ctx context.Context, req Request) (string, error)
}

// Provisioner is implemented by local backends that host their own models.
type Provisioner interface {
	// IsRunning reports whether the inference backend is reachable.
	IsRunning(ctx context.Context) bool

	// HasModel reports whether the given model name is available locally.
	HasModel(ctx context.Context, name string) bool

	// PullModel downloads a model. The optional callback receives progress updates.
	PullModel(ctx context.Context, name string, onProgress func(PullProgress)) error
}

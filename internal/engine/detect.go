package engine

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoCredentials is returned by New when a remote backend has no API key.
var ErrNoCredentials = errors.New("no API key configured")

// Config selects and configures one backend.
type Config struct {
	// Backend is "openai", "anthropic", or "ollama".
	Backend string
	BaseURL string
	APIKey  string

	// OllamaBaseURL is used when Backend is "ollama" and BaseURL is empty.
	OllamaBaseURL string
}

// New returns the Engine for cfg.Backend.
func New(cfg Config) (Engine, error) {
	switch cfg.Backend {
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai backend: %w", ErrNoCredentials)
		}
		return NewOpenAIEngine(cfg.APIKey, cfg.BaseURL), nil
	case "anthropic":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("anthropic backend: %w", ErrNoCredentials)
		}
		return NewAnthropicEngine(cfg.APIKey, cfg.BaseURL), nil
	case "ollama":
		baseURL := cfg.OllamaBaseURL
		if baseURL == "" {
			baseURL = cfg.BaseURL
		}
		return NewOllamaEngine(baseURL), nil
	default:
		return nil, fmt.Errorf("unknown engine backend %q", cfg.Backend)
	}
}

// Unavailable is an Engine whose every call fails with Reason. Callers
// that degrade to a safe default on error can use it in place of a
// backend that could not be configured.
type Unavailable struct {
	Reason error
}

func (u Unavailable) Chat(_ context.Context, _ Request) (string, error) {
	return "", u.Reason
}

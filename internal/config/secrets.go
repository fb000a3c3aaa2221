package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
)

// Secrets holds API credentials. They are never persisted to the file
// backend and never shown by `config show`.
type Secrets struct {
	GroqAPIKey      string `env:"GROQ_API_KEY"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
}

func loadSecrets() (Secrets, error) {
	var s Secrets
	if err := env.Parse(&s); err != nil {
		return Secrets{}, err
	}
	return s, nil
}

// KeyFor returns the credential used by a remote backend. Ollama needs none.
func (s Secrets) KeyFor(backend string) string {
	switch backend {
	case "openai":
		return s.GroqAPIKey
	case "anthropic":
		return s.AnthropicAPIKey
	}
	return ""
}

// NeedsKey reports whether a backend authenticates with an API key.
func NeedsKey(backend string) bool {
	return backend == "openai" || backend == "anthropic"
}

func warnf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "[WARN] "+format+"\n", args...)
}

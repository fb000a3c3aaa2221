package config

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Server  ServerConfig
	Catalog CatalogConfig
	Chat    ChatConfig
	Session SessionConfig
	DNA     DNAConfig
	Ollama  OllamaConfig
	Log     LogConfig
	Secrets Secrets
}

type ServerConfig struct {
	Host        string
	Port        int
	CORSOrigins string
}

type CatalogConfig struct {
	Path string
}

type ChatConfig struct {
	// Mode is "llm" or "rules".
	Mode          string
	Backend       string
	BaseURL       string
	Model         string
	HistoryWindow int
	Timeout       string
}

type SessionConfig struct {
	// Backend is "memory" or "sqlite".
	Backend string
}

type DNAConfig struct {
	Enabled  bool
	Backend  string
	BaseURL  string
	Model    string
	Timeout  string
	CacheTTL string
}

type OllamaConfig struct {
	BaseURL string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8000,
			CORSOrigins: "http://localhost:5173,http://localhost:3000",
		},
		Catalog: CatalogConfig{
			Path: "loan_policies.json",
		},
		Chat: ChatConfig{
			Mode:          "llm",
			Backend:       "openai",
			BaseURL:       "https://api.groq.com/openai/v1",
			Model:         "llama-3.3-70b-versatile",
			HistoryWindow: 20,
			Timeout:       "30s",
		},
		Session: SessionConfig{
			Backend: "memory",
		},
		DNA: DNAConfig{
			Enabled:  true,
			Backend:  "anthropic",
			BaseURL:  "https://api.anthropic.com",
			Model:    "claude-3-5-sonnet-20241022",
			Timeout:  "45s",
			CacheTTL: "10m",
		},
		Ollama: OllamaConfig{
			BaseURL: "http://localhost:11434",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the JSON file backend at
// $XDG_CONFIG_HOME/loanbot/config.json, then applies LOANBOT_* environment
// overrides. API keys are only read from the environment.
func Load() (Config, error) {
	return loadWith(newPlatformBackend(), loadSecrets)
}

func loadWith(b ConfigBackend, secrets func() (Secrets, error)) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	s, err := secrets()
	if err != nil {
		return Config{}, fmt.Errorf("reading secrets: %w", err)
	}
	cfg.Secrets = s

	if cfg.Chat.HistoryWindow < 2 {
		return Config{}, fmt.Errorf("chat.history_window must be at least 2, got %d", cfg.Chat.HistoryWindow)
	}
	switch cfg.Chat.Mode {
	case "llm", "rules":
	default:
		return Config{}, fmt.Errorf("chat.mode must be \"llm\" or \"rules\", got %q", cfg.Chat.Mode)
	}
	switch cfg.Session.Backend {
	case "memory", "sqlite":
	default:
		return Config{}, fmt.Errorf("session.backend must be \"memory\" or \"sqlite\", got %q", cfg.Session.Backend)
	}

	return cfg, nil
}

// Origins splits the comma-separated CORS allow-list.
func (c ServerConfig) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Duration parses a duration-valued key, falling back to def when the value
// is empty or malformed.
func Duration(key, raw string, def time.Duration) time.Duration {
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		warnf("could not parse duration from config key %s=%q. Using %s.", key, raw, def)
		return def
	}
	return d
}

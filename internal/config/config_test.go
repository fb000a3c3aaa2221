package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// mapBackend is an in-memory ConfigBackend.
type mapBackend struct {
	data map[string]any
}

func newMapBackend(data map[string]any) *mapBackend {
	if data == nil {
		data = make(map[string]any)
	}
	return &mapBackend{data: data}
}

func (m *mapBackend) GetString(key string) (string, bool, error) {
	v, ok := m.data[key]
	if !ok {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", true, errors.New("not a string")
	}
	return s, true, nil
}

func (m *mapBackend) GetInt(key string) (int, bool, error) {
	v, ok := m.data[key]
	if !ok {
		return 0, false, nil
	}
	i, ok := v.(int)
	if !ok {
		return 0, true, errors.New("not an int")
	}
	return i, true, nil
}

func (m *mapBackend) SetString(key, val string) error { m.data[key] = val; return nil }
func (m *mapBackend) SetInt(key string, val int) error { m.data[key] = val; return nil }
func (m *mapBackend) Delete(key string) error          { delete(m.data, key); return nil }

func noSecrets() (Secrets, error) { return Secrets{}, nil }

func clearEnv(t *testing.T) {
	t.Helper()
	for _, s := range specs {
		t.Setenv(s.env, "")
	}
}

// TestDefaults verifies all default values are applied when the backend is empty.
func TestDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := loadWith(newMapBackend(nil), noSecrets)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 8000 {
		t.Errorf("Server.Port = %d, want 8000", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Catalog.Path != "loan_policies.json" {
		t.Errorf("Catalog.Path = %q", cfg.Catalog.Path)
	}
	if cfg.Chat.HistoryWindow != 20 {
		t.Errorf("Chat.HistoryWindow = %d, want 20", cfg.Chat.HistoryWindow)
	}
	if cfg.Chat.Mode != "llm" || cfg.Chat.Backend != "openai" {
		t.Errorf("Chat mode/backend = %q/%q", cfg.Chat.Mode, cfg.Chat.Backend)
	}
	if cfg.Session.Backend != "memory" {
		t.Errorf("Session.Backend = %q, want memory", cfg.Session.Backend)
	}
	if !cfg.DNA.Enabled {
		t.Error("DNA.Enabled = false, want true")
	}

	origins := cfg.Server.Origins()
	if len(origins) != 2 || origins[0] != "http://localhost:5173" || origins[1] != "http://localhost:3000" {
		t.Errorf("Origins() = %v", origins)
	}
}

// TestBackendValues verifies values stored in the backend are applied.
func TestBackendValues(t *testing.T) {
	clearEnv(t)

	b := newMapBackend(map[string]any{
		"server.port":         9100,
		"chat.model":          "mixtral-8x7b",
		"session.backend":     "sqlite",
		"dna.enabled":         "false",
		"server.cors_origins": "https://a.example, https://b.example ,",
	})
	cfg, err := loadWith(b, noSecrets)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 9100 {
		t.Errorf("Server.Port = %d, want 9100", cfg.Server.Port)
	}
	if cfg.Chat.Model != "mixtral-8x7b" {
		t.Errorf("Chat.Model = %q", cfg.Chat.Model)
	}
	if cfg.Session.Backend != "sqlite" {
		t.Errorf("Session.Backend = %q", cfg.Session.Backend)
	}
	if cfg.DNA.Enabled {
		t.Error("DNA.Enabled = true, want false")
	}
	if got := cfg.Server.Origins(); len(got) != 2 || got[1] != "https://b.example" {
		t.Errorf("Origins() = %v", got)
	}
}

// TestEnvOverride verifies that environment variables override backend values.
func TestEnvOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOANBOT_SERVER_PORT", "9200")
	t.Setenv("LOANBOT_CHAT_MODE", "rules")

	b := newMapBackend(map[string]any{"server.port": 9100})
	cfg, err := loadWith(b, noSecrets)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 9200 {
		t.Errorf("Server.Port = %d, want 9200", cfg.Server.Port)
	}
	if cfg.Chat.Mode != "rules" {
		t.Errorf("Chat.Mode = %q, want rules", cfg.Chat.Mode)
	}
}

// TestEnvOverrideBadInt verifies a malformed integer keeps the previous value.
func TestEnvOverrideBadInt(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOANBOT_SERVER_PORT", "eighty")

	cfg, err := loadWith(newMapBackend(nil), noSecrets)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("Server.Port = %d, want 8000", cfg.Server.Port)
	}
}

func TestSecretsFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("GROQ_API_KEY", "gsk-test")
	t.Setenv("ANTHROPIC_API_KEY", "")

	cfg, err := loadWith(newMapBackend(nil), loadSecrets)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Secrets.GroqAPIKey != "gsk-test" {
		t.Errorf("GroqAPIKey = %q", cfg.Secrets.GroqAPIKey)
	}
	if got := cfg.Secrets.KeyFor("anthropic"); got != "" {
		t.Errorf("KeyFor(anthropic) = %q, want empty", got)
	}
	if got := cfg.Secrets.KeyFor("ollama"); got != "" {
		t.Errorf("KeyFor(ollama) = %q, want empty", got)
	}
}

func TestInvalidValuesRejected(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
		want string
	}{
		{"small window", map[string]any{"chat.history_window": 1}, "history_window"},
		{"bad mode", map[string]any{"chat.mode": "magic"}, "chat.mode"},
		{"bad session backend", map[string]any{"session.backend": "redis"}, "session.backend"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			_, err := loadWith(newMapBackend(tt.data), noSecrets)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestShowAllOmitsSecrets(t *testing.T) {
	cfg := defaults()
	cfg.Secrets = Secrets{GroqAPIKey: "gsk-hidden", AnthropicAPIKey: "sk-hidden"}

	for _, ki := range ShowAll(cfg) {
		if strings.Contains(ki.Value, "hidden") {
			t.Errorf("ShowAll leaked secret in %s", ki.Key)
		}
		if !strings.HasPrefix(ki.EnvVar, "LOANBOT_") {
			t.Errorf("%s env var = %q, want LOANBOT_ prefix", ki.Key, ki.EnvVar)
		}
	}
	if len(ShowAll(cfg)) != len(ValidKeys()) {
		t.Error("ShowAll and ValidKeys disagree on key count")
	}
}

func TestSetKey(t *testing.T) {
	b := newMapBackend(nil)

	if err := setKeyWith(b, "server.port", "9000"); err != nil {
		t.Fatalf("set int: %v", err)
	}
	if b.data["server.port"] != 9000 {
		t.Errorf("server.port = %v", b.data["server.port"])
	}
	if err := setKeyWith(b, "dna.enabled", "0"); err != nil {
		t.Fatalf("set bool: %v", err)
	}
	if b.data["dna.enabled"] != "false" {
		t.Errorf("dna.enabled = %v", b.data["dna.enabled"])
	}
	if err := setKeyWith(b, "server.port", "abc"); err == nil {
		t.Error("expected error for non-integer port")
	}
	if err := setKeyWith(b, "GROQ_API_KEY", "x"); err == nil || !strings.Contains(err.Error(), "secret") {
		t.Errorf("secret set error = %v", err)
	}
	if err := setKeyWith(b, "nope", "x"); err == nil || !strings.Contains(err.Error(), "unknown") {
		t.Errorf("unknown key error = %v", err)
	}
}

// TestFileBackendRoundTrip verifies the JSON file backend persists values.
func TestFileBackendRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loanbot", "config.json")

	b := newFileBackend(path)
	if err := b.SetInt("server.port", 7000); err != nil {
		t.Fatalf("SetInt: %v", err)
	}
	if err := b.SetString("chat.model", "llama3"); err != nil {
		t.Fatalf("SetString: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	reloaded := newFileBackend(path)
	port, ok, err := reloaded.GetInt("server.port")
	if err != nil || !ok || port != 7000 {
		t.Errorf("GetInt = %d, %v, %v", port, ok, err)
	}
	model, ok, _ := reloaded.GetString("chat.model")
	if !ok || model != "llama3" {
		t.Errorf("GetString = %q, %v", model, ok)
	}
}

func TestDuration(t *testing.T) {
	if got := Duration("chat.timeout", "5s", time.Minute); got != 5*time.Second {
		t.Errorf("Duration(5s) = %v", got)
	}
	if got := Duration("chat.timeout", "soon", time.Minute); got != time.Minute {
		t.Errorf("Duration(soon) = %v, want default", got)
	}
	if got := Duration("chat.timeout", "", time.Minute); got != time.Minute {
		t.Errorf("Duration(empty) = %v, want default", got)
	}
}

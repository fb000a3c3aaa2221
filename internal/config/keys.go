package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kBool
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.host", typ: kString, env: "LOANBOT_SERVER_HOST",
		apply:   func(cfg *Config, v any) { cfg.Server.Host = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.Host },
	},
	{
		key: "server.port", typ: kInt, env: "LOANBOT_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.cors_origins", typ: kString, env: "LOANBOT_SERVER_CORS_ORIGINS",
		apply:   func(cfg *Config, v any) { cfg.Server.CORSOrigins = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.CORSOrigins },
	},
	{
		key: "catalog.path", typ: kString, env: "LOANBOT_CATALOG_PATH",
		apply:   func(cfg *Config, v any) { cfg.Catalog.Path = v.(string) },
		extract: func(cfg Config) any { return cfg.Catalog.Path },
	},
	{
		key: "chat.mode", typ: kString, env: "LOANBOT_CHAT_MODE",
		apply:   func(cfg *Config, v any) { cfg.Chat.Mode = v.(string) },
		extract: func(cfg Config) any { return cfg.Chat.Mode },
	},
	{
		key: "chat.backend", typ: kString, env: "LOANBOT_CHAT_BACKEND",
		apply:   func(cfg *Config, v any) { cfg.Chat.Backend = v.(string) },
		extract: func(cfg Config) any { return cfg.Chat.Backend },
	},
	{
		key: "chat.base_url", typ: kString, env: "LOANBOT_CHAT_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Chat.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Chat.BaseURL },
	},
	{
		key: "chat.model", typ: kString, env: "LOANBOT_CHAT_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Chat.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.Chat.Model },
	},
	{
		key: "chat.history_window", typ: kInt, env: "LOANBOT_CHAT_HISTORY_WINDOW",
		apply:   func(cfg *Config, v any) { cfg.Chat.HistoryWindow = v.(int) },
		extract: func(cfg Config) any { return cfg.Chat.HistoryWindow },
	},
	{
		key: "chat.timeout", typ: kString, env: "LOANBOT_CHAT_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.Chat.Timeout = v.(string) },
		extract: func(cfg Config) any { return cfg.Chat.Timeout },
	},
	{
		key: "session.backend", typ: kString, env: "LOANBOT_SESSION_BACKEND",
		apply:   func(cfg *Config, v any) { cfg.Session.Backend = v.(string) },
		extract: func(cfg Config) any { return cfg.Session.Backend },
	},
	{
		key: "dna.enabled", typ: kBool, env: "LOANBOT_DNA_ENABLED",
		apply:   func(cfg *Config, v any) { cfg.DNA.Enabled = v.(bool) },
		extract: func(cfg Config) any { return cfg.DNA.Enabled },
	},
	{
		key: "dna.backend", typ: kString, env: "LOANBOT_DNA_BACKEND",
		apply:   func(cfg *Config, v any) { cfg.DNA.Backend = v.(string) },
		extract: func(cfg Config) any { return cfg.DNA.Backend },
	},
	{
		key: "dna.base_url", typ: kString, env: "LOANBOT_DNA_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.DNA.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.DNA.BaseURL },
	},
	{
		key: "dna.model", typ: kString, env: "LOANBOT_DNA_MODEL",
		apply:   func(cfg *Config, v any) { cfg.DNA.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.DNA.Model },
	},
	{
		key: "dna.timeout", typ: kString, env: "LOANBOT_DNA_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.DNA.Timeout = v.(string) },
		extract: func(cfg Config) any { return cfg.DNA.Timeout },
	},
	{
		key: "dna.cache_ttl", typ: kString, env: "LOANBOT_DNA_CACHE_TTL",
		apply:   func(cfg *Config, v any) { cfg.DNA.CacheTTL = v.(string) },
		extract: func(cfg Config) any { return cfg.DNA.CacheTTL },
	},
	{
		key: "ollama.base_url", typ: kString, env: "LOANBOT_OLLAMA_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Ollama.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Ollama.BaseURL },
	},
	{
		key: "log.level", typ: kString, env: "LOANBOT_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kBool:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok && v != "" {
				if bv, err := strconv.ParseBool(v); err == nil {
					s.apply(cfg, bv)
				} else {
					warnf("could not parse bool from config key %s=%q: %v. Using default value.", s.key, v, err)
				}
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				warnf("could not parse integer from env var %s=%q: %v. Using default value.", s.env, raw, err)
			}
		case kBool:
			if b, err := strconv.ParseBool(raw); err == nil {
				s.apply(cfg, b)
			} else {
				warnf("could not parse bool from env var %s=%q: %v. Using default value.", s.env, raw, err)
			}
		}
	}
}

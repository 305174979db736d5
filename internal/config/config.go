// Package config loads runtime settings from the environment, with an
// optional .env file for local development.
package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/casemill/interview-controller/internal/assess"
	"github.com/casemill/interview-controller/internal/director"
	"github.com/casemill/interview-controller/internal/llm"
)

// #region config

const (
	BackendScripted = "scripted"
	BackendOpenAI   = "openai"
	BackendGemini   = "gemini"
)

type Config struct {
	ListenAddr string
	DBPath     string
	CaseDir    string

	Backend      string
	OpenAIKey    string
	OpenAIModel  string
	GeminiKey    string
	GeminiModel  string
	LLMTimeout   time.Duration
	MaxDuration  time.Duration
	MaxExchanges int
}

// Load reads configuration from the environment. A .env file in the
// working directory is merged in when present but never overrides
// variables already set.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ListenAddr:   envOr("LISTEN_ADDR", ":8080"),
		DBPath:       envOr("DB_PATH", "interviews.db"),
		CaseDir:      envOr("CASE_DIR", "cases"),
		Backend:      envOr("LLM_BACKEND", BackendScripted),
		OpenAIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:  envOr("OPENAI_MODEL", "gpt-4o"),
		GeminiKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  envOr("GEMINI_MODEL", "gemini-2.0-flash"),
		LLMTimeout:   60 * time.Second,
		MaxDuration:  director.DefaultMaxDuration,
		MaxExchanges: director.DefaultMaxExchanges,
	}

	if v := os.Getenv("LLM_TIMEOUT_SECONDS"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return nil, fmt.Errorf("invalid LLM_TIMEOUT_SECONDS %q", v)
		}
		cfg.LLMTimeout = time.Duration(secs) * time.Second
	}
	if v := os.Getenv("MAX_DURATION_MINUTES"); v != "" {
		mins, err := strconv.Atoi(v)
		if err != nil || mins <= 0 {
			return nil, fmt.Errorf("invalid MAX_DURATION_MINUTES %q", v)
		}
		cfg.MaxDuration = time.Duration(mins) * time.Minute
	}
	if v := os.Getenv("MAX_EXCHANGES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid MAX_EXCHANGES %q", v)
		}
		cfg.MaxExchanges = n
	}

	switch cfg.Backend {
	case BackendScripted, BackendOpenAI, BackendGemini:
	default:
		return nil, fmt.Errorf("unknown LLM_BACKEND %q", cfg.Backend)
	}
	return cfg, nil
}

func (c *Config) Limits() director.Limits {
	return director.Limits{MaxDuration: c.MaxDuration, MaxExchanges: c.MaxExchanges}
}

// #endregion config

// #region backends

// Agents builds the assessor and responder pair for the configured
// backend. The scripted backend uses the keyword rule assessor, which
// needs no credentials and keeps local runs deterministic enough.
func (c *Config) Agents(ctx context.Context) (assess.Assessor, assess.Responder, error) {
	switch c.Backend {
	case BackendScripted:
		return assess.NewRuleAssessor(assess.DefaultRuleConfig()), assess.NewTemplateResponder(), nil

	case BackendOpenAI:
		client, err := llm.NewOpenAIClient(llm.OpenAIConfig{
			APIKey:  c.OpenAIKey,
			Model:   c.OpenAIModel,
			Timeout: c.LLMTimeout,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("openai backend: %w", err)
		}
		return &llm.Assessor{C: client}, &llm.Responder{C: client}, nil

	case BackendGemini:
		client, err := llm.NewGeminiClient(ctx, llm.GeminiConfig{
			APIKey: c.GeminiKey,
			Model:  c.GeminiModel,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("gemini backend: %w", err)
		}
		return &llm.Assessor{C: client}, &llm.Responder{C: client}, nil
	}
	return nil, nil, fmt.Errorf("unknown backend %q", c.Backend)
}

// #endregion backends

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

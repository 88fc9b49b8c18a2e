// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New() builds a Config with defaults; Load layers file and env on top.
// - Validate reports every problem wrapped in ErrInvalidConfig.
package config

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Supported generation providers.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderStatic = "static"
)

// Providers lists every accepted value of llm.provider.
var Providers = []string{ProviderOllama, ProviderOpenAI, ProviderGemini, ProviderStatic}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	LLM        LLMConfig        `koanf:"llm"`
	Generation GenerationConfig `koanf:"generation"`
	Model      ModelConfig      `koanf:"model"`
	Prompt     PromptConfig     `koanf:"prompt"`
}

// LLMConfig selects and addresses the generation collaborator.
type LLMConfig struct {
	// Provider is one of ollama, openai, gemini, static.
	Provider string `koanf:"provider"`
	Model    string `koanf:"model"`
	// BaseURL points at the provider endpoint; empty uses the provider default.
	BaseURL string `koanf:"base_url"`
	APIKey  string `koanf:"api_key"`
	// StaticReply is what the static provider returns for every prompt.
	StaticReply string `koanf:"static_reply"`
}

// GenerationConfig bounds every call to the collaborator.
type GenerationConfig struct {
	// MaxTokens caps newly generated tokens per call.
	MaxTokens int `koanf:"max_tokens"`
	// Seed is passed to providers that accept one.
	Seed int `koanf:"seed"`
	// Timeout is the wall-clock limit per evaluation; zero disables it.
	Timeout time.Duration `koanf:"timeout"`
	// Workers is the number of concurrent generations (one per compute resource).
	Workers int `koanf:"workers"`
	// QueueSize bounds how many evaluations may wait for a worker.
	QueueSize int `koanf:"queue_size"`
}

// ModelConfig locates the local model artifact cache.
type ModelConfig struct {
	// CacheDir is the content-addressed cache root; empty skips resolution.
	CacheDir string `koanf:"cache_dir"`
	// Ref names the pointer file under refs/.
	Ref string `koanf:"ref"`
}

// PromptConfig customizes prompt rendering.
type PromptConfig struct {
	// TemplatePath overrides the embedded chat template.
	TemplatePath string `koanf:"template_path"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Addr:      ":8080",
		LLM: LLMConfig{
			Provider: ProviderOllama,
			Model:    "qwen2.5:1.5b-instruct",
		},
		Generation: GenerationConfig{
			MaxTokens: 32,
			Seed:      0,
			Timeout:   30 * time.Second,
			Workers:   1,
			QueueSize: 64,
		},
		Model: ModelConfig{
			Ref: "main",
		},
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.Addr) == "" {
		problems = append(problems, "addr must not be empty")
	}
	if !slices.Contains(Providers, c.LLM.Provider) {
		problems = append(problems, fmt.Sprintf("unknown llm.provider %q", c.LLM.Provider))
	}
	if c.LLM.Provider != ProviderStatic && strings.TrimSpace(c.LLM.Model) == "" {
		problems = append(problems, "llm.model must not be empty")
	}
	if c.Generation.MaxTokens <= 0 {
		problems = append(problems, "generation.max_tokens must be positive")
	}
	if c.Generation.Workers <= 0 {
		problems = append(problems, "generation.workers must be positive")
	}
	if c.Generation.QueueSize <= 0 {
		problems = append(problems, "generation.queue_size must be positive")
	}
	if c.Generation.Timeout < 0 {
		problems = append(problems, "generation.timeout must not be negative")
	}
	if c.Model.CacheDir != "" && strings.TrimSpace(c.Model.Ref) == "" {
		problems = append(problems, "model.ref must not be empty when model.cache_dir is set")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// Package llm adapts text-generation backends to a single deterministic call.
//
// Every provider decodes greedily (temperature 0) with a fixed seed where the
// backend supports one, and returns only the newly generated continuation.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/sway/internal/config"
)

// Generator produces a continuation for an already rendered prompt.
// Implementations must be safe to call from the generation workers.
type Generator interface {
	// Generate returns at most maxTokens new tokens of text following prompt.
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
	// Name is the provider name, used in logs and metrics.
	Name() string
	// Model is the model identifier sent to the provider.
	Model() string
}

// New builds the Generator selected by cfg.Provider.
func New(ctx context.Context, cfg config.LLMConfig, seed int) (Generator, error) {
	opts := []Option{WithSeed(seed)}
	if cfg.BaseURL != "" {
		opts = append(opts, WithBaseURL(cfg.BaseURL))
	}
	if cfg.APIKey != "" {
		opts = append(opts, WithAPIKey(cfg.APIKey))
	}

	switch cfg.Provider {
	case config.ProviderOllama:
		return NewOllama(cfg.Model, opts...)
	case config.ProviderOpenAI:
		return NewOpenAI(cfg.Model, opts...), nil
	case config.ProviderGemini:
		return NewGemini(ctx, cfg.Model, opts...)
	case config.ProviderStatic:
		return NewStatic(cfg.StaticReply), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}

// StripEcho removes prompt from the start of out when a backend echoes it.
func StripEcho(prompt, out string) string {
	if prompt != "" && strings.HasPrefix(out, prompt) {
		return out[len(prompt):]
	}
	return out
}

func failed(provider string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrGenerationFailed, provider, err)
}

package llm

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/okian/sway/internal/config"
)

const defaultOllamaURL = "http://127.0.0.1:11434"

// Ollama calls /api/generate in raw mode so the prompt's own chat template is used as is.
type Ollama struct {
	client *api.Client
	model  string
	seed   int
}

// NewOllama returns an Ollama generator for model.
func NewOllama(model string, opts ...Option) (*Ollama, error) {
	o := newOptions(opts)
	base := o.baseURL
	if base == "" {
		base = defaultOllamaURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse ollama base url %q: %w", base, err)
	}
	return &Ollama{
		client: api.NewClient(u, o.httpClient),
		model:  model,
		seed:   o.seed,
	}, nil
}

// Generate implements Generator.
func (g *Ollama) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	stream := false
	req := &api.GenerateRequest{
		Model:  g.model,
		Prompt: prompt,
		Raw:    true,
		Stream: &stream,
		Options: map[string]any{
			"temperature": 0,
			"seed":        g.seed,
			"num_predict": maxTokens,
		},
	}

	var sb strings.Builder
	err := g.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		sb.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", failed(g.Name(), err)
	}
	return StripEcho(prompt, sb.String()), nil
}

// Name implements Generator.
func (g *Ollama) Name() string { return config.ProviderOllama }

// Model implements Generator.
func (g *Ollama) Model() string { return g.model }

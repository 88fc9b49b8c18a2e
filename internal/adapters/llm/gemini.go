package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/okian/sway/internal/config"
)

// contentGenerator is the part of genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content,
		config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini sends the rendered prompt as a single user turn.
type Gemini struct {
	models contentGenerator
	model  string
	seed   int
}

// NewGemini returns a Gemini API generator for model.
func NewGemini(ctx context.Context, model string, opts ...Option) (*Gemini, error) {
	o := newOptions(opts)
	cc := &genai.ClientConfig{
		APIKey:     o.apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: o.httpClient,
	}
	if o.baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: o.baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{models: client.Models, model: model, seed: o.seed}, nil
}

// Generate implements Generator.
func (g *Gemini) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0),
		MaxOutputTokens: int32(maxTokens), //nolint:gosec // bounded by config validation
		CandidateCount:  1,
		Seed:            genai.Ptr(int32(g.seed)), //nolint:gosec // small configured value
	}
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	resp, err := g.models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", failed(g.Name(), err)
	}
	return StripEcho(prompt, resp.Text()), nil
}

// Name implements Generator.
func (g *Gemini) Name() string { return config.ProviderGemini }

// Model implements Generator.
func (g *Gemini) Model() string { return g.model }

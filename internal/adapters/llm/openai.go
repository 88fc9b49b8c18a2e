package llm

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
	openaiopt "github.com/openai/openai-go/option"

	"github.com/okian/sway/internal/config"
)

var errNoChoices = errors.New("no choices in completion")

// OpenAI uses the plain completions endpoint of an OpenAI-compatible server
// (vLLM, llama.cpp) so the rendered prompt is sent without another chat template.
type OpenAI struct {
	client openai.Client
	model  string
	seed   int
}

// NewOpenAI returns an OpenAI-compatible generator for model.
func NewOpenAI(model string, opts ...Option) *OpenAI {
	o := newOptions(opts)

	clientOpts := []openaiopt.RequestOption{
		openaiopt.WithHTTPClient(o.httpClient),
		openaiopt.WithMaxRetries(0),
	}
	if o.apiKey != "" {
		clientOpts = append(clientOpts, openaiopt.WithAPIKey(o.apiKey))
	}
	if o.baseURL != "" {
		clientOpts = append(clientOpts, openaiopt.WithBaseURL(o.baseURL))
	}

	return &OpenAI{
		client: openai.NewClient(clientOpts...),
		model:  model,
		seed:   o.seed,
	}
}

// Generate implements Generator.
func (g *OpenAI) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	completion, err := g.client.Completions.New(ctx, openai.CompletionNewParams{
		Model:       openai.CompletionNewParamsModel(g.model),
		Prompt:      openai.CompletionNewParamsPromptUnion{OfString: openai.String(prompt)},
		MaxTokens:   openai.Int(int64(maxTokens)),
		Temperature: openai.Float(0),
		Seed:        openai.Int(int64(g.seed)),
	})
	if err != nil {
		return "", failed(g.Name(), err)
	}
	if len(completion.Choices) == 0 {
		return "", failed(g.Name(), errNoChoices)
	}
	return StripEcho(prompt, completion.Choices[0].Text), nil
}

// Name implements Generator.
func (g *OpenAI) Name() string { return config.ProviderOpenAI }

// Model implements Generator.
func (g *OpenAI) Model() string { return g.model }

package llm

import (
	"context"

	"github.com/okian/sway/internal/config"
)

// Static returns the same reply for every prompt. Used for local runs and probes.
type Static struct {
	reply string
}

// NewStatic returns a generator that always answers reply.
func NewStatic(reply string) *Static {
	return &Static{reply: reply}
}

// Generate implements Generator.
func (g *Static) Generate(ctx context.Context, _ string, _ int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", failed(g.Name(), err)
	}
	return g.reply, nil
}

// Name implements Generator.
func (g *Static) Name() string { return config.ProviderStatic }

// Model implements Generator.
func (g *Static) Model() string { return "static" }

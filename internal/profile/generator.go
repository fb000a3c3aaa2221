package profile

//go:generate mockgen -destination=mocks/mock_generator.go -source=generator.go Generator

import (
	"context"

	"github.com/kalambet/loanbot/internal/engine"
)

// Generator returns raw model output for a synthesis prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// EngineGenerator adapts an engine.Engine to Generator.
type EngineGenerator struct {
	engine engine.Engine
	model  string
}

func NewEngineGenerator(eng engine.Engine, model string) *EngineGenerator {
	return &EngineGenerator{engine: eng, model: model}
}

func (g *EngineGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return g.engine.Chat(ctx, engine.Request{
		Model:       g.model,
		Messages:    []engine.Message{{Role: engine.RoleUser, Content: prompt}},
		Temperature: 0.4,
		MaxTokens:   1500,
		Schema:      reportSchema(),
	})
}

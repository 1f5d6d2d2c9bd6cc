// Package mock provides a scriptable Generator for tests.
package mock

import (
	"context"
	"sync"

	"github.com/poiesic/doctalk/llm"
)

// Generator records prompts and delegates to GenerateFunc.
type Generator struct {
	mu           sync.Mutex
	prompts      []string
	GenerateFunc func(ctx context.Context, prompt string) (string, error)
}

var _ llm.Generator = (*Generator)(nil)

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()
	if g.GenerateFunc != nil {
		return g.GenerateFunc(ctx, prompt)
	}
	return "mock response", nil
}

// Prompts returns the prompts passed to Generate, in order.
func (g *Generator) Prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.prompts...)
}

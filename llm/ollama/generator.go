// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package ollama implements llm.Generator against an Ollama-compatible
// server via langchaingo.
package ollama

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tmc/langchaingo/llms"
	langollama "github.com/tmc/langchaingo/llms/ollama"

	"github.com/poiesic/doctalk/llm"
)

const (
	// DefaultHost is the standard local Ollama address.
	DefaultHost = "http://localhost:11434"
	// DefaultModel is the generation model used when none is configured.
	DefaultModel = "llama3.1:8b-instruct-q4_K_M"
	// DefaultTimeout bounds a single generation call.
	DefaultTimeout = 60 * time.Second

	// noResponseSentinel stands in for an empty completion; generation
	// does not fail just because the model produced nothing.
	noResponseSentinel = "No response generated"
)

// Generator produces completions from an Ollama server.
type Generator struct {
	client  *langollama.LLM
	timeout time.Duration
	logger  *slog.Logger
}

var _ llm.Generator = (*Generator)(nil)

// Option configures a Generator.
type Option func(*Generator)

// WithTimeout sets the per-call timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(g *Generator) {
		g.timeout = timeout
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// New creates a generator for the given server and model. Empty
// arguments fall back to the defaults.
func New(host, model string, opts ...Option) (*Generator, error) {
	if host == "" {
		host = DefaultHost
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := langollama.New(
		langollama.WithServerURL(host),
		langollama.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ollama client: %w", err)
	}

	g := &Generator{
		client:  client,
		timeout: DefaultTimeout,
		logger:  slog.Default().With("component", "ollama_generator"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Generate sends the prompt and returns the completion. Streaming is
// disabled; the call blocks for the full response.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	g.logger.Debug("generating completion", "prompt_length", len(prompt))

	response, err := llms.GenerateFromSinglePrompt(ctx, g.client, prompt)
	if err != nil {
		g.logger.Error("generation failed", "err", err)
		return "", fmt.Errorf("generating completion: %w", err)
	}
	if response == "" {
		g.logger.Warn("model returned an empty completion")
		return noResponseSentinel, nil
	}
	return response, nil
}

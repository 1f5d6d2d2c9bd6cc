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

// Package retrieval selects relevant documents for a question and
// assembles them into a bounded prompt. Matching is deliberately
// lexical: normalized substring and word overlap, no embeddings.
package retrieval

import (
	"log/slog"
	"sort"

	"github.com/poiesic/doctalk/core"
)

// DefaultMaxResults caps how many documents a query retrieves.
const DefaultMaxResults = 5

// candidateThreshold is the relevance score above which a document
// qualifies even without an exact or single-word match.
const candidateThreshold = 0.3

// Result pairs a retrieved document with its relevance score.
type Result struct {
	Document *core.DocumentRecord
	Score    float64
}

// Engine ranks documents against queries.
type Engine struct {
	maxResults int
	logger     *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxResults overrides the result cap.
func WithMaxResults(maxResults int) Option {
	return func(e *Engine) {
		e.maxResults = maxResults
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates a retrieval engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		maxResults: DefaultMaxResults,
		logger:     slog.Default().With("component", "retrieval"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Score computes the fraction of qualifying query words found in the
// content. Zero when the query has no qualifying words.
func (e *Engine) Score(query, content string) float64 {
	return score(normalize(query), normalize(content))
}

func score(normalizedQuery, normalizedContent string) float64 {
	words := queryWords(normalizedQuery)
	if len(words) == 0 {
		return 0
	}
	matched := 0
	for _, word := range words {
		if contains(normalizedContent, word) {
			matched++
		}
	}
	return float64(matched) / float64(len(words))
}

// isCandidate reports whether content qualifies for the query: the
// whole query appears as a substring, or at least one qualifying word
// matches, or the relevance score clears the threshold.
func isCandidate(normalizedQuery, normalizedContent string) bool {
	if normalizedQuery != "" && contains(normalizedContent, normalizedQuery) {
		return true
	}
	for _, word := range queryWords(normalizedQuery) {
		if contains(normalizedContent, word) {
			return true
		}
	}
	return score(normalizedQuery, normalizedContent) > candidateThreshold
}

// Retrieve returns the highest-scoring candidate documents, at most
// maxResults of them, in descending score order. Ties keep the input's
// document order.
func (e *Engine) Retrieve(query string, documents []*core.DocumentRecord) []Result {
	normalizedQuery := normalize(query)

	var results []Result
	for _, doc := range documents {
		normalizedContent := normalize(doc.Content)
		if !isCandidate(normalizedQuery, normalizedContent) {
			continue
		}
		results = append(results, Result{
			Document: doc,
			Score:    score(normalizedQuery, normalizedContent),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > e.maxResults {
		results = results[:e.maxResults]
	}

	e.logger.Debug("retrieval complete",
		"query_length", len(query),
		"documents", len(documents),
		"results", len(results))
	return results
}

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

// Package doctalk is a local document-chat engine: documents go in
// through an external conversion service, their text is persisted in a
// tiered local store, and questions are answered by a generation
// service grounded on lexically retrieved passages.
package doctalk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"

	"github.com/poiesic/doctalk/chat"
	"github.com/poiesic/doctalk/convert"
	"github.com/poiesic/doctalk/convert/docling"
	"github.com/poiesic/doctalk/core"
	"github.com/poiesic/doctalk/ingest"
	"github.com/poiesic/doctalk/llm"
	"github.com/poiesic/doctalk/llm/ollama"
	"github.com/poiesic/doctalk/retrieval"
	"github.com/poiesic/doctalk/storage"
	storagebadger "github.com/poiesic/doctalk/storage/badger"
	"github.com/poiesic/doctalk/storage/statefile"
	"github.com/poiesic/doctalk/storage/tiered"
)

// ErrDocumentNotFound indicates an unknown document id.
var ErrDocumentNotFound = errors.New("document not found")

// Config holds the external service endpoints and the data directory.
type Config struct {
	DataDir     string // state.json and the badger directory live here
	DoclingHost string // conversion service base URL
	OllamaHost  string // generation service base URL
	Model       string // generation model name
}

// DefaultConfig returns the local single-machine defaults.
func DefaultConfig() *Config {
	return &Config{
		DataDir:     "doctalk-data",
		DoclingHost: "http://localhost:5001",
		OllamaHost:  ollama.DefaultHost,
		Model:       ollama.DefaultModel,
	}
}

// App owns the in-memory application state and wires the components
// together. All mutations go through the mutex and are persisted
// through the tiered store before returning.
type App struct {
	mu        sync.Mutex
	store     *tiered.Store
	converter convert.Converter
	generator llm.Generator
	engine    *retrieval.Engine
	pipeline  *ingest.Pipeline
	chats     *chat.Store

	documents []*core.DocumentRecord
	hashes    map[string]bool

	closeOnce sync.Once
	logger    *slog.Logger
}

// AppOption configures an App.
type AppOption func(*appOptions)

type appOptions struct {
	converter convert.Converter
	generator llm.Generator
	logger    *slog.Logger
}

// WithConverter replaces the default docling-backed converter.
func WithConverter(converter convert.Converter) AppOption {
	return func(o *appOptions) {
		o.converter = converter
	}
}

// WithGenerator replaces the default Ollama generator.
func WithGenerator(generator llm.Generator) AppOption {
	return func(o *appOptions) {
		o.generator = generator
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) AppOption {
	return func(o *appOptions) {
		o.logger = logger
	}
}

// NewApp opens the stores under config.DataDir, loads persisted state,
// and returns a ready application.
func NewApp(ctx context.Context, config *Config, opts ...AppOption) (*App, error) {
	if config == nil {
		config = DefaultConfig()
	}
	options := &appOptions{}
	for _, opt := range opts {
		opt(options)
	}

	logger := options.logger
	if logger == nil {
		logger = slog.Default().With("component", "doctalk")
	}

	primary, err := statefile.New(filepath.Join(config.DataDir, "state.json"))
	if err != nil {
		return nil, fmt.Errorf("opening state file: %w", err)
	}
	backend, err := storagebadger.OpenBackend(filepath.Join(config.DataDir, "badger"), false)
	if err != nil {
		return nil, fmt.Errorf("opening badger: %w", err)
	}
	store := tiered.New(primary, storagebadger.NewStore(backend))

	converter := options.converter
	if converter == nil {
		converter = docling.NewJobRunner(docling.NewClient(config.DoclingHost))
	}
	generator := options.generator
	if generator == nil {
		generator, err = ollama.New(config.OllamaHost, config.Model)
		if err != nil {
			store.Close()
			return nil, err
		}
	}

	app := &App{
		store:     store,
		converter: converter,
		generator: generator,
		engine:    retrieval.NewEngine(),
		chats:     chat.NewStore(),
		hashes:    map[string]bool{},
		logger:    logger,
	}

	pipeline, err := ingest.NewPipeline(converter, app)
	if err != nil {
		store.Close()
		return nil, err
	}
	app.pipeline = pipeline

	state, err := store.Load(ctx)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("loading state: %w", err)
	}
	app.documents = state.Documents
	for _, hash := range state.Hashes {
		app.hashes[hash] = true
	}
	app.chats.SetConversations(state.Conversations, state.CurrentConversationId)

	logger.Info("state loaded",
		"documents", len(app.documents),
		"conversations", len(state.Conversations))
	return app, nil
}

// Close releases the pipeline and the stores. Idempotent.
func (a *App) Close() error {
	var err error
	a.closeOnce.Do(func() {
		a.pipeline.Release()
		err = a.store.Close()
	})
	return err
}

// HasHash reports whether a file identity hash is already recorded.
// Part of the ingest.Recorder contract.
func (a *App) HasHash(hash string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hashes[hash]
}

// AddDocument stores a converted document, records its hash, and
// persists. Part of the ingest.Recorder contract.
func (a *App) AddDocument(ctx context.Context, record *core.DocumentRecord) error {
	if err := core.ValidateDocumentRecord(record); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.documents = append(a.documents, record)
	a.hashes[record.ContentHash] = true
	return a.persistLocked(ctx)
}

// IngestFile converts and stores a single file.
func (a *App) IngestFile(ctx context.Context, path string, onProgress convert.ProgressFunc) (*core.DocumentRecord, error) {
	return a.pipeline.IngestFile(ctx, path, onProgress)
}

// IngestDir converts every supported file in a directory.
func (a *App) IngestDir(ctx context.Context, dir string, onProgress ingest.BatchProgressFunc) (*ingest.BatchReport, error) {
	return a.pipeline.IngestDir(ctx, dir, onProgress)
}

// IngestDirAsync runs IngestDir on the pipeline's background worker.
func (a *App) IngestDirAsync(ctx context.Context, dir string, onProgress ingest.BatchProgressFunc, onDone func(*ingest.BatchReport, error)) error {
	return a.pipeline.IngestDirAsync(ctx, dir, onProgress, onDone)
}

// Ask answers a question from the stored documents: retrieve, assemble
// a bounded context and prompt, generate, then record the turn on the
// current conversation and persist.
func (a *App) Ask(ctx context.Context, query string) (string, []retrieval.Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	conversation := a.chats.Current()
	history := conversation.Recent(retrieval.HistoryLimit)

	results := a.engine.Retrieve(query, a.documents)
	docContext := retrieval.AssembleContext(results, retrieval.DefaultMaxContextChars)
	prompt := retrieval.BuildPrompt(query, docContext, history)

	answer, err := a.generator.Generate(ctx, prompt)
	if err != nil {
		return "", nil, err
	}

	if err := a.chats.AppendTurn(conversation.Id, query, answer); err != nil {
		return "", nil, err
	}
	if err := a.persistLocked(ctx); err != nil {
		return "", nil, err
	}
	return answer, results, nil
}

// Documents returns the stored documents in ingestion order.
func (a *App) Documents() []*core.DocumentRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*core.DocumentRecord(nil), a.documents...)
}

// Remove deletes a document and evicts its hash from the dedup index,
// so the same file can be ingested again.
func (a *App) Remove(ctx context.Context, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i, record := range a.documents {
		if record.Id != id {
			continue
		}
		a.documents = append(a.documents[:i], a.documents[i+1:]...)
		delete(a.hashes, record.ContentHash)
		return a.persistLocked(ctx)
	}
	return ErrDocumentNotFound
}

// Clear wipes all documents, hashes, and conversations, in memory and
// on disk. Irreversible.
func (a *App) Clear(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.documents = nil
	a.hashes = map[string]bool{}
	a.chats.SetConversations(nil, "")
	return a.store.Clear(ctx)
}

// NewConversation starts a fresh conversation and makes it current.
func (a *App) NewConversation(ctx context.Context) (*core.Conversation, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	conversation := a.chats.StartNew()
	if err := a.persistLocked(ctx); err != nil {
		return nil, err
	}
	return conversation, nil
}

// Conversations returns all conversations in creation order.
func (a *App) Conversations() []*core.Conversation {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*core.Conversation(nil), a.chats.Conversations()...)
}

// CurrentConversation returns the current conversation, bootstrapping
// one if none exists.
func (a *App) CurrentConversation(ctx context.Context) (*core.Conversation, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	hadCurrent := a.chats.CurrentId() != ""
	conversation := a.chats.Current()
	if !hadCurrent {
		if err := a.persistLocked(ctx); err != nil {
			return nil, err
		}
	}
	return conversation, nil
}

// persistLocked saves the state through the tiered store.
// Caller holds the mutex.
func (a *App) persistLocked(ctx context.Context) error {
	hashes := make([]string, 0, len(a.hashes))
	for hash := range a.hashes {
		hashes = append(hashes, hash)
	}
	sort.Strings(hashes)

	state := &storage.State{
		Documents:             a.documents,
		Hashes:                hashes,
		Conversations:         a.chats.Conversations(),
		CurrentConversationId: a.chats.CurrentId(),
	}
	return a.store.Save(ctx, state)
}

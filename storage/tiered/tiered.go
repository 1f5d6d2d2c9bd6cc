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

// Package tiered composes the quota-limited primary store and the
// Badger-backed overflow store into a single persistence surface.
// Large document content is diverted to the overflow tier behind a
// placeholder; when the primary tier rejects a write outright, the
// full state goes to the fallback tier instead.
package tiered

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/doctalk/storage"
)

// OverflowThreshold is the content length above which a document's text
// is stored in the overflow tier rather than inline in the snapshot.
const OverflowThreshold = 100_000

// Store routes state between the two persistence tiers.
type Store struct {
	primary  storage.PrimaryStore
	overflow storage.OverflowStore
	logger   *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a tiered store over the given primary and overflow tiers.
func New(primary storage.PrimaryStore, overflow storage.OverflowStore, opts ...Option) *Store {
	s := &Store{
		primary:  primary,
		overflow: overflow,
		logger:   slog.Default().With("component", "tiered_store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// overflowPlaceholder is the inline stand-in for diverted content.
func overflowPlaceholder(length int) string {
	return fmt.Sprintf("[Large content stored separately - %d characters]", length)
}

// Save persists the state. Oversized document content goes to the
// overflow tier under a fresh reference; the snapshot carries a
// placeholder. If the primary write fails for any reason the full
// state (no placeholders) is written to the fallback tier instead.
// Overflow blobs the superseded snapshot pointed at are deleted once
// the new snapshot is in place.
func (s *Store) Save(ctx context.Context, state *storage.State) error {
	staleRefs := s.snapshotRefs(ctx)

	snapshot, newRefs, err := s.buildSnapshot(ctx, state)
	if err != nil {
		s.deleteRefs(ctx, newRefs)
		s.logger.Warn("Overflow write failed, using fallback tier", "error", err)
		return s.overflow.PutFallbackState(ctx, state)
	}

	if err := s.primary.WriteSnapshot(ctx, snapshot); err != nil {
		s.deleteRefs(ctx, newRefs)
		s.logger.Warn("Primary write failed, using fallback tier", "error", err)
		return s.overflow.PutFallbackState(ctx, state)
	}

	// The primary snapshot is now the source of truth.
	if err := s.overflow.ClearFallback(ctx); err != nil {
		return fmt.Errorf("clearing fallback state: %w", err)
	}
	s.deleteRefs(ctx, staleRefs)
	return nil
}

// snapshotRefs returns the overflow references the current primary
// snapshot points at. A missing or unreadable snapshot yields none.
func (s *Store) snapshotRefs(ctx context.Context) []string {
	snapshot, err := s.primary.ReadSnapshot(ctx)
	if err != nil {
		return nil
	}
	var refs []string
	for i := range snapshot.Documents {
		if ref := snapshot.Documents[i].OverflowRef; ref != "" {
			refs = append(refs, ref)
		}
	}
	return refs
}

// deleteRefs removes overflow blobs no snapshot references anymore.
// Failures only leave orphaned blobs behind, so they are logged, not
// returned.
func (s *Store) deleteRefs(ctx context.Context, refs []string) {
	for _, ref := range refs {
		if err := s.overflow.DeleteContent(ctx, ref); err != nil {
			s.logger.Warn("Could not delete superseded overflow content", "ref", ref, "error", err)
		}
	}
}

func (s *Store) buildSnapshot(ctx context.Context, state *storage.State) (*storage.Snapshot, []string, error) {
	snapshot := &storage.Snapshot{
		Documents:             make([]storage.SnapshotDocument, 0, len(state.Documents)),
		Hashes:                state.Hashes,
		Conversations:         state.Conversations,
		CurrentConversationId: state.CurrentConversationId,
		SavedAt:               time.Now().UTC(),
	}

	var refs []string
	for _, record := range state.Documents {
		doc := storage.SnapshotDocument{
			Id:          record.Id,
			Filename:    record.Filename,
			Content:     record.Content,
			Metadata:    record.Metadata,
			SourcePath:  record.SourcePath,
			ContentHash: record.ContentHash,
			CreatedAt:   record.CreatedAt,
		}
		if len(record.Content) > OverflowThreshold {
			ref := uuid.NewString()
			if err := s.overflow.PutContent(ctx, ref, record.Content); err != nil {
				return nil, refs, fmt.Errorf("storing overflow content for %s: %w", record.Id, err)
			}
			refs = append(refs, ref)
			doc.Content = overflowPlaceholder(len(record.Content))
			doc.OverflowRef = ref
		}
		snapshot.Documents = append(snapshot.Documents, doc)
	}
	return snapshot, refs, nil
}

// Load reconstructs the state. The fallback tier wins when it is marked
// authoritative; otherwise the primary snapshot is read and overflow
// content spliced back in. A missing overflow blob degrades that
// document to its placeholder rather than failing the load. A store
// with no persisted state loads as empty.
func (s *Store) Load(ctx context.Context) (*storage.State, error) {
	has, err := s.overflow.HasFallbackState(ctx)
	if err != nil {
		return nil, err
	}
	if has {
		s.logger.Info("Loading state from fallback tier")
		return s.overflow.GetFallbackState(ctx)
	}

	snapshot, err := s.primary.ReadSnapshot(ctx)
	if err != nil {
		if err == storage.ErrNotFound {
			return &storage.State{}, nil
		}
		return nil, err
	}

	state := &storage.State{
		Hashes:                snapshot.Hashes,
		Conversations:         snapshot.Conversations,
		CurrentConversationId: snapshot.CurrentConversationId,
	}
	for i := range snapshot.Documents {
		doc := &snapshot.Documents[i]
		record := doc.Record()
		if doc.OverflowRef != "" {
			content, err := s.overflow.GetContent(ctx, doc.OverflowRef)
			if err != nil {
				s.logger.Warn("Overflow content unavailable, keeping placeholder",
					"document_id", doc.Id, "ref", doc.OverflowRef, "error", err)
			} else {
				record.Content = content
			}
		}
		state.Documents = append(state.Documents, record)
	}
	return state, nil
}

// Clear wipes both tiers. Irreversible.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.primary.Clear(ctx); err != nil {
		return fmt.Errorf("clearing primary tier: %w", err)
	}
	if err := s.overflow.Clear(ctx); err != nil {
		return fmt.Errorf("clearing overflow tier: %w", err)
	}
	return nil
}

// Close releases the overflow tier's resources.
func (s *Store) Close() error {
	return s.overflow.Close()
}

package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/poiesic/doctalk/core"
)

// State is the full application state persisted across restarts.
// Document content is always complete here; placeholder substitution is a
// concern of the primary snapshot representation, not of the state itself.
type State struct {
	Documents []*core.DocumentRecord
	// Hashes is the dedup index: content hashes of every ingested,
	// not-yet-removed document.
	Hashes                []string
	Conversations         []*core.Conversation
	CurrentConversationId string
}

// Snapshot is the primary-tier representation of a State. Large document
// content is replaced by a placeholder plus an overflow reference; the
// full content lives in the overflow store under that reference.
type Snapshot struct {
	Documents             []SnapshotDocument `json:"documents"`
	Hashes                []string           `json:"hashes"`
	Conversations         []*core.Conversation `json:"conversations"`
	CurrentConversationId string             `json:"current_conversation_id"`
	SavedAt               time.Time          `json:"saved_at"`
}

// SnapshotDocument mirrors core.DocumentRecord with an optional overflow
// reference. When OverflowRef is set, Content holds the placeholder text.
type SnapshotDocument struct {
	Id          string          `json:"id"`
	Filename    string          `json:"filename"`
	Content     string          `json:"content"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	SourcePath  string          `json:"source_path,omitempty"`
	ContentHash string          `json:"content_hash"`
	CreatedAt   time.Time       `json:"created_at"`
	OverflowRef string          `json:"overflow_ref,omitempty"`
}

// Record converts a snapshot document back to a domain record.
// Content is whatever the snapshot carries (placeholder or inline text);
// the caller splices overflow content in separately.
func (d *SnapshotDocument) Record() *core.DocumentRecord {
	return &core.DocumentRecord{
		Id:          d.Id,
		Filename:    d.Filename,
		Content:     d.Content,
		Metadata:    []byte(d.Metadata),
		SourcePath:  d.SourcePath,
		ContentHash: d.ContentHash,
		CreatedAt:   d.CreatedAt,
	}
}

// PrimaryStore is the size-constrained first persistence tier.
// Implementations must reject oversized snapshots with ErrQuotaExceeded
// rather than writing a truncated payload.
type PrimaryStore interface {
	// WriteSnapshot persists the snapshot, replacing any previous one.
	WriteSnapshot(ctx context.Context, snapshot *Snapshot) error

	// ReadSnapshot returns the stored snapshot.
	// Returns ErrNotFound when no snapshot has ever been written.
	ReadSnapshot(ctx context.Context) (*Snapshot, error)

	// Clear removes the stored snapshot. Idempotent.
	Clear(ctx context.Context) error
}

// OverflowStore is the unconstrained secondary tier. It serves two roles:
// individual content blobs referenced from primary snapshots, and a full
// fallback copy of the state for when the primary tier rejects a write.
type OverflowStore interface {
	// PutContent stores a content blob under the given overflow reference.
	PutContent(ctx context.Context, ref string, content string) error

	// GetContent returns the blob stored under ref.
	// Returns ErrNotFound for unknown references.
	GetContent(ctx context.Context, ref string) (string, error)

	// DeleteContent removes the blob stored under ref. Unknown
	// references are a no-op.
	DeleteContent(ctx context.Context, ref string) error

	// PutFallbackState stores the entire state, full content included,
	// and marks the fallback tier as authoritative.
	PutFallbackState(ctx context.Context, state *State) error

	// GetFallbackState reconstructs the state from the fallback tier.
	// Returns ErrNotFound when no fallback state is stored.
	GetFallbackState(ctx context.Context) (*State, error)

	// HasFallbackState reports whether the fallback tier is authoritative.
	HasFallbackState(ctx context.Context) (bool, error)

	// ClearFallback removes the fallback state and its authority marker,
	// leaving overflow blobs in place. Idempotent.
	ClearFallback(ctx context.Context) error

	// Clear removes all overflow content and fallback state. Idempotent.
	Clear(ctx context.Context) error

	// Close closes the store and releases resources.
	Close() error
}

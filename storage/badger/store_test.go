package badger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/doctalk/core"
	"github.com/poiesic/doctalk/storage"
)

func TestOverflowContentRoundTrip(t *testing.T) {
	store, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	if err := store.PutContent(ctx, "ref-1", "large document body"); err != nil {
		t.Fatalf("Failed to put content: %v", err)
	}

	content, err := store.GetContent(ctx, "ref-1")
	if err != nil {
		t.Fatalf("Failed to get content: %v", err)
	}
	if content != "large document body" {
		t.Fatalf("Expected content round trip, got %q", content)
	}
}

func TestGetContent_Missing(t *testing.T) {
	store, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	_, err = store.GetContent(context.Background(), "no-such-ref")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestFallbackStateRoundTrip(t *testing.T) {
	store, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	has, err := store.HasFallbackState(ctx)
	if err != nil {
		t.Fatalf("HasFallbackState failed: %v", err)
	}
	if has {
		t.Fatal("Fresh store should not report fallback state")
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	state := &storage.State{
		Documents: []*core.DocumentRecord{
			{Id: "doc-b", Filename: "b.pdf", Content: "second", ContentHash: "hb", CreatedAt: now},
			{Id: "doc-a", Filename: "a.pdf", Content: "first", ContentHash: "ha", CreatedAt: now},
		},
		Hashes: []string{"hb", "ha"},
		Conversations: []*core.Conversation{
			{
				Id:    "conv-1",
				Title: "Conversation conv-1",
				Messages: []core.Message{
					{Role: core.RoleUser, Content: "hi", Timestamp: now},
					{Role: core.RoleAssistant, Content: "hello", Timestamp: now},
				},
				CreatedAt: now,
			},
		},
		CurrentConversationId: "conv-1",
	}

	if err := store.PutFallbackState(ctx, state); err != nil {
		t.Fatalf("PutFallbackState failed: %v", err)
	}

	has, err = store.HasFallbackState(ctx)
	if err != nil {
		t.Fatalf("HasFallbackState failed: %v", err)
	}
	if !has {
		t.Fatal("Expected fallback state to be authoritative")
	}

	got, err := store.GetFallbackState(ctx)
	if err != nil {
		t.Fatalf("GetFallbackState failed: %v", err)
	}

	if len(got.Documents) != 2 {
		t.Fatalf("Expected 2 documents, got %d", len(got.Documents))
	}
	// Insertion order preserved, not lexicographic id order.
	if got.Documents[0].Id != "doc-b" || got.Documents[1].Id != "doc-a" {
		t.Fatalf("Document order not preserved: %q, %q", got.Documents[0].Id, got.Documents[1].Id)
	}
	if got.Documents[0].Content != "second" {
		t.Fatalf("Content not preserved: %q", got.Documents[0].Content)
	}
	if len(got.Hashes) != 2 {
		t.Fatalf("Expected 2 hashes, got %d", len(got.Hashes))
	}
	if got.CurrentConversationId != "conv-1" {
		t.Fatalf("Current conversation not preserved: %q", got.CurrentConversationId)
	}
	if len(got.Conversations) != 1 || len(got.Conversations[0].Messages) != 2 {
		t.Fatalf("Conversations not preserved: %+v", got.Conversations)
	}
}

func TestPutFallbackState_ReplacesPrevious(t *testing.T) {
	store, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	first := &storage.State{
		Documents: []*core.DocumentRecord{
			{Id: "doc-1", Filename: "a.pdf", Content: "one", ContentHash: "h1", CreatedAt: now},
			{Id: "doc-2", Filename: "b.pdf", Content: "two", ContentHash: "h2", CreatedAt: now},
		},
		Hashes: []string{"h1", "h2"},
	}
	if err := store.PutFallbackState(ctx, first); err != nil {
		t.Fatalf("PutFallbackState failed: %v", err)
	}

	second := &storage.State{
		Documents: []*core.DocumentRecord{
			{Id: "doc-3", Filename: "c.pdf", Content: "three", ContentHash: "h3", CreatedAt: now},
		},
		Hashes: []string{"h3"},
	}
	if err := store.PutFallbackState(ctx, second); err != nil {
		t.Fatalf("PutFallbackState failed: %v", err)
	}

	got, err := store.GetFallbackState(ctx)
	if err != nil {
		t.Fatalf("GetFallbackState failed: %v", err)
	}
	if len(got.Documents) != 1 || got.Documents[0].Id != "doc-3" {
		t.Fatalf("Expected replacement state, got %+v", got.Documents)
	}
	if len(got.Hashes) != 1 || got.Hashes[0] != "h3" {
		t.Fatalf("Expected replaced hashes, got %v", got.Hashes)
	}
}

func TestPutFallbackState_LargerThanOneTransaction(t *testing.T) {
	store, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	// Well past the size a single Badger transaction accepts.
	content := strings.Repeat("x", 100_000)
	state := &storage.State{CurrentConversationId: "conv-1"}
	for i := 0; i < 140; i++ {
		id := fmt.Sprintf("doc-%03d", i)
		state.Documents = append(state.Documents, &core.DocumentRecord{
			Id:          id,
			Filename:    id + ".pdf",
			Content:     content,
			ContentHash: "h-" + id,
			CreatedAt:   now,
		})
		state.Hashes = append(state.Hashes, "h-"+id)
	}

	if err := store.PutFallbackState(ctx, state); err != nil {
		t.Fatalf("PutFallbackState failed: %v", err)
	}

	got, err := store.GetFallbackState(ctx)
	if err != nil {
		t.Fatalf("GetFallbackState failed: %v", err)
	}
	if len(got.Documents) != 140 {
		t.Fatalf("Expected 140 documents, got %d", len(got.Documents))
	}
	if got.Documents[0].Id != "doc-000" || got.Documents[139].Id != "doc-139" {
		t.Fatalf("Document order not preserved: %q, %q", got.Documents[0].Id, got.Documents[139].Id)
	}
	if len(got.Documents[70].Content) != len(content) {
		t.Fatalf("Content not preserved, got %d bytes", len(got.Documents[70].Content))
	}
	if len(got.Hashes) != 140 {
		t.Fatalf("Expected 140 hashes, got %d", len(got.Hashes))
	}

	// A large state can still be replaced wholesale.
	small := &storage.State{
		Documents: []*core.DocumentRecord{
			{Id: "doc-new", Filename: "n.pdf", Content: "tiny", ContentHash: "hn", CreatedAt: now},
		},
		Hashes: []string{"hn"},
	}
	if err := store.PutFallbackState(ctx, small); err != nil {
		t.Fatalf("PutFallbackState failed: %v", err)
	}
	got, err = store.GetFallbackState(ctx)
	if err != nil {
		t.Fatalf("GetFallbackState failed: %v", err)
	}
	if len(got.Documents) != 1 || got.Documents[0].Id != "doc-new" {
		t.Fatalf("Expected replacement state, got %d documents", len(got.Documents))
	}
}

func TestClearFallback_KeepsOverflow(t *testing.T) {
	store, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	if err := store.PutContent(ctx, "ref-1", "kept"); err != nil {
		t.Fatalf("PutContent failed: %v", err)
	}
	if err := store.PutFallbackState(ctx, &storage.State{Hashes: []string{"h1"}}); err != nil {
		t.Fatalf("PutFallbackState failed: %v", err)
	}

	if err := store.ClearFallback(ctx); err != nil {
		t.Fatalf("ClearFallback failed: %v", err)
	}

	has, err := store.HasFallbackState(ctx)
	if err != nil {
		t.Fatalf("HasFallbackState failed: %v", err)
	}
	if has {
		t.Fatal("Fallback state should be gone")
	}

	content, err := store.GetContent(ctx, "ref-1")
	if err != nil || content != "kept" {
		t.Fatalf("Overflow content should survive ClearFallback: %q, %v", content, err)
	}
}

func TestClear_RemovesEverything(t *testing.T) {
	store, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	if err := store.PutContent(ctx, "ref-1", "gone"); err != nil {
		t.Fatalf("PutContent failed: %v", err)
	}
	if err := store.PutFallbackState(ctx, &storage.State{Hashes: []string{"h1"}}); err != nil {
		t.Fatalf("PutFallbackState failed: %v", err)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	if _, err := store.GetContent(ctx, "ref-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound after clear, got %v", err)
	}
	has, err := store.HasFallbackState(ctx)
	if err != nil {
		t.Fatalf("HasFallbackState failed: %v", err)
	}
	if has {
		t.Fatal("Fallback marker should be gone after clear")
	}
}

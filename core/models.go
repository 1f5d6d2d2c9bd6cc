package core

//go:generate go run ../cmd/musgen

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// Role identifies the author of a conversation message.
type Role int

const (
	// RoleUser represents the human asking questions.
	RoleUser Role = iota + 1
	// RoleAssistant represents the generation service's answers.
	RoleAssistant
)

// String returns the prompt representation of the role.
func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAssistant:
		return "assistant"
	default:
		return "unknown"
	}
}

// FileKey derives the deduplication key for a file from its identity
// attributes: name, size in bytes, and last-modified time in epoch
// milliseconds. The key is a practical duplicate-detection value, not a
// content digest: two distinct files with the same triple collide on
// purpose, and re-uploads of an unchanged file always produce the same key.
func FileKey(name string, size int64, modifiedMs int64) string {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	fmt.Fprintf(h, "%s_%d_%d", name, size, modifiedMs)
	return hex.EncodeToString(h.Sum(nil))
}

// DocumentRecord is the persisted form of a successfully converted document.
// Records are never edited in place; they are created on conversion success
// and destroyed on explicit removal or a full storage clear.
type DocumentRecord struct {
	Id          string
	Filename    string
	Content     string // Extracted text, UTF-8
	Metadata    []byte // Opaque conversion-service document blob (JSON)
	SourcePath  string // Best-effort original path, may be empty
	ContentHash string // Dedup key, see FileKey
	CreatedAt   time.Time
}

// Message is a single turn in a conversation.
type Message struct {
	Role      Role
	Content   string
	Timestamp time.Time
}

// Conversation is an append-only ordered sequence of messages.
// Message order reflects actual turn order.
type Conversation struct {
	Id        string
	Title     string
	Messages  []Message
	CreatedAt time.Time
}

// AppendTurn appends a user message followed by an assistant message,
// each timestamped independently.
func (c *Conversation) AppendTurn(userText, assistantText string) {
	c.Messages = append(c.Messages,
		Message{Role: RoleUser, Content: userText, Timestamp: time.Now().UTC()},
		Message{Role: RoleAssistant, Content: assistantText, Timestamp: time.Now().UTC()},
	)
}

// Recent returns the last n messages in turn order.
func (c *Conversation) Recent(n int) []Message {
	if n <= 0 || len(c.Messages) == 0 {
		return nil
	}
	if len(c.Messages) <= n {
		return c.Messages
	}
	return c.Messages[len(c.Messages)-n:]
}

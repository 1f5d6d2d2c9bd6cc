package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDocumentRecord() *DocumentRecord {
	return &DocumentRecord{
		Id:          "9f2c7d1e",
		Filename:    "notes.txt",
		Content:     "some extracted text",
		ContentHash: FileKey("notes.txt", 42, 1700000000000),
		CreatedAt:   time.Now().UTC().Add(-time.Minute),
	}
}

func TestValidateDocumentRecord(t *testing.T) {
	t.Run("valid record", func(t *testing.T) {
		require.NoError(t, ValidateDocumentRecord(validDocumentRecord()))
	})

	t.Run("nil record", func(t *testing.T) {
		err := ValidateDocumentRecord(nil)
		assert.ErrorIs(t, err, ErrInvalidDocumentRecord)
	})

	t.Run("empty id", func(t *testing.T) {
		record := validDocumentRecord()
		record.Id = ""
		err := ValidateDocumentRecord(record)
		assert.ErrorIs(t, err, ErrEmptyId)
	})

	t.Run("empty filename", func(t *testing.T) {
		record := validDocumentRecord()
		record.Filename = ""
		err := ValidateDocumentRecord(record)
		assert.ErrorIs(t, err, ErrEmptyFilename)
	})

	t.Run("empty content hash", func(t *testing.T) {
		record := validDocumentRecord()
		record.ContentHash = ""
		err := ValidateDocumentRecord(record)
		assert.ErrorIs(t, err, ErrEmptyContentHash)
	})

	t.Run("future timestamp", func(t *testing.T) {
		record := validDocumentRecord()
		record.CreatedAt = time.Now().Add(time.Hour)
		err := ValidateDocumentRecord(record)
		assert.ErrorIs(t, err, ErrInvalidTimestamp)
	})

	t.Run("empty content is allowed", func(t *testing.T) {
		record := validDocumentRecord()
		record.Content = ""
		require.NoError(t, ValidateDocumentRecord(record))
	})
}

func TestValidateMessage(t *testing.T) {
	t.Run("valid message", func(t *testing.T) {
		msg := &Message{Role: RoleUser, Content: "hello", Timestamp: time.Now().UTC()}
		require.NoError(t, ValidateMessage(msg))
	})

	t.Run("nil message", func(t *testing.T) {
		assert.ErrorIs(t, ValidateMessage(nil), ErrInvalidMessage)
	})

	t.Run("empty content", func(t *testing.T) {
		msg := &Message{Role: RoleUser, Timestamp: time.Now().UTC()}
		assert.ErrorIs(t, ValidateMessage(msg), ErrEmptyContent)
	})

	t.Run("invalid role", func(t *testing.T) {
		msg := &Message{Role: Role(7), Content: "hello", Timestamp: time.Now().UTC()}
		assert.ErrorIs(t, ValidateMessage(msg), ErrInvalidRole)
	})

	t.Run("future timestamp", func(t *testing.T) {
		msg := &Message{Role: RoleUser, Content: "hello", Timestamp: time.Now().Add(time.Hour)}
		assert.ErrorIs(t, ValidateMessage(msg), ErrInvalidTimestamp)
	})
}

func TestValidateConversation(t *testing.T) {
	t.Run("valid conversation", func(t *testing.T) {
		conv := &Conversation{Id: "abc123", CreatedAt: time.Now().UTC()}
		conv.AppendTurn("q", "a")
		require.NoError(t, ValidateConversation(conv))
	})

	t.Run("nil conversation", func(t *testing.T) {
		assert.ErrorIs(t, ValidateConversation(nil), ErrInvalidConversation)
	})

	t.Run("empty id", func(t *testing.T) {
		conv := &Conversation{}
		assert.ErrorIs(t, ValidateConversation(conv), ErrEmptyId)
	})

	t.Run("bad message", func(t *testing.T) {
		conv := &Conversation{Id: "abc123"}
		conv.Messages = append(conv.Messages, Message{Role: RoleUser, Timestamp: time.Now().UTC()})
		assert.ErrorIs(t, ValidateConversation(conv), ErrEmptyContent)
	})
}

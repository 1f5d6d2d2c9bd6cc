package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFileKey_Deterministic(t *testing.T) {
	a := FileKey("report.pdf", 1024, 1700000000000)
	b := FileKey("report.pdf", 1024, 1700000000000)
	assert.Equal(t, a, b)
	assert.Len(t, a, 16) // 8 bytes hex-encoded
}

func TestFileKey_DistinguishesAttributes(t *testing.T) {
	base := FileKey("report.pdf", 1024, 1700000000000)

	assert.NotEqual(t, base, FileKey("other.pdf", 1024, 1700000000000))
	assert.NotEqual(t, base, FileKey("report.pdf", 1025, 1700000000000))
	assert.NotEqual(t, base, FileKey("report.pdf", 1024, 1700000000001))
}

func TestFileKey_AmbiguousSeparators(t *testing.T) {
	// The triple is joined with underscores; hashing keeps keys distinct
	// even when a filename itself contains the separator.
	a := FileKey("a_1", 2, 3)
	b := FileKey("a", 12, 3)
	assert.NotEqual(t, a, b)
}

func TestRoleString(t *testing.T) {
	assert.Equal(t, "user", RoleUser.String())
	assert.Equal(t, "assistant", RoleAssistant.String())
	assert.Equal(t, "unknown", Role(99).String())
}

func TestConversationAppendTurn(t *testing.T) {
	conv := &Conversation{Id: "abc123", CreatedAt: time.Now().UTC()}

	conv.AppendTurn("what is this?", "a document chat client")
	conv.AppendTurn("who wrote it?", "not stated in the document")

	assert.Len(t, conv.Messages, 4)
	assert.Equal(t, RoleUser, conv.Messages[0].Role)
	assert.Equal(t, RoleAssistant, conv.Messages[1].Role)
	assert.Equal(t, "who wrote it?", conv.Messages[2].Content)
	for _, m := range conv.Messages {
		assert.False(t, m.Timestamp.IsZero())
	}
}

func TestConversationRecent(t *testing.T) {
	conv := &Conversation{Id: "abc123"}
	for i := 0; i < 5; i++ {
		conv.AppendTurn("q", "a")
	}

	assert.Len(t, conv.Recent(6), 6)
	assert.Len(t, conv.Recent(100), 10)
	assert.Nil(t, conv.Recent(0))

	recent := conv.Recent(2)
	assert.Equal(t, RoleUser, recent[0].Role)
	assert.Equal(t, RoleAssistant, recent[1].Role)
}

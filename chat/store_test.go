package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/doctalk/core"
)

func TestStore_StartNew(t *testing.T) {
	store := NewStore()

	first := store.StartNew()
	second := store.StartNew()

	assert.NotEqual(t, first.Id, second.Id)
	assert.Equal(t, second.Id, store.CurrentId())
	assert.Len(t, store.Conversations(), 2)

	require.True(t, len(first.Id) > 6)
	assert.Equal(t, "Conversation "+first.Id[len(first.Id)-6:], first.Title)
}

func TestStore_CurrentBootstrapsOnce(t *testing.T) {
	store := NewStore()

	first := store.Current()
	again := store.Current()

	assert.Equal(t, first.Id, again.Id)
	assert.Len(t, store.Conversations(), 1)
}

func TestStore_AppendTurn(t *testing.T) {
	store := NewStore()
	conversation := store.StartNew()

	require.NoError(t, store.AppendTurn(conversation.Id, "question", "answer"))

	require.Len(t, conversation.Messages, 2)
	assert.Equal(t, core.RoleUser, conversation.Messages[0].Role)
	assert.Equal(t, "question", conversation.Messages[0].Content)
	assert.Equal(t, core.RoleAssistant, conversation.Messages[1].Role)
	assert.Equal(t, "answer", conversation.Messages[1].Content)

	assert.ErrorIs(t, store.AppendTurn("unknown", "q", "a"), ErrNotFound)
}

func TestStore_Recent(t *testing.T) {
	store := NewStore()
	conversation := store.StartNew()
	for i := 0; i < 4; i++ {
		require.NoError(t, store.AppendTurn(conversation.Id, "q", "a"))
	}

	recent := store.Recent(6)
	assert.Len(t, recent, 6)

	all := store.Recent(100)
	assert.Len(t, all, 8)
}

func TestStore_SetCurrent(t *testing.T) {
	store := NewStore()
	first := store.StartNew()
	store.StartNew()

	require.NoError(t, store.SetCurrent(first.Id))
	assert.Equal(t, first.Id, store.CurrentId())

	assert.ErrorIs(t, store.SetCurrent("missing"), ErrNotFound)
}

func TestStore_SetConversations(t *testing.T) {
	store := NewStore()
	conversations := []*core.Conversation{
		{Id: "c1", Title: "Conversation one"},
		{Id: "c2", Title: "Conversation two"},
	}

	store.SetConversations(conversations, "c2")
	assert.Equal(t, "c2", store.CurrentId())

	store.SetConversations(conversations, "missing")
	assert.Empty(t, store.CurrentId())
	// A later Current() bootstraps rather than resurrecting the bad id.
	assert.NotEmpty(t, store.Current().Id)
	assert.Len(t, store.Conversations(), 3)
}

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

// Package chat maintains conversation state: identity, message
// ordering, the current-conversation pointer, and bounded recent
// history for prompt assembly.
package chat

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/doctalk/core"
)

// Store holds conversations in memory. Persistence is the caller's
// concern; Conversations and SetConversations exist for that handoff.
// Store is not safe for concurrent use.
type Store struct {
	conversations []*core.Conversation
	currentId     string
}

// NewStore creates an empty conversation store.
func NewStore() *Store {
	return &Store{}
}

// conversationTitle derives the display title from the id's tail.
func conversationTitle(id string) string {
	tail := id
	if len(tail) > 6 {
		tail = tail[len(tail)-6:]
	}
	return fmt.Sprintf("Conversation %s", tail)
}

// StartNew creates a conversation, makes it current, and returns it.
func (s *Store) StartNew() *core.Conversation {
	conversation := &core.Conversation{
		Id:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}
	conversation.Title = conversationTitle(conversation.Id)
	s.conversations = append(s.conversations, conversation)
	s.currentId = conversation.Id
	return conversation
}

// Current returns the current conversation, bootstrapping exactly one
// when the store is empty or nothing is current.
func (s *Store) Current() *core.Conversation {
	if s.currentId != "" {
		if conversation := s.find(s.currentId); conversation != nil {
			return conversation
		}
	}
	return s.StartNew()
}

// SetCurrent switches the current conversation.
func (s *Store) SetCurrent(id string) error {
	if s.find(id) == nil {
		return ErrNotFound
	}
	s.currentId = id
	return nil
}

// AppendTurn records a user question and the assistant's answer on the
// given conversation.
func (s *Store) AppendTurn(id, userText, assistantText string) error {
	conversation := s.find(id)
	if conversation == nil {
		return ErrNotFound
	}
	conversation.AppendTurn(userText, assistantText)
	return nil
}

// Recent returns the last n messages of the current conversation.
// Bootstraps a conversation if none exists.
func (s *Store) Recent(n int) []core.Message {
	return s.Current().Recent(n)
}

// Conversations returns all conversations in creation order.
func (s *Store) Conversations() []*core.Conversation {
	return s.conversations
}

// CurrentId returns the current conversation's id, or empty.
func (s *Store) CurrentId() string {
	return s.currentId
}

// SetConversations replaces the store's contents, typically from
// persisted state. An unknown current id is discarded.
func (s *Store) SetConversations(conversations []*core.Conversation, currentId string) {
	s.conversations = conversations
	s.currentId = ""
	if currentId != "" {
		for _, conversation := range conversations {
			if conversation.Id == currentId {
				s.currentId = currentId
				break
			}
		}
	}
}

func (s *Store) find(id string) *core.Conversation {
	for _, conversation := range s.conversations {
		if conversation.Id == id {
			return conversation
		}
	}
	return nil
}

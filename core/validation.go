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


package core

import (
	"fmt"
	"time"
)

// ValidateDocumentRecord validates a DocumentRecord according to domain rules.
//
// Validation rules:
//   - Id must not be empty
//   - Filename must not be empty
//   - ContentHash must not be empty
//   - CreatedAt must not be in the future
//
// NOT validated:
//   - Content (the conversion service may legitimately extract nothing;
//     the sentinel text still counts as content)
//   - Metadata and SourcePath (optional)
func ValidateDocumentRecord(record *DocumentRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidDocumentRecord)
	}

	if record.Id == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocumentRecord, ErrEmptyId)
	}

	if record.Filename == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocumentRecord, ErrEmptyFilename)
	}

	if record.ContentHash == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocumentRecord, ErrEmptyContentHash)
	}

	if !IsValidTimestamp(record.CreatedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidDocumentRecord, ErrInvalidTimestamp)
	}

	return nil
}

// ValidateMessage validates a Message according to domain rules.
//
// Validation rules:
//   - Content must not be empty
//   - Role must be valid (user or assistant)
//   - Timestamp must not be in the future
func ValidateMessage(message *Message) error {
	if message == nil {
		return fmt.Errorf("%w: message is nil", ErrInvalidMessage)
	}

	if message.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, ErrEmptyContent)
	}

	if err := ValidateRole(message.Role); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}

	if !IsValidTimestamp(message.Timestamp) {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, ErrInvalidTimestamp)
	}

	return nil
}

// ValidateConversation validates a Conversation and all of its messages.
func ValidateConversation(conversation *Conversation) error {
	if conversation == nil {
		return fmt.Errorf("%w: conversation is nil", ErrInvalidConversation)
	}

	if conversation.Id == "" {
		return fmt.Errorf("%w: %w", ErrInvalidConversation, ErrEmptyId)
	}

	for i := range conversation.Messages {
		if err := ValidateMessage(&conversation.Messages[i]); err != nil {
			return fmt.Errorf("%w: message %d: %w", ErrInvalidConversation, i, err)
		}
	}

	return nil
}

// ValidateRole validates that a Role has a valid value.
func ValidateRole(role Role) error {
	if role != RoleUser && role != RoleAssistant {
		return fmt.Errorf("%w: value %d", ErrInvalidRole, role)
	}
	return nil
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}

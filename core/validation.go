// Copyright 2025 Quorial Labs
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

	"github.com/google/uuid"
)

// ValidateProject validates a Project according to domain rules.
//
// Validation rules:
//   - Name must not be empty
//   - MaxContextTokens must be positive
//
// NOT validated (populated elsewhere):
//   - ID (assigned on create)
//   - Description and SystemPrompt (optional)
func ValidateProject(project *Project) error {
	if project == nil {
		return fmt.Errorf("%w: project is nil", ErrInvalidProject)
	}

	if project.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidProject, ErrEmptyName)
	}

	if project.MaxContextTokens <= 0 {
		return fmt.Errorf("%w: %w", ErrInvalidProject, ErrNonPositiveWindow)
	}

	return nil
}

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - ProjectID must be set
//   - Filename must not be empty
//   - Status must be a known status
//
// NOT validated (populated by the pipeline):
//   - TokenCount, ChunkCount, ProcessedChunks (zero until processed)
//   - TaskID (set when a job is enqueued)
//   - ErrorMessage (set only on failure)
func ValidateDocument(document *Document) error {
	if document == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if document.ProjectID == uuid.Nil {
		return fmt.Errorf("%w: project id is not set", ErrInvalidDocument)
	}

	if document.Filename == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyFilename)
	}

	if err := ValidateStatus(document.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	return nil
}

// ValidateConversation validates a Conversation according to domain rules.
//
// Validation rules:
//   - UserID must be set
//
// NOT validated:
//   - ProjectID (optional; a conversation can exist outside any project)
//   - Title and TitleTaskID (populated by the title job)
func ValidateConversation(conversation *Conversation) error {
	if conversation == nil {
		return fmt.Errorf("%w: conversation is nil", ErrInvalidConversation)
	}

	if conversation.UserID == uuid.Nil {
		return fmt.Errorf("%w: user id is not set", ErrInvalidConversation)
	}

	return nil
}

// ValidateMessage validates a Message according to domain rules.
//
// Validation rules:
//   - ConversationID must be set
//   - Content must not be empty
//   - Role must be valid
//
// NOT validated:
//   - References (attached after retrieval, may be empty)
//   - ID (assigned on create)
func ValidateMessage(message *Message) error {
	if message == nil {
		return fmt.Errorf("%w: message is nil", ErrInvalidMessage)
	}

	if message.ConversationID == uuid.Nil {
		return fmt.Errorf("%w: conversation id is not set", ErrInvalidMessage)
	}

	if message.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, ErrEmptyContent)
	}

	if err := ValidateRole(message.Role); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}

	return nil
}

// ValidateRole validates that a Role has a known value.
func ValidateRole(role Role) error {
	switch role {
	case RoleUser, RoleAssistant, RoleSystem:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidRole, string(role))
	}
}

// ValidateStatus validates that a DocumentStatus has a known value.
func ValidateStatus(status DocumentStatus) error {
	switch status {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return nil
	default:
		return fmt.Errorf("%w: value %d", ErrInvalidStatus, status)
	}
}

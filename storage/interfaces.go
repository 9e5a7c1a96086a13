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


package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/quorial/grounddesk/core"
)

// ProjectRepository defines storage operations for projects.
type ProjectRepository interface {
	// CreateProject stores a new project. Returns ErrDuplicateID if a
	// project with the same ID already exists.
	CreateProject(ctx context.Context, project *core.Project) error

	// GetProject retrieves a project by ID. Returns ErrNotFound if it
	// does not exist.
	GetProject(ctx context.Context, id uuid.UUID) (*core.Project, error)

	// ListProjectsByOwner returns all projects belonging to an owner,
	// ordered by creation time.
	ListProjectsByOwner(ctx context.Context, ownerID uuid.UUID) ([]*core.Project, error)

	// UpdateProject overwrites an existing project. Returns ErrNotFound
	// if the project does not exist.
	UpdateProject(ctx context.Context, project *core.Project) error

	// DeleteProject removes a project together with all of its
	// documents, conversations, messages, and references in a single
	// transaction. Children are deleted before the project row itself.
	// Returns ErrNotFound if the project does not exist.
	DeleteProject(ctx context.Context, id uuid.UUID) error
}

// DocumentRepository defines storage operations for document rows.
// The file bytes live on disk and the chunk embeddings live in the
// vector index; only bookkeeping is stored here.
type DocumentRepository interface {
	// CreateDocument stores a new document row.
	CreateDocument(ctx context.Context, document *core.Document) error

	// GetDocument retrieves a document by ID. Returns ErrNotFound if it
	// does not exist.
	GetDocument(ctx context.Context, id uuid.UUID) (*core.Document, error)

	// ListDocumentsByProject returns all documents in a project,
	// ordered by creation time.
	ListDocumentsByProject(ctx context.Context, projectID uuid.UUID) ([]*core.Document, error)

	// UpdateDocument overwrites an existing document row. The pipeline
	// calls this on every status transition and progress step.
	UpdateDocument(ctx context.Context, document *core.Document) error

	// DeleteDocument removes a document row. Returns ErrNotFound if the
	// document does not exist.
	DeleteDocument(ctx context.Context, id uuid.UUID) error
}

// ConversationRepository defines storage operations for conversations,
// their messages, and the document references attached to messages.
type ConversationRepository interface {
	// CreateConversation stores a new conversation.
	CreateConversation(ctx context.Context, conversation *core.Conversation) error

	// GetConversation retrieves a conversation by ID. Returns
	// ErrNotFound if it does not exist.
	GetConversation(ctx context.Context, id uuid.UUID) (*core.Conversation, error)

	// ListConversationsByProject returns all conversations in a
	// project, ordered by creation time.
	ListConversationsByProject(ctx context.Context, projectID uuid.UUID) ([]*core.Conversation, error)

	// ListConversationsByUser returns all conversations owned by a
	// user, ordered by creation time.
	ListConversationsByUser(ctx context.Context, userID uuid.UUID) ([]*core.Conversation, error)

	// UpdateConversation overwrites an existing conversation.
	UpdateConversation(ctx context.Context, conversation *core.Conversation) error

	// DeleteConversation removes a conversation together with its
	// messages and their references in a single transaction, children
	// first. Returns ErrNotFound if the conversation does not exist.
	DeleteConversation(ctx context.Context, id uuid.UUID) error

	// CreateMessage stores a message and any references attached to it
	// in a single transaction.
	CreateMessage(ctx context.Context, message *core.Message) error

	// CreateMessageReferences attaches references to an existing
	// message in a single transaction: all of them are stored or none.
	// Returns ErrNotFound if the message does not exist.
	CreateMessageReferences(ctx context.Context, messageID uuid.UUID, references []*core.DocumentReference) error

	// GetMessage retrieves a message by ID with its references loaded.
	GetMessage(ctx context.Context, id uuid.UUID) (*core.Message, error)

	// ListMessages returns the messages of a conversation in
	// chronological order, references loaded.
	ListMessages(ctx context.Context, conversationID uuid.UUID) ([]*core.Message, error)

	// CountMessages returns the number of messages in a conversation.
	CountMessages(ctx context.Context, conversationID uuid.UUID) (int, error)
}

// Repository combines all storage operations behind a single handle.
type Repository interface {
	ProjectRepository
	DocumentRepository
	ConversationRepository

	// Close releases underlying resources. The repository must not be
	// used after Close returns.
	Close() error
}

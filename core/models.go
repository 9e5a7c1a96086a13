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


// Package core defines the domain model shared by every layer of
// grounddesk: projects, documents, conversations, messages, and the
// transient values (chunks, capacity reports) produced while documents
// move through the ingestion pipeline.
package core

import (
	"time"

	"github.com/go-crypt/x/blake2b"
	"github.com/google/uuid"
)

// DocumentStatus tracks a document through the ingestion state machine.
//
// Legal transitions:
//
//	Pending -> Processing -> Completed
//	Pending -> Processing -> Failed
//	Failed  -> Pending (retry)
//
// Any other transition is rejected by the pipeline.
type DocumentStatus int

const (
	// StatusPending means the document row exists and the file is stored,
	// but no processing job has picked it up yet.
	StatusPending DocumentStatus = iota + 1
	// StatusProcessing means a background job is extracting, chunking,
	// and embedding the document.
	StatusProcessing
	// StatusCompleted means every chunk was embedded and indexed.
	StatusCompleted
	// StatusFailed means processing aborted; ErrorMessage carries the cause.
	StatusFailed
)

// String returns the lowercase wire name of the status.
func (s DocumentStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusProcessing:
		return "processing"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Project is the top-level grouping for documents and conversations.
// MaxContextTokens bounds the combined token footprint of everything
// inside the project; the capacity tracker enforces it at upload time.
type Project struct {
	ID               uuid.UUID
	OwnerID          uuid.UUID
	Name             string
	Description      string
	SystemPrompt     string
	MaxContextTokens int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Document is an uploaded file plus its ingestion bookkeeping.
// TokenCount, ChunkCount, and ProcessedChunks are zero until the
// processing job populates them; ProcessedChunks never exceeds
// ChunkCount and only increases while Status is Processing.
// DocumentTypeOther is the default semantic category for uploads that
// do not declare one. Categories are user-defined; "rfp" and
// "proposal" get dedicated context sections in chat prompts.
const DocumentTypeOther = "other"

type Document struct {
	ID              uuid.UUID
	ProjectID       uuid.UUID
	Filename        string
	FilePath        string
	FileType        string
	DocumentType    string
	FileSize        int64
	Status          DocumentStatus
	TokenCount      int
	ChunkCount      int
	ProcessedChunks int
	ErrorMessage    string
	TaskID          string
	// ProcessingStartedAt and ProcessingCompletedAt bracket the last
	// processing run; both are nil until a job picks the document up
	// and are cleared again on manual retry.
	ProcessingStartedAt   *time.Time
	ProcessingCompletedAt *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Chunk is a bounded slice of extracted document text. Chunks are
// transient: they flow from the splitter into the vector index and are
// never persisted in the row store.
type Chunk struct {
	Content    string
	Index      int
	TokenCount int
	PageNumber int
	PageTotal  int
}

// Conversation is a chat thread, optionally scoped to a project. A
// conversation without a project (ProjectID == uuid.Nil) has no
// documents to retrieve from and chats without grounding. AutoTitled
// records whether Title was produced by the title generation job
// rather than set by the user; the job never overwrites a user-chosen
// title. TitleTaskID is the handle of the pending title job, empty
// when none was queued.
type Conversation struct {
	ID           uuid.UUID
	ProjectID    uuid.UUID
	UserID       uuid.UUID
	Title        string
	AutoTitled   bool
	UseDocuments bool
	TitleTaskID  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Message is a single turn in a conversation. References holds the
// document passages retrieved for this turn; it is populated on load
// from separately stored reference rows.
type Message struct {
	ID             uuid.UUID
	ConversationID uuid.UUID
	Role           Role
	Content        string
	UseDocuments   bool
	References     []*DocumentReference
	CreatedAt      time.Time
}

// DocumentReference records one retrieved passage attached to a
// message. Distance is the raw vector distance of the match, smaller
// meaning more relevant; Snippet is a bounded excerpt of the chunk.
type DocumentReference struct {
	ID           uuid.UUID
	MessageID    uuid.UUID
	DocumentID   uuid.UUID
	DocumentType string
	Filename     string
	PageNumber   int
	PageTotal    int
	Snippet      string
	Distance     float64
}

// CapacityReport summarizes a project's token usage against its
// configured window. RemainingTokens is clamped at zero when usage
// exceeds the window.
type CapacityReport struct {
	ProjectID          uuid.UUID
	MaxTokens          int
	DocumentTokens     int
	ConversationTokens int
	UsedTokens         int
	RemainingTokens    int
	UsedPercent        float64
	NearLimit          bool
	OverLimit          bool
}

// DocumentProgress is the externally visible view of a running (or
// finished) ingestion job.
type DocumentProgress struct {
	DocumentID      uuid.UUID
	Status          DocumentStatus
	ChunkCount      int
	ProcessedChunks int
	Percent         float64
	ErrorMessage    string
}

// DerivedID produces a stable UUID from the given parts by hashing
// them with BLAKE2b. The same parts always yield the same ID, which
// lets retried jobs overwrite prior work instead of duplicating it.
func DerivedID(parts ...string) uuid.UUID {
	hasher, err := blake2b.New(16, nil)
	if err != nil {
		// blake2b.New only fails on a bad size or key; 16/nil is valid.
		panic(err)
	}
	for i, part := range parts {
		if i > 0 {
			hasher.Write([]byte{0})
		}
		hasher.Write([]byte(part))
	}
	id, err := uuid.FromBytes(hasher.Sum(nil))
	if err != nil {
		panic(err)
	}
	return id
}

// NewID returns a random UUID for a freshly created entity.
func NewID() uuid.UUID {
	return uuid.New()
}

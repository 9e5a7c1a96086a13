package core

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestValidateProject(t *testing.T) {
	tests := []struct {
		name    string
		project *Project
		wantErr error
	}{
		{
			name: "valid project",
			project: &Project{
				ID:               NewID(),
				Name:             "Research corpus",
				MaxContextTokens: 100000,
			},
			wantErr: nil,
		},
		{
			name: "valid project with description and prompt",
			project: &Project{
				ID:               NewID(),
				Name:             "Legal",
				Description:      "Contract review",
				SystemPrompt:     "Answer using the provided excerpts.",
				MaxContextTokens: 50000,
			},
			wantErr: nil,
		},
		{
			name:    "nil project",
			project: nil,
			wantErr: ErrInvalidProject,
		},
		{
			name: "empty name",
			project: &Project{
				ID:               NewID(),
				Name:             "",
				MaxContextTokens: 100000,
			},
			wantErr: ErrEmptyName,
		},
		{
			name: "zero context window",
			project: &Project{
				ID:               NewID(),
				Name:             "Empty window",
				MaxContextTokens: 0,
			},
			wantErr: ErrNonPositiveWindow,
		},
		{
			name: "negative context window",
			project: &Project{
				ID:               NewID(),
				Name:             "Negative window",
				MaxContextTokens: -5,
			},
			wantErr: ErrNonPositiveWindow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProject(tt.project)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateProject() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateProject() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateDocument(t *testing.T) {
	projectID := NewID()

	tests := []struct {
		name     string
		document *Document
		wantErr  error
	}{
		{
			name: "valid pending document",
			document: &Document{
				ID:        NewID(),
				ProjectID: projectID,
				Filename:  "report.pdf",
				FileType:  "pdf",
				Status:    StatusPending,
			},
			wantErr: nil,
		},
		{
			name: "valid document with zero counters",
			document: &Document{
				ID:              NewID(),
				ProjectID:       projectID,
				Filename:        "notes.txt",
				FileType:        "txt",
				Status:          StatusCompleted,
				TokenCount:      0,
				ChunkCount:      0,
				ProcessedChunks: 0,
			},
			wantErr: nil,
		},
		{
			name:     "nil document",
			document: nil,
			wantErr:  ErrInvalidDocument,
		},
		{
			name: "missing project id",
			document: &Document{
				ID:       NewID(),
				Filename: "report.pdf",
				Status:   StatusPending,
			},
			wantErr: ErrInvalidDocument,
		},
		{
			name: "empty filename",
			document: &Document{
				ID:        NewID(),
				ProjectID: projectID,
				Filename:  "",
				Status:    StatusPending,
			},
			wantErr: ErrEmptyFilename,
		},
		{
			name: "unknown status",
			document: &Document{
				ID:        NewID(),
				ProjectID: projectID,
				Filename:  "report.pdf",
				Status:    DocumentStatus(99),
			},
			wantErr: ErrInvalidStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument(tt.document)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateDocument() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateDocument() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateConversation(t *testing.T) {
	tests := []struct {
		name         string
		conversation *Conversation
		wantErr      error
	}{
		{
			name: "valid project conversation",
			conversation: &Conversation{
				ID:        NewID(),
				ProjectID: NewID(),
				UserID:    NewID(),
			},
			wantErr: nil,
		},
		{
			name: "valid conversation without project",
			conversation: &Conversation{
				ID:     NewID(),
				UserID: NewID(),
			},
			wantErr: nil,
		},
		{
			name:         "nil conversation",
			conversation: nil,
			wantErr:      ErrInvalidConversation,
		},
		{
			name: "missing user id",
			conversation: &Conversation{
				ID:        NewID(),
				ProjectID: NewID(),
			},
			wantErr: ErrInvalidConversation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConversation(tt.conversation)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateConversation() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateConversation() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateMessage(t *testing.T) {
	conversationID := NewID()

	tests := []struct {
		name    string
		message *Message
		wantErr error
	}{
		{
			name: "valid user message",
			message: &Message{
				ID:             NewID(),
				ConversationID: conversationID,
				Role:           RoleUser,
				Content:        "What does the contract say about renewal?",
			},
			wantErr: nil,
		},
		{
			name: "valid assistant message with references",
			message: &Message{
				ID:             NewID(),
				ConversationID: conversationID,
				Role:           RoleAssistant,
				Content:        "The renewal clause is in section 4.",
				References: []*DocumentReference{
					{DocumentID: uuid.New(), Filename: "contract.pdf", PageNumber: 12},
				},
			},
			wantErr: nil,
		},
		{
			name:    "nil message",
			message: nil,
			wantErr: ErrInvalidMessage,
		},
		{
			name: "empty content",
			message: &Message{
				ID:             NewID(),
				ConversationID: conversationID,
				Role:           RoleUser,
				Content:        "",
			},
			wantErr: ErrEmptyContent,
		},
		{
			name: "unknown role",
			message: &Message{
				ID:             NewID(),
				ConversationID: conversationID,
				Role:           Role("moderator"),
				Content:        "hello",
			},
			wantErr: ErrInvalidRole,
		},
		{
			name: "missing conversation id",
			message: &Message{
				ID:      NewID(),
				Role:    RoleUser,
				Content: "hello",
			},
			wantErr: ErrInvalidMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMessage(tt.message)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateMessage() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateMessage() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateStatus(t *testing.T) {
	for _, status := range []DocumentStatus{StatusPending, StatusProcessing, StatusCompleted, StatusFailed} {
		if err := ValidateStatus(status); err != nil {
			t.Errorf("ValidateStatus(%v) unexpected error: %v", status, err)
		}
	}

	if err := ValidateStatus(DocumentStatus(0)); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("ValidateStatus(0) error = %v, want %v", err, ErrInvalidStatus)
	}
}

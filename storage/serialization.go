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
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mus-format/mus-go/varint"

	"github.com/quorial/grounddesk/core"
)

// Values are stored in the MUS binary format: varint-encoded integers,
// length-prefixed strings, UUIDs as raw 16-byte blocks, timestamps as
// microseconds since the Unix epoch. Fields are written in struct
// declaration order; there is no per-field tagging, so the layout is
// part of the on-disk contract.

func sizeString(v string) int {
	return varint.Int.Size(len(v)) + len(v)
}

func marshalString(v string, bs []byte) int {
	n := varint.Int.Marshal(len(v), bs)
	return n + copy(bs[n:], v)
}

func unmarshalString(bs []byte) (string, int, error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return "", n, fmt.Errorf("%w: %w", ErrCorruptRecord, err)
	}
	if length < 0 || n+length > len(bs) {
		return "", n, fmt.Errorf("%w: string length %d exceeds buffer", ErrCorruptRecord, length)
	}
	return string(bs[n : n+length]), n + length, nil
}

func marshalUUID(id uuid.UUID, bs []byte) int {
	return copy(bs, id[:])
}

func unmarshalUUID(bs []byte) (uuid.UUID, int, error) {
	if len(bs) < 16 {
		return uuid.Nil, 0, fmt.Errorf("%w: truncated uuid", ErrCorruptRecord)
	}
	var id uuid.UUID
	copy(id[:], bs[:16])
	return id, 16, nil
}

func sizeTime(t time.Time) int {
	return varint.Int64.Size(t.UnixMicro())
}

func marshalTime(t time.Time, bs []byte) int {
	return varint.Int64.Marshal(t.UnixMicro(), bs)
}

func unmarshalTime(bs []byte) (time.Time, int, error) {
	micros, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, fmt.Errorf("%w: %w", ErrCorruptRecord, err)
	}
	return time.UnixMicro(micros).UTC(), n, nil
}

// Optional timestamps are stored as a presence byte followed by the
// timestamp when present.
func sizeTimePtr(t *time.Time) int {
	if t == nil {
		return 1
	}
	return 1 + sizeTime(*t)
}

func marshalTimePtr(t *time.Time, bs []byte) int {
	if t == nil {
		bs[0] = 0
		return 1
	}
	bs[0] = 1
	return 1 + marshalTime(*t, bs[1:])
}

func unmarshalTimePtr(bs []byte) (*time.Time, int, error) {
	present, n, err := unmarshalBool(bs)
	if err != nil || !present {
		return nil, n, err
	}
	t, m, err := unmarshalTime(bs[n:])
	if err != nil {
		return nil, n + m, err
	}
	return &t, n + m, nil
}

func marshalBool(v bool, bs []byte) int {
	if v {
		bs[0] = 1
	} else {
		bs[0] = 0
	}
	return 1
}

func unmarshalBool(bs []byte) (bool, int, error) {
	if len(bs) < 1 {
		return false, 0, fmt.Errorf("%w: truncated bool", ErrCorruptRecord)
	}
	return bs[0] != 0, 1, nil
}

// MarshalProject serializes a project for storage.
func MarshalProject(project *core.Project) ([]byte, error) {
	if project == nil {
		return nil, fmt.Errorf("cannot marshal nil project")
	}

	size := 16 + 16 +
		sizeString(project.Name) +
		sizeString(project.Description) +
		sizeString(project.SystemPrompt) +
		varint.Int.Size(project.MaxContextTokens) +
		sizeTime(project.CreatedAt) +
		sizeTime(project.UpdatedAt)

	bs := make([]byte, size)
	n := marshalUUID(project.ID, bs)
	n += marshalUUID(project.OwnerID, bs[n:])
	n += marshalString(project.Name, bs[n:])
	n += marshalString(project.Description, bs[n:])
	n += marshalString(project.SystemPrompt, bs[n:])
	n += varint.Int.Marshal(project.MaxContextTokens, bs[n:])
	n += marshalTime(project.CreatedAt, bs[n:])
	marshalTime(project.UpdatedAt, bs[n:])
	return bs, nil
}

// UnmarshalProject deserializes a project from storage.
func UnmarshalProject(data []byte) (*core.Project, error) {
	var (
		project core.Project
		n, off  int
		err     error
	)

	if project.ID, n, err = unmarshalUUID(data); err != nil {
		return nil, err
	}
	off += n
	if project.OwnerID, n, err = unmarshalUUID(data[off:]); err != nil {
		return nil, err
	}
	off += n
	if project.Name, n, err = unmarshalString(data[off:]); err != nil {
		return nil, err
	}
	off += n
	if project.Description, n, err = unmarshalString(data[off:]); err != nil {
		return nil, err
	}
	off += n
	if project.SystemPrompt, n, err = unmarshalString(data[off:]); err != nil {
		return nil, err
	}
	off += n
	if project.MaxContextTokens, n, err = varint.Int.Unmarshal(data[off:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptRecord, err)
	}
	off += n
	if project.CreatedAt, n, err = unmarshalTime(data[off:]); err != nil {
		return nil, err
	}
	off += n
	if project.UpdatedAt, _, err = unmarshalTime(data[off:]); err != nil {
		return nil, err
	}
	return &project, nil
}

// MarshalDocument serializes a document row for storage.
func MarshalDocument(document *core.Document) ([]byte, error) {
	if document == nil {
		return nil, fmt.Errorf("cannot marshal nil document")
	}

	size := 16 + 16 +
		sizeString(document.Filename) +
		sizeString(document.FilePath) +
		sizeString(document.FileType) +
		sizeString(document.DocumentType) +
		varint.Int64.Size(document.FileSize) +
		varint.Int.Size(int(document.Status)) +
		varint.Int.Size(document.TokenCount) +
		varint.Int.Size(document.ChunkCount) +
		varint.Int.Size(document.ProcessedChunks) +
		sizeString(document.ErrorMessage) +
		sizeString(document.TaskID) +
		sizeTimePtr(document.ProcessingStartedAt) +
		sizeTimePtr(document.ProcessingCompletedAt) +
		sizeTime(document.CreatedAt) +
		sizeTime(document.UpdatedAt)

	bs := make([]byte, size)
	n := marshalUUID(document.ID, bs)
	n += marshalUUID(document.ProjectID, bs[n:])
	n += marshalString(document.Filename, bs[n:])
	n += marshalString(document.FilePath, bs[n:])
	n += marshalString(document.FileType, bs[n:])
	n += marshalString(document.DocumentType, bs[n:])
	n += varint.Int64.Marshal(document.FileSize, bs[n:])
	n += varint.Int.Marshal(int(document.Status), bs[n:])
	n += varint.Int.Marshal(document.TokenCount, bs[n:])
	n += varint.Int.Marshal(document.ChunkCount, bs[n:])
	n += varint.Int.Marshal(document.ProcessedChunks, bs[n:])
	n += marshalString(document.ErrorMessage, bs[n:])
	n += marshalString(document.TaskID, bs[n:])
	n += marshalTimePtr(document.ProcessingStartedAt, bs[n:])
	n += marshalTimePtr(document.ProcessingCompletedAt, bs[n:])
	n += marshalTime(document.CreatedAt, bs[n:])
	marshalTime(document.UpdatedAt, bs[n:])
	return bs, nil
}

// UnmarshalDocument deserializes a document row from storage.
func UnmarshalDocument(data []byte) (*core.Document, error) {
	var (
		document core.Document
		status   int
		n, off   int
		err      error
	)

	if document.ID, n, err = unmarshalUUID(data); err != nil {
		return nil, err
	}
	off += n
	if document.ProjectID, n, err = unmarshalUUID(data[off:]); err != nil {
		return nil, err
	}
	off += n
	if document.Filename, n, err = unmarshalString(data[off:]); err != nil {
		return nil, err
	}
	off += n
	if document.FilePath, n, err = unmarshalString(data[off:]); err != nil {
		return nil, err
	}
	off += n
	if document.FileType, n, err = unmarshalString(data[off:]); err != nil {
		return nil, err
	}
	off += n
	if document.DocumentType, n, err = unmarshalString(data[off:]); err != nil {
		return nil, err
	}
	off += n
	if document.FileSize, n, err = varint.Int64.Unmarshal(data[off:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptRecord, err)
	}
	off += n
	if status, n, err = varint.Int.Unmarshal(data[off:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptRecord, err)
	}
	document.Status = core.DocumentStatus(status)
	off += n
	if document.TokenCount, n, err = varint.Int.Unmarshal(data[off:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptRecord, err)
	}
	off += n
	if document.ChunkCount, n, err = varint.Int.Unmarshal(data[off:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptRecord, err)
	}
	off += n
	if document.ProcessedChunks, n, err = varint.Int.Unmarshal(data[off:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptRecord, err)
	}
	off += n
	if document.ErrorMessage, n, err = unmarshalString(data[off:]); err != nil {
		return nil, err
	}
	off += n
	if document.TaskID, n, err = unmarshalString(data[off:]); err != nil {
		return nil, err
	}
	off += n
	if document.ProcessingStartedAt, n, err = unmarshalTimePtr(data[off:]); err != nil {
		return nil, err
	}
	off += n
	if document.ProcessingCompletedAt, n, err = unmarshalTimePtr(data[off:]); err != nil {
		return nil, err
	}
	off += n
	if document.CreatedAt, n, err = unmarshalTime(data[off:]); err != nil {
		return nil, err
	}
	off += n
	if document.UpdatedAt, _, err = unmarshalTime(data[off:]); err != nil {
		return nil, err
	}
	return &document, nil
}

// MarshalConversation serializes a conversation for storage.
func MarshalConversation(conversation *core.Conversation) ([]byte, error) {
	if conversation == nil {
		return nil, fmt.Errorf("cannot marshal nil conversation")
	}

	size := 16 + 16 + 16 +
		sizeString(conversation.Title) +
		2 +
		sizeString(conversation.TitleTaskID) +
		sizeTime(conversation.CreatedAt) +
		sizeTime(conversation.UpdatedAt)

	bs := make([]byte, size)
	n := marshalUUID(conversation.ID, bs)
	n += marshalUUID(conversation.ProjectID, bs[n:])
	n += marshalUUID(conversation.UserID, bs[n:])
	n += marshalString(conversation.Title, bs[n:])
	n += marshalBool(conversation.AutoTitled, bs[n:])
	n += marshalBool(conversation.UseDocuments, bs[n:])
	n += marshalString(conversation.TitleTaskID, bs[n:])
	n += marshalTime(conversation.CreatedAt, bs[n:])
	marshalTime(conversation.UpdatedAt, bs[n:])
	return bs, nil
}

// UnmarshalConversation deserializes a conversation from storage.
func UnmarshalConversation(data []byte) (*core.Conversation, error) {
	var (
		conversation core.Conversation
		n, off       int
		err          error
	)

	if conversation.ID, n, err = unmarshalUUID(data); err != nil {
		return nil, err
	}
	off += n
	if conversation.ProjectID, n, err = unmarshalUUID(data[off:]); err != nil {
		return nil, err
	}
	off += n
	if conversation.UserID, n, err = unmarshalUUID(data[off:]); err != nil {
		return nil, err
	}
	off += n
	if conversation.Title, n, err = unmarshalString(data[off:]); err != nil {
		return nil, err
	}
	off += n
	if conversation.AutoTitled, n, err = unmarshalBool(data[off:]); err != nil {
		return nil, err
	}
	off += n
	if conversation.UseDocuments, n, err = unmarshalBool(data[off:]); err != nil {
		return nil, err
	}
	off += n
	if conversation.TitleTaskID, n, err = unmarshalString(data[off:]); err != nil {
		return nil, err
	}
	off += n
	if conversation.CreatedAt, n, err = unmarshalTime(data[off:]); err != nil {
		return nil, err
	}
	off += n
	if conversation.UpdatedAt, _, err = unmarshalTime(data[off:]); err != nil {
		return nil, err
	}
	return &conversation, nil
}

// MarshalMessage serializes a message for storage. References are
// stored as separate records and are not part of the message value.
func MarshalMessage(message *core.Message) ([]byte, error) {
	if message == nil {
		return nil, fmt.Errorf("cannot marshal nil message")
	}

	size := 16 + 16 +
		sizeString(string(message.Role)) +
		sizeString(message.Content) +
		1 +
		sizeTime(message.CreatedAt)

	bs := make([]byte, size)
	n := marshalUUID(message.ID, bs)
	n += marshalUUID(message.ConversationID, bs[n:])
	n += marshalString(string(message.Role), bs[n:])
	n += marshalString(message.Content, bs[n:])
	n += marshalBool(message.UseDocuments, bs[n:])
	marshalTime(message.CreatedAt, bs[n:])
	return bs, nil
}

// UnmarshalMessage deserializes a message from storage. References
// must be loaded separately.
func UnmarshalMessage(data []byte) (*core.Message, error) {
	var (
		message core.Message
		role    string
		n, off  int
		err     error
	)

	if message.ID, n, err = unmarshalUUID(data); err != nil {
		return nil, err
	}
	off += n
	if message.ConversationID, n, err = unmarshalUUID(data[off:]); err != nil {
		return nil, err
	}
	off += n
	if role, n, err = unmarshalString(data[off:]); err != nil {
		return nil, err
	}
	message.Role = core.Role(role)
	off += n
	if message.Content, n, err = unmarshalString(data[off:]); err != nil {
		return nil, err
	}
	off += n
	if message.UseDocuments, n, err = unmarshalBool(data[off:]); err != nil {
		return nil, err
	}
	off += n
	if message.CreatedAt, _, err = unmarshalTime(data[off:]); err != nil {
		return nil, err
	}
	return &message, nil
}

// MarshalReference serializes a document reference for storage.
func MarshalReference(reference *core.DocumentReference) ([]byte, error) {
	if reference == nil {
		return nil, fmt.Errorf("cannot marshal nil reference")
	}

	size := 16 + 16 + 16 +
		sizeString(reference.DocumentType) +
		sizeString(reference.Filename) +
		varint.Int.Size(reference.PageNumber) +
		varint.Int.Size(reference.PageTotal) +
		sizeString(reference.Snippet) +
		varint.Float64.Size(reference.Distance)

	bs := make([]byte, size)
	n := marshalUUID(reference.ID, bs)
	n += marshalUUID(reference.MessageID, bs[n:])
	n += marshalUUID(reference.DocumentID, bs[n:])
	n += marshalString(reference.DocumentType, bs[n:])
	n += marshalString(reference.Filename, bs[n:])
	n += varint.Int.Marshal(reference.PageNumber, bs[n:])
	n += varint.Int.Marshal(reference.PageTotal, bs[n:])
	n += marshalString(reference.Snippet, bs[n:])
	varint.Float64.Marshal(reference.Distance, bs[n:])
	return bs, nil
}

// UnmarshalReference deserializes a document reference from storage.
func UnmarshalReference(data []byte) (*core.DocumentReference, error) {
	var (
		reference core.DocumentReference
		n, off    int
		err       error
	)

	if reference.ID, n, err = unmarshalUUID(data); err != nil {
		return nil, err
	}
	off += n
	if reference.MessageID, n, err = unmarshalUUID(data[off:]); err != nil {
		return nil, err
	}
	off += n
	if reference.DocumentID, n, err = unmarshalUUID(data[off:]); err != nil {
		return nil, err
	}
	off += n
	if reference.DocumentType, n, err = unmarshalString(data[off:]); err != nil {
		return nil, err
	}
	off += n
	if reference.Filename, n, err = unmarshalString(data[off:]); err != nil {
		return nil, err
	}
	off += n
	if reference.PageNumber, n, err = varint.Int.Unmarshal(data[off:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptRecord, err)
	}
	off += n
	if reference.PageTotal, n, err = varint.Int.Unmarshal(data[off:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptRecord, err)
	}
	off += n
	if reference.Snippet, n, err = unmarshalString(data[off:]); err != nil {
		return nil, err
	}
	off += n
	if reference.Distance, _, err = varint.Float64.Unmarshal(data[off:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptRecord, err)
	}
	return &reference, nil
}

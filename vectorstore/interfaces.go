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


// Package vectorstore abstracts the external vector index that holds
// chunk embeddings. The row store never sees embeddings and the index
// never sees domain entities; metadata is the only bridge between them.
//
// Implementation packages:
//
//   - vectorstore/pgvector: production implementation on PostgreSQL
//     with the pgvector extension
//   - vectorstore/mock: in-memory test double with real distance math
package vectorstore

import (
	"context"

	"github.com/google/uuid"
)

// Metadata travels with every indexed chunk and is the only way to
// find a chunk's records again: deletes and search filters match on
// it, and chat references are reconstructed from it.
type Metadata struct {
	ProjectID    uuid.UUID `json:"project_id"`
	DocumentID   uuid.UUID `json:"document_id"`
	ChunkIndex   int       `json:"chunk_index"`
	DocumentType string    `json:"document_type"`
	Filename     string    `json:"filename"`
	PageNumber   int       `json:"page_number"`
	PageTotal    int       `json:"page_total"`
}

// Filter narrows a search or delete to one project or one document.
// Zero fields are unconstrained; a completely zero filter is rejected
// by DeleteByFilter to avoid accidental full wipes.
type Filter struct {
	ProjectID  uuid.UUID
	DocumentID uuid.UUID
}

// IsZero reports whether the filter constrains nothing.
func (f Filter) IsZero() bool {
	return f.ProjectID == uuid.Nil && f.DocumentID == uuid.Nil
}

// Matches reports whether metadata satisfies the filter.
func (f Filter) Matches(meta Metadata) bool {
	if f.ProjectID != uuid.Nil && meta.ProjectID != f.ProjectID {
		return false
	}
	if f.DocumentID != uuid.Nil && meta.DocumentID != f.DocumentID {
		return false
	}
	return true
}

// Result is one search hit. Distance is the index's raw distance
// metric: smaller is more similar.
type Result struct {
	ID       string
	Content  string
	Metadata Metadata
	Distance float64
}

// Index stores and searches chunk embeddings. Record keys are owned by
// the index; Upsert derives the key from the chunk's identity so
// re-indexing a chunk overwrites its previous record.
type Index interface {
	// Upsert stores one chunk with its embedding and returns the
	// record key.
	Upsert(ctx context.Context, content string, meta Metadata, vector []float32) (string, error)

	// Search returns up to limit records nearest to vector, most
	// similar first, restricted by filter.
	Search(ctx context.Context, vector []float32, limit int, filter Filter) ([]Result, error)

	// DeleteByFilter removes every record matching a non-zero filter.
	// Returns ErrEmptyFilter if the filter constrains nothing.
	DeleteByFilter(ctx context.Context, filter Filter) error

	// DeleteByIDs removes the records with the given keys. Unknown keys
	// are ignored.
	DeleteByIDs(ctx context.Context, ids []string) error

	// DeleteAll wipes the index.
	DeleteAll(ctx context.Context) error

	// Close releases the index's resources.
	Close() error
}

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


package reindex

import (
	"context"

	"github.com/google/uuid"

	"github.com/quorial/grounddesk/core"
	"github.com/quorial/grounddesk/storage"
)

// DefaultBatchSize is the default number of documents per batch.
const DefaultBatchSize = 25

// DocumentIterator walks a project's completed documents in batches.
// Pending, processing, and failed documents are skipped: they have no
// vectors worth rebuilding.
type DocumentIterator struct {
	store     storage.DocumentRepository
	batchSize int
}

// NewDocumentIterator creates an iterator.
// batchSize: number of documents per batch (must be > 0)
func NewDocumentIterator(store storage.DocumentRepository, batchSize int) *DocumentIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &DocumentIterator{
		store:     store,
		batchSize: batchSize,
	}
}

// Count returns the number of completed documents in the project.
func (it *DocumentIterator) Count(ctx context.Context, projectID uuid.UUID) (int, error) {
	documents, err := it.completed(ctx, projectID)
	if err != nil {
		return 0, err
	}
	return len(documents), nil
}

// ForEach calls fn for each batch of completed documents in the
// project. Iteration stops on the first error from fn. Context
// cancellation is checked between batches.
func (it *DocumentIterator) ForEach(ctx context.Context, projectID uuid.UUID, fn func([]*core.Document) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	documents, err := it.completed(ctx, projectID)
	if err != nil {
		return err
	}

	for i := 0; i < len(documents); i += it.batchSize {
		end := i + it.batchSize
		if end > len(documents) {
			end = len(documents)
		}

		if err := fn(documents[i:end]); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	return nil
}

func (it *DocumentIterator) completed(ctx context.Context, projectID uuid.UUID) ([]*core.Document, error) {
	documents, err := it.store.ListDocumentsByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	completed := make([]*core.Document, 0, len(documents))
	for _, document := range documents {
		if document.Status == core.StatusCompleted {
			completed = append(completed, document)
		}
	}
	return completed, nil
}

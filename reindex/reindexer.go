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
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/quorial/grounddesk/ai"
	"github.com/quorial/grounddesk/chunk"
	"github.com/quorial/grounddesk/core"
	"github.com/quorial/grounddesk/extract"
	"github.com/quorial/grounddesk/storage"
	"github.com/quorial/grounddesk/vectorstore"
)

// Config holds configuration for a reindex run.
type Config struct {
	// BatchSize is the number of documents to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of documents)
	ReportInterval int

	// MaxRetries is the maximum number of attempts for embedding calls
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: 10,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reindexer rebuilds the vector records of a project's completed
// documents from their source files.
type Reindexer struct {
	store     storage.Repository
	embedder  ai.Embedder
	index     vectorstore.Index
	splitter  *chunk.Splitter
	extractor *extract.Extractor
	config    *Config
	progress  io.Writer
	processor *ChunkProcessor
	iterator  *DocumentIterator
}

// NewReindexer creates a reindexer.
// progress: where to write progress output (typically os.Stderr)
func NewReindexer(
	store storage.Repository,
	embedder ai.Embedder,
	index vectorstore.Index,
	splitter *chunk.Splitter,
	config *Config,
	progress io.Writer,
) (*Reindexer, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if index == nil {
		return nil, ErrIndexRequired
	}
	if splitter == nil {
		return nil, ErrSplitterRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Reindexer{
		store:     store,
		embedder:  embedder,
		index:     index,
		splitter:  splitter,
		extractor: extract.NewExtractor(slog.Default()),
		config:    config,
		progress:  progress,
		processor: NewChunkProcessor(embedder, index, config.MaxRetries, config.RetryDelay),
		iterator:  NewDocumentIterator(store, config.BatchSize),
	}, nil
}

// Run reindexes every completed document in the project. Each document
// is re-extracted and re-chunked from its file, embedded with the
// current embedder, and its index records replaced. Token and chunk
// counts on the document rows are refreshed along the way.
func (r *Reindexer) Run(ctx context.Context, projectID uuid.UUID) error {
	if _, err := r.store.GetProject(ctx, projectID); err != nil {
		return fmt.Errorf("failed to load project: %w", err)
	}

	total, err := r.iterator.Count(ctx, projectID)
	if err != nil {
		return fmt.Errorf("failed to count documents: %w", err)
	}
	if total == 0 {
		fmt.Fprintf(r.progress, "No completed documents in project (0 documents)\n")
		return nil
	}

	fmt.Fprintf(r.progress, "Starting reindex of %d documents (batch size: %d)\n",
		total, r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	processed := 0
	err = r.iterator.ForEach(ctx, projectID, func(documents []*core.Document) error {
		for _, document := range documents {
			if err := r.reindexDocument(ctx, document); err != nil {
				return fmt.Errorf("failed to reindex document %s: %w", document.ID, err)
			}
		}

		processed += len(documents)
		tracker.Update(processed)
		return nil
	})
	if err != nil {
		return err
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reindex complete. Processed %d documents in %v (%.1f documents/sec)\n",
		total, elapsed.Round(time.Second), float64(total)/elapsed.Seconds())

	return nil
}

func (r *Reindexer) reindexDocument(ctx context.Context, document *core.Document) error {
	chunks, err := r.splitter.ProcessFile(r.extractor, document.FilePath, document.FileType)
	if err != nil {
		return err
	}

	// Old records with chunk indexes past the new chunk count would
	// survive an overwrite-only pass, so clear the document first.
	if err := r.index.DeleteByFilter(ctx, vectorstore.Filter{DocumentID: document.ID}); err != nil {
		return err
	}

	tokens, err := r.processor.Process(ctx, document, chunks)
	if err != nil {
		return err
	}

	document.ChunkCount = len(chunks)
	document.ProcessedChunks = len(chunks)
	document.TokenCount = tokens
	return r.store.UpdateDocument(ctx, document)
}

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


// Package grounddesk is the document-grounded project chat core: upload
// documents into a project, have them chunked and embedded into a
// vector index, and chat over them with citations, all bounded by a
// per-project token budget.
package grounddesk

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/quorial/grounddesk/ai"
	"github.com/quorial/grounddesk/ai/openai"
	"github.com/quorial/grounddesk/capacity"
	"github.com/quorial/grounddesk/chat"
	"github.com/quorial/grounddesk/chunk"
	"github.com/quorial/grounddesk/core"
	"github.com/quorial/grounddesk/ingest"
	"github.com/quorial/grounddesk/reindex"
	"github.com/quorial/grounddesk/search"
	"github.com/quorial/grounddesk/storage"
	"github.com/quorial/grounddesk/storage/badger"
	"github.com/quorial/grounddesk/taskqueue"
	"github.com/quorial/grounddesk/token"
	"github.com/quorial/grounddesk/vectorstore"
	"github.com/quorial/grounddesk/vectorstore/pgvector"
)

// ErrVectorIndexRequired is returned when neither a vector index nor a
// PostgreSQL DSN is configured.
var ErrVectorIndexRequired = errors.New("a vector index or a vector DSN is required")

// Desk wires storage, the vector index, the AI provider, and the
// background worker pool into the two domain services: the ingestion
// pipeline and the chat orchestrator.
type Desk struct {
	store        storage.Repository
	index        vectorstore.Index
	provider     ai.Provider
	pool         *taskqueue.WorkerPool
	counter      *token.Counter
	tracker      *capacity.Tracker
	pipeline     *ingest.Pipeline
	orchestrator *chat.Orchestrator
	searcher     *search.Searcher
	logger       *slog.Logger
}

// DeskOption configures a Desk.
type DeskOption func(*deskOptions)

type deskOptions struct {
	aiConfig  *ai.Config
	provider  ai.Provider
	index     vectorstore.Index
	vectorDSN string
	workers   int
	logger    *slog.Logger
}

// WithAIConfig sets the configuration for the default OpenAI-backed
// provider. Ignored when WithAIProvider is used.
func WithAIConfig(config *ai.Config) DeskOption {
	return func(o *deskOptions) {
		o.aiConfig = config
	}
}

// WithAIProvider injects a pre-built AI provider instead of the
// OpenAI-backed default.
func WithAIProvider(provider ai.Provider) DeskOption {
	return func(o *deskOptions) {
		o.provider = provider
	}
}

// WithVectorIndex injects a pre-built vector index instead of the
// pgvector default.
func WithVectorIndex(index vectorstore.Index) DeskOption {
	return func(o *deskOptions) {
		o.index = index
	}
}

// WithVectorDSN sets the PostgreSQL connection string for the pgvector
// index. Ignored when WithVectorIndex is used.
func WithVectorDSN(dsn string) DeskOption {
	return func(o *deskOptions) {
		o.vectorDSN = dsn
	}
}

// WithWorkers sets the background worker pool size.
func WithWorkers(workers int) DeskOption {
	return func(o *deskOptions) {
		o.workers = workers
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) DeskOption {
	return func(o *deskOptions) {
		o.logger = logger
	}
}

// NewDesk opens the row store at dbPath, connects the vector index and
// AI provider, and starts the background worker pool. Uploaded files
// are kept under documentRoot.
func NewDesk(ctx context.Context, dbPath, documentRoot string, opts ...DeskOption) (*Desk, error) {
	options := &deskOptions{
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	store, err := badger.NewRepository(dbPath)
	if err != nil {
		return nil, err
	}

	index := options.index
	if index == nil {
		if options.vectorDSN == "" {
			store.Close()
			return nil, ErrVectorIndexRequired
		}
		index, err = pgvector.New(ctx, options.vectorDSN, pgvector.WithLogger(options.logger))
		if err != nil {
			store.Close()
			return nil, err
		}
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			index.Close()
			store.Close()
			return nil, err
		}
	}

	pool, err := taskqueue.NewWorkerPool(options.workers,
		taskqueue.WithPoolLogger(options.logger))
	if err != nil {
		provider.Close()
		index.Close()
		store.Close()
		return nil, err
	}

	// Token counting follows the configured chat model so capacity
	// estimates line up with what the provider will see.
	counter := token.NewCounter(
		token.WithModel(options.aiConfig.ChatModel),
		token.WithLogger(options.logger))
	tracker := capacity.NewTracker(store, store, store, counter,
		capacity.WithLogger(options.logger))

	pipeline, err := ingest.NewPipeline(store, tracker, provider.Embedder(), index, pool, documentRoot,
		ingest.WithSplitter(chunk.NewSplitter(counter)),
		ingest.WithLogger(options.logger))
	if err != nil {
		pool.Release()
		provider.Close()
		index.Close()
		store.Close()
		return nil, err
	}

	orchestrator, err := chat.NewOrchestrator(store, provider.Embedder(), provider.Completer(), index, pool,
		chat.WithModel(options.aiConfig.ChatModel),
		chat.WithLogger(options.logger))
	if err != nil {
		pool.Release()
		provider.Close()
		index.Close()
		store.Close()
		return nil, err
	}

	searcher, err := search.NewSearcher(provider.Embedder(), index,
		search.WithLogger(options.logger))
	if err != nil {
		pool.Release()
		provider.Close()
		index.Close()
		store.Close()
		return nil, err
	}

	pipeline.RegisterJobs(pool)
	orchestrator.RegisterJobs(pool)

	return &Desk{
		store:        store,
		index:        index,
		provider:     provider,
		pool:         pool,
		counter:      counter,
		tracker:      tracker,
		pipeline:     pipeline,
		orchestrator: orchestrator,
		searcher:     searcher,
		logger:       options.logger,
	}, nil
}

// Close drains in-flight background jobs and releases every resource.
// The desk must not be used after Close returns.
func (d *Desk) Close() error {
	d.pool.Release()

	if err := d.provider.Close(); err != nil {
		d.logger.Error("error closing AI provider", "err", err)
	}
	if err := d.index.Close(); err != nil {
		d.logger.Error("error closing vector index", "err", err)
	}

	if err := d.store.Close(); err != nil {
		d.logger.Error("error closing storage", "err", err)
		return err
	}
	return nil
}

// Store exposes the row store.
func (d *Desk) Store() storage.Repository {
	return d.store
}

// Tracker exposes the capacity tracker.
func (d *Desk) Tracker() *capacity.Tracker {
	return d.tracker
}

// Pipeline exposes the document ingestion pipeline.
func (d *Desk) Pipeline() *ingest.Pipeline {
	return d.pipeline
}

// Orchestrator exposes the chat orchestrator.
func (d *Desk) Orchestrator() *chat.Orchestrator {
	return d.orchestrator
}

// Searcher exposes direct semantic search over indexed documents.
func (d *Desk) Searcher() *search.Searcher {
	return d.searcher
}

// Reindexer builds a reindexer that rebuilds vector records with the
// current embedding model. Progress is written to the given writer.
func (d *Desk) Reindexer(config *reindex.Config, progress io.Writer) (*reindex.Reindexer, error) {
	return reindex.NewReindexer(d.store, d.provider.Embedder(), d.index,
		chunk.NewSplitter(d.counter), config, progress)
}

// Queue exposes the background task queue.
func (d *Desk) Queue() taskqueue.Queue {
	return d.pool
}

// Drain blocks until every enqueued background job has finished.
// Useful for tests and orderly shutdown.
func (d *Desk) Drain() {
	d.pool.Drain()
}

// SendMessage processes one chat turn and, once the conversation has
// its first complete exchange, queues automatic title generation.
func (d *Desk) SendMessage(ctx context.Context, conversationID uuid.UUID, content string, useDocuments bool) (*core.Message, error) {
	reply, err := d.orchestrator.ProcessMessage(ctx, conversationID, content, useDocuments)
	if err != nil {
		return nil, err
	}

	count, err := d.store.CountMessages(ctx, conversationID)
	if err != nil {
		d.logger.Warn("failed to count messages for title trigger",
			"conversation_id", conversationID, "error", err)
		return reply, nil
	}
	if count == 2 {
		if err := d.orchestrator.QueueTitleGeneration(ctx, conversationID); err != nil {
			d.logger.Warn("failed to queue title generation",
				"conversation_id", conversationID, "error", err)
		}
	}
	return reply, nil
}

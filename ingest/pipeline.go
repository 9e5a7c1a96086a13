// Package ingest runs documents through the processing state machine:
// a file is admitted against the project's capacity budget, stored on
// disk, and processed asynchronously into embedded chunks in the
// vector index. Documents move PENDING -> PROCESSING and end in
// COMPLETED or FAILED; a failed document returns to PENDING only
// through an explicit manual retry.
package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quorial/grounddesk/ai"
	"github.com/quorial/grounddesk/capacity"
	"github.com/quorial/grounddesk/chunk"
	"github.com/quorial/grounddesk/core"
	"github.com/quorial/grounddesk/extract"
	"github.com/quorial/grounddesk/storage"
	"github.com/quorial/grounddesk/taskqueue"
	"github.com/quorial/grounddesk/token"
	"github.com/quorial/grounddesk/vectorstore"
)

// Background job names owned by this package.
const (
	// JobProcessDocument extracts, chunks, embeds, and indexes one
	// document. Args: document_id.
	JobProcessDocument = "document.process"

	// JobDeleteDocumentVectors removes a deleted document's records
	// from the vector index. Args: document_id.
	JobDeleteDocumentVectors = "vectors.delete_document"

	// JobDeleteProjectVectors removes a deleted project's records from
	// the vector index. Args: project_id.
	JobDeleteProjectVectors = "vectors.delete_project"
)

const (
	// processAttempts bounds automatic retries of a document job.
	processAttempts = 3
	// processBaseDelay is the first retry delay for document jobs.
	processBaseDelay = time.Minute
)

// Pipeline owns document ingestion end to end: admission, file storage,
// background processing, manual retry, and removal with vector cleanup.
type Pipeline struct {
	store     storage.Repository
	tracker   *capacity.Tracker
	embedder  ai.Embedder
	index     vectorstore.Index
	queue     taskqueue.Queue
	rootDir   string
	extractor *extract.Extractor
	splitter  *chunk.Splitter
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithSplitter replaces the default splitter, and with it the token
// counter used for estimates.
func WithSplitter(splitter *chunk.Splitter) Option {
	return func(p *Pipeline) {
		p.splitter = splitter
	}
}

// WithExtractor replaces the default text extractor.
func WithExtractor(extractor *extract.Extractor) Option {
	return func(p *Pipeline) {
		p.extractor = extractor
	}
}

// NewPipeline creates an ingestion pipeline. Documents admitted through
// it are stored under rootDir/{project_id}/{document_id}/.
func NewPipeline(
	store storage.Repository,
	tracker *capacity.Tracker,
	embedder ai.Embedder,
	index vectorstore.Index,
	queue taskqueue.Queue,
	rootDir string,
	opts ...Option,
) (*Pipeline, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if tracker == nil {
		return nil, ErrTrackerRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if index == nil {
		return nil, ErrIndexRequired
	}
	if queue == nil {
		return nil, ErrQueueRequired
	}
	if rootDir == "" {
		return nil, ErrRootDirRequired
	}

	p := &Pipeline{
		store:    store,
		tracker:  tracker,
		embedder: embedder,
		index:    index,
		queue:    queue,
		rootDir:  rootDir,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.extractor == nil {
		p.extractor = extract.NewExtractor(p.logger)
	}
	if p.splitter == nil {
		p.splitter = chunk.NewSplitter(token.NewCounter(token.WithLogger(p.logger)))
	}
	return p, nil
}

// RegisterJobs binds this pipeline's background jobs to a worker pool.
func (p *Pipeline) RegisterJobs(pool *taskqueue.WorkerPool) {
	pool.Register(JobProcessDocument, taskqueue.Job{
		Run:         p.ProcessJob,
		MaxAttempts: processAttempts,
		BaseDelay:   processBaseDelay,
	})
	pool.Register(JobDeleteDocumentVectors, taskqueue.Job{Run: p.DeleteDocumentVectorsJob})
	pool.Register(JobDeleteProjectVectors, taskqueue.Job{Run: p.DeleteProjectVectorsJob})
}

// Admit stores an uploaded file, checks it against the project's
// capacity budget, and enqueues processing. A denied admission is not
// an error: the returned Admission carries the reason and no document
// is created. On admission the returned document is in PENDING state
// with the pre-upload token estimate.
//
// documentType is the user-chosen semantic category for the file
// ("rfp", "proposal", anything else); empty defaults to "other".
func (p *Pipeline) Admit(ctx context.Context, projectID uuid.UUID, filename, documentType string, content io.Reader) (*core.Document, *capacity.Admission, error) {
	fileType, err := extract.TypeFromFilename(filename)
	if err != nil {
		return nil, nil, err
	}

	documentType = strings.ToLower(strings.TrimSpace(documentType))
	if documentType == "" {
		documentType = core.DocumentTypeOther
	}

	if _, err := p.store.GetProject(ctx, projectID); err != nil {
		return nil, nil, err
	}

	documentID := core.NewID()
	dir := p.documentDir(projectID, documentID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create document directory: %w", err)
	}

	path := filepath.Join(dir, filepath.Base(filename))
	size, err := writeFile(path, content)
	if err != nil {
		os.RemoveAll(dir)
		return nil, nil, err
	}

	// Advisory estimate only; the processing job overwrites it with
	// real per-chunk counts.
	estimate := p.splitter.EstimateFileTokens(p.extractor, path, fileType, size)

	admission, err := p.tracker.CanAddDocument(ctx, projectID, estimate)
	if err != nil {
		os.RemoveAll(dir)
		return nil, nil, err
	}
	if !admission.Allowed {
		os.RemoveAll(dir)
		p.logger.Info("document admission denied",
			"project_id", projectID, "filename", filename, "reason", admission.Reason)
		return nil, admission, nil
	}

	// The task handle goes into the initial row. Once the job is
	// enqueued it owns every write to this document, so nothing may be
	// patched onto the row afterwards.
	handle := taskqueue.NewHandle()
	document := &core.Document{
		ID:           documentID,
		ProjectID:    projectID,
		Filename:     filepath.Base(filename),
		FilePath:     path,
		FileType:     fileType,
		DocumentType: documentType,
		FileSize:     size,
		Status:       core.StatusPending,
		TokenCount:   estimate,
		TaskID:       string(handle),
	}
	if err := p.store.CreateDocument(ctx, document); err != nil {
		os.RemoveAll(dir)
		return nil, nil, err
	}

	if err := p.queue.EnqueueAs(ctx, handle, JobProcessDocument, taskqueue.Args{
		"document_id": documentID.String(),
	}); err != nil {
		p.store.DeleteDocument(ctx, documentID)
		os.RemoveAll(dir)
		return nil, nil, fmt.Errorf("failed to enqueue document processing: %w", err)
	}

	p.logger.Info("document admitted",
		"project_id", projectID,
		"document_id", documentID,
		"filename", document.Filename,
		"estimated_tokens", estimate)
	return document, admission, nil
}

// Retry resets a failed document to PENDING and enqueues a fresh
// processing job. Only failed documents whose source file still exists
// can be retried.
func (p *Pipeline) Retry(ctx context.Context, documentID uuid.UUID) (*core.Document, error) {
	document, err := p.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if document.Status != core.StatusFailed {
		return nil, fmt.Errorf("%w: status is %s", ErrNotRetryable, document.Status)
	}
	if _, err := os.Stat(document.FilePath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSourceFileMissing, document.FilePath)
	}

	// One reset write carrying the new task handle; after EnqueueAs the
	// job owns the row.
	handle := taskqueue.NewHandle()
	document.Status = core.StatusPending
	document.TokenCount = 0
	document.ChunkCount = 0
	document.ProcessedChunks = 0
	document.ErrorMessage = ""
	document.TaskID = string(handle)
	document.ProcessingStartedAt = nil
	document.ProcessingCompletedAt = nil
	if err := p.store.UpdateDocument(ctx, document); err != nil {
		return nil, err
	}

	if err := p.queue.EnqueueAs(ctx, handle, JobProcessDocument, taskqueue.Args{
		"document_id": documentID.String(),
	}); err != nil {
		return nil, fmt.Errorf("failed to enqueue document processing: %w", err)
	}

	p.logger.Info("document retry enqueued", "document_id", documentID)
	return document, nil
}

// Remove deletes a document's row and stored file immediately and
// enqueues vector cleanup. The vector index catches up eventually; the
// row is gone when Remove returns.
func (p *Pipeline) Remove(ctx context.Context, documentID uuid.UUID) error {
	document, err := p.store.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}

	if err := p.store.DeleteDocument(ctx, documentID); err != nil {
		return err
	}

	if err := os.RemoveAll(filepath.Dir(document.FilePath)); err != nil {
		p.logger.Warn("failed to remove document files",
			"document_id", documentID, "error", err)
	}

	if _, err := p.queue.Enqueue(ctx, JobDeleteDocumentVectors, taskqueue.Args{
		"document_id": documentID.String(),
	}); err != nil {
		p.logger.Error("failed to enqueue vector cleanup",
			"document_id", documentID, "error", err)
	}
	return nil
}

// RemoveProject deletes a project with all of its rows and files and
// enqueues cleanup of every vector the project ever indexed.
func (p *Pipeline) RemoveProject(ctx context.Context, projectID uuid.UUID) error {
	if err := p.store.DeleteProject(ctx, projectID); err != nil {
		return err
	}

	if err := os.RemoveAll(filepath.Join(p.rootDir, projectID.String())); err != nil {
		p.logger.Warn("failed to remove project files",
			"project_id", projectID, "error", err)
	}

	if _, err := p.queue.Enqueue(ctx, JobDeleteProjectVectors, taskqueue.Args{
		"project_id": projectID.String(),
	}); err != nil {
		p.logger.Error("failed to enqueue vector cleanup",
			"project_id", projectID, "error", err)
	}
	return nil
}

// Progress reports how far a document's processing has come.
func (p *Pipeline) Progress(ctx context.Context, documentID uuid.UUID) (*core.DocumentProgress, error) {
	document, err := p.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	percent := 0.0
	switch {
	case document.Status == core.StatusCompleted:
		percent = 100
	case document.ChunkCount > 0:
		percent = float64(document.ProcessedChunks) / float64(document.ChunkCount) * 100
	}

	return &core.DocumentProgress{
		DocumentID:      document.ID,
		Status:          document.Status,
		ChunkCount:      document.ChunkCount,
		ProcessedChunks: document.ProcessedChunks,
		Percent:         percent,
		ErrorMessage:    document.ErrorMessage,
	}, nil
}

func (p *Pipeline) documentDir(projectID, documentID uuid.UUID) string {
	return filepath.Join(p.rootDir, projectID.String(), documentID.String())
}

func writeFile(path string, content io.Reader) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to store document file: %w", err)
	}

	size, err := io.Copy(f, content)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return 0, fmt.Errorf("failed to store document file: %w", err)
	}
	return size, nil
}

package ingest

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/quorial/grounddesk/core"
	"github.com/quorial/grounddesk/taskqueue"
	"github.com/quorial/grounddesk/vectorstore"
)

// errorMessageLimit bounds the error text stored on a failed document.
const errorMessageLimit = 500

// ProcessDocument runs one document through extraction, chunking,
// embedding, and indexing. A completed document is left alone, so a
// redelivered job is a no-op. Any other starting state is processed
// from scratch.
//
// Per-chunk embedding or indexing failures are logged and skipped; the
// document still completes with partial vector coverage. Document-level
// failures (missing file, extraction error, no extractable text) mark
// the document FAILED and are returned so the queue's retry policy
// applies.
func (p *Pipeline) ProcessDocument(ctx context.Context, documentID uuid.UUID) error {
	document, err := p.store.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}

	if document.Status == core.StatusCompleted {
		p.logger.Debug("document already completed, skipping", "document_id", documentID)
		return nil
	}

	started := time.Now().UTC()
	document.Status = core.StatusProcessing
	document.ProcessedChunks = 0
	document.ErrorMessage = ""
	document.ProcessingStartedAt = &started
	document.ProcessingCompletedAt = nil
	if err := p.store.UpdateDocument(ctx, document); err != nil {
		return err
	}

	if _, err := os.Stat(document.FilePath); err != nil {
		return p.fail(ctx, document, fmt.Errorf("%w: %s", ErrSourceFileMissing, document.FilePath))
	}

	chunks, err := p.splitter.ProcessFile(p.extractor, document.FilePath, document.FileType)
	if err != nil {
		return p.fail(ctx, document, err)
	}
	if len(chunks) == 0 {
		return p.fail(ctx, document, ErrNoExtractableText)
	}

	document.ChunkCount = len(chunks)
	if err := p.store.UpdateDocument(ctx, document); err != nil {
		return err
	}

	// Tokens are re-counted from the chunks actually produced; the
	// total overwrites the pre-upload estimate on completion.
	countedTokens := 0
	for _, c := range chunks {
		vector, err := p.embedder.EmbedText(ctx, c.Content)
		if err != nil {
			p.logger.Warn("skipping chunk, embedding failed",
				"document_id", documentID, "chunk_index", c.Index, "error", err)
			continue
		}

		meta := vectorstore.Metadata{
			ProjectID:    document.ProjectID,
			DocumentID:   document.ID,
			ChunkIndex:   c.Index,
			DocumentType: document.DocumentType,
			Filename:     document.Filename,
			PageNumber:   c.PageNumber,
			PageTotal:    c.PageTotal,
		}
		if _, err := p.index.Upsert(ctx, c.Content, meta, vector); err != nil {
			p.logger.Warn("skipping chunk, index upsert failed",
				"document_id", documentID, "chunk_index", c.Index, "error", err)
			continue
		}

		countedTokens += c.TokenCount
		document.ProcessedChunks++
		if err := p.store.UpdateDocument(ctx, document); err != nil {
			return p.fail(ctx, document, err)
		}
	}

	completed := time.Now().UTC()
	document.TokenCount = countedTokens
	document.Status = core.StatusCompleted
	document.ProcessingCompletedAt = &completed
	if err := p.store.UpdateDocument(ctx, document); err != nil {
		return p.fail(ctx, document, err)
	}

	p.logger.Info("document processed",
		"document_id", documentID,
		"chunks", document.ChunkCount,
		"indexed", document.ProcessedChunks,
		"tokens", countedTokens)
	return nil
}

// fail marks the document FAILED with a bounded error message and
// returns the cause.
func (p *Pipeline) fail(ctx context.Context, document *core.Document, cause error) error {
	document.Status = core.StatusFailed
	document.ErrorMessage = truncateError(cause)
	if err := p.store.UpdateDocument(ctx, document); err != nil {
		p.logger.Error("failed to record document failure",
			"document_id", document.ID, "error", err)
	}

	p.logger.Error("document processing failed",
		"document_id", document.ID, "error", cause)
	return cause
}

// truncateError bounds the stored message by character count so a cut
// never lands inside a multibyte sequence.
func truncateError(err error) string {
	msg := []rune(err.Error())
	if len(msg) > errorMessageLimit {
		msg = msg[:errorMessageLimit]
	}
	return string(msg)
}

// ProcessJob adapts ProcessDocument to the task queue.
func (p *Pipeline) ProcessJob(ctx context.Context, args taskqueue.Args) error {
	documentID, err := argID(args, "document_id")
	if err != nil {
		return err
	}
	return p.ProcessDocument(ctx, documentID)
}

// DeleteDocumentVectorsJob removes every vector record belonging to a
// deleted document.
func (p *Pipeline) DeleteDocumentVectorsJob(ctx context.Context, args taskqueue.Args) error {
	documentID, err := argID(args, "document_id")
	if err != nil {
		return err
	}
	return p.index.DeleteByFilter(ctx, vectorstore.Filter{DocumentID: documentID})
}

// DeleteProjectVectorsJob removes every vector record belonging to a
// deleted project.
func (p *Pipeline) DeleteProjectVectorsJob(ctx context.Context, args taskqueue.Args) error {
	projectID, err := argID(args, "project_id")
	if err != nil {
		return err
	}
	return p.index.DeleteByFilter(ctx, vectorstore.Filter{ProjectID: projectID})
}

func argID(args taskqueue.Args, key string) (uuid.UUID, error) {
	raw, ok := args[key]
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: %s", ErrMissingJobArg, key)
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %w", key, err)
	}
	return id, nil
}

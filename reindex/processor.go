package reindex

import (
	"context"
	"fmt"
	"time"

	"github.com/quorial/grounddesk/ai"
	"github.com/quorial/grounddesk/core"
	"github.com/quorial/grounddesk/taskqueue"
	"github.com/quorial/grounddesk/vectorstore"
)

// ChunkProcessor embeds a document's chunks in one batch and writes
// them to the vector index.
type ChunkProcessor struct {
	embedder       ai.Embedder
	index          vectorstore.Index
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewChunkProcessor creates a processor.
// maxRetries: maximum attempts for the embedding API call
// retryBaseDelay: base delay for exponential backoff
func NewChunkProcessor(embedder ai.Embedder, index vectorstore.Index, maxRetries int, retryBaseDelay time.Duration) *ChunkProcessor {
	return &ChunkProcessor{
		embedder:       embedder,
		index:          index,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process embeds the chunks of one document and upserts them. Chunk
// keys are derived from document identity, so records from the
// previous model are overwritten in place. Returns the total token
// count of the indexed chunks.
func (p *ChunkProcessor) Process(ctx context.Context, document *core.Document, chunks []core.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	var embeddings [][]float32
	err := taskqueue.RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = p.embedder.EmbedTexts(ctx, texts)
		return err
	}, p.maxRetries, p.retryBaseDelay)
	if err != nil {
		return 0, fmt.Errorf("failed to generate embeddings after %d attempts: %w", p.maxRetries, err)
	}

	if len(embeddings) != len(chunks) {
		return 0, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(chunks), len(embeddings))
	}

	tokens := 0
	for i, c := range chunks {
		meta := vectorstore.Metadata{
			ProjectID:    document.ProjectID,
			DocumentID:   document.ID,
			ChunkIndex:   c.Index,
			DocumentType: document.DocumentType,
			Filename:     document.Filename,
			PageNumber:   c.PageNumber,
			PageTotal:    c.PageTotal,
		}
		if _, err := p.index.Upsert(ctx, c.Content, meta, NormalizeVector(embeddings[i])); err != nil {
			return 0, fmt.Errorf("failed to index chunk %d: %w", c.Index, err)
		}
		tokens += c.TokenCount
	}

	return tokens, nil
}

package reindex

import "errors"

var (
	// ErrStoreRequired is returned when no document store is provided.
	ErrStoreRequired = errors.New("document store required")

	// ErrEmbedderRequired is returned when no embedder is provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrIndexRequired is returned when no vector index is provided.
	ErrIndexRequired = errors.New("vector index required")

	// ErrSplitterRequired is returned when no splitter is provided.
	ErrSplitterRequired = errors.New("splitter required")
)

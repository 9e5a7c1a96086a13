package ingest

import "errors"

var (
	// ErrStoreRequired is returned when no repository is provided.
	ErrStoreRequired = errors.New("storage repository is required")

	// ErrTrackerRequired is returned when no capacity tracker is provided.
	ErrTrackerRequired = errors.New("capacity tracker is required")

	// ErrEmbedderRequired is returned when no embedder is provided.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrIndexRequired is returned when no vector index is provided.
	ErrIndexRequired = errors.New("vector index is required")

	// ErrQueueRequired is returned when no task queue is provided.
	ErrQueueRequired = errors.New("task queue is required")

	// ErrRootDirRequired is returned when no document root directory is
	// provided.
	ErrRootDirRequired = errors.New("document root directory is required")

	// ErrNotRetryable is returned when a manual retry is requested for a
	// document that is not in the failed state.
	ErrNotRetryable = errors.New("document is not in a retryable state")

	// ErrSourceFileMissing is returned when the stored file for a
	// document no longer exists on disk.
	ErrSourceFileMissing = errors.New("document source file is missing")

	// ErrNoExtractableText marks documents whose file yielded no chunks.
	ErrNoExtractableText = errors.New("no extractable text in document")

	// ErrMissingJobArg is returned when a background job is enqueued
	// without a required argument.
	ErrMissingJobArg = errors.New("missing job argument")
)

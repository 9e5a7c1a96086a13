package chat

import "errors"

var (
	// ErrStoreRequired is returned when no repository is provided.
	ErrStoreRequired = errors.New("storage repository is required")

	// ErrEmbedderRequired is returned when no embedder is provided.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrCompleterRequired is returned when no completer is provided.
	ErrCompleterRequired = errors.New("completer is required")

	// ErrIndexRequired is returned when no vector index is provided.
	ErrIndexRequired = errors.New("vector index is required")

	// ErrQueueRequired is returned when no task queue is provided.
	ErrQueueRequired = errors.New("task queue is required")

	// ErrEmptyMessage is returned when a message with no content is
	// submitted for processing.
	ErrEmptyMessage = errors.New("message content is empty")

	// ErrMissingJobArg is returned when a background job is enqueued
	// without a required argument.
	ErrMissingJobArg = errors.New("missing job argument")
)

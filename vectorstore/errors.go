package vectorstore

import "errors"

var (
	// ErrEmptyVector indicates an upsert or search with no embedding.
	ErrEmptyVector = errors.New("vector must not be empty")

	// ErrEmptyFilter indicates a delete with a filter that constrains
	// nothing.
	ErrEmptyFilter = errors.New("filter must constrain a project or document")
)

package reindex

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quorial/grounddesk/core"
	"github.com/quorial/grounddesk/storage"
	"github.com/quorial/grounddesk/storage/badger"
)

func seedDocuments(t *testing.T, completed, other int) (storage.Repository, uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	store, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	project := &core.Project{
		ID:               uuid.New(),
		Name:             "iteration",
		MaxContextTokens: 100000,
	}
	require.NoError(t, store.CreateProject(ctx, project))

	for i := 0; i < completed; i++ {
		require.NoError(t, store.CreateDocument(ctx, &core.Document{
			ID:           uuid.New(),
			ProjectID:    project.ID,
			Filename:     "done.txt",
			FileType:     "txt",
			DocumentType: core.DocumentTypeOther,
			Status:       core.StatusCompleted,
		}))
	}
	for i := 0; i < other; i++ {
		status := core.StatusPending
		if i%2 == 0 {
			status = core.StatusFailed
		}
		require.NoError(t, store.CreateDocument(ctx, &core.Document{
			ID:           uuid.New(),
			ProjectID:    project.ID,
			Filename:     "not-done.txt",
			FileType:     "txt",
			DocumentType: core.DocumentTypeOther,
			Status:       status,
		}))
	}

	return store, project.ID
}

func TestDocumentIteratorSkipsUnfinished(t *testing.T) {
	store, projectID := seedDocuments(t, 3, 4)
	it := NewDocumentIterator(store, 10)

	count, err := it.Count(context.Background(), projectID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	seen := 0
	err = it.ForEach(context.Background(), projectID, func(documents []*core.Document) error {
		for _, document := range documents {
			assert.Equal(t, core.StatusCompleted, document.Status)
		}
		seen += len(documents)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, seen)
}

func TestDocumentIteratorBatches(t *testing.T) {
	store, projectID := seedDocuments(t, 7, 0)
	it := NewDocumentIterator(store, 3)

	var sizes []int
	err := it.ForEach(context.Background(), projectID, func(documents []*core.Document) error {
		sizes = append(sizes, len(documents))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 3, 1}, sizes)
}

func TestDocumentIteratorStopsOnError(t *testing.T) {
	store, projectID := seedDocuments(t, 6, 0)
	it := NewDocumentIterator(store, 2)

	boom := errors.New("boom")
	calls := 0
	err := it.ForEach(context.Background(), projectID, func(documents []*core.Document) error {
		calls++
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestDocumentIteratorCancelledContext(t *testing.T) {
	store, projectID := seedDocuments(t, 2, 0)
	it := NewDocumentIterator(store, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := it.ForEach(ctx, projectID, func(documents []*core.Document) error {
		t.Fatal("should not be called")
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestDocumentIteratorEmptyProject(t *testing.T) {
	store, projectID := seedDocuments(t, 0, 0)
	it := NewDocumentIterator(store, 10)

	err := it.ForEach(context.Background(), projectID, func(documents []*core.Document) error {
		t.Fatal("should not be called")
		return nil
	})
	require.NoError(t, err)
}

func TestDocumentIteratorDefaultBatchSize(t *testing.T) {
	store, _ := seedDocuments(t, 0, 0)
	it := NewDocumentIterator(store, 0)
	assert.Equal(t, DefaultBatchSize, it.batchSize)
}

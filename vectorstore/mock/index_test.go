package mock

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quorial/grounddesk/vectorstore"
)

func TestUpsertOverwritesSameChunk(t *testing.T) {
	index := NewIndex()
	ctx := context.Background()
	meta := vectorstore.Metadata{
		ProjectID:  uuid.New(),
		DocumentID: uuid.New(),
		ChunkIndex: 3,
		Filename:   "a.pdf",
	}

	id1, err := index.Upsert(ctx, "first version", meta, []float32{1, 0})
	require.NoError(t, err)
	id2, err := index.Upsert(ctx, "second version", meta, []float32{0, 1})
	require.NoError(t, err)

	assert.Equal(t, id1, id2, "same chunk must map to the same record key")
	assert.Equal(t, 1, index.Len())

	results, err := index.Search(ctx, []float32{0, 1}, 10, vectorstore.Filter{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "second version", results[0].Content)
}

func TestSearchOrdersByDistance(t *testing.T) {
	index := NewIndex()
	ctx := context.Background()
	projectID := uuid.New()

	vectors := map[string][]float32{
		"exact":      {1, 0, 0},
		"close":      {0.9, 0.1, 0},
		"orthogonal": {0, 0, 1},
	}
	chunkIndex := 0
	for content, vec := range vectors {
		_, err := index.Upsert(ctx, content, vectorstore.Metadata{
			ProjectID:  projectID,
			DocumentID: uuid.New(),
			ChunkIndex: chunkIndex,
		}, vec)
		require.NoError(t, err)
		chunkIndex++
	}

	results, err := index.Search(ctx, []float32{1, 0, 0}, 10, vectorstore.Filter{ProjectID: projectID})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "exact", results[0].Content)
	assert.Equal(t, "close", results[1].Content)
	assert.Equal(t, "orthogonal", results[2].Content)
	assert.InDelta(t, 0, results[0].Distance, 1e-6)
	assert.InDelta(t, 1, results[2].Distance, 1e-6)
}

func TestSearchFiltersByProject(t *testing.T) {
	index := NewIndex()
	ctx := context.Background()
	wanted := uuid.New()
	other := uuid.New()

	for i, projectID := range []uuid.UUID{wanted, other} {
		_, err := index.Upsert(ctx, "chunk", vectorstore.Metadata{
			ProjectID:  projectID,
			DocumentID: uuid.New(),
			ChunkIndex: i,
		}, []float32{1, 0})
		require.NoError(t, err)
	}

	results, err := index.Search(ctx, []float32{1, 0}, 10, vectorstore.Filter{ProjectID: wanted})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, wanted, results[0].Metadata.ProjectID)
}

func TestDeleteByFilter(t *testing.T) {
	index := NewIndex()
	ctx := context.Background()
	projectID := uuid.New()
	docA := uuid.New()
	docB := uuid.New()

	for i, docID := range []uuid.UUID{docA, docA, docB} {
		_, err := index.Upsert(ctx, "chunk", vectorstore.Metadata{
			ProjectID:  projectID,
			DocumentID: docID,
			ChunkIndex: i,
		}, []float32{1})
		require.NoError(t, err)
	}
	require.Equal(t, 3, index.Len())

	require.NoError(t, index.DeleteByFilter(ctx, vectorstore.Filter{DocumentID: docA}))
	assert.Equal(t, 1, index.Len())

	require.NoError(t, index.DeleteByFilter(ctx, vectorstore.Filter{ProjectID: projectID}))
	assert.Equal(t, 0, index.Len())
}

func TestDeleteRequiresFilter(t *testing.T) {
	index := NewIndex()
	err := index.DeleteByFilter(context.Background(), vectorstore.Filter{})
	assert.ErrorIs(t, err, vectorstore.ErrEmptyFilter)
}

func TestEmptyVectorRejected(t *testing.T) {
	index := NewIndex()
	ctx := context.Background()

	_, err := index.Upsert(ctx, "c", vectorstore.Metadata{DocumentID: uuid.New()}, nil)
	assert.ErrorIs(t, err, vectorstore.ErrEmptyVector)

	_, err = index.Search(ctx, nil, 5, vectorstore.Filter{})
	assert.ErrorIs(t, err, vectorstore.ErrEmptyVector)
}

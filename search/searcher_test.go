package search

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aimock "github.com/quorial/grounddesk/ai/mock"
	"github.com/quorial/grounddesk/vectorstore"
	vsmock "github.com/quorial/grounddesk/vectorstore/mock"
)

type searchEnv struct {
	searcher  *Searcher
	embedder  *aimock.MockEmbedder
	index     *vsmock.Index
	projectID uuid.UUID
}

// newSearchEnv pins the query embedding so chunk relevance is fully
// controlled by the vectors seeded into the index.
func newSearchEnv(t *testing.T, opts ...Option) *searchEnv {
	t.Helper()

	embedder := aimock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	}
	index := vsmock.NewIndex()

	searcher, err := NewSearcher(embedder, index, opts...)
	require.NoError(t, err)

	return &searchEnv{
		searcher:  searcher,
		embedder:  embedder,
		index:     index,
		projectID: uuid.New(),
	}
}

func (e *searchEnv) seed(t *testing.T, content string, vector []float32) {
	t.Helper()
	_, err := e.index.Upsert(context.Background(), content, vectorstore.Metadata{
		ProjectID:  e.projectID,
		DocumentID: uuid.New(),
		Filename:   "seed.txt",
	}, vector)
	require.NoError(t, err)
}

func TestSearchRanksByDistance(t *testing.T) {
	env := newSearchEnv(t)
	env.seed(t, "closest chunk", []float32{1, 0, 0})
	env.seed(t, "nearby chunk", []float32{0.9, 0.43589, 0})

	matches, err := env.searcher.Search(context.Background(), env.projectID, "budget", 10)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, "closest chunk", matches[0].Result.Content)
	assert.Equal(t, "nearby chunk", matches[1].Result.Content)
	assert.Greater(t, matches[0].Score, matches[1].Score)
}

func TestSearchFiltersByThreshold(t *testing.T) {
	env := newSearchEnv(t)
	env.seed(t, "relevant chunk", []float32{1, 0, 0})
	env.seed(t, "orthogonal chunk", []float32{0, 1, 0})

	matches, err := env.searcher.Search(context.Background(), env.projectID, "budget", 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "relevant chunk", matches[0].Result.Content)
}

func TestSearchVerbatimBoost(t *testing.T) {
	env := newSearchEnv(t)

	// The verbatim hit is slightly farther away but contains the query
	// words, so the boost should rank it first.
	env.seed(t, "quarterly budget review findings", []float32{0.95, 0.31225, 0})
	env.seed(t, "unrelated text about staffing", []float32{1, 0, 0})

	matches, err := env.searcher.Search(context.Background(), env.projectID, "budget review", 10)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "quarterly budget review findings", matches[0].Result.Content)
}

func TestSearchScopedToProject(t *testing.T) {
	env := newSearchEnv(t)
	env.seed(t, "in project", []float32{1, 0, 0})

	_, err := env.index.Upsert(context.Background(), "other project", vectorstore.Metadata{
		ProjectID:  uuid.New(),
		DocumentID: uuid.New(),
		Filename:   "other.txt",
	}, []float32{1, 0, 0})
	require.NoError(t, err)

	matches, err := env.searcher.Search(context.Background(), env.projectID, "budget", 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "in project", matches[0].Result.Content)
}

func TestSearchMaxHits(t *testing.T) {
	env := newSearchEnv(t)
	for i := 0; i < 5; i++ {
		env.seed(t, "chunk "+strconv.Itoa(i), []float32{1, 0, 0})
	}

	matches, err := env.searcher.Search(context.Background(), env.projectID, "budget", 3)
	require.NoError(t, err)
	assert.Len(t, matches, 3)
}

func TestSearchDefaultMaxHits(t *testing.T) {
	env := newSearchEnv(t)
	for i := 0; i < DefaultMaxHits+5; i++ {
		env.seed(t, "chunk "+strconv.Itoa(i), []float32{1, 0, 0})
	}

	matches, err := env.searcher.Search(context.Background(), env.projectID, "budget", 0)
	require.NoError(t, err)
	assert.Len(t, matches, DefaultMaxHits)
}

func TestSearchEmptyIndex(t *testing.T) {
	env := newSearchEnv(t)

	matches, err := env.searcher.Search(context.Background(), env.projectID, "budget", 10)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSearchEmbeddingFailure(t *testing.T) {
	env := newSearchEnv(t)
	boom := errors.New("embedding down")
	env.embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, boom
	}

	_, err := env.searcher.Search(context.Background(), env.projectID, "budget", 10)
	require.ErrorIs(t, err, boom)
}

func TestSearchCustomThreshold(t *testing.T) {
	env := newSearchEnv(t, WithDistanceThreshold(1.5))
	env.seed(t, "orthogonal chunk", []float32{0, 1, 0})

	matches, err := env.searcher.Search(context.Background(), env.projectID, "budget", 10)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

type recordingMonitor struct {
	started       string
	semanticCount int
	verbatimCount int
	finished      int
}

func (m *recordingMonitor) Start(query string)                              { m.started = query }
func (m *recordingMonitor) AfterSemanticSearch(results []vectorstore.Result) { m.semanticCount = len(results) }
func (m *recordingMonitor) VerbatimHit(_ *Match)                            { m.verbatimCount++ }
func (m *recordingMonitor) Finish(matches []*Match)                         { m.finished = len(matches) }

func TestSearchWithMonitor(t *testing.T) {
	env := newSearchEnv(t)
	env.seed(t, "budget review notes", []float32{1, 0, 0})
	env.seed(t, "staffing plan", []float32{0.9, 0.43589, 0})

	monitor := &recordingMonitor{}
	matches, err := env.searcher.SearchWithMonitor(context.Background(), env.projectID, "budget review", 10, monitor)
	require.NoError(t, err)

	assert.Equal(t, "budget review", monitor.started)
	assert.Equal(t, 2, monitor.semanticCount)
	assert.Equal(t, 1, monitor.verbatimCount)
	assert.Equal(t, len(matches), monitor.finished)
}

func TestNewSearcherValidation(t *testing.T) {
	embedder := aimock.NewMockEmbedder()
	index := vsmock.NewIndex()

	_, err := NewSearcher(nil, index)
	require.ErrorIs(t, err, ErrEmbedderRequired)

	_, err = NewSearcher(embedder, nil)
	require.ErrorIs(t, err, ErrIndexRequired)
}

func TestTokenizeAndFilter(t *testing.T) {
	words := tokenizeAndFilter("The Budget, for (Review)!")
	assert.Equal(t, []string{"budget", "review"}, words)
}

func TestContainsAllQueryWords(t *testing.T) {
	assert.True(t, containsAllQueryWords("quarterly budget review findings", "budget review"))
	assert.False(t, containsAllQueryWords("quarterly budget findings", "budget review"))
	assert.False(t, containsAllQueryWords("some text", "the a of"))
}

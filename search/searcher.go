package search

import (
	"context"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/quorial/grounddesk/ai"
	"github.com/quorial/grounddesk/vectorstore"
)

const (
	// DefaultMaxHits bounds the result count when the caller passes
	// zero or a negative limit.
	DefaultMaxHits = 10

	// DefaultDistanceThreshold drops matches whose vector distance is
	// at or above this value before scoring.
	DefaultDistanceThreshold = 0.7

	// verbatimBoost is added to the score of chunks containing every
	// meaningful query word.
	verbatimBoost = 0.3
)

// Match is one scored search hit.
type Match struct {
	Result vectorstore.Result
	Score  float64
}

// Searcher provides semantic search with verbatim boosting over a
// project's indexed document chunks.
type Searcher struct {
	embedder  ai.Embedder
	index     vectorstore.Index
	threshold float64
	logger    *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithDistanceThreshold sets the maximum vector distance a match may
// have. Default is DefaultDistanceThreshold.
func WithDistanceThreshold(threshold float64) Option {
	return func(s *Searcher) error {
		s.threshold = threshold
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(embedder ai.Embedder, index vectorstore.Index, opts ...Option) (*Searcher, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if index == nil {
		return nil, ErrIndexRequired
	}

	s := &Searcher{
		embedder:  embedder,
		index:     index,
		threshold: DefaultDistanceThreshold,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search finds document chunks in the project relevant to the query.
// Returns up to maxHits results, ranked by score.
func (s *Searcher) Search(ctx context.Context, projectID uuid.UUID, query string, maxHits int) ([]*Match, error) {
	return s.SearchWithMonitor(ctx, projectID, query, maxHits, nil)
}

// SearchWithMonitor searches with monitoring. The monitor receives
// callbacks at each stage of the search process. Returns up to maxHits
// results, ranked by score.
func (s *Searcher) SearchWithMonitor(ctx context.Context, projectID uuid.UUID, query string, maxHits int, monitor Monitor) ([]*Match, error) {
	if maxHits <= 0 {
		maxHits = DefaultMaxHits
	}
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(query)

	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}

	// Fetch extra candidates so the verbatim boost can promote hits
	// that plain vector distance would have cut off.
	results, err := s.index.Search(ctx, embedding, maxHits*2, vectorstore.Filter{ProjectID: projectID})
	if err != nil {
		s.logger.Error("error querying vector index", "err", err)
		return nil, err
	}
	monitor.AfterSemanticSearch(results)

	matches := make([]*Match, 0, len(results))
	for _, result := range results {
		if result.Distance >= s.threshold {
			continue
		}

		match := &Match{
			Result: result,
			Score:  1.0 - result.Distance,
		}
		if containsAllQueryWords(result.Content, query) {
			match.Score += verbatimBoost
			monitor.VerbatimHit(match)
		}
		matches = append(matches, match)
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > maxHits {
		matches = matches[:maxHits]
	}
	monitor.Finish(matches)

	return matches, nil
}

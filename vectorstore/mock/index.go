// Package mock provides an in-memory vectorstore.Index for tests. It
// keeps real records and computes real cosine distances, so retrieval
// behavior can be exercised without PostgreSQL.
package mock

import (
	"context"
	"math"
	"slices"
	"strconv"
	"sync"

	"github.com/quorial/grounddesk/core"
	"github.com/quorial/grounddesk/vectorstore"
)

type record struct {
	content string
	meta    vectorstore.Metadata
	vector  []float32
}

// Index is an in-memory vector index. Safe for concurrent use.
type Index struct {
	mu      sync.Mutex
	records map[string]record

	upsertCalls int
	searchCalls int
}

var _ vectorstore.Index = (*Index)(nil)

// NewIndex creates an empty in-memory index.
func NewIndex() *Index {
	return &Index{records: make(map[string]record)}
}

// Upsert stores a record under the same derived key scheme the
// production index uses.
func (i *Index) Upsert(ctx context.Context, content string, meta vectorstore.Metadata, vector []float32) (string, error) {
	if len(vector) == 0 {
		return "", vectorstore.ErrEmptyVector
	}

	id := core.DerivedID(meta.DocumentID.String(), strconv.Itoa(meta.ChunkIndex)).String()

	i.mu.Lock()
	defer i.mu.Unlock()
	i.upsertCalls++
	i.records[id] = record{content: content, meta: meta, vector: slices.Clone(vector)}
	return id, nil
}

// Search returns matching records ordered by cosine distance.
func (i *Index) Search(ctx context.Context, vector []float32, limit int, filter vectorstore.Filter) ([]vectorstore.Result, error) {
	if len(vector) == 0 {
		return nil, vectorstore.ErrEmptyVector
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	i.searchCalls++

	var results []vectorstore.Result
	for id, rec := range i.records {
		if !filter.Matches(rec.meta) {
			continue
		}
		results = append(results, vectorstore.Result{
			ID:       id,
			Content:  rec.content,
			Metadata: rec.meta,
			Distance: cosineDistance(vector, rec.vector),
		})
	}

	slices.SortFunc(results, func(a, b vectorstore.Result) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		default:
			return 0
		}
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// DeleteByFilter removes every record matching a non-zero filter.
func (i *Index) DeleteByFilter(ctx context.Context, filter vectorstore.Filter) error {
	if filter.IsZero() {
		return vectorstore.ErrEmptyFilter
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	for id, rec := range i.records {
		if filter.Matches(rec.meta) {
			delete(i.records, id)
		}
	}
	return nil
}

// DeleteByIDs removes the records with the given keys.
func (i *Index) DeleteByIDs(ctx context.Context, ids []string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, id := range ids {
		delete(i.records, id)
	}
	return nil
}

// DeleteAll wipes the index.
func (i *Index) DeleteAll(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	clear(i.records)
	return nil
}

// Close is a no-op.
func (i *Index) Close() error {
	return nil
}

// Len returns the number of stored records.
func (i *Index) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.records)
}

// UpsertCalls returns how many times Upsert was invoked.
func (i *Index) UpsertCalls() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.upsertCalls
}

// SearchCalls returns how many times Search was invoked.
func (i *Index) SearchCalls() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.searchCalls
}

// cosineDistance returns 1 - cosine similarity. Mismatched or zero
// vectors get the maximum distance instead of an error, mirroring how
// a real index would simply rank them last.
func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 2
	}

	var dot, normA, normB float64
	for idx := range a {
		dot += float64(a[idx]) * float64(b[idx])
		normA += float64(a[idx]) * float64(a[idx])
		normB += float64(b[idx]) * float64(b[idx])
	}
	if normA == 0 || normB == 0 {
		return 2
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}

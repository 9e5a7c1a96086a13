// Copyright 2025 Quorial Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package chunk splits extracted document text into token-bounded
// chunks suitable for embedding.
package chunk

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/quorial/grounddesk/core"
	"github.com/quorial/grounddesk/extract"
	"github.com/quorial/grounddesk/token"
)

const (
	// DefaultMaxTokens bounds the token count of a single chunk.
	DefaultMaxTokens = 500
	// DefaultOverlapTokens is how many tokens consecutive chunks share.
	DefaultOverlapTokens = 50
)

// Separators tried in order when looking for a split point: paragraph
// break, line break, sentence end, word boundary, and finally a hard
// character split.
var separators = []string{"\n\n", "\n", ". ", " ", ""}

// Splitter produces token-bounded chunks from page text. Chunk
// boundaries prefer paragraph and sentence breaks; only text that has
// no such break inside the budget is split mid-word.
type Splitter struct {
	counter       *token.Counter
	maxTokens     int
	overlapTokens int
}

// Option configures a Splitter.
type Option func(*Splitter)

// WithMaxTokens overrides the per-chunk token bound.
func WithMaxTokens(maxTokens int) Option {
	return func(s *Splitter) {
		s.maxTokens = maxTokens
	}
}

// WithOverlapTokens overrides the overlap between consecutive chunks.
func WithOverlapTokens(overlapTokens int) Option {
	return func(s *Splitter) {
		s.overlapTokens = overlapTokens
	}
}

// NewSplitter creates a Splitter counting tokens with counter.
func NewSplitter(counter *token.Counter, opts ...Option) *Splitter {
	s := &Splitter{
		counter:       counter,
		maxTokens:     DefaultMaxTokens,
		overlapTokens: DefaultOverlapTokens,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxTokens returns the per-chunk token bound.
func (s *Splitter) MaxTokens() int {
	return s.maxTokens
}

// Split chunks a single block of text. The returned chunks carry no
// page attribution; use SplitPages for paged input. Empty or
// whitespace-only text yields no chunks and no error.
func (s *Splitter) Split(text string) ([]core.Chunk, error) {
	return s.splitInto(nil, text, 0, 0)
}

// SplitPages chunks each page of a document, numbering chunks
// continuously across pages and stamping each chunk with the page it
// came from.
func (s *Splitter) SplitPages(pages []extract.Page) ([]core.Chunk, error) {
	var chunks []core.Chunk
	for _, page := range pages {
		var err error
		chunks, err = s.splitInto(chunks, page.Text, page.Number, page.Total)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page.Number, err)
		}
	}
	return chunks, nil
}

// ProcessFile extracts a file and chunks every page in page order.
func (s *Splitter) ProcessFile(extractor *extract.Extractor, path, fileType string) ([]core.Chunk, error) {
	pages, err := extractor.Extract(path, fileType)
	if err != nil {
		return nil, err
	}
	return s.SplitPages(pages)
}

// EstimateFileTokens returns a cheap whole-file token count for
// pre-upload capacity checks: extract and count, no chunking. Any
// extraction failure falls back to fileSize / 4 so admission never
// blocks on a broken parser.
func (s *Splitter) EstimateFileTokens(extractor *extract.Extractor, path, fileType string, fileSize int64) int {
	pages, err := extractor.Extract(path, fileType)
	if err != nil {
		return int(fileSize / 4)
	}

	total := 0
	for _, page := range pages {
		total += s.counter.Count(page.Text)
	}
	return total
}

func (s *Splitter) splitInto(chunks []core.Chunk, text string, pageNumber, pageTotal int) ([]core.Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return chunks, nil
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(s.maxTokens),
		textsplitter.WithChunkOverlap(s.overlapTokens),
		textsplitter.WithSeparators(separators),
		textsplitter.WithLenFunc(s.counter.Count),
	)

	pieces, err := splitter.SplitText(text)
	if err != nil {
		return nil, err
	}

	for _, piece := range pieces {
		if strings.TrimSpace(piece) == "" {
			continue
		}
		chunks = append(chunks, core.Chunk{
			Content:    piece,
			Index:      len(chunks),
			TokenCount: s.counter.Count(piece),
			PageNumber: pageNumber,
			PageTotal:  pageTotal,
		})
	}
	return chunks, nil
}

package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quorial/grounddesk/extract"
	"github.com/quorial/grounddesk/token"
)

func newTestSplitter(t *testing.T, opts ...Option) *Splitter {
	t.Helper()
	// An unknown model forces a deterministic fallback tier so tests do
	// not depend on a downloaded tokenizer.
	counter := token.NewCounter(token.WithModel("no-such-model-xyz"))
	return NewSplitter(counter, opts...)
}

func TestSplitEmpty(t *testing.T) {
	splitter := newTestSplitter(t)

	for _, text := range []string{"", "   ", "\n\n\t"} {
		chunks, err := splitter.Split(text)
		require.NoError(t, err)
		assert.Empty(t, chunks, "Split(%q)", text)
	}
}

func TestSplitShortText(t *testing.T) {
	splitter := newTestSplitter(t)

	chunks, err := splitter.Split("A short paragraph that fits in one chunk.")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Greater(t, chunks[0].TokenCount, 0)
}

func TestSplitRespectsTokenBound(t *testing.T) {
	splitter := newTestSplitter(t, WithMaxTokens(40), WithOverlapTokens(5))

	paragraphs := make([]string, 30)
	for i := range paragraphs {
		paragraphs[i] = "This is a sentence inside a longer paragraph of filler text used to force splitting."
	}
	text := strings.Join(paragraphs, "\n\n")

	chunks, err := splitter.Split(text)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i, chunk := range chunks {
		assert.LessOrEqual(t, chunk.TokenCount, 40, "chunk %d over budget", i)
		assert.Equal(t, i, chunk.Index, "chunk indexes must be contiguous")
		assert.NotEmpty(t, strings.TrimSpace(chunk.Content))
	}
}

func TestSplitPagesNumbersAcrossPages(t *testing.T) {
	splitter := newTestSplitter(t, WithMaxTokens(30), WithOverlapTokens(0))

	long := strings.Repeat("Filler sentence for the page body. ", 40)
	pages := []extract.Page{
		{Number: 1, Total: 3, Text: long},
		{Number: 2, Total: 3, Text: ""},
		{Number: 3, Total: 3, Text: long},
	}

	chunks, err := splitter.SplitPages(pages)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 2)

	seenPages := map[int]bool{}
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Index)
		assert.Equal(t, 3, chunk.PageTotal)
		seenPages[chunk.PageNumber] = true
	}
	assert.True(t, seenPages[1])
	assert.False(t, seenPages[2], "empty page must produce no chunks")
	assert.True(t, seenPages[3])
}

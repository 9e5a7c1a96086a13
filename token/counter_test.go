package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCounterFallsBackForUnknownModel(t *testing.T) {
	counter := NewCounter(WithModel("no-such-model-xyz"))

	tier := counter.Tier()
	assert.NotEqual(t, TierModel, tier, "unknown model must not resolve a model tokenizer")

	// Whatever tier resolved, counting must still work.
	count := counter.Count("some text that is long enough to count")
	assert.Greater(t, count, 0)
	assert.Equal(t, 0, counter.Count(""))
}

func TestCounterTierStable(t *testing.T) {
	counter := NewCounter(WithModel("no-such-model-xyz"))

	first := counter.Tier()
	counter.Count("hello")
	assert.Equal(t, first, counter.Tier(), "tier must not change after resolution")
}

func TestHeuristicCount(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"abc", 0},
		{"abcd", 1},
		{"abcdefgh", 2},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, heuristicCount(tt.text), "heuristicCount(%q)", tt.text)
	}
}

func TestTierString(t *testing.T) {
	assert.Equal(t, "model", TierModel.String())
	assert.Equal(t, "base", TierBase.String())
	assert.Equal(t, "heuristic", TierHeuristic.String())
	assert.Equal(t, "unknown", Tier(0).String())
}

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


// Package token counts tokens the way the target model would, with a
// graceful degradation chain when the model's tokenizer is unavailable.
package token

import (
	"log/slog"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const (
	// DefaultModel is the model whose tokenizer is tried first.
	DefaultModel = "gpt-4o"

	// baseEncoding is the fallback encoding when the model is unknown.
	baseEncoding = "cl100k_base"

	// heuristicBytesPerToken is the estimate used when no tokenizer is
	// available at all.
	heuristicBytesPerToken = 4
)

// Tier reports which counting strategy a Counter ended up with. The
// tier is observable so operators can tell estimated counts from real
// ones.
type Tier int

const (
	// TierModel means the tokenizer was resolved from the model name.
	TierModel Tier = iota + 1
	// TierBase means the model was unknown and the base encoding is used.
	TierBase
	// TierHeuristic means no tokenizer could be loaded; counts are
	// byte-length estimates.
	TierHeuristic
)

// String returns the tier's wire name.
func (t Tier) String() string {
	switch t {
	case TierModel:
		return "model"
	case TierBase:
		return "base"
	case TierHeuristic:
		return "heuristic"
	default:
		return "unknown"
	}
}

// Counter counts tokens for a fixed model. The tokenizer is resolved
// lazily on first use and the result is cached for the lifetime of the
// Counter. Counter is safe for concurrent use.
type Counter struct {
	model  string
	logger *slog.Logger

	once sync.Once
	enc  *tiktoken.Tiktoken
	tier Tier
}

// Option configures a Counter.
type Option func(*Counter)

// WithModel sets the model whose tokenizer is used.
func WithModel(model string) Option {
	return func(c *Counter) {
		c.model = model
	}
}

// WithLogger sets the logger used to report tokenizer fallback.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Counter) {
		c.logger = logger
	}
}

// NewCounter creates a Counter for DefaultModel unless overridden.
func NewCounter(opts ...Option) *Counter {
	c := &Counter{
		model:  DefaultModel,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Counter) resolve() {
	c.once.Do(func() {
		enc, err := tiktoken.EncodingForModel(c.model)
		if err == nil {
			c.enc = enc
			c.tier = TierModel
			return
		}
		c.logger.Warn("model tokenizer unavailable, falling back to base encoding",
			"model", c.model, "error", err)

		enc, err = tiktoken.GetEncoding(baseEncoding)
		if err == nil {
			c.enc = enc
			c.tier = TierBase
			return
		}
		c.logger.Warn("base encoding unavailable, falling back to byte heuristic",
			"encoding", baseEncoding, "error", err)
		c.tier = TierHeuristic
	})
}

// Count returns the token count of text under the resolved tier.
func (c *Counter) Count(text string) int {
	c.resolve()
	if c.enc == nil {
		return heuristicCount(text)
	}
	return len(c.enc.Encode(text, nil, nil))
}

// Tier returns the counting strategy in effect, resolving the
// tokenizer if it has not been needed yet.
func (c *Counter) Tier() Tier {
	c.resolve()
	return c.tier
}

// Model returns the model the counter was configured for.
func (c *Counter) Model() string {
	return c.model
}

func heuristicCount(text string) int {
	return len(text) / heuristicBytesPerToken
}

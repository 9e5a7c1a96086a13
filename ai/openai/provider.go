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


// Package openai implements the ai interfaces against OpenAI-compatible
// HTTP APIs (OpenAI itself, Ollama, vLLM, LocalAI).
package openai

import (
	"github.com/quorial/grounddesk/ai"
)

// Provider aggregates the OpenAI-backed embedder and completer.
type Provider struct {
	embedder  *Embedder
	completer *Completer
}

var _ ai.Provider = (*Provider)(nil)

// NewProvider creates a provider with both services configured from
// the same config.
//
// Returns ai.Provider interface to enforce abstraction.
func NewProvider(config *ai.Config) (ai.Provider, error) {
	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}
	completer, err := newCompleter(config)
	if err != nil {
		return nil, err
	}
	return &Provider{embedder: embedder, completer: completer}, nil
}

// Embedder returns the embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Completer returns the chat completion service.
func (p *Provider) Completer() ai.Completer {
	return p.completer
}

// Close releases provider resources. The underlying HTTP clients hold
// none, so this is a no-op kept for interface symmetry.
func (p *Provider) Close() error {
	return nil
}

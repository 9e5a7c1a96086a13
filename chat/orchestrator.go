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


// Package chat turns user messages into grounded assistant replies. The
// orchestrator persists the user message, retrieves relevant document
// chunks from the vector index, assembles a prompt, calls the
// completion provider, and persists the reply with the same document
// references attached to both sides of the exchange.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quorial/grounddesk/ai"
	"github.com/quorial/grounddesk/core"
	"github.com/quorial/grounddesk/storage"
	"github.com/quorial/grounddesk/taskqueue"
	"github.com/quorial/grounddesk/vectorstore"
)

// JobGenerateTitle asks the completion provider for a short
// conversation title. Args: conversation_id.
const JobGenerateTitle = "conversation.title"

const (
	// DefaultSearchLimit caps how many chunks one query retrieves.
	DefaultSearchLimit = 5

	// DefaultRelevanceThreshold is the maximum vector distance at which
	// a retrieved chunk still counts as usable context.
	DefaultRelevanceThreshold = 0.7

	// DefaultMaxResponseTokens bounds the length of generated replies.
	DefaultMaxResponseTokens = 2000

	defaultTemperature = 0.2
	snippetLimit       = 500

	titleAttempts        = 2
	titleBaseDelay       = time.Minute
	titleLimit           = 50
	titleContextMessages = 3
	titleContextChars    = 200
	titleMaxTokens       = 20
	titleTemperature     = 0.7
)

// Orchestrator runs retrieval-augmented chat over a project's indexed
// documents.
type Orchestrator struct {
	store     storage.Repository
	embedder  ai.Embedder
	completer ai.Completer
	index     vectorstore.Index
	queue     taskqueue.Queue

	model       string
	temperature float64
	maxTokens   int
	searchLimit int
	threshold   float64
	logger      *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithModel overrides the completion model for chat replies.
func WithModel(model string) Option {
	return func(o *Orchestrator) {
		o.model = model
	}
}

// WithTemperature overrides the sampling temperature for chat replies.
func WithTemperature(temperature float64) Option {
	return func(o *Orchestrator) {
		o.temperature = temperature
	}
}

// WithMaxResponseTokens bounds the length of generated replies.
func WithMaxResponseTokens(maxTokens int) Option {
	return func(o *Orchestrator) {
		o.maxTokens = maxTokens
	}
}

// WithSearchLimit caps how many chunks one retrieval query returns.
func WithSearchLimit(limit int) Option {
	return func(o *Orchestrator) {
		if limit > 0 {
			o.searchLimit = limit
		}
	}
}

// WithRelevanceThreshold overrides the maximum usable vector distance.
func WithRelevanceThreshold(threshold float64) Option {
	return func(o *Orchestrator) {
		o.threshold = threshold
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewOrchestrator creates a chat orchestrator.
func NewOrchestrator(
	store storage.Repository,
	embedder ai.Embedder,
	completer ai.Completer,
	index vectorstore.Index,
	queue taskqueue.Queue,
	opts ...Option,
) (*Orchestrator, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if completer == nil {
		return nil, ErrCompleterRequired
	}
	if index == nil {
		return nil, ErrIndexRequired
	}
	if queue == nil {
		return nil, ErrQueueRequired
	}

	o := &Orchestrator{
		store:       store,
		embedder:    embedder,
		completer:   completer,
		index:       index,
		queue:       queue,
		temperature: defaultTemperature,
		maxTokens:   DefaultMaxResponseTokens,
		searchLimit: DefaultSearchLimit,
		threshold:   DefaultRelevanceThreshold,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// RegisterJobs binds this orchestrator's background jobs to a worker
// pool.
func (o *Orchestrator) RegisterJobs(pool *taskqueue.WorkerPool) {
	pool.Register(JobGenerateTitle, taskqueue.Job{
		Run:         o.TitleJob,
		MaxAttempts: titleAttempts,
		BaseDelay:   titleBaseDelay,
	})
}

// ProcessMessage persists a user message, retrieves document context
// when both the conversation and the message opt in, and returns the
// persisted assistant reply. The completion call is the single
// suspension point; its failure propagates after the user message has
// already been stored.
func (o *Orchestrator) ProcessMessage(ctx context.Context, conversationID uuid.UUID, content string, useDocuments bool) (*core.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyMessage
	}

	conversation, err := o.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	// Project-less conversations chat without document grounding.
	var project *core.Project
	if conversation.ProjectID != uuid.Nil {
		project, err = o.store.GetProject(ctx, conversation.ProjectID)
		if err != nil {
			return nil, err
		}
	}

	userMessage := &core.Message{
		ConversationID: conversationID,
		Role:           core.RoleUser,
		Content:        content,
		UseDocuments:   useDocuments,
	}
	if err := o.store.CreateMessage(ctx, userMessage); err != nil {
		return nil, err
	}

	var references []*core.DocumentReference
	if project != nil && conversation.UseDocuments && useDocuments {
		references, err = o.retrieve(ctx, conversation.ProjectID, content)
		if err != nil {
			return nil, err
		}
		if len(references) > 0 {
			if err := o.store.CreateMessageReferences(ctx, userMessage.ID, references); err != nil {
				return nil, fmt.Errorf("failed to store document references: %w", err)
			}
			userMessage.References = references
		}
	}

	history, err := o.store.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	systemPrompt := DefaultSystemPrompt
	if project != nil && project.SystemPrompt != "" {
		systemPrompt = project.SystemPrompt
	}

	reply, err := o.completer.Complete(ctx, ai.CompletionRequest{
		Messages:    BuildPrompt(systemPrompt, references, history),
		Model:       o.model,
		Temperature: o.temperature,
		MaxTokens:   o.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("completion failed: %w", err)
	}

	// Both sides of the exchange carry the same grounding.
	assistantMessage := &core.Message{
		ConversationID: conversationID,
		Role:           core.RoleAssistant,
		Content:        reply,
		UseDocuments:   useDocuments,
		References:     copyReferences(references),
	}
	if err := o.store.CreateMessage(ctx, assistantMessage); err != nil {
		return nil, err
	}

	o.logger.Info("chat message processed",
		"conversation_id", conversationID,
		"references", len(references))
	return assistantMessage, nil
}

// retrieve embeds the query, searches the project's chunks, and keeps
// only results under the relevance threshold.
func (o *Orchestrator) retrieve(ctx context.Context, projectID uuid.UUID, query string) ([]*core.DocumentReference, error) {
	vector, err := o.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := o.index.Search(ctx, vector, o.searchLimit, vectorstore.Filter{ProjectID: projectID})
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	var references []*core.DocumentReference
	for _, result := range results {
		if result.Distance >= o.threshold {
			continue
		}
		references = append(references, &core.DocumentReference{
			DocumentID:   result.Metadata.DocumentID,
			DocumentType: result.Metadata.DocumentType,
			Filename:     result.Metadata.Filename,
			PageNumber:   result.Metadata.PageNumber,
			PageTotal:    result.Metadata.PageTotal,
			Snippet:      snippet(result.Content, snippetLimit),
			Distance:     result.Distance,
		})
	}

	o.logger.Debug("retrieval finished",
		"project_id", projectID,
		"results", len(results),
		"kept", len(references))
	return references, nil
}

func copyReferences(references []*core.DocumentReference) []*core.DocumentReference {
	if len(references) == 0 {
		return nil
	}

	copies := make([]*core.DocumentReference, len(references))
	for i, reference := range references {
		copies[i] = &core.DocumentReference{
			DocumentID:   reference.DocumentID,
			DocumentType: reference.DocumentType,
			Filename:     reference.Filename,
			PageNumber:   reference.PageNumber,
			PageTotal:    reference.PageTotal,
			Snippet:      reference.Snippet,
			Distance:     reference.Distance,
		}
	}
	return copies
}

// Package capacity computes a project's token footprint against its
// context window and gates new uploads on the projected total.
package capacity

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/quorial/grounddesk/core"
	"github.com/quorial/grounddesk/storage"
	"github.com/quorial/grounddesk/token"
)

const (
	// DefaultNearLimitPercent is the usage percentage at which a
	// project is flagged as near its limit.
	DefaultNearLimitPercent = 80.0
	// DefaultOverLimitPercent is the usage percentage at which a
	// project is flagged as over its limit.
	DefaultOverLimitPercent = 100.0
)

// Tracker computes capacity reports and admission decisions. Usage is
// derived on demand from stored documents and conversations; nothing
// is cached, so a report is always consistent with the row store.
type Tracker struct {
	projects      storage.ProjectRepository
	documents     storage.DocumentRepository
	conversations storage.ConversationRepository
	counter       *token.Counter

	nearLimitPercent float64
	overLimitPercent float64
	logger           *slog.Logger
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithNearLimitPercent overrides the near-limit threshold.
func WithNearLimitPercent(percent float64) Option {
	return func(t *Tracker) {
		t.nearLimitPercent = percent
	}
}

// WithOverLimitPercent overrides the over-limit threshold.
func WithOverLimitPercent(percent float64) Option {
	return func(t *Tracker) {
		t.overLimitPercent = percent
	}
}

// WithLogger sets the tracker's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		t.logger = logger
	}
}

// NewTracker creates a Tracker reading through the given repositories.
func NewTracker(
	projects storage.ProjectRepository,
	documents storage.DocumentRepository,
	conversations storage.ConversationRepository,
	counter *token.Counter,
	opts ...Option,
) *Tracker {
	t := &Tracker{
		projects:         projects,
		documents:        documents,
		conversations:    conversations,
		counter:          counter,
		nearLimitPercent: DefaultNearLimitPercent,
		overLimitPercent: DefaultOverLimitPercent,
		logger:           slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Report computes the current capacity report for a project.
func (t *Tracker) Report(ctx context.Context, projectID uuid.UUID) (*core.CapacityReport, error) {
	project, err := t.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	documents, err := t.documents.ListDocumentsByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	// Only completed documents count: pending, processing, and failed
	// documents have no committed tokens yet.
	documentTokens := 0
	for _, document := range documents {
		if document.Status == core.StatusCompleted {
			documentTokens += document.TokenCount
		}
	}

	conversationTokens, err := t.conversationTokens(ctx, projectID)
	if err != nil {
		return nil, err
	}

	used := documentTokens + conversationTokens
	remaining := project.MaxContextTokens - used
	if remaining < 0 {
		remaining = 0
	}
	usedPercent := 0.0
	if project.MaxContextTokens > 0 {
		usedPercent = float64(used) / float64(project.MaxContextTokens) * 100
	}

	return &core.CapacityReport{
		ProjectID:          projectID,
		MaxTokens:          project.MaxContextTokens,
		DocumentTokens:     documentTokens,
		ConversationTokens: conversationTokens,
		UsedTokens:         used,
		RemainingTokens:    remaining,
		UsedPercent:        usedPercent,
		NearLimit:          usedPercent >= t.nearLimitPercent,
		OverLimit:          usedPercent >= t.overLimitPercent,
	}, nil
}

// Admission is the outcome of a capacity check. A denied admission is
// not an error: the project and its usage were read successfully, the
// content just does not fit.
type Admission struct {
	Allowed bool
	Reason  string
	Report  *core.CapacityReport
}

// CanAddDocument decides whether a document with the estimated token
// count fits into the project's window. A project already at or past
// its limit rejects everything regardless of the estimate; below the
// limit the estimate must fit into the remaining space.
func (t *Tracker) CanAddDocument(ctx context.Context, projectID uuid.UUID, estimatedTokens int) (*Admission, error) {
	report, err := t.Report(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if report.OverLimit {
		t.logger.Info("document rejected, project over its token limit",
			"project_id", projectID,
			"used_tokens", report.UsedTokens,
			"max_tokens", report.MaxTokens)
		return &Admission{
			Allowed: false,
			Reason: fmt.Sprintf(
				"project is already over the token limit (%d/%d)",
				report.UsedTokens, report.MaxTokens),
			Report: report,
		}, nil
	}

	if estimatedTokens > report.RemainingTokens {
		t.logger.Info("document rejected, not enough space",
			"project_id", projectID,
			"estimated_tokens", estimatedTokens,
			"remaining_tokens", report.RemainingTokens)
		return &Admission{
			Allowed: false,
			Reason: fmt.Sprintf(
				"not enough space: need %d tokens but only %d remain",
				estimatedTokens, report.RemainingTokens),
			Report: report,
		}, nil
	}

	return &Admission{Allowed: true, Report: report}, nil
}

func (t *Tracker) conversationTokens(ctx context.Context, projectID uuid.UUID) (int, error) {
	conversations, err := t.conversations.ListConversationsByProject(ctx, projectID)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, conversation := range conversations {
		messages, err := t.conversations.ListMessages(ctx, conversation.ID)
		if err != nil {
			return 0, err
		}
		for _, message := range messages {
			total += t.counter.Count(message.Content)
		}
	}
	return total, nil
}

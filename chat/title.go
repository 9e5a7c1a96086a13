package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/quorial/grounddesk/ai"
	"github.com/quorial/grounddesk/core"
	"github.com/quorial/grounddesk/taskqueue"
)

const titlePrompt = `Generate a concise, descriptive title (maximum 50 characters) for this conversation.
The title should capture the main topic or question.
Do not use quotes or special formatting.

Conversation:
%s

Title:`

// QueueTitleGeneration enqueues the title job for a conversation. The
// job handle lands on the conversation row before the job starts so it
// never races the job's own writes.
func (o *Orchestrator) QueueTitleGeneration(ctx context.Context, conversationID uuid.UUID) error {
	conversation, err := o.store.GetConversation(ctx, conversationID)
	if err != nil {
		return err
	}

	handle := taskqueue.NewHandle()
	conversation.TitleTaskID = string(handle)
	if err := o.store.UpdateConversation(ctx, conversation); err != nil {
		return err
	}

	return o.queue.EnqueueAs(ctx, handle, JobGenerateTitle, taskqueue.Args{
		"conversation_id": conversationID.String(),
	})
}

// GenerateTitle derives a short title from the start of a conversation
// and stores it with the auto-generated flag set. A title the user
// chose themselves is never overwritten; only empty or previously
// auto-generated titles are replaced.
func (o *Orchestrator) GenerateTitle(ctx context.Context, conversationID uuid.UUID) error {
	conversation, err := o.store.GetConversation(ctx, conversationID)
	if err != nil {
		return err
	}

	if conversation.Title != "" && !conversation.AutoTitled {
		o.logger.Debug("conversation has a user title, skipping",
			"conversation_id", conversationID)
		return nil
	}

	messages, err := o.store.ListMessages(ctx, conversationID)
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		o.logger.Warn("conversation has no messages, cannot generate title",
			"conversation_id", conversationID)
		return nil
	}

	if len(messages) > titleContextMessages {
		messages = messages[:titleContextMessages]
	}
	lines := make([]string, len(messages))
	for i, message := range messages {
		content := message.Content
		if runes := []rune(content); len(runes) > titleContextChars {
			content = string(runes[:titleContextChars])
		}
		lines[i] = fmt.Sprintf("%s: %s", message.Role, content)
	}

	raw, err := o.completer.Complete(ctx, ai.CompletionRequest{
		Messages: []ai.Message{{
			Role:    core.RoleUser,
			Content: fmt.Sprintf(titlePrompt, strings.Join(lines, "\n")),
		}},
		Model:       o.model,
		Temperature: titleTemperature,
		MaxTokens:   titleMaxTokens,
	})
	if err != nil {
		return fmt.Errorf("title generation failed: %w", err)
	}

	title := cleanTitle(raw)
	if title == "" {
		o.logger.Warn("title generation produced empty title",
			"conversation_id", conversationID)
		return nil
	}

	conversation.Title = title
	conversation.AutoTitled = true
	if err := o.store.UpdateConversation(ctx, conversation); err != nil {
		return err
	}

	o.logger.Info("conversation title generated",
		"conversation_id", conversationID, "title", title)
	return nil
}

// cleanTitle strips quoting and enforces the character cap with an
// ellipsis, cutting on rune boundaries.
func cleanTitle(raw string) string {
	title := strings.NewReplacer(`"`, "", "'", "").Replace(raw)
	title = strings.TrimSpace(title)
	if runes := []rune(title); len(runes) > titleLimit {
		title = string(runes[:titleLimit-3]) + "..."
	}
	return title
}

// TitleJob adapts GenerateTitle to the task queue.
func (o *Orchestrator) TitleJob(ctx context.Context, args taskqueue.Args) error {
	raw, ok := args["conversation_id"]
	if !ok {
		return fmt.Errorf("%w: conversation_id", ErrMissingJobArg)
	}

	conversationID, err := uuid.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid conversation_id: %w", err)
	}
	return o.GenerateTitle(ctx, conversationID)
}

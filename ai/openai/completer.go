package openai

import (
	"context"
	"log/slog"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/quorial/grounddesk/ai"
	"github.com/quorial/grounddesk/core"
)

// Completer implements ai.Completer using OpenAI-compatible chat APIs.
type Completer struct {
	llm    *openai.LLM
	logger *slog.Logger
}

// newCompleter is an internal constructor that returns the concrete type.
func newCompleter(config *ai.Config) (*Completer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	token := config.APIKey
	if token == "" {
		token = "none"
	}

	llm, err := openai.New(
		openai.WithBaseURL(config.ChatHost),
		openai.WithToken(token),
		openai.WithModel(config.ChatModel),
	)
	if err != nil {
		return nil, err
	}

	return &Completer{
		llm:    llm,
		logger: slog.Default().With("component", "openai-completer"),
	}, nil
}

// NewCompleter creates a new completer using the provided configuration.
//
// Returns ai.Completer interface to enforce abstraction.
func NewCompleter(config *ai.Config) (ai.Completer, error) {
	return newCompleter(config)
}

// Complete sends the messages to the chat model and returns the
// generated text.
func (c *Completer) Complete(ctx context.Context, req ai.CompletionRequest) (string, error) {
	content := make([]llms.MessageContent, 0, len(req.Messages))
	for _, message := range req.Messages {
		content = append(content, llms.TextParts(chatMessageType(message.Role), message.Content))
	}

	opts := []llms.CallOption{
		llms.WithTemperature(req.Temperature),
	}
	if req.Model != "" {
		opts = append(opts, llms.WithModel(req.Model))
	}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}

	c.logger.Debug("requesting completion",
		"messages", len(req.Messages), "temperature", req.Temperature)

	resp, err := c.llm.GenerateContent(ctx, content, opts...)
	if err != nil {
		c.logger.Error("completion request failed", "err", err)
		return "", ai.ClassifyError(err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return "", ai.ErrEmptyResponse
	}
	return resp.Choices[0].Content, nil
}

func chatMessageType(role core.Role) llms.ChatMessageType {
	switch role {
	case core.RoleSystem:
		return llms.ChatMessageTypeSystem
	case core.RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}

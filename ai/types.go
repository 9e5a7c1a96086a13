package ai

import "github.com/quorial/grounddesk/core"

// Message is one turn of a prompt sent to a Completer.
type Message struct {
	Role    core.Role
	Content string
}

// CompletionRequest carries a prompt and its sampling parameters.
// Zero values defer to the provider's configuration: an empty Model
// uses the configured chat model, a zero MaxTokens leaves the length
// up to the provider.
type CompletionRequest struct {
	Messages    []Message
	Model       string
	Temperature float64
	MaxTokens   int
}

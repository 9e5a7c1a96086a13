package mock

import (
	"context"
	"sync"

	"github.com/quorial/grounddesk/ai"
)

// MockCompleter is a test double for ai.Completer.
// It allows custom behavior injection via CompleteFunc.
type MockCompleter struct {
	// CompleteFunc is called by Complete if set.
	// If nil, returns Response.
	CompleteFunc func(ctx context.Context, req ai.CompletionRequest) (string, error)

	// Response is the canned reply used when CompleteFunc is nil.
	Response string

	mu        sync.Mutex
	callCount int
	requests  []ai.CompletionRequest
}

// NewMockCompleter creates a MockCompleter with a fixed canned reply.
func NewMockCompleter() *MockCompleter {
	return &MockCompleter{Response: "mock completion"}
}

// Complete records the request and returns the injected or canned
// response.
func (m *MockCompleter) Complete(ctx context.Context, req ai.CompletionRequest) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return m.Response, nil
}

// CallCount returns how many completions were requested.
func (m *MockCompleter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// LastRequest returns the most recent request, or a zero request when
// none were made.
func (m *MockCompleter) LastRequest() ai.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return ai.CompletionRequest{}
	}
	return m.requests[len(m.requests)-1]
}

// Reset clears call history and injected behavior.
func (m *MockCompleter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.requests = nil
	m.CompleteFunc = nil
}

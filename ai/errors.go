package ai

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrRateLimited indicates the provider rejected the request for
	// rate or quota reasons. Retryable.
	ErrRateLimited = errors.New("provider rate limited")

	// ErrTimeout indicates the request did not complete in time.
	// Retryable.
	ErrTimeout = errors.New("provider timeout")

	// ErrEmptyResponse indicates the provider returned no content.
	ErrEmptyResponse = errors.New("provider returned empty response")
)

// IsRetryable reports whether an error is transient and worth
// retrying: rate limits, timeouts, and context deadline hits. Anything
// else (auth failures, malformed requests) is treated as fatal.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTimeout) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return false
}

// ClassifyError wraps provider errors that look transient with the
// matching sentinel so callers can use errors.Is. Providers return
// opaque errors, so this falls back to message inspection.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Join(ErrTimeout, err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit"), strings.Contains(msg, "429"),
		strings.Contains(msg, "quota"):
		return errors.Join(ErrRateLimited, err)
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline"):
		return errors.Join(ErrTimeout, err)
	default:
		return err
	}
}

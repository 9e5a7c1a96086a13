package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name string
		host string
		want string
	}{
		{"adds v1 suffix", "http://localhost:11434", "http://localhost:11434/v1"},
		{"strips trailing slash", "http://localhost:11434/", "http://localhost:11434/v1"},
		{"keeps existing v1", "http://localhost:11434/v1", "http://localhost:11434/v1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig(WithHost(tt.host))
			cfg.Normalize()
			assert.Equal(t, tt.want, cfg.EmbeddingHost)
			assert.Equal(t, tt.want, cfg.ChatHost)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, cfg.Validate())

	cfg = NewConfig(WithChatModel(""))
	assert.Error(t, cfg.Validate())

	cfg = NewConfig(WithEmbeddingModel(""))
	assert.Error(t, cfg.Validate())

	cfg = NewConfig()
	cfg.EmbeddingHost = ""
	assert.Error(t, cfg.Validate())
}

func TestConfigOptionsSplitHosts(t *testing.T) {
	cfg := NewConfig(
		WithEmbeddingHost("http://embed:8000"),
		WithChatHost("http://chat:9000"),
		WithAPIKey("secret"),
	)
	cfg.Normalize()

	assert.Equal(t, "http://embed:8000/v1", cfg.EmbeddingHost)
	assert.Equal(t, "http://chat:9000/v1", cfg.ChatHost)
	assert.Equal(t, "secret", cfg.APIKey)
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(errors.New("invalid api key")))
	assert.True(t, IsRetryable(ErrRateLimited))
	assert.True(t, IsRetryable(ErrTimeout))
	assert.True(t, IsRetryable(context.DeadlineExceeded))
}

func TestClassifyError(t *testing.T) {
	assert.Nil(t, ClassifyError(nil))

	err := ClassifyError(errors.New("429: rate limit exceeded"))
	assert.ErrorIs(t, err, ErrRateLimited)

	err = ClassifyError(errors.New("request timeout"))
	assert.ErrorIs(t, err, ErrTimeout)

	plain := errors.New("model not found")
	assert.Equal(t, plain, ClassifyError(plain))
}

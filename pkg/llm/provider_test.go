package llm

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChat struct{}

func (stubChat) Generate(context.Context, string, string) (string, error) { return "ok", nil }
func (stubChat) GenerateJSON(context.Context, string) (string, error)     { return "{}", nil }
func (stubChat) Name() string                                             { return "stub" }

func TestRegistry(t *testing.T) {
	RegisterChatProvider("stub-registry", func(map[string]any) (ChatProvider, error) {
		return stubChat{}, nil
	})

	p, err := NewChatProvider("stub-registry", nil)
	require.NoError(t, err)
	assert.Equal(t, "stub", p.Name())
	assert.Contains(t, ListProviders(), "stub-registry")

	_, err = NewChatProvider("missing", nil)
	assert.Error(t, err)
	_, err = NewEmbeddingProvider("missing", nil)
	assert.Error(t, err)
}

func TestStatusErrorRetryable(t *testing.T) {
	tests := []struct {
		code int
		want bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusServiceUnavailable, true},
		{http.StatusInternalServerError, true},
		{http.StatusRequestTimeout, true},
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, false},
	}
	for _, tt := range tests {
		e := &StatusError{Provider: "p", StatusCode: tt.code}
		assert.Equal(t, tt.want, e.Retryable(), "status %d", tt.code)
	}
}

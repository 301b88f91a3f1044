package llm

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderOptions_Complete_APIKeyFromEnv(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "g-key")
	t.Setenv("OPENAI_API_KEY", "o-key")

	judge := NewJudgeOptions()
	require.NoError(t, judge.Complete())
	assert.Equal(t, "g-key", judge.APIKey)
	assert.Empty(t, judge.Validate())

	openai := &ProviderOptions{Provider: "openai", Model: "gpt-4o-mini", Timeout: 1}
	require.NoError(t, openai.Complete())
	assert.Equal(t, "o-key", openai.APIKey)
	assert.Equal(t, 3, openai.MaxRetries)
}

func TestProviderOptions_Validate(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")

	opts := NewSynthesisOptions()
	require.NoError(t, opts.Complete())
	errs := opts.Validate()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "api-key is required for gemini")

	assert.Empty(t, NewEmbeddingOptions().Validate())
}

func TestProviderOptions_AddFlagsWithRolePrefix(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	opts := NewRewriteOptions()
	opts.AddFlags(fs, "rewrite")

	require.NoError(t, fs.Parse([]string{"--rewrite.model", "gemini-2.0-flash-lite"}))
	assert.Equal(t, "gemini-2.0-flash-lite", opts.Model)
	assert.NotNil(t, fs.Lookup("rewrite.rate-limit"))
}

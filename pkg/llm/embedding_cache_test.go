package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	mu    sync.Mutex
	calls [][]string
	err   error
}

func (e *countingEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, texts)
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	return out, nil
}

func (e *countingEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	v, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return v[0], nil
}

func (e *countingEmbedder) Name() string { return "counting" }

func newTestCache(t *testing.T, inner EmbeddingProvider) (*CachedEmbeddingProvider, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCachedEmbeddingProvider(inner, client, &EmbeddingCacheConfig{TTL: time.Hour, KeyPrefix: "test:"}), mr
}

func TestCachedEmbeddingProvider_Embed(t *testing.T) {
	inner := &countingEmbedder{}
	c, _ := newTestCache(t, inner)
	ctx := context.Background()

	first, err := c.Embed(ctx, []string{"a", "bb"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 1}, {2, 1}}, first)

	// 部分命中：只有 "ccc" 需要计算
	second, err := c.Embed(ctx, []string{"bb", "ccc", "a"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{2, 1}, {3, 1}, {1, 1}}, second)

	require.Len(t, inner.calls, 2)
	assert.Equal(t, []string{"ccc"}, inner.calls[1])

	// 全部命中
	_, err = c.EmbedSingle(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, inner.calls, 2)
}

func TestCachedEmbeddingProvider_RedisDown(t *testing.T) {
	inner := &countingEmbedder{}
	c, mr := newTestCache(t, inner)
	mr.Close()

	out, err := c.Embed(context.Background(), []string{"hello"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{5, 1}}, out)
}

func TestCachedEmbeddingProvider_ProviderError(t *testing.T) {
	inner := &countingEmbedder{err: errors.New("boom")}
	c, _ := newTestCache(t, inner)

	_, err := c.Embed(context.Background(), []string{"x"})
	assert.EqualError(t, err, "boom")
}

func TestCachedEmbeddingProvider_ClearCache(t *testing.T) {
	c, mr := newTestCache(t, &countingEmbedder{})
	ctx := context.Background()

	_, err := c.Embed(ctx, []string{"a", "b"})
	require.NoError(t, err)
	require.NoError(t, mr.Set("other", "keep"))

	n, err := c.ClearCache(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, mr.Exists("other"))
}

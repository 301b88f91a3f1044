package biz

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIngester struct {
	mu        sync.Mutex
	processed []string
	deleted   []string
}

var _ DocumentIngester = (*fakeIngester)(nil)

func (f *fakeIngester) ProcessDocument(_ context.Context, path string) (*IngestResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processed = append(f.processed, filepath.Base(path))
	return &IngestResult{Status: StatusIngested, Source: filepath.Base(path), ChunkCount: 1}, nil
}

func (f *fakeIngester) DeleteDocument(_ context.Context, source string) (DeleteOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, source)
	return DeleteDeleted, nil
}

func (f *fakeIngester) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.processed), len(f.deleted)
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	ing := &fakeIngester{}
	w := NewWatcher(ing, func(p string) bool { return strings.HasSuffix(p, ".md") }, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, dir) }()
	// give the watcher time to register
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(dir, "notes.md")
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte("some words for the watcher test"), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.bin"), []byte("x"), 0o644))

	require.Eventually(t, func() bool {
		p, _ := ing.counts()
		return p >= 1
	}, 3*time.Second, 10*time.Millisecond)

	require.NoError(t, os.Remove(path))
	require.Eventually(t, func() bool {
		_, d := ing.counts()
		return d == 1
	}, 3*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	ing.mu.Lock()
	defer ing.mu.Unlock()
	assert.Equal(t, "notes.md", ing.processed[0])
	assert.Equal(t, []string{"notes.md"}, ing.deleted)
	for _, p := range ing.processed {
		assert.Equal(t, "notes.md", p)
	}
}

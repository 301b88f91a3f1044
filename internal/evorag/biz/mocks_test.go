package biz

import (
	"context"
	"errors"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kart-io/evorag/internal/model"
	errno "github.com/kart-io/evorag/pkg/errors"
	"github.com/kart-io/evorag/pkg/llm"
)

const testDim = 64

// bagOfWordsEmbedder hashes lower-cased words into testDim buckets so that
// texts sharing words are close under cosine similarity.
type bagOfWordsEmbedder struct {
	mu      sync.Mutex
	calls   int
	batches []int
	err     error
	failAt  int // fail on this call number (1-based), 0 = never
}

var _ llm.EmbeddingProvider = (*bagOfWordsEmbedder)(nil)

func embedText(text string) []float32 {
	v := make([]float32, testDim)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,?!:;\"'")
		if w == "" {
			continue
		}
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		v[h.Sum32()%testDim]++
	}
	return v
}

func (e *bagOfWordsEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	e.batches = append(e.batches, len(texts))
	if e.err != nil && (e.failAt == 0 || e.failAt == e.calls) {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = embedText(t)
	}
	return out, nil
}

func (e *bagOfWordsEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	vs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vs[0], nil
}

func (e *bagOfWordsEmbedder) Name() string { return "bow" }

// scriptedChat returns fixed outputs and records prompts.
type scriptedChat struct {
	mu         sync.Mutex
	jsonOut    string
	jsonErr    error
	textOut    string
	textErr    error
	jsonCalls  int
	textCalls  int
	lastPrompt string
}

var _ llm.ChatProvider = (*scriptedChat)(nil)

func (c *scriptedChat) Generate(_ context.Context, prompt, _ string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.textCalls++
	c.lastPrompt = prompt
	return c.textOut, c.textErr
}

func (c *scriptedChat) GenerateJSON(_ context.Context, prompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.jsonCalls++
	c.lastPrompt = prompt
	return c.jsonOut, c.jsonErr
}

func (c *scriptedChat) Name() string { return "scripted" }

// memRegistry is a DocumentRegistry backed by a map.
type memRegistry struct {
	mu   sync.Mutex
	docs map[string]*model.Document
}

var _ DocumentRegistry = (*memRegistry)(nil)

func newMemRegistry() *memRegistry {
	return &memRegistry{docs: make(map[string]*model.Document)}
}

func (r *memRegistry) Save(_ context.Context, doc *model.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *doc
	r.docs[doc.Source] = &cp
	return nil
}

func (r *memRegistry) Get(_ context.Context, source string) (*model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[source]
	if !ok {
		return nil, errno.ErrNotFound
	}
	return d, nil
}

func (r *memRegistry) Delete(_ context.Context, source string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.docs, source)
	return nil
}

// recordingDispatcher captures dispatched tasks.
type recordingDispatcher struct {
	mu    sync.Mutex
	names []string
	args  []any
	err   error
}

var _ Dispatcher = (*recordingDispatcher)(nil)

func (d *recordingDispatcher) Enqueue(_ context.Context, name string, args any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.names = append(d.names, name)
	d.args = append(d.args, args)
	return d.err
}

var errBoom = errors.New("boom")

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const threeParagraphs = `# Deployment Guide

The deployment pipeline builds container images on every merge to main.

Rollbacks are performed by redeploying the previous image tag from the registry.

Database migrations run automatically before the new version receives traffic.
`

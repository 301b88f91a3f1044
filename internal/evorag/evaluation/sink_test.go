package evaluation

import (
	"bufio"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/evorag/internal/model"
	"github.com/kart-io/evorag/pkg/utils/json"
)

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var out []map[string]any
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 1024*1024), 1024*1024)
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		out = append(out, m)
	}
	require.NoError(t, sc.Err())
	return out
}

func sampleRecord() *model.EvaluationRecord {
	return model.NewEvaluationRecord(&model.Interaction{
		OriginalQuery:  "q",
		RewrittenQuery: "rq",
		Context:        "[Source: a.md]\ntext\n---\n",
		Answer:         "a",
		CitedDocs:      []string{"a.md"},
	}, model.NewFailedEvaluation(errors.New("boom")))
}

func TestJSONLSink_Append(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "evaluation_logs.jsonl")
	sink, err := NewJSONLSink(path)
	require.NoError(t, err)

	require.NoError(t, sink.Append(context.Background(), sampleRecord()))
	require.NoError(t, sink.Append(context.Background(), sampleRecord()))
	require.NoError(t, sink.Close())

	lines := readLines(t, path)
	require.Len(t, lines, 2)

	rec := lines[0]
	for _, key := range []string{"original_query", "rewritten_query", "retrieved_context", "generated_answer", "evaluation", "timestamp"} {
		assert.Contains(t, rec, key)
	}
	ts, err := time.Parse(time.RFC3339Nano, rec["timestamp"].(string))
	require.NoError(t, err)
	assert.Equal(t, time.UTC, ts.Location())

	answer := rec["generated_answer"].(map[string]any)
	assert.Equal(t, "a", answer["answer"])
	assert.Equal(t, []any{"a.md"}, answer["cited_docs"])
}

func TestJSONLSink_ReopenAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evaluation_logs.jsonl")

	for i := 0; i < 2; i++ {
		sink, err := NewJSONLSink(path)
		require.NoError(t, err)
		require.NoError(t, sink.Append(context.Background(), sampleRecord()))
		require.NoError(t, sink.Close())
	}

	assert.Len(t, readLines(t, path), 2)
}

func TestJSONLSink_ConcurrentAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evaluation_logs.jsonl")
	sink, err := NewJSONLSink(path)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, sink.Append(context.Background(), sampleRecord()))
		}()
	}
	wg.Wait()
	require.NoError(t, sink.Close())

	assert.Len(t, readLines(t, path), 20)
}

func TestJSONLSink_AppendAfterClose(t *testing.T) {
	sink, err := NewJSONLSink(filepath.Join(t.TempDir(), "x.jsonl"))
	require.NoError(t, err)
	require.NoError(t, sink.Close())
	assert.ErrorIs(t, sink.Append(context.Background(), sampleRecord()), os.ErrClosed)
}

type recordingSink struct {
	mu      sync.Mutex
	records []*model.EvaluationRecord
	err     error
}

func (s *recordingSink) Append(_ context.Context, r *model.EvaluationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, r)
	return nil
}

func (s *recordingSink) Close() error { return nil }

func (s *recordingSink) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func TestMultiSink(t *testing.T) {
	ok := &recordingSink{}
	bad := &recordingSink{err: errors.New("disk full")}

	err := MultiSink{bad, ok}.Append(context.Background(), sampleRecord())
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, 1, ok.len(), "其余 sink 仍应写入")
	assert.NoError(t, MultiSink{ok}.Close())
}

func TestMultiSink_SharedTimestamp(t *testing.T) {
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	calls := 0
	orig := nowUTC
	nowUTC = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Second)
	}
	t.Cleanup(func() { nowUTC = orig })

	dir := t.TempDir()
	first, err := NewJSONLSink(filepath.Join(dir, "a.jsonl"))
	require.NoError(t, err)
	second, err := NewJSONLSink(filepath.Join(dir, "b.jsonl"))
	require.NoError(t, err)

	multi := MultiSink{first, second}
	require.NoError(t, multi.Append(context.Background(), sampleRecord()))
	require.NoError(t, multi.Close())

	a := readLines(t, first.Path())
	b := readLines(t, second.Path())
	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.Equal(t, a[0]["timestamp"], b[0]["timestamp"])
	assert.Equal(t, 1, calls)
}

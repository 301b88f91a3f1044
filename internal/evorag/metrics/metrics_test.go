package metrics

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGlobal(t *testing.T) {
	assert.Same(t, Global(), Global(), "应该返回同一个单例实例")
}

func TestRecordIngest(t *testing.T) {
	m := New()

	m.RecordIngest(3, nil)
	m.RecordIngest(0, nil)
	m.RecordIngest(0, assert.AnError)

	s := m.Snapshot()
	assert.EqualValues(t, 1, s.DocumentsIngested)
	assert.EqualValues(t, 3, s.ChunksIngested)
	assert.EqualValues(t, 1, s.DocumentsEmpty)
	assert.EqualValues(t, 1, s.IngestErrors)
}

func TestRecordJudgeAndLogged(t *testing.T) {
	m := New()

	m.RecordJudge(false)
	m.RecordJudge(true)
	m.RecordLogged(nil)
	m.RecordLogged(assert.AnError)

	s := m.Snapshot()
	assert.EqualValues(t, 2, s.JudgeCalls)
	assert.EqualValues(t, 1, s.JudgeFailures)
	assert.EqualValues(t, 1, s.RecordsLogged)
	assert.EqualValues(t, 1, s.LogWriteErrors)
}

func TestConcurrentRecording(t *testing.T) {
	m := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordQuery()
			m.RecordRewriteFallback()
		}()
	}
	wg.Wait()

	s := m.Snapshot()
	assert.EqualValues(t, 50, s.QueriesTotal)
	assert.EqualValues(t, 50, s.RewriteFallbacks)
}

func TestExport(t *testing.T) {
	m := New()
	m.RecordQuery()
	m.RecordEmptyContext()

	out := m.Export("evorag")
	assert.Contains(t, out, "# TYPE evorag_queries_total counter")
	assert.Contains(t, out, "evorag_queries_total 1\n")
	assert.Contains(t, out, "evorag_empty_contexts_total 1\n")
	assert.Contains(t, out, "evorag_uptime_seconds")
}

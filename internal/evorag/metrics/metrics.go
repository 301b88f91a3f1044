// Package metrics 提供 EvoRAG 的进程内业务指标。
package metrics

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics EvoRAG 业务指标，所有计数器并发安全。
type Metrics struct {
	// 入库指标
	documentsIngested atomic.Uint64
	chunksIngested    atomic.Uint64
	documentsEmpty    atomic.Uint64
	documentsDeleted  atomic.Uint64
	ingestErrors      atomic.Uint64

	// 查询指标
	queriesTotal      atomic.Uint64
	rewriteFallbacks  atomic.Uint64
	emptyContexts     atomic.Uint64
	synthesisErrors   atomic.Uint64
	retrievalErrors   atomic.Uint64
	evaluationDropped atomic.Uint64

	// 评估指标
	judgeCalls     atomic.Uint64
	judgeFailures  atomic.Uint64
	recordsLogged  atomic.Uint64
	logWriteErrors atomic.Uint64

	startTime time.Time
}

var (
	global     *Metrics
	globalOnce sync.Once
)

// New creates a zeroed Metrics.
func New() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// Global returns the process-wide Metrics.
func Global() *Metrics {
	globalOnce.Do(func() {
		global = New()
	})
	return global
}

// RecordIngest 记录一次文档入库结果。
func (m *Metrics) RecordIngest(chunks int, err error) {
	if err != nil {
		m.ingestErrors.Add(1)
		return
	}
	if chunks == 0 {
		m.documentsEmpty.Add(1)
		return
	}
	m.documentsIngested.Add(1)
	m.chunksIngested.Add(uint64(chunks))
}

// RecordDelete 记录一次文档删除。
func (m *Metrics) RecordDelete() { m.documentsDeleted.Add(1) }

// RecordQuery 记录一次查询。
func (m *Metrics) RecordQuery() { m.queriesTotal.Add(1) }

// RecordRewriteFallback 记录查询重写回退到原始查询。
func (m *Metrics) RecordRewriteFallback() { m.rewriteFallbacks.Add(1) }

// RecordEmptyContext 记录检索结果为空的短路回答。
func (m *Metrics) RecordEmptyContext() { m.emptyContexts.Add(1) }

// RecordSynthesisError 记录答案生成失败。
func (m *Metrics) RecordSynthesisError() { m.synthesisErrors.Add(1) }

// RecordRetrievalError 记录检索失败。
func (m *Metrics) RecordRetrievalError() { m.retrievalErrors.Add(1) }

// RecordEvaluationDropped 记录评估任务入队失败。
func (m *Metrics) RecordEvaluationDropped() { m.evaluationDropped.Add(1) }

// RecordJudge 记录一次评估调用。
func (m *Metrics) RecordJudge(failed bool) {
	m.judgeCalls.Add(1)
	if failed {
		m.judgeFailures.Add(1)
	}
}

// RecordLogged 记录一次评估日志写入。
func (m *Metrics) RecordLogged(err error) {
	if err != nil {
		m.logWriteErrors.Add(1)
		return
	}
	m.recordsLogged.Add(1)
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	DocumentsIngested uint64  `json:"documents_ingested"`
	ChunksIngested    uint64  `json:"chunks_ingested"`
	DocumentsEmpty    uint64  `json:"documents_empty"`
	DocumentsDeleted  uint64  `json:"documents_deleted"`
	IngestErrors      uint64  `json:"ingest_errors"`
	QueriesTotal      uint64  `json:"queries_total"`
	RewriteFallbacks  uint64  `json:"rewrite_fallbacks"`
	EmptyContexts     uint64  `json:"empty_contexts"`
	SynthesisErrors   uint64  `json:"synthesis_errors"`
	RetrievalErrors   uint64  `json:"retrieval_errors"`
	EvaluationDropped uint64  `json:"evaluation_dropped"`
	JudgeCalls        uint64  `json:"judge_calls"`
	JudgeFailures     uint64  `json:"judge_failures"`
	RecordsLogged     uint64  `json:"records_logged"`
	LogWriteErrors    uint64  `json:"log_write_errors"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
}

// Snapshot 返回当前指标快照。
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		DocumentsIngested: m.documentsIngested.Load(),
		ChunksIngested:    m.chunksIngested.Load(),
		DocumentsEmpty:    m.documentsEmpty.Load(),
		DocumentsDeleted:  m.documentsDeleted.Load(),
		IngestErrors:      m.ingestErrors.Load(),
		QueriesTotal:      m.queriesTotal.Load(),
		RewriteFallbacks:  m.rewriteFallbacks.Load(),
		EmptyContexts:     m.emptyContexts.Load(),
		SynthesisErrors:   m.synthesisErrors.Load(),
		RetrievalErrors:   m.retrievalErrors.Load(),
		EvaluationDropped: m.evaluationDropped.Load(),
		JudgeCalls:        m.judgeCalls.Load(),
		JudgeFailures:     m.judgeFailures.Load(),
		RecordsLogged:     m.recordsLogged.Load(),
		LogWriteErrors:    m.logWriteErrors.Load(),
		UptimeSeconds:     time.Since(m.startTime).Seconds(),
	}
}

// Export 导出 Prometheus 文本格式指标。
func (m *Metrics) Export(namespace string) string {
	s := m.Snapshot()
	counters := []struct {
		name  string
		help  string
		value uint64
	}{
		{"documents_ingested_total", "Documents ingested with at least one chunk.", s.DocumentsIngested},
		{"chunks_ingested_total", "Chunks upserted into the vector store.", s.ChunksIngested},
		{"documents_empty_total", "Documents that produced no chunks.", s.DocumentsEmpty},
		{"documents_deleted_total", "Documents removed from the vector store.", s.DocumentsDeleted},
		{"ingest_errors_total", "Failed document ingestions.", s.IngestErrors},
		{"queries_total", "Ask calls.", s.QueriesTotal},
		{"rewrite_fallbacks_total", "Rewrites that fell back to the original query.", s.RewriteFallbacks},
		{"empty_contexts_total", "Queries answered without retrieved context.", s.EmptyContexts},
		{"synthesis_errors_total", "Answer generation failures.", s.SynthesisErrors},
		{"retrieval_errors_total", "Retrieval failures.", s.RetrievalErrors},
		{"evaluation_dropped_total", "Evaluation jobs rejected by the queue.", s.EvaluationDropped},
		{"judge_calls_total", "Judge invocations.", s.JudgeCalls},
		{"judge_failures_total", "Judge invocations that produced the failure sentinel.", s.JudgeFailures},
		{"records_logged_total", "Evaluation records appended.", s.RecordsLogged},
		{"log_write_errors_total", "Evaluation record write failures.", s.LogWriteErrors},
	}

	var sb strings.Builder
	for _, c := range counters {
		name := namespace + "_" + c.name
		fmt.Fprintf(&sb, "# HELP %s %s\n", name, c.help)
		fmt.Fprintf(&sb, "# TYPE %s counter\n", name)
		fmt.Fprintf(&sb, "%s %d\n", name, c.value)
	}
	fmt.Fprintf(&sb, "# HELP %s_uptime_seconds Process uptime.\n", namespace)
	fmt.Fprintf(&sb, "# TYPE %s_uptime_seconds gauge\n", namespace)
	fmt.Fprintf(&sb, "%s_uptime_seconds %.3f\n", namespace, s.UptimeSeconds)
	return sb.String()
}

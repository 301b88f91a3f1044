package biz

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/evorag/internal/evorag/convert"
	"github.com/kart-io/evorag/internal/evorag/evaluation"
	"github.com/kart-io/evorag/internal/evorag/metrics"
	"github.com/kart-io/evorag/internal/evorag/store"
	"github.com/kart-io/evorag/pkg/utils/json"
)

const judgeOK = `{
  "query_evaluation": {"reasoning": "Kept the intent.", "score": 4, "identified_issue": "NONE"},
  "answer_evaluation": {"reasoning": "Grounded.", "relevance_score": 5, "correctness_score": 5, "completeness_score": 5, "identified_issue": "NONE"}
}`

func countLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	defer f.Close()

	var out []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		out = append(out, m)
	}
	return out
}

func TestEndToEnd(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	m := metrics.New()
	vs := store.NewMemory()
	emb := &bagOfWordsEmbedder{}

	pipeline, err := NewIngestionPipeline(ctx, convert.DefaultRegistry(), NewChunker(nil), emb, vs,
		&IngestionConfig{Collection: testCollection, Dimension: testDim}, WithIngestionMetrics(m))
	require.NoError(t, err)

	// ingest twice, count stays 3
	path := writeDoc(t, dir, "deploy.md", threeParagraphs)
	for i := 0; i < 2; i++ {
		res, err := pipeline.ProcessDocument(ctx, path)
		require.NoError(t, err)
		require.Equal(t, 3, res.ChunkCount)
	}
	n, err := pipeline.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 3, n)

	// evaluation pipeline
	logPath := filepath.Join(dir, "evaluation_logs.jsonl")
	sink, err := evaluation.NewJSONLSink(logPath)
	require.NoError(t, err)
	defer sink.Close()

	queue, err := evaluation.NewPoolQueue(2, evaluation.ExecutorConfig{MaxRetries: 1, RetryBackoff: time.Millisecond, Timeout: 5 * time.Second})
	require.NoError(t, err)
	judge := evaluation.NewJudge(&scriptedChat{jsonOut: judgeOK})
	queue.Register(evaluation.TaskJudgeAndLog, evaluation.NewJudgeAndLogHandler(judge, sink, m))
	require.NoError(t, queue.Start(ctx))

	chat := &scriptedChat{
		jsonOut: `{"rewritten_query": "rollbacks redeploying previous image tag registry"}`,
		textOut: "Redeploy the previous image tag.\nCitations:\n- deploy.md",
	}
	o := NewOrchestrator(emb, vs, chat, chat, nil,
		&OrchestratorConfig{Collection: testCollection, TopK: 7},
		WithDispatcher(queue), WithOrchestratorMetrics(m))

	in := o.Ask(ctx, "How are rollbacks performed?")
	assert.Equal(t, "Redeploy the previous image tag.", in.Answer)
	assert.Contains(t, in.ReferencedDocs, "deploy.md")
	assert.Contains(t, in.Context, "Rollbacks are performed by redeploying the previous image tag from the registry.")

	require.Eventually(t, func() bool {
		return len(countLines(t, logPath)) == 1
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, queue.Stop(ctx))

	lines := countLines(t, logPath)
	require.Len(t, lines, 1)
	rec := lines[0]
	assert.Equal(t, "How are rollbacks performed?", rec["original_query"])
	eval := rec["evaluation"].(map[string]any)
	assert.Contains(t, eval, "query_evaluation")
	assert.Contains(t, eval, "answer_evaluation")
	assert.NotContains(t, eval, "error")
	assert.NotEmpty(t, rec["timestamp"])

	s := m.Snapshot()
	assert.EqualValues(t, 1, s.RecordsLogged)
	assert.EqualValues(t, 1, s.QueriesTotal)
}

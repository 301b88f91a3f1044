package evaluation

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/evorag/internal/evorag/metrics"
	"github.com/kart-io/evorag/internal/model"
	errno "github.com/kart-io/evorag/pkg/errors"
)

func fastExecutor() ExecutorConfig {
	return ExecutorConfig{MaxRetries: 2, RetryBackoff: time.Millisecond, Timeout: time.Second}
}

func TestPoolQueue_RunsHandler(t *testing.T) {
	q, err := NewPoolQueue(2, fastExecutor())
	require.NoError(t, err)

	got := make(chan string, 1)
	q.Register("echo", func(_ context.Context, payload []byte) error {
		got <- string(payload)
		return nil
	})
	require.NoError(t, q.Start(context.Background()))

	require.NoError(t, q.Enqueue(context.Background(), "echo", map[string]string{"k": "v"}))

	select {
	case p := <-got:
		assert.JSONEq(t, `{"k":"v"}`, p)
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not called")
	}

	require.NoError(t, q.Stop(context.Background()))
	stats := q.Stats()
	assert.Equal(t, "pool", stats.Backend)
	assert.EqualValues(t, 1, stats.Enqueued)
	assert.EqualValues(t, 1, stats.Succeeded)
}

func TestPoolQueue_Retries(t *testing.T) {
	q, err := NewPoolQueue(1, fastExecutor())
	require.NoError(t, err)

	var calls atomic.Int32
	var finalSeen atomic.Bool
	done := make(chan struct{})
	q.Register("flaky", func(ctx context.Context, _ []byte) error {
		n := calls.Add(1)
		if FinalAttempt(ctx) {
			finalSeen.Store(true)
		}
		if n < 3 {
			return errors.New("transient")
		}
		close(done)
		return nil
	})

	require.NoError(t, q.Enqueue(context.Background(), "flaky", nil))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not succeed")
	}
	require.NoError(t, q.Stop(context.Background()))

	assert.EqualValues(t, 3, calls.Load())
	assert.True(t, finalSeen.Load())
	assert.EqualValues(t, 2, q.Stats().Retried)
}

func TestPoolQueue_OverloadDropsJob(t *testing.T) {
	q, err := NewPoolQueue(1, fastExecutor())
	require.NoError(t, err)

	release := make(chan struct{})
	started := make(chan struct{})
	q.Register("block", func(context.Context, []byte) error {
		close(started)
		<-release
		return nil
	})

	require.NoError(t, q.Enqueue(context.Background(), "block", nil))
	<-started

	err = q.Enqueue(context.Background(), "block", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errno.ErrQueueFull))

	close(release)
	require.NoError(t, q.Stop(context.Background()))
}

func TestPoolQueue_StopDuringBackoffRecordsFailure(t *testing.T) {
	q, err := NewPoolQueue(1, ExecutorConfig{MaxRetries: 2, RetryBackoff: time.Second, Timeout: time.Second})
	require.NoError(t, err)

	sink := &recordingSink{}
	judge := &scriptedEvaluator{results: []*model.Evaluation{model.NewFailedEvaluation(errors.New("judge down"))}}
	q.Register(TaskJudgeAndLog, NewJudgeAndLogHandler(judge, sink, metrics.New()))

	require.NoError(t, q.Enqueue(context.Background(), TaskJudgeAndLog, &model.Interaction{OriginalQuery: "q"}))
	require.Eventually(t, func() bool { return q.Stats().Retried == 1 }, 2*time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = q.Stop(ctx)

	require.Equal(t, 1, sink.len(), "关闭时仍应写入失败哨兵")
	assert.True(t, sink.records[0].Evaluation.Failed())
	assert.Equal(t, 2, judge.calls)
}

func TestFinalAttempt_OutsideQueue(t *testing.T) {
	assert.True(t, FinalAttempt(context.Background()))
}

func TestRedisQueue_RoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()

	q, err := NewRedisQueue(client, "evorag:test", 2, fastExecutor())
	require.NoError(t, err)
	q.pollTimeout = 50 * time.Millisecond

	got := make(chan string, 1)
	q.Register(TaskJudgeAndLog, func(_ context.Context, payload []byte) error {
		got <- string(payload)
		return nil
	})

	// enqueued before the consumer starts, still delivered
	require.NoError(t, q.Enqueue(context.Background(), TaskJudgeAndLog, map[string]string{"original_query": "q"}))
	n, err := q.Pending(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, q.Start(context.Background()))
	select {
	case p := <-got:
		assert.JSONEq(t, `{"original_query":"q"}`, p)
	case <-time.After(3 * time.Second):
		t.Fatal("job was not consumed")
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, q.Stop(stopCtx))
	assert.Equal(t, "redis", q.Stats().Backend)
}

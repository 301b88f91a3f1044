package evaluation

import (
	"context"
	"errors"

	"github.com/kart-io/logger"

	errno "github.com/kart-io/evorag/pkg/errors"
	"github.com/kart-io/evorag/pkg/infra/pool"
)

var _ Queue = (*PoolQueue)(nil)

// PoolQueue runs jobs in-process on a non-blocking ants pool.
// When the pool is saturated the job is logged and dropped.
type PoolQueue struct {
	exec *executor
}

// NewPoolQueue 创建进程内任务队列。
func NewPoolQueue(workers int, config ExecutorConfig) (*PoolQueue, error) {
	p, err := pool.NewPool("evaluation", pool.EvaluationPoolConfig(workers))
	if err != nil {
		return nil, err
	}
	return &PoolQueue{exec: newExecutor(p, config)}, nil
}

// Register binds handler to name.
func (q *PoolQueue) Register(name string, handler Handler) {
	q.exec.register(name, handler)
}

// Start is a no-op; workers are spawned on demand.
func (q *PoolQueue) Start(context.Context) error { return nil }

// Enqueue submits the job without waiting for it.
func (q *PoolQueue) Enqueue(_ context.Context, name string, args any) error {
	job, err := newJob(name, args)
	if err != nil {
		return err
	}

	if err := q.exec.submit(job); err != nil {
		if errors.Is(err, pool.ErrPoolOverload) {
			logger.Warnw("Evaluation queue full, dropping job", "task", name, "job_id", job.ID)
			return errno.ErrQueueFull.WithCause(err)
		}
		return err
	}
	q.exec.count(&q.exec.stats.enqueued)
	return nil
}

// Stop waits for running jobs until ctx expires.
func (q *PoolQueue) Stop(ctx context.Context) error {
	return q.exec.shutdown(ctx)
}

// Stats implements Queue.
func (q *PoolQueue) Stats() QueueStats {
	return q.exec.snapshot("pool")
}

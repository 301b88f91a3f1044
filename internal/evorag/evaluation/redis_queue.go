package evaluation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kart-io/evorag/pkg/infra/pool"
	"github.com/kart-io/evorag/pkg/utils/json"
)

var _ Queue = (*RedisQueue)(nil)

// RedisQueue is a list-backed broker: Enqueue LPUSHes the job, a consumer
// BRPOPs and feeds a blocking worker pool. Jobs pushed while no consumer is
// running are picked up on the next Start.
type RedisQueue struct {
	client goredis.Cmdable
	key    string
	exec   *executor

	// pollTimeout bounds one BRPOP so the consumer notices Stop.
	pollTimeout time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRedisQueue 创建基于 Redis 列表的任务队列。
func NewRedisQueue(client goredis.Cmdable, key string, workers int, config ExecutorConfig) (*RedisQueue, error) {
	p, err := pool.NewPool("evaluation-redis", pool.IngestionPoolConfig(workers))
	if err != nil {
		return nil, err
	}
	return &RedisQueue{
		client:      client,
		key:         key,
		exec:        newExecutor(p, config),
		pollTimeout: time.Second,
	}, nil
}

// Register binds handler to name.
func (q *RedisQueue) Register(name string, handler Handler) {
	q.exec.register(name, handler)
}

// Enqueue pushes the job onto the list.
func (q *RedisQueue) Enqueue(ctx context.Context, name string, args any) error {
	job, err := newJob(name, args)
	if err != nil {
		return err
	}
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("push job to %s: %w", q.key, err)
	}
	q.exec.count(&q.exec.stats.enqueued)
	return nil
}

// Start launches the consumer loop.
func (q *RedisQueue) Start(ctx context.Context) error {
	ctx, q.cancel = context.WithCancel(ctx)
	q.wg.Add(1)
	go q.consume(ctx)
	logger.Infow("Redis task consumer started", "key", q.key)
	return nil
}

func (q *RedisQueue) consume(ctx context.Context) {
	defer q.wg.Done()

	for {
		if ctx.Err() != nil {
			return
		}

		res, err := q.client.BRPop(ctx, q.pollTimeout, q.key).Result()
		if err != nil {
			if errors.Is(err, goredis.Nil) || ctx.Err() != nil {
				continue
			}
			logger.Warnw("BRPOP failed", "key", q.key, "error", err.Error())
			select {
			case <-time.After(q.pollTimeout):
			case <-ctx.Done():
			}
			continue
		}

		// res = [key, value]
		var job Job
		if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
			logger.Errorw("Discarding malformed job", "key", q.key, "error", err.Error())
			continue
		}
		if err := q.exec.submit(&job); err != nil {
			logger.Errorw("Failed to dispatch job", "task", job.Name, "job_id", job.ID, "error", err.Error())
			// put it back for the next consumer
			_ = q.client.RPush(context.WithoutCancel(ctx), q.key, res[1]).Err()
			return
		}
	}
}

// Stop halts the consumer and waits for running jobs.
func (q *RedisQueue) Stop(ctx context.Context) error {
	if q.cancel != nil {
		q.cancel()
	}
	q.wg.Wait()
	return q.exec.shutdown(ctx)
}

// Stats implements Queue.
func (q *RedisQueue) Stats() QueueStats {
	return q.exec.snapshot("redis")
}

// Pending returns the number of jobs waiting in the list.
func (q *RedisQueue) Pending(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

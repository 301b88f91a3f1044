package evaluation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kart-io/logger"
	"github.com/oklog/ulid/v2"

	"github.com/kart-io/evorag/pkg/infra/pool"
	"github.com/kart-io/evorag/pkg/utils/json"
)

// TaskJudgeAndLog is the task that judges one interaction and logs the result.
const TaskJudgeAndLog = "judge_and_log"

// Handler processes one job payload.
type Handler func(ctx context.Context, payload []byte) error

type attemptKey struct{}

type attemptInfo struct {
	attempt, max int
}

// FinalAttempt reports whether the running handler invocation is the last
// one the executor will make. Outside a queue it reports true.
func FinalAttempt(ctx context.Context) bool {
	info, ok := ctx.Value(attemptKey{}).(attemptInfo)
	return !ok || info.attempt >= info.max
}

// Job is the envelope carried by every queue backend.
type Job struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// QueueStats describes queue activity.
type QueueStats struct {
	Backend   string     `json:"backend"`
	Enqueued  uint64     `json:"enqueued"`
	Succeeded uint64     `json:"succeeded"`
	Failed    uint64     `json:"failed"`
	Retried   uint64     `json:"retried"`
	Pool      pool.Stats `json:"pool"`
}

// Queue dispatches named tasks to registered handlers in the background.
// Enqueue never blocks on task execution.
type Queue interface {
	Enqueue(ctx context.Context, name string, args any) error
	Register(name string, handler Handler)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Stats() QueueStats
}

// ExecutorConfig 任务执行配置。
type ExecutorConfig struct {
	// MaxRetries 处理失败后的最大重试次数。
	MaxRetries int
	// RetryBackoff 首次重试前的等待时间，之后按倍数递增。
	RetryBackoff time.Duration
	// Timeout 单次执行超时。
	Timeout time.Duration
}

// executor runs jobs against registered handlers with retries.
// It is shared by all queue backends.
type executor struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	config   ExecutorConfig
	pool     *pool.Pool

	baseCtx context.Context
	cancel  context.CancelFunc

	inflight sync.WaitGroup

	stats struct {
		sync.Mutex
		enqueued, succeeded, failed, retried uint64
	}
}

func newExecutor(p *pool.Pool, config ExecutorConfig) *executor {
	ctx, cancel := context.WithCancel(context.Background())
	return &executor{
		handlers: make(map[string]Handler),
		config:   config,
		pool:     p,
		baseCtx:  ctx,
		cancel:   cancel,
	}
}

func (e *executor) register(name string, h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[name] = h
}

func (e *executor) handler(name string) (Handler, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	h, ok := e.handlers[name]
	return h, ok
}

func newJob(name string, args any) (*Job, error) {
	payload, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", name, err)
	}
	return &Job{
		ID:         ulid.Make().String(),
		Name:       name,
		Payload:    payload,
		EnqueuedAt: time.Now().UTC(),
	}, nil
}

// drainTimeout bounds the wait for jobs finishing their last attempt after
// shutdown cancelled them.
const drainTimeout = 15 * time.Second

// submit hands job to the worker pool.
func (e *executor) submit(job *Job) error {
	e.inflight.Add(1)
	err := e.pool.Submit(func() {
		defer e.inflight.Done()
		e.run(job)
	})
	if err != nil {
		e.inflight.Done()
	}
	return err
}

func (e *executor) run(job *Job) {
	h, ok := e.handler(job.Name)
	if !ok {
		e.count(&e.stats.failed)
		logger.Errorw("No handler registered for task", "task", job.Name, "job_id", job.ID)
		return
	}

	backoff := e.config.RetryBackoff
	var err error
	for attempt := 0; attempt <= e.config.MaxRetries; attempt++ {
		if attempt > 0 {
			e.count(&e.stats.retried)
			logger.Warnw("Retrying task", "task", job.Name, "job_id", job.ID, "attempt", attempt, "error", err.Error())
			select {
			case <-time.After(backoff):
			case <-e.baseCtx.Done():
				// shutting down: skip to the last attempt so the handler can
				// record the outcome
				attempt = e.config.MaxRetries
			}
			backoff *= 2
		}

		if err = e.invoke(h, job, attempt); err == nil {
			e.count(&e.stats.succeeded)
			logger.Debugw("Task completed", "task", job.Name, "job_id", job.ID,
				"latency", time.Since(job.EnqueuedAt).String())
			return
		}
	}

	e.count(&e.stats.failed)
	logger.Errorw("Task failed after retries", "task", job.Name, "job_id", job.ID,
		"retries", e.config.MaxRetries, "error", err.Error())
}

func (e *executor) invoke(h Handler, job *Job, attempt int) (err error) {
	ctx := context.WithValue(e.baseCtx, attemptKey{}, attemptInfo{attempt: attempt, max: e.config.MaxRetries})
	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s panicked: %v", job.Name, r)
		}
	}()
	return h(ctx, job.Payload)
}

func (e *executor) count(c *uint64) {
	e.stats.Lock()
	*c++
	e.stats.Unlock()
}

func (e *executor) snapshot(backend string) QueueStats {
	e.stats.Lock()
	defer e.stats.Unlock()
	return QueueStats{
		Backend:   backend,
		Enqueued:  e.stats.enqueued,
		Succeeded: e.stats.succeeded,
		Failed:    e.stats.failed,
		Retried:   e.stats.retried,
		Pool:      e.pool.Stats(),
	}
}

// shutdown waits for running jobs until ctx expires, then cancels the rest.
// Cancelled jobs still make their last attempt before shutdown returns.
func (e *executor) shutdown(ctx context.Context) error {
	timeout := 30 * time.Second
	if dl, ok := ctx.Deadline(); ok {
		timeout = time.Until(dl)
	}
	err := e.pool.ReleaseTimeout(timeout)
	e.cancel()

	drained := make(chan struct{})
	go func() {
		e.inflight.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(drainTimeout):
		logger.Warnw("Jobs still running after shutdown", "drain_timeout", drainTimeout.String())
	}

	if errors.Is(err, pool.ErrPoolClosed) {
		return nil
	}
	return err
}

package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kart-io/logger"
	"github.com/panjf2000/ants/v2"
)

// Config defines the configuration for the worker pool.
type Config struct {
	// Capacity 池容量（最大并发 goroutine 数）
	Capacity int
	// ExpiryDuration goroutine 空闲过期时间
	ExpiryDuration time.Duration
	// PreAlloc 是否预分配内存（降低 GC，但增加初始内存占用）
	PreAlloc bool
	// Nonblocking 提交任务是否非阻塞（若池满则返回错误）
	Nonblocking bool
	// MaxBlockingTasks 当 Nonblocking=false 时，最大等待任务数（0 表示无限制）
	MaxBlockingTasks int
	// PanicHandler 恐慌处理函数
	PanicHandler func(any)
}

// EvaluationPoolConfig 返回评估任务池配置。
// 提交方为请求路径，池满时立即返回错误而不是阻塞。
func EvaluationPoolConfig(capacity int) *Config {
	return &Config{
		Capacity:       capacity,
		ExpiryDuration: 60 * time.Second,
		Nonblocking:    true,
	}
}

// IngestionPoolConfig 返回批量摄取池配置，池满时阻塞等待。
func IngestionPoolConfig(capacity int) *Config {
	return &Config{
		Capacity:         capacity,
		ExpiryDuration:   10 * time.Second,
		Nonblocking:      false,
		MaxBlockingTasks: 0,
	}
}

// Pool represents a worker pool.
type Pool struct {
	name     string
	pool     *ants.Pool
	config   *Config
	stats    poolStatsCounter
	closed   atomic.Bool
	closedMu sync.Mutex
}

type poolStatsCounter struct {
	submitted atomic.Int64
	completed atomic.Int64
	rejected  atomic.Int64
	panics    atomic.Int64
}

// Stats contains statistics about the worker pool.
type Stats struct {
	Name      string `json:"name"`
	Capacity  int    `json:"capacity"`
	Running   int    `json:"running"`
	Waiting   int    `json:"waiting"`
	Submitted int64  `json:"submitted"` // 已提交任务数
	Completed int64  `json:"completed"` // 已完成任务数
	Rejected  int64  `json:"rejected"`  // 拒绝任务数
	Panics    int64  `json:"panics"`    // 恢复的 panic 数
}

// NewPool creates a new worker pool with the given configuration.
func NewPool(name string, config *Config) (*Pool, error) {
	if config == nil || config.Capacity <= 0 {
		return nil, ErrInvalidPoolConfig
	}

	p := &Pool{
		name:   name,
		config: config,
	}

	pool, err := ants.NewPool(config.Capacity, p.antsOptions()...)
	if err != nil {
		return nil, fmt.Errorf("创建 ants 池失败: %w", err)
	}
	p.pool = pool

	logger.Infow("Worker pool created",
		"name", name,
		"capacity", config.Capacity,
		"nonblocking", config.Nonblocking,
	)

	return p, nil
}

func (p *Pool) antsOptions() []ants.Option {
	opts := []ants.Option{
		ants.WithExpiryDuration(p.config.ExpiryDuration),
		ants.WithPreAlloc(p.config.PreAlloc),
		ants.WithNonblocking(p.config.Nonblocking),
		ants.WithMaxBlockingTasks(p.config.MaxBlockingTasks),
	}

	handler := p.config.PanicHandler
	opts = append(opts, ants.WithPanicHandler(func(r any) {
		p.stats.panics.Add(1)
		if handler != nil {
			handler(r)
			return
		}
		logger.Errorw("Worker panic recovered", "pool", p.name, "panic", r)
	}))

	return opts
}

// Name 返回池名称
func (p *Pool) Name() string {
	return p.name
}

// Submit 提交任务到池中执行
func (p *Pool) Submit(task func()) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}

	err := p.pool.Submit(func() {
		task()
		p.stats.completed.Add(1)
	})
	if err != nil {
		if errors.Is(err, ants.ErrPoolOverload) {
			p.stats.rejected.Add(1)
			return ErrPoolOverload
		}
		if errors.Is(err, ants.ErrPoolClosed) {
			return ErrPoolClosed
		}
		return err
	}

	p.stats.submitted.Add(1)
	return nil
}

// SubmitWithContext 提交带上下文的任务
// 如果上下文在任务开始前取消，任务不会执行
func (p *Pool) SubmitWithContext(ctx context.Context, task func(ctx context.Context)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return p.Submit(func() {
		if ctx.Err() != nil {
			return
		}
		task(ctx)
	})
}

// ReleaseTimeout 关闭池，等待运行中的任务完成直到超时
func (p *Pool) ReleaseTimeout(timeout time.Duration) error {
	p.closedMu.Lock()
	defer p.closedMu.Unlock()

	if p.closed.Load() {
		return nil
	}

	p.closed.Store(true)
	err := p.pool.ReleaseTimeout(timeout)
	logger.Infow("Worker pool released", "name", p.name, "error", err)
	return err
}

// Stats 返回池统计信息快照
func (p *Pool) Stats() Stats {
	return Stats{
		Name:      p.name,
		Capacity:  p.pool.Cap(),
		Running:   p.pool.Running(),
		Waiting:   p.pool.Waiting(),
		Submitted: p.stats.submitted.Load(),
		Completed: p.stats.completed.Load(),
		Rejected:  p.stats.rejected.Load(),
		Panics:    p.stats.panics.Load(),
	}
}

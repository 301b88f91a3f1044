package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewPool_InvalidConfig(t *testing.T) {
	if _, err := NewPool("bad", nil); !errors.Is(err, ErrInvalidPoolConfig) {
		t.Fatalf("期望 ErrInvalidPoolConfig, 实际 %v", err)
	}
	if _, err := NewPool("bad", &Config{}); !errors.Is(err, ErrInvalidPoolConfig) {
		t.Fatalf("期望 ErrInvalidPoolConfig, 实际 %v", err)
	}
}

func TestPoolSubmit(t *testing.T) {
	p, err := NewPool("test", IngestionPoolConfig(4))
	if err != nil {
		t.Fatalf("创建池失败: %v", err)
	}
	defer p.ReleaseTimeout(time.Second)

	var counter atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		if err := p.Submit(func() {
			defer wg.Done()
			counter.Add(1)
		}); err != nil {
			t.Errorf("提交任务失败: %v", err)
			wg.Done()
		}
	}
	wg.Wait()

	if counter.Load() != 50 {
		t.Errorf("任务执行数不匹配: 期望 50, 实际 %d", counter.Load())
	}
	if s := p.Stats(); s.Submitted != 50 {
		t.Errorf("提交数不匹配: 期望 50, 实际 %d", s.Submitted)
	}
}

func TestPoolNonblockingOverload(t *testing.T) {
	p, err := NewPool("eval", EvaluationPoolConfig(1))
	if err != nil {
		t.Fatalf("创建池失败: %v", err)
	}
	defer p.ReleaseTimeout(time.Second)

	release := make(chan struct{})
	started := make(chan struct{})
	if err := p.Submit(func() {
		close(started)
		<-release
	}); err != nil {
		t.Fatalf("提交任务失败: %v", err)
	}
	<-started

	if err := p.Submit(func() {}); !errors.Is(err, ErrPoolOverload) {
		t.Errorf("期望 ErrPoolOverload, 实际 %v", err)
	}
	close(release)

	if s := p.Stats(); s.Rejected != 1 {
		t.Errorf("拒绝数不匹配: 期望 1, 实际 %d", s.Rejected)
	}
}

func TestPoolSubmitWithContext_Cancelled(t *testing.T) {
	p, err := NewPool("test", IngestionPoolConfig(2))
	if err != nil {
		t.Fatalf("创建池失败: %v", err)
	}
	defer p.ReleaseTimeout(time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := p.SubmitWithContext(ctx, func(context.Context) {
		t.Error("已取消的任务不应执行")
	}); !errors.Is(err, context.Canceled) {
		t.Errorf("期望 context.Canceled, 实际 %v", err)
	}
}

func TestPoolPanicHandler(t *testing.T) {
	recovered := make(chan any, 1)
	cfg := IngestionPoolConfig(1)
	cfg.PanicHandler = func(r any) { recovered <- r }

	p, err := NewPool("panic", cfg)
	if err != nil {
		t.Fatalf("创建池失败: %v", err)
	}
	defer p.ReleaseTimeout(time.Second)

	_ = p.Submit(func() { panic("boom") })

	select {
	case r := <-recovered:
		if r != "boom" {
			t.Errorf("panic 值不匹配: %v", r)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("未捕获 panic")
	}
}

func TestPoolClosed(t *testing.T) {
	p, err := NewPool("closed", IngestionPoolConfig(1))
	if err != nil {
		t.Fatalf("创建池失败: %v", err)
	}
	if err := p.ReleaseTimeout(time.Second); err != nil {
		t.Fatalf("关闭池失败: %v", err)
	}
	if err := p.Submit(func() {}); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("期望 ErrPoolClosed, 实际 %v", err)
	}
}

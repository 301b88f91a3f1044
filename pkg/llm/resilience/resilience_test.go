package resilience

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/evorag/pkg/llm"
)

func fastRetry(attempts int) *RetryConfig {
	return &RetryConfig{MaxAttempts: attempts, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}
}

func TestBreaker_OpensAndRecovers(t *testing.T) {
	b := NewBreaker("test", &BreakerConfig{MaxFailures: 2, OpenTimeout: time.Minute, HalfOpenMaxCalls: 1})
	now := time.Now()
	b.now = func() time.Time { return now }

	boom := errors.New("boom")
	_ = b.Execute(func() error { return boom })
	assert.Equal(t, StateClosed, b.State())
	_ = b.Execute(func() error { return boom })
	assert.Equal(t, StateOpen, b.State())

	// 打开状态拒绝调用
	called := false
	err := b.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)

	// 超时后半开，探测成功则关闭
	now = now.Add(2 * time.Minute)
	require.NoError(t, b.Execute(func() error { return nil }))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	b := NewBreaker("test", &BreakerConfig{MaxFailures: 1, OpenTimeout: time.Minute, HalfOpenMaxCalls: 1})
	now := time.Now()
	b.now = func() time.Time { return now }

	_ = b.Execute(func() error { return errors.New("x") })
	require.Equal(t, StateOpen, b.State())

	now = now.Add(2 * time.Minute)
	_ = b.Execute(func() error { return errors.New("still down") })
	assert.Equal(t, StateOpen, b.State())
}

func TestRetry(t *testing.T) {
	tests := []struct {
		name      string
		errs      []error
		wantCalls int
		wantErr   bool
	}{
		{"首次成功", []error{nil}, 1, false},
		{"5xx 后成功", []error{&llm.StatusError{StatusCode: 503}, nil}, 2, false},
		{"4xx 不重试", []error{&llm.StatusError{StatusCode: 400}}, 1, true},
		{"次数耗尽", []error{
			&llm.StatusError{StatusCode: 500},
			&llm.StatusError{StatusCode: 500},
			&llm.StatusError{StatusCode: 500},
		}, 3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Retry(context.Background(), fastRetry(3), func() error {
				e := tt.errs[calls]
				calls++
				return e
			})
			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := &RetryConfig{MaxAttempts: 5, InitialDelay: time.Hour, Multiplier: 1}

	calls := 0
	err := Retry(ctx, cfg, func() error {
		calls++
		cancel()
		return &llm.StatusError{StatusCode: http.StatusBadGateway}
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(ErrCircuitOpen))
	assert.False(t, IsRetryable(context.DeadlineExceeded))
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.True(t, IsRetryable(&llm.StatusError{StatusCode: 429}))
}

type flakyChat struct {
	failures int
	calls    int
}

func (f *flakyChat) Generate(context.Context, string, string) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", &llm.StatusError{StatusCode: 503}
	}
	return "answer", nil
}

func (f *flakyChat) GenerateJSON(ctx context.Context, p string) (string, error) {
	return f.Generate(ctx, p, "")
}

func (f *flakyChat) Name() string { return "flaky" }

func TestWrapChat(t *testing.T) {
	inner := &flakyChat{failures: 2}
	w := WrapChat(inner, &Config{Retry: fastRetry(3), RateLimit: 1000})

	out, err := w.GenerateJSON(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "answer", out)
	assert.Equal(t, 3, inner.calls)
	assert.Equal(t, StateClosed, w.BreakerState())
	assert.Equal(t, "flaky", w.Name())
}

package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/evorag/pkg/llm"
)

// RetryConfig 重试配置。
type RetryConfig struct {
	// MaxAttempts 最大尝试次数（包括首次调用）。
	MaxAttempts int
	// InitialDelay 初始延迟。
	InitialDelay time.Duration
	// MaxDelay 最大延迟。
	MaxDelay time.Duration
	// Multiplier 指数退避倍数。
	Multiplier float64
	// Retryable 判断错误是否可重试，为空时使用 IsRetryable。
	Retryable func(error) bool
}

// DefaultRetryConfig 返回默认重试配置。
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
	}
}

// Retry 使用指数退避执行 fn，直到成功、不可重试或次数耗尽。
func Retry(ctx context.Context, config *RetryConfig, fn func() error) error {
	if config == nil {
		config = DefaultRetryConfig()
	}
	retryable := config.Retryable
	if retryable == nil {
		retryable = IsRetryable
	}
	attempts := max(config.MaxAttempts, 1)

	delay := config.InitialDelay
	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		if attempt >= attempts {
			return fmt.Errorf("max retry attempts (%d) reached: %w", attempts, err)
		}

		logger.Debugw("retrying after delay", "attempt", attempt, "delay", delay, "error", err.Error())

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(err, ctx.Err())
		case <-timer.C:
		}

		delay = time.Duration(float64(delay) * config.Multiplier)
		if config.MaxDelay > 0 && delay > config.MaxDelay {
			delay = config.MaxDelay
		}
	}
}

// IsRetryable 判断错误是否可重试。
// 可重试：网络错误、429/408/5xx。不可重试：熔断、上下文取消、其他 4xx。
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrCircuitOpen) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var se *llm.StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

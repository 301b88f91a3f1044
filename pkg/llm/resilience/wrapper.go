package resilience

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/kart-io/evorag/pkg/llm"
)

// Config 组合重试、熔断和限流配置。
type Config struct {
	Retry   *RetryConfig
	Breaker *BreakerConfig
	// RateLimit 每秒请求数，0 表示不限流。
	RateLimit float64
}

// policy 按 限流 -> 熔断 -> 调用 的顺序执行，外层重试。
type policy struct {
	retry   *RetryConfig
	breaker *Breaker
	limiter *rate.Limiter
}

func newPolicy(name string, cfg *Config) *policy {
	if cfg == nil {
		cfg = &Config{}
	}
	p := &policy{
		retry:   cfg.Retry,
		breaker: NewBreaker(name, cfg.Breaker),
	}
	if p.retry == nil {
		p.retry = DefaultRetryConfig()
	}
	if cfg.RateLimit > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), max(int(cfg.RateLimit), 1))
	}
	return p
}

func (p *policy) do(ctx context.Context, fn func() error) error {
	return Retry(ctx, p.retry, func() error {
		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		return p.breaker.Execute(fn)
	})
}

// EmbeddingProvider 带韧性功能的 Embedding Provider 包装器。
type EmbeddingProvider struct {
	provider llm.EmbeddingProvider
	policy   *policy
}

// WrapEmbedding 包装 Embedding Provider。
func WrapEmbedding(provider llm.EmbeddingProvider, cfg *Config) *EmbeddingProvider {
	return &EmbeddingProvider{provider: provider, policy: newPolicy(provider.Name()+"-embed", cfg)}
}

// Embed 为多个文本生成向量嵌入。
func (r *EmbeddingProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	err := r.policy.do(ctx, func() error {
		var err error
		out, err = r.provider.Embed(ctx, texts)
		return err
	})
	return out, err
}

// EmbedSingle 为单个文本生成向量嵌入。
func (r *EmbeddingProvider) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	err := r.policy.do(ctx, func() error {
		var err error
		out, err = r.provider.EmbedSingle(ctx, text)
		return err
	})
	return out, err
}

// Name 返回底层供应商名称。
func (r *EmbeddingProvider) Name() string { return r.provider.Name() }

// BreakerState 返回熔断器状态。
func (r *EmbeddingProvider) BreakerState() State { return r.policy.breaker.State() }

// ChatProvider 带韧性功能的 Chat Provider 包装器。
type ChatProvider struct {
	provider llm.ChatProvider
	policy   *policy
}

// WrapChat 包装 Chat Provider。
func WrapChat(provider llm.ChatProvider, cfg *Config) *ChatProvider {
	return &ChatProvider{provider: provider, policy: newPolicy(provider.Name()+"-chat", cfg)}
}

// Generate 根据提示生成文本。
func (r *ChatProvider) Generate(ctx context.Context, prompt string, systemPrompt string) (string, error) {
	var out string
	err := r.policy.do(ctx, func() error {
		var err error
		out, err = r.provider.Generate(ctx, prompt, systemPrompt)
		return err
	})
	return out, err
}

// GenerateJSON 以结构化模式生成。
func (r *ChatProvider) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	var out string
	err := r.policy.do(ctx, func() error {
		var err error
		out, err = r.provider.GenerateJSON(ctx, prompt)
		return err
	})
	return out, err
}

// Name 返回底层供应商名称。
func (r *ChatProvider) Name() string { return r.provider.Name() }

// BreakerState 返回熔断器状态。
func (r *ChatProvider) BreakerState() State { return r.policy.breaker.State() }

var (
	_ llm.EmbeddingProvider = (*EmbeddingProvider)(nil)
	_ llm.ChatProvider      = (*ChatProvider)(nil)
)

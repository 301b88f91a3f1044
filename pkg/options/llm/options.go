// Package llm provides LLM provider configuration options.
package llm

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/evorag/pkg/options"
)

var _ options.IOptions = (*ProviderOptions)(nil)

// ProviderOptions 定义 LLM 供应商配置。
type ProviderOptions struct {
	// Provider 供应商名称（ollama, gemini, openai）。
	Provider string `json:"provider" mapstructure:"provider"`

	// BaseURL API 基础地址，为空时使用供应商默认值。
	BaseURL string `json:"base-url" mapstructure:"base-url"`

	// APIKey API 密钥（gemini、openai 需要）。
	APIKey string `json:"-" mapstructure:"api-key"`

	// Model 使用的模型名称。
	Model string `json:"model" mapstructure:"model"`

	// Timeout 请求超时时间。
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// MaxRetries 最大重试次数。
	MaxRetries int `json:"max-retries" mapstructure:"max-retries"`

	// RateLimit 每秒请求数上限，0 表示不限流。
	RateLimit float64 `json:"rate-limit" mapstructure:"rate-limit"`

	// Organization 组织 ID（OpenAI 可选）。
	Organization string `json:"organization" mapstructure:"organization"`
}

// NewEmbeddingOptions 创建默认 Embedding 供应商配置。
func NewEmbeddingOptions() *ProviderOptions {
	return &ProviderOptions{
		Provider:   "ollama",
		BaseURL:    "http://localhost:11434",
		Model:      "embeddinggemma",
		Timeout:    120 * time.Second,
		MaxRetries: 3,
	}
}

// NewRewriteOptions 创建查询重写模型配置，使用轻量模型。
func NewRewriteOptions() *ProviderOptions {
	return newGeminiOptions("gemini-flash-lite-latest", 30*time.Second)
}

// NewSynthesisOptions 创建答案生成模型配置。
func NewSynthesisOptions() *ProviderOptions {
	return newGeminiOptions("gemini-flash-latest", 60*time.Second)
}

// NewJudgeOptions 创建评估模型配置，使用高能力模型。
func NewJudgeOptions() *ProviderOptions {
	return newGeminiOptions("gemini-2.5-pro", 120*time.Second)
}

func newGeminiOptions(model string, timeout time.Duration) *ProviderOptions {
	return &ProviderOptions{
		Provider:   "gemini",
		Model:      model,
		Timeout:    timeout,
		MaxRetries: 3,
	}
}

// ToConfigMap 转换为配置 map，用于供应商工厂。
func (o *ProviderOptions) ToConfigMap() map[string]any {
	return map[string]any{
		"base_url":     o.BaseURL,
		"api_key":      o.APIKey,
		"embed_model":  o.Model,
		"chat_model":   o.Model,
		"timeout":      o.Timeout,
		"max_retries":  o.MaxRetries,
		"organization": o.Organization,
	}
}

// AddFlags adds flags for LLM provider options to the specified FlagSet.
// The caller passes the role name (embedding, rewrite, synthesis, judge) as prefix.
func (o *ProviderOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...)
	fs.StringVar(&o.Provider, p+"provider", o.Provider, "LLM provider (ollama, gemini, openai).")
	fs.StringVar(&o.BaseURL, p+"base-url", o.BaseURL, "LLM API base URL.")
	fs.StringVar(&o.APIKey, p+"api-key", o.APIKey, "LLM API key.")
	fs.StringVar(&o.Model, p+"model", o.Model, "LLM model name.")
	fs.DurationVar(&o.Timeout, p+"timeout", o.Timeout, "LLM request timeout.")
	fs.IntVar(&o.MaxRetries, p+"max-retries", o.MaxRetries, "LLM maximum number of retries.")
	fs.Float64Var(&o.RateLimit, p+"rate-limit", o.RateLimit, "LLM requests per second, 0 disables limiting.")
	fs.StringVar(&o.Organization, p+"organization", o.Organization, "LLM organization ID (optional).")
}

// Validate validates the LLM provider options.
func (o *ProviderOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.Provider == "" {
		errs = append(errs, fmt.Errorf("provider is required"))
	}
	if o.Model == "" {
		errs = append(errs, fmt.Errorf("model is required"))
	}
	if (o.Provider == "openai" || o.Provider == "gemini") && o.APIKey == "" {
		errs = append(errs, fmt.Errorf("api-key is required for %s provider", o.Provider))
	}
	if o.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive"))
	}
	if o.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("rate-limit must not be negative"))
	}
	return errs
}

// Complete completes the LLM provider options with defaults.
// Hosted providers fall back to the conventional API key variables.
func (o *ProviderOptions) Complete() error {
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	if o.APIKey == "" {
		switch o.Provider {
		case "gemini":
			o.APIKey = os.Getenv("GOOGLE_API_KEY")
		case "openai":
			o.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}
	return nil
}

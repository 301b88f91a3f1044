// Package options contains flags and options for initializing the EvoRAG server.
package options

import (
	"fmt"
	"time"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/evorag/internal/evorag"
	"github.com/kart-io/evorag/pkg/app/cliflag"
	"github.com/kart-io/evorag/pkg/infra/tracing"
	cacheopts "github.com/kart-io/evorag/pkg/options/cache"
	evalopts "github.com/kart-io/evorag/pkg/options/evaluation"
	httpopts "github.com/kart-io/evorag/pkg/options/http"
	llmopts "github.com/kart-io/evorag/pkg/options/llm"
	logopts "github.com/kart-io/evorag/pkg/options/logger"
	milvusopts "github.com/kart-io/evorag/pkg/options/milvus"
	mongoopts "github.com/kart-io/evorag/pkg/options/mongodb"
	ragopts "github.com/kart-io/evorag/pkg/options/rag"
	registryopts "github.com/kart-io/evorag/pkg/options/registry"
)

// ServerOptions contains the configuration options for the server.
type ServerOptions struct {
	// HTTPOptions contains HTTP server configuration.
	HTTPOptions *httpopts.Options `json:"http" mapstructure:"http"`

	// LogOptions contains logger configuration.
	LogOptions *logopts.Options `json:"log" mapstructure:"log"`

	// TracingOptions contains OpenTelemetry configuration.
	TracingOptions *tracing.Options `json:"tracing" mapstructure:"tracing"`

	// MilvusOptions contains Milvus database configuration.
	MilvusOptions *milvusopts.Options `json:"milvus" mapstructure:"milvus"`

	// EmbeddingOptions contains embedding provider configuration.
	EmbeddingOptions *llmopts.ProviderOptions `json:"embedding" mapstructure:"embedding"`

	// RewriteOptions contains the query rewrite model configuration.
	RewriteOptions *llmopts.ProviderOptions `json:"rewrite" mapstructure:"rewrite"`

	// SynthesisOptions contains the answer model configuration.
	SynthesisOptions *llmopts.ProviderOptions `json:"synthesis" mapstructure:"synthesis"`

	// JudgeOptions contains the evaluation model configuration.
	JudgeOptions *llmopts.ProviderOptions `json:"judge" mapstructure:"judge"`

	// RAGOptions contains RAG-specific configuration.
	RAGOptions *ragopts.Options `json:"rag" mapstructure:"rag"`

	// CacheOptions contains cache configuration.
	CacheOptions *cacheopts.Options `json:"cache" mapstructure:"cache"`

	// RegistryOptions contains document registry configuration.
	RegistryOptions *registryopts.Options `json:"registry" mapstructure:"registry"`

	// EvaluationOptions contains judge queue and sink configuration.
	EvaluationOptions *evalopts.Options `json:"evaluation" mapstructure:"evaluation"`

	// MongoOptions is used by the mongodb evaluation sink.
	MongoOptions *mongoopts.Options `json:"mongodb" mapstructure:"mongodb"`

	// ShutdownTimeout is the timeout for graceful shutdown.
	ShutdownTimeout time.Duration `json:"shutdown-timeout" mapstructure:"shutdown-timeout"`
}

// NewServerOptions creates a ServerOptions instance with default values.
func NewServerOptions() *ServerOptions {
	return &ServerOptions{
		HTTPOptions:       httpopts.NewOptions(),
		LogOptions:        logopts.NewOptions(),
		TracingOptions:    tracing.NewOptions(),
		MilvusOptions:     milvusopts.NewOptions(),
		EmbeddingOptions:  llmopts.NewEmbeddingOptions(),
		RewriteOptions:    llmopts.NewRewriteOptions(),
		SynthesisOptions:  llmopts.NewSynthesisOptions(),
		JudgeOptions:      llmopts.NewJudgeOptions(),
		RAGOptions:        ragopts.NewOptions(),
		CacheOptions:      cacheopts.NewOptions(),
		RegistryOptions:   registryopts.NewOptions(),
		EvaluationOptions: evalopts.NewOptions(),
		MongoOptions:      mongoopts.NewOptions(),
		ShutdownTimeout:   30 * time.Second,
	}
}

// Flags returns flags for a specific server by section name.
func (o *ServerOptions) Flags() (fss cliflag.NamedFlagSets) {
	o.HTTPOptions.AddFlags(fss.FlagSet("http"))
	o.LogOptions.AddFlags(fss.FlagSet("log"))
	o.TracingOptions.AddFlags(fss.FlagSet("tracing"))
	o.MilvusOptions.AddFlags(fss.FlagSet("milvus"))
	o.EmbeddingOptions.AddFlags(fss.FlagSet("embedding"), "embedding")
	o.RewriteOptions.AddFlags(fss.FlagSet("rewrite"), "rewrite")
	o.SynthesisOptions.AddFlags(fss.FlagSet("synthesis"), "synthesis")
	o.JudgeOptions.AddFlags(fss.FlagSet("judge"), "judge")
	o.RAGOptions.AddFlags(fss.FlagSet("rag"))
	o.CacheOptions.AddFlags(fss.FlagSet("cache"))
	o.RegistryOptions.AddFlags(fss.FlagSet("registry"))
	o.EvaluationOptions.AddFlags(fss.FlagSet("evaluation"))
	o.MongoOptions.AddFlags(fss.FlagSet("mongodb"))

	// misc flags
	fs := fss.FlagSet("misc")
	fs.DurationVar(&o.ShutdownTimeout, "shutdown-timeout", o.ShutdownTimeout, "Graceful shutdown timeout")

	return fss
}

// Complete completes all the required options.
func (o *ServerOptions) Complete() error {
	for role, p := range map[string]*llmopts.ProviderOptions{
		"embedding": o.EmbeddingOptions,
		"rewrite":   o.RewriteOptions,
		"synthesis": o.SynthesisOptions,
		"judge":     o.JudgeOptions,
	} {
		if err := p.Complete(); err != nil {
			return fmt.Errorf("%s: %w", role, err)
		}
	}
	if err := o.CacheOptions.Complete(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if o.EvaluationOptions.HasSink(evalopts.SinkMongo) {
		if err := o.MongoOptions.Complete(); err != nil {
			return fmt.Errorf("mongodb: %w", err)
		}
	}
	return nil
}

// Validate checks whether the options in ServerOptions are valid.
func (o *ServerOptions) Validate() error {
	errs := []error{}

	errs = append(errs, o.HTTPOptions.Validate()...)
	errs = append(errs, o.LogOptions.Validate()...)
	errs = append(errs, o.TracingOptions.Validate()...)
	errs = append(errs, o.MilvusOptions.Validate()...)
	errs = append(errs, prefixed("embedding", o.EmbeddingOptions.Validate())...)
	errs = append(errs, prefixed("rewrite", o.RewriteOptions.Validate())...)
	errs = append(errs, prefixed("synthesis", o.SynthesisOptions.Validate())...)
	if o.EvaluationOptions.Enabled {
		errs = append(errs, prefixed("judge", o.JudgeOptions.Validate())...)
	}
	errs = append(errs, prefixed("rag", o.RAGOptions.Validate())...)
	errs = append(errs, o.CacheOptions.Validate()...)
	errs = append(errs, o.RegistryOptions.Validate()...)
	errs = append(errs, o.EvaluationOptions.Validate()...)
	if o.EvaluationOptions.Enabled && o.EvaluationOptions.HasSink(evalopts.SinkMongo) {
		errs = append(errs, o.MongoOptions.Validate()...)
	}
	if o.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("shutdown-timeout must be positive"))
	}

	return utilerrors.NewAggregate(errs)
}

func prefixed(prefix string, errs []error) []error {
	for i, err := range errs {
		errs[i] = fmt.Errorf("%s: %w", prefix, err)
	}
	return errs
}

// Config builds an evorag.Config based on ServerOptions.
func (o *ServerOptions) Config() (*evorag.Config, error) {
	return &evorag.Config{
		HTTPOptions:       o.HTTPOptions,
		LogOptions:        o.LogOptions,
		TracingOptions:    o.TracingOptions,
		MilvusOptions:     o.MilvusOptions,
		EmbeddingOptions:  o.EmbeddingOptions,
		RewriteOptions:    o.RewriteOptions,
		SynthesisOptions:  o.SynthesisOptions,
		JudgeOptions:      o.JudgeOptions,
		RAGOptions:        o.RAGOptions,
		CacheOptions:      o.CacheOptions,
		RegistryOptions:   o.RegistryOptions,
		EvaluationOptions: o.EvaluationOptions,
		MongoOptions:      o.MongoOptions,
		ShutdownTimeout:   o.ShutdownTimeout,
	}, nil
}

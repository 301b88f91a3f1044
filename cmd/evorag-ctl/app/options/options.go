// Package options contains flags and options for the EvoRAG maintenance CLI.
package options

import (
	"fmt"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/evorag/internal/evorag"
	"github.com/kart-io/evorag/pkg/app/cliflag"
	"github.com/kart-io/evorag/pkg/infra/tracing"
	cacheopts "github.com/kart-io/evorag/pkg/options/cache"
	llmopts "github.com/kart-io/evorag/pkg/options/llm"
	logopts "github.com/kart-io/evorag/pkg/options/logger"
	milvusopts "github.com/kart-io/evorag/pkg/options/milvus"
	ragopts "github.com/kart-io/evorag/pkg/options/rag"
	registryopts "github.com/kart-io/evorag/pkg/options/registry"
)

// CtlOptions holds what the ingestion side needs. It reads the same
// configuration file as the server.
type CtlOptions struct {
	LogOptions       *logopts.Options         `json:"log" mapstructure:"log"`
	TracingOptions   *tracing.Options         `json:"tracing" mapstructure:"tracing"`
	MilvusOptions    *milvusopts.Options      `json:"milvus" mapstructure:"milvus"`
	EmbeddingOptions *llmopts.ProviderOptions `json:"embedding" mapstructure:"embedding"`
	RAGOptions       *ragopts.Options         `json:"rag" mapstructure:"rag"`
	CacheOptions     *cacheopts.Options       `json:"cache" mapstructure:"cache"`
	RegistryOptions  *registryopts.Options    `json:"registry" mapstructure:"registry"`
}

// NewCtlOptions creates a CtlOptions instance with default values.
func NewCtlOptions() *CtlOptions {
	logOpts := logopts.NewOptions()
	logOpts.Level = "WARN"

	return &CtlOptions{
		LogOptions:       logOpts,
		TracingOptions:   tracing.NewOptions(),
		MilvusOptions:    milvusopts.NewOptions(),
		EmbeddingOptions: llmopts.NewEmbeddingOptions(),
		RAGOptions:       ragopts.NewOptions(),
		CacheOptions:     cacheopts.NewOptions(),
		RegistryOptions:  registryopts.NewOptions(),
	}
}

// Flags returns flags grouped by section name.
func (o *CtlOptions) Flags() (fss cliflag.NamedFlagSets) {
	o.LogOptions.AddFlags(fss.FlagSet("log"))
	o.TracingOptions.AddFlags(fss.FlagSet("tracing"))
	o.MilvusOptions.AddFlags(fss.FlagSet("milvus"))
	o.EmbeddingOptions.AddFlags(fss.FlagSet("embedding"), "embedding")
	o.RAGOptions.AddFlags(fss.FlagSet("rag"))
	o.CacheOptions.AddFlags(fss.FlagSet("cache"))
	o.RegistryOptions.AddFlags(fss.FlagSet("registry"))
	return fss
}

// Complete completes all the required options.
func (o *CtlOptions) Complete() error {
	if err := o.EmbeddingOptions.Complete(); err != nil {
		return fmt.Errorf("embedding: %w", err)
	}
	if err := o.CacheOptions.Complete(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	return nil
}

// Validate checks whether the options are valid.
func (o *CtlOptions) Validate() error {
	var errs []error
	errs = append(errs, o.LogOptions.Validate()...)
	errs = append(errs, o.TracingOptions.Validate()...)
	errs = append(errs, o.MilvusOptions.Validate()...)
	errs = append(errs, prefixed("embedding", o.EmbeddingOptions.Validate())...)
	errs = append(errs, prefixed("rag", o.RAGOptions.Validate())...)
	errs = append(errs, o.CacheOptions.Validate()...)
	errs = append(errs, o.RegistryOptions.Validate()...)
	return utilerrors.NewAggregate(errs)
}

// Config builds an evorag.Config for the ingestion side.
func (o *CtlOptions) Config() *evorag.Config {
	return &evorag.Config{
		LogOptions:       o.LogOptions,
		TracingOptions:   o.TracingOptions,
		MilvusOptions:    o.MilvusOptions,
		EmbeddingOptions: o.EmbeddingOptions,
		RAGOptions:       o.RAGOptions,
		CacheOptions:     o.CacheOptions,
		RegistryOptions:  o.RegistryOptions,
	}
}

func prefixed(prefix string, errs []error) []error {
	for i, err := range errs {
		errs[i] = fmt.Errorf("%s: %w", prefix, err)
	}
	return errs
}

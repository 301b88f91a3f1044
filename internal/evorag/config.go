// Package evorag assembles the EvoRAG service from its options.
package evorag

import (
	"time"

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

// Name is the name of the application.
const Name = "evorag"

// Config contains application-related configurations.
type Config struct {
	HTTPOptions       *httpopts.Options
	LogOptions        *logopts.Options
	TracingOptions    *tracing.Options
	MilvusOptions     *milvusopts.Options
	EmbeddingOptions  *llmopts.ProviderOptions
	RewriteOptions    *llmopts.ProviderOptions
	SynthesisOptions  *llmopts.ProviderOptions
	JudgeOptions      *llmopts.ProviderOptions
	RAGOptions        *ragopts.Options
	CacheOptions      *cacheopts.Options
	RegistryOptions   *registryopts.Options
	EvaluationOptions *evalopts.Options
	MongoOptions      *mongoopts.Options
	ShutdownTimeout   time.Duration
}

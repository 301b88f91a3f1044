package evorag

import (
	"context"
	"errors"
	"fmt"

	"github.com/kart-io/logger"
	"github.com/kart-io/version"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kart-io/evorag/internal/evorag/biz"
	"github.com/kart-io/evorag/internal/evorag/convert"
	"github.com/kart-io/evorag/internal/evorag/evaluation"
	"github.com/kart-io/evorag/internal/evorag/metrics"
	"github.com/kart-io/evorag/internal/evorag/registry"
	"github.com/kart-io/evorag/internal/evorag/store"
	"github.com/kart-io/evorag/pkg/component"
	"github.com/kart-io/evorag/pkg/component/database"
	"github.com/kart-io/evorag/pkg/component/milvus"
	"github.com/kart-io/evorag/pkg/component/mongodb"
	"github.com/kart-io/evorag/pkg/component/redis"
	"github.com/kart-io/evorag/pkg/infra/tracing"
	"github.com/kart-io/evorag/pkg/llm"
	// 导入 LLM 供应商以自动注册
	_ "github.com/kart-io/evorag/pkg/llm/gemini"
	_ "github.com/kart-io/evorag/pkg/llm/ollama"
	_ "github.com/kart-io/evorag/pkg/llm/openai"
	"github.com/kart-io/evorag/pkg/llm/resilience"
	evalopts "github.com/kart-io/evorag/pkg/options/evaluation"
	llmopts "github.com/kart-io/evorag/pkg/options/llm"
)

// Components holds the wired pipelines and the clients they depend on.
type Components struct {
	Metrics      *metrics.Metrics
	Converter    *convert.Registry
	Ingestion    *biz.IngestionPipeline
	Orchestrator *biz.Orchestrator
	Registry     *registry.Store
	Queue        evaluation.Queue
	Checkers     []component.Checker

	redis    *goredis.Client
	embedder llm.EmbeddingProvider
	store    store.VectorStore
	closers  []namedCloser
}

type namedCloser struct {
	name  string
	close func(ctx context.Context) error
}

func (c *Components) onClose(name string, fn func(ctx context.Context) error) {
	c.closers = append(c.closers, namedCloser{name: name, close: fn})
}

// Close releases everything in reverse order of creation.
func (c *Components) Close(ctx context.Context) error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		nc := c.closers[i]
		if err := nc.close(ctx); err != nil {
			logger.Warnw("Failed to close component", "component", nc.name, "error", err.Error())
			errs = append(errs, fmt.Errorf("%s: %w", nc.name, err))
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

// InitLogger initializes the global logger with service fields.
func (cfg *Config) InitLogger() error {
	cfg.LogOptions.AddInitialField("service.name", Name)
	cfg.LogOptions.AddInitialField("service.version", version.Get().GitVersion)
	if err := cfg.LogOptions.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// BuildIngestion wires the ingestion side only: vector store, embedder,
// registry and the ingestion pipeline. The caller must Close the result.
func (cfg *Config) BuildIngestion(ctx context.Context) (_ *Components, err error) {
	c := &Components{Metrics: metrics.Global(), Converter: convert.DefaultRegistry()}
	defer func() {
		if err != nil {
			_ = c.Close(context.WithoutCancel(ctx))
		}
	}()

	// 1. 初始化链路追踪
	tp, err := tracing.NewProvider(ctx, cfg.TracingOptions, version.Get().GitVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	c.onClose("tracing", tp.Shutdown)

	// 2. 初始化 Milvus 客户端
	milvusClient, err := milvus.New(ctx, cfg.MilvusOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize milvus: %w", err)
	}
	c.onClose("milvus", milvusClient.Close)
	c.Checkers = append(c.Checkers, milvusClient)
	logger.Infow("Milvus client initialized", "address", cfg.MilvusOptions.Address)

	// 3. 初始化 Redis 客户端（缓存与任务队列）
	if err := cfg.initRedis(ctx, c); err != nil {
		return nil, err
	}

	// 4. 初始化 Embedding 供应商
	embedder, err := cfg.newEmbedder(c)
	if err != nil {
		return nil, err
	}

	// 5. 初始化文档登记表
	db, err := database.New(ctx, cfg.RegistryOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize registry database: %w", err)
	}
	c.onClose("registry", func(context.Context) error { return db.Close() })
	c.Checkers = append(c.Checkers, db)
	c.Registry = registry.New(db.DB())
	if cfg.RegistryOptions.AutoMigrate {
		if err := c.Registry.AutoMigrate(ctx); err != nil {
			return nil, fmt.Errorf("failed to migrate registry: %w", err)
		}
	}
	logger.Infow("Document registry initialized", "driver", cfg.RegistryOptions.Driver)

	// 6. 初始化入库流水线
	c.embedder = embedder
	c.store = store.NewMilvusStore(milvusClient)
	chunker := biz.NewChunker(&biz.ChunkerConfig{
		MinWords:         cfg.RAGOptions.MinChunkWords,
		MaxWords:         cfg.RAGOptions.MaxChunkWords,
		AddContextPrefix: cfg.RAGOptions.AddContextPrefix,
	})
	c.Ingestion, err = biz.NewIngestionPipeline(ctx,
		c.Converter,
		chunker,
		c.embedder,
		c.store,
		&biz.IngestionConfig{
			Collection: cfg.RAGOptions.Collection,
			Dimension:  cfg.RAGOptions.EmbeddingDim,
			BatchSize:  cfg.RAGOptions.BatchSize,
		},
		biz.WithRegistry(c.Registry),
		biz.WithIngestionMetrics(c.Metrics),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ingestion pipeline: %w", err)
	}
	logger.Infow("Ingestion pipeline initialized",
		"collection", cfg.RAGOptions.Collection,
		"embedding.provider", cfg.EmbeddingOptions.Provider,
		"embedding.model", cfg.EmbeddingOptions.Model,
	)
	return c, nil
}

// Build wires ingestion, the query orchestrator and the evaluation queue.
// The caller must Close the result.
func (cfg *Config) Build(ctx context.Context) (_ *Components, err error) {
	c, err := cfg.BuildIngestion(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = c.Close(context.WithoutCancel(ctx))
		}
	}()

	// 7. 初始化 Chat 供应商（重写、生成、评估三个角色）
	rewriter, err := newChat("rewrite", cfg.RewriteOptions)
	if err != nil {
		return nil, err
	}
	synthesizer, err := newChat("synthesis", cfg.SynthesisOptions)
	if err != nil {
		return nil, err
	}

	prompts, err := biz.LoadPrompts(cfg.RAGOptions.RewritePromptFile, cfg.RAGOptions.SynthesisPromptFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load prompts: %w", err)
	}

	opts := []biz.OrchestratorOption{biz.WithOrchestratorMetrics(c.Metrics)}

	// 8. 初始化评估队列
	if cfg.EvaluationOptions.Enabled {
		if err := cfg.initEvaluation(ctx, c); err != nil {
			return nil, err
		}
		opts = append(opts, biz.WithDispatcher(c.Queue))
	} else {
		logger.Info("Evaluation is disabled")
	}

	if c.redis != nil && cfg.CacheOptions.Enabled {
		opts = append(opts, biz.WithRewriteCache(
			biz.NewRedisRewriteCache(c.redis, cfg.CacheOptions.KeyPrefix+"rewrite:", cfg.CacheOptions.RewriteTTL)))
	}

	// 9. 初始化查询编排器
	c.Orchestrator = biz.NewOrchestrator(
		c.embedder,
		c.store,
		rewriter,
		synthesizer,
		prompts,
		&biz.OrchestratorConfig{
			Collection: cfg.RAGOptions.Collection,
			TopK:       cfg.RAGOptions.TopK,
		},
		opts...,
	)
	logger.Infow("Query orchestrator initialized",
		"rewrite.model", cfg.RewriteOptions.Model,
		"synthesis.model", cfg.SynthesisOptions.Model,
		"top_k", cfg.RAGOptions.TopK,
	)
	return c, nil
}

func (cfg *Config) initRedis(ctx context.Context, c *Components) error {
	eo := cfg.EvaluationOptions
	needBroker := eo != nil && eo.Enabled && eo.Backend == evalopts.BackendRedis
	if !cfg.CacheOptions.Enabled && !needBroker {
		logger.Info("Cache is disabled")
		return nil
	}

	client, err := redis.New(ctx, cfg.CacheOptions.Redis)
	if err != nil {
		if needBroker {
			return fmt.Errorf("failed to initialize redis task broker: %w", err)
		}
		logger.Warnw("Failed to connect to redis, cache will be disabled", "error", err.Error())
		return nil
	}
	c.onClose("redis", func(context.Context) error { return client.Close() })
	c.Checkers = append(c.Checkers, client)
	c.redis = client.Client()
	logger.Infow("Redis client initialized", "addr", cfg.CacheOptions.Redis.Addr())
	return nil
}

func (cfg *Config) newEmbedder(c *Components) (llm.EmbeddingProvider, error) {
	o := cfg.EmbeddingOptions
	provider, err := llm.NewEmbeddingProvider(o.Provider, o.ToConfigMap())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding provider: %w", err)
	}

	var embedder llm.EmbeddingProvider = resilience.WrapEmbedding(provider, resilienceConfig(o))
	if c.redis != nil && cfg.CacheOptions.Enabled {
		embedder = llm.NewCachedEmbeddingProvider(embedder, c.redis, &llm.EmbeddingCacheConfig{
			TTL:       cfg.CacheOptions.EmbeddingTTL,
			KeyPrefix: cfg.CacheOptions.KeyPrefix + "emb:",
		})
		logger.Infow("Embedding cache enabled", "ttl", cfg.CacheOptions.EmbeddingTTL.String())
	}
	logger.Infow("Embedding provider initialized", "provider", o.Provider, "model", o.Model)
	return embedder, nil
}

func newChat(role string, o *llmopts.ProviderOptions) (llm.ChatProvider, error) {
	provider, err := llm.NewChatProvider(o.Provider, o.ToConfigMap())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s provider: %w", role, err)
	}
	logger.Infow("Chat provider initialized", "role", role, "provider", o.Provider, "model", o.Model)
	return resilience.WrapChat(provider, resilienceConfig(o)), nil
}

func resilienceConfig(o *llmopts.ProviderOptions) *resilience.Config {
	retry := resilience.DefaultRetryConfig()
	retry.MaxAttempts = o.MaxRetries + 1
	return &resilience.Config{
		Retry:     retry,
		Breaker:   resilience.DefaultBreakerConfig(),
		RateLimit: o.RateLimit,
	}
}

func (cfg *Config) initEvaluation(ctx context.Context, c *Components) error {
	eo := cfg.EvaluationOptions

	// 评估记录输出
	var sinks evaluation.MultiSink
	if eo.HasSink(evalopts.SinkJSONL) {
		s, err := evaluation.NewJSONLSink(eo.LogFile)
		if err != nil {
			return fmt.Errorf("failed to open evaluation log: %w", err)
		}
		sinks = append(sinks, s)
		logger.Infow("JSONL evaluation sink initialized", "path", s.Path())
	}
	if eo.HasSink(evalopts.SinkMongo) {
		client, err := mongodb.New(ctx, cfg.MongoOptions)
		if err != nil {
			_ = sinks.Close()
			return fmt.Errorf("failed to initialize mongodb: %w", err)
		}
		c.onClose("mongodb", func(context.Context) error { return client.Close() })
		c.Checkers = append(c.Checkers, client)
		sinks = append(sinks, evaluation.NewMongoSink(client.Collection()))
		logger.Infow("MongoDB evaluation sink initialized", "collection", cfg.MongoOptions.Collection)
	}

	var sink evaluation.Sink = sinks
	if len(sinks) == 1 {
		sink = sinks[0]
	}
	c.onClose("evaluation-sink", func(context.Context) error { return sink.Close() })

	judgeChat, err := newChat("judge", cfg.JudgeOptions)
	if err != nil {
		return err
	}

	// 任务队列
	execCfg := evaluation.ExecutorConfig{
		MaxRetries:   eo.MaxRetries,
		RetryBackoff: eo.RetryBackoff,
		Timeout:      eo.JudgeTimeout,
	}
	var queue evaluation.Queue
	switch eo.Backend {
	case evalopts.BackendRedis:
		queue, err = evaluation.NewRedisQueue(c.redis, eo.RedisKey, eo.Workers, execCfg)
	default:
		queue, err = evaluation.NewPoolQueue(eo.Workers, execCfg)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize evaluation queue: %w", err)
	}

	queue.Register(evaluation.TaskJudgeAndLog,
		evaluation.NewJudgeAndLogHandler(evaluation.NewJudge(judgeChat), sink, c.Metrics))
	if err := queue.Start(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("failed to start evaluation queue: %w", err)
	}
	c.onClose("evaluation-queue", queue.Stop)
	c.Queue = queue

	logger.Infow("Evaluation queue started",
		"backend", eo.Backend,
		"workers", eo.Workers,
		"judge.model", cfg.JudgeOptions.Model,
	)
	return nil
}

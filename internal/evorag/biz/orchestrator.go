package biz

import (
	"context"
	"fmt"
	"strings"

	"github.com/kart-io/logger"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kart-io/evorag/internal/evorag/evaluation"
	"github.com/kart-io/evorag/internal/evorag/metrics"
	"github.com/kart-io/evorag/internal/evorag/store"
	"github.com/kart-io/evorag/internal/model"
	errno "github.com/kart-io/evorag/pkg/errors"
	"github.com/kart-io/evorag/pkg/infra/tracing"
	"github.com/kart-io/evorag/pkg/llm"
	"github.com/kart-io/evorag/pkg/utils/json"
)

// NoContextAnswer is returned without a model call when retrieval finds nothing.
const NoContextAnswer = "I could not find any relevant information in the provided documents to answer your question."

const errorAnswerPrefix = "An error occurred while generating the answer: "

// citationsMarker separates the answer body from its citation list.
const citationsMarker = "\nCitations:"

// RetrievalResult is the formatted context for synthesis plus the distinct
// sources it came from, in first-seen order.
type RetrievalResult struct {
	Context string
	Sources []string
}

// Dispatcher hands a named background task to a queue without waiting for it.
type Dispatcher interface {
	Enqueue(ctx context.Context, name string, args any) error
}

// OrchestratorConfig 查询编排配置。
type OrchestratorConfig struct {
	// Collection 向量集合名称。
	Collection string
	// TopK 检索返回的块数。
	TopK int
}

// Orchestrator answers a query in three stages: rewrite, retrieve, synthesize.
type Orchestrator struct {
	embedder    llm.EmbeddingProvider
	store       store.VectorStore
	rewriter    llm.StructuredGenerator
	synthesizer llm.ChatProvider
	prompts     *Prompts
	config      *OrchestratorConfig

	dispatcher Dispatcher
	cache      RewriteCache
	metrics    *metrics.Metrics
}

// OrchestratorOption customizes an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithDispatcher enables the judge_and_log hand-off after each answer.
func WithDispatcher(d Dispatcher) OrchestratorOption {
	return func(o *Orchestrator) { o.dispatcher = d }
}

// WithRewriteCache memoizes query rewrites.
func WithRewriteCache(c RewriteCache) OrchestratorOption {
	return func(o *Orchestrator) { o.cache = c }
}

// WithOrchestratorMetrics sets the metrics sink.
func WithOrchestratorMetrics(m *metrics.Metrics) OrchestratorOption {
	return func(o *Orchestrator) { o.metrics = m }
}

// NewOrchestrator 创建查询编排器实例。
func NewOrchestrator(
	embedder llm.EmbeddingProvider,
	vs store.VectorStore,
	rewriter llm.StructuredGenerator,
	synthesizer llm.ChatProvider,
	prompts *Prompts,
	config *OrchestratorConfig,
	opts ...OrchestratorOption,
) *Orchestrator {
	if prompts == nil {
		prompts = DefaultPrompts()
	}
	cfg := *config
	if cfg.TopK <= 0 {
		cfg.TopK = 7
	}

	o := &Orchestrator{
		embedder:    embedder,
		store:       vs,
		rewriter:    rewriter,
		synthesizer: synthesizer,
		prompts:     prompts,
		config:      &cfg,
		metrics:     metrics.Global(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Ask runs the full pipeline and always returns an interaction; failures are
// reported in the answer text. The judge task is dispatched before returning.
func (o *Orchestrator) Ask(ctx context.Context, query string) *model.Interaction {
	ctx, span := tracing.StartSpan(ctx, "orchestrator.Ask", attribute.Int("query.length", len(query)))
	defer span.End()
	o.metrics.RecordQuery()

	in := &model.Interaction{OriginalQuery: query, CitedDocs: []string{}, ReferencedDocs: []string{}}

	// 1. 查询重写
	in.RewrittenQuery = o.RewriteQuery(ctx, query)

	// 2. 检索
	retrieval, err := o.Retrieve(ctx, in.RewrittenQuery)
	if err != nil {
		o.metrics.RecordRetrievalError()
		logger.Errorw("Retrieval failed", "error", err.Error())
		in.Answer = errorAnswerPrefix + err.Error()
		o.dispatch(ctx, in)
		return in
	}
	in.Context = retrieval.Context
	in.ReferencedDocs = retrieval.Sources

	// 3. 生成答案，使用原始查询
	generated := o.Synthesize(ctx, retrieval.Context, query)
	in.Answer = generated.Answer
	in.CitedDocs = generated.CitedDocs

	// 4. 异步评估
	o.dispatch(ctx, in)
	return in
}

func (o *Orchestrator) dispatch(ctx context.Context, in *model.Interaction) {
	if o.dispatcher == nil {
		return
	}
	if err := o.dispatcher.Enqueue(context.WithoutCancel(ctx), evaluation.TaskJudgeAndLog, in); err != nil {
		o.metrics.RecordEvaluationDropped()
		logger.Warnw("Failed to dispatch evaluation task", "error", err.Error())
	}
}

type rewriteResponse struct {
	RewrittenQuery string `json:"rewritten_query"`
}

// RewriteQuery asks the lightweight model for a search-friendly rewrite.
// Any failure, empty result or unparseable output yields query itself.
func (o *Orchestrator) RewriteQuery(ctx context.Context, query string) string {
	if o.cache != nil {
		if cached, ok := o.cache.Get(ctx, query); ok {
			return cached
		}
	}

	raw, err := o.rewriter.GenerateJSON(ctx, o.prompts.RenderRewrite(query))
	if err != nil {
		o.metrics.RecordRewriteFallback()
		logger.Warnw("Query rewriting failed, falling back to original query", "error", err.Error())
		return query
	}

	var resp rewriteResponse
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &resp); err != nil {
		o.metrics.RecordRewriteFallback()
		logger.Warnw("Unparseable rewrite output, falling back to original query", "error", err.Error())
		return query
	}
	rewritten := strings.TrimSpace(resp.RewrittenQuery)
	if rewritten == "" {
		o.metrics.RecordRewriteFallback()
		logger.Warnw("Empty rewrite output, falling back to original query")
		return query
	}

	logger.Debugw("Query rewritten", "original", query, "rewritten", rewritten)
	if o.cache != nil {
		o.cache.Set(ctx, query, rewritten)
	}
	return rewritten
}

// Retrieve embeds query and formats the top hits as synthesis context.
func (o *Orchestrator) Retrieve(ctx context.Context, query string) (*RetrievalResult, error) {
	ctx, span := tracing.StartSpan(ctx, "orchestrator.Retrieve")

	vector, err := o.embedder.EmbedSingle(ctx, query)
	if err != nil {
		err = errno.ErrEmbedding.WithCause(err)
		tracing.End(span, err)
		return nil, err
	}

	hits, err := o.store.Search(ctx, o.config.Collection, vector, o.config.TopK)
	if err != nil {
		err = errno.ErrVectorStore.WithCause(err)
		tracing.End(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("hits", len(hits)))
	tracing.End(span, nil)

	var sb strings.Builder
	seen := make(map[string]struct{}, len(hits))
	sources := make([]string, 0, len(hits))
	for _, h := range hits {
		fmt.Fprintf(&sb, "[Source: %s]\n%s\n---\n", h.Payload.Source, h.Payload.Text)
		if _, ok := seen[h.Payload.Source]; !ok {
			seen[h.Payload.Source] = struct{}{}
			sources = append(sources, h.Payload.Source)
		}
	}

	return &RetrievalResult{Context: sb.String(), Sources: sources}, nil
}

// Synthesize generates the answer for query from retrieved context.
// Empty context short-circuits without a model call.
func (o *Orchestrator) Synthesize(ctx context.Context, retrieved, query string) model.GeneratedAnswer {
	if retrieved == "" {
		o.metrics.RecordEmptyContext()
		return model.GeneratedAnswer{Answer: NoContextAnswer, CitedDocs: []string{}}
	}

	ctx, span := tracing.StartSpan(ctx, "orchestrator.Synthesize")
	text, err := o.synthesizer.Generate(ctx, o.prompts.RenderSynthesis(retrieved, query), "")
	tracing.End(span, err)
	if err != nil {
		o.metrics.RecordSynthesisError()
		logger.Errorw("Answer generation failed", "error", err.Error())
		return model.GeneratedAnswer{Answer: errorAnswerPrefix + err.Error(), CitedDocs: []string{}}
	}

	answer, cited := ParseAnswer(text)
	return model.GeneratedAnswer{Answer: answer, CitedDocs: cited}
}

// ParseAnswer splits model output at the first "\nCitations:" marker.
// Each non-empty line after it is one citation with bullet markers removed.
func ParseAnswer(text string) (string, []string) {
	head, tail, found := strings.Cut(text, citationsMarker)
	if !found {
		return strings.TrimSpace(text), []string{}
	}

	cited := []string{}
	for _, line := range strings.Split(tail, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*• "))
		if line != "" {
			cited = append(cited, line)
		}
	}
	return strings.TrimSpace(head), cited
}

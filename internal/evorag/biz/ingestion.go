package biz

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kart-io/logger"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kart-io/evorag/internal/evorag/convert"
	"github.com/kart-io/evorag/internal/evorag/metrics"
	"github.com/kart-io/evorag/internal/evorag/store"
	"github.com/kart-io/evorag/internal/model"
	errno "github.com/kart-io/evorag/pkg/errors"
	"github.com/kart-io/evorag/pkg/infra/tracing"
	"github.com/kart-io/evorag/pkg/llm"
)

// IngestStatus is the outcome of processing one document.
type IngestStatus string

const (
	StatusIngested  IngestStatus = "ingested"
	StatusNoContent IngestStatus = "no_content"
	StatusFailed    IngestStatus = "failed"
)

// IngestResult describes what ProcessDocument did.
// OrphanedIDs lists ids from the previous ingestion of the same source that
// the current chunk set no longer contains. They are reported, not deleted.
type IngestResult struct {
	Status      IngestStatus `json:"status"`
	Source      string       `json:"source"`
	ChunkCount  int          `json:"chunk_count"`
	ChunkIDs    []string     `json:"chunk_ids,omitempty"`
	OrphanedIDs []string     `json:"orphaned_ids,omitempty"`
}

// DeleteOutcome is the outcome of DeleteDocument.
type DeleteOutcome string

const (
	DeleteDeleted DeleteOutcome = "deleted"
	DeleteNoop    DeleteOutcome = "noop"
)

// DocumentRegistry records the chunk id set of each ingested source.
// Get must return an error matching errno.ErrNotFound for unknown sources.
type DocumentRegistry interface {
	Save(ctx context.Context, doc *model.Document) error
	Get(ctx context.Context, source string) (*model.Document, error)
	Delete(ctx context.Context, source string) error
}

// IngestionConfig 入库流水线配置。
type IngestionConfig struct {
	// Collection 向量集合名称。
	Collection string
	// Dimension 向量维度，必须与 embedding 模型一致。
	Dimension int
	// BatchSize 每次 embedding 调用的文本数。
	BatchSize int
}

// IngestionPipeline converts, chunks, embeds and upserts documents, and owns
// the collection lifecycle.
type IngestionPipeline struct {
	converter convert.Converter
	chunker   *Chunker
	embedder  llm.EmbeddingProvider
	store     store.VectorStore
	registry  DocumentRegistry
	metrics   *metrics.Metrics
	config    *IngestionConfig
}

// IngestionOption customizes an IngestionPipeline.
type IngestionOption func(*IngestionPipeline)

// WithRegistry records chunk id sets so that orphaned ids can be reported.
func WithRegistry(r DocumentRegistry) IngestionOption {
	return func(p *IngestionPipeline) { p.registry = r }
}

// WithIngestionMetrics sets the metrics sink.
func WithIngestionMetrics(m *metrics.Metrics) IngestionOption {
	return func(p *IngestionPipeline) { p.metrics = m }
}

// NewIngestionPipeline 创建入库流水线，并确保集合存在。
// 集合创建失败视为致命错误。
func NewIngestionPipeline(
	ctx context.Context,
	converter convert.Converter,
	chunker *Chunker,
	embedder llm.EmbeddingProvider,
	vs store.VectorStore,
	config *IngestionConfig,
	opts ...IngestionOption,
) (*IngestionPipeline, error) {
	cfg := *config
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 128
	}

	p := &IngestionPipeline{
		converter: converter,
		chunker:   chunker,
		embedder:  embedder,
		store:     vs,
		metrics:   metrics.Global(),
		config:    &cfg,
	}
	for _, opt := range opts {
		opt(p)
	}

	if err := p.EnsureCollection(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// EnsureCollection creates the collection if it is absent.
func (p *IngestionPipeline) EnsureCollection(ctx context.Context) error {
	if err := p.store.EnsureCollection(ctx, p.config.Collection, p.config.Dimension); err != nil {
		return errno.ErrVectorStore.WithCause(fmt.Errorf("ensure collection %s: %w", p.config.Collection, err))
	}
	logger.Infow("Collection ready", "collection", p.config.Collection, "dimension", p.config.Dimension)
	return nil
}

// ProcessDocument ingests the file at path. The file's base name is the source.
// Either every chunk is upserted or none is.
func (p *IngestionPipeline) ProcessDocument(ctx context.Context, path string) (result *IngestResult, err error) {
	source := filepath.Base(path)
	ctx, span := tracing.StartSpan(ctx, "ingestion.ProcessDocument", attribute.String("source", source))
	defer func() {
		tracing.End(span, err)
		n := 0
		if result != nil && result.Status == StatusIngested {
			n = result.ChunkCount
		}
		p.metrics.RecordIngest(n, err)
	}()

	failed := &IngestResult{Status: StatusFailed, Source: source}

	// 1. 文档转换
	elements, err := p.converter.Convert(ctx, path)
	if err != nil {
		logger.Errorw("Document conversion failed", "document", source, "error", err.Error())
		return failed, err
	}

	// 2. 分块
	chunks := p.chunker.Chunk(elements, source)
	if len(chunks) == 0 {
		logger.Warnw("No text chunks could be extracted", "document", source, "elements", len(elements))
		return &IngestResult{Status: StatusNoContent, Source: source}, nil
	}
	span.SetAttributes(attribute.Int("chunks", len(chunks)))

	// 3. 批量向量化，任一批失败则整体放弃
	vectors, err := p.embedChunks(ctx, chunks)
	if err != nil {
		logger.Errorw("Embedding failed, nothing upserted", "document", source, "error", err.Error())
		return failed, err
	}

	// 4. 构建向量点并一次性写入
	points := make([]store.Point, len(chunks))
	ids := make([]string, len(chunks))
	for i, ch := range chunks {
		ids[i] = ch.ID
		points[i] = store.Point{
			ID:     ch.ID,
			Vector: vectors[i],
			Payload: store.Payload{
				Source:     ch.Metadata.Source,
				Heading:    ch.Metadata.Heading,
				ChunkIndex: ch.Metadata.ChunkIndex,
				Page:       ch.Metadata.Page,
				Text:       ch.Text,
			},
		}
	}
	if err := p.store.Upsert(ctx, p.config.Collection, points, true); err != nil {
		err = errno.ErrVectorStore.WithCause(err)
		logger.Errorw("Upsert failed", "document", source, "points", len(points), "error", err.Error())
		return failed, err
	}

	// 5. 更新文档登记
	result = &IngestResult{
		Status:     StatusIngested,
		Source:     source,
		ChunkCount: len(chunks),
		ChunkIDs:   ids,
	}
	result.OrphanedIDs = p.register(ctx, source, chunks, ids)

	logger.Infow("Document ingested", "document", source, "chunks", len(chunks))
	return result, nil
}

func (p *IngestionPipeline) embedChunks(ctx context.Context, chunks []Chunk) ([][]float32, error) {
	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += p.config.BatchSize {
		end := min(start+p.config.BatchSize, len(chunks))

		texts := make([]string, 0, end-start)
		for _, ch := range chunks[start:end] {
			texts = append(texts, ch.EmbedText)
		}

		batch, err := p.embedder.Embed(ctx, texts)
		if err != nil {
			return nil, errno.ErrEmbedding.WithCause(fmt.Errorf("batch %d-%d: %w", start, end, err))
		}
		if len(batch) != len(texts) {
			return nil, errno.ErrEmbedding.WithMessagef("batch %d-%d: got %d vectors for %d texts", start, end, len(batch), len(texts))
		}
		for _, v := range batch {
			if p.config.Dimension > 0 && len(v) != p.config.Dimension {
				return nil, errno.ErrEmbedding.WithMessagef("vector dimension %d, collection expects %d", len(v), p.config.Dimension)
			}
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

// register saves the new id set and returns previous ids no longer present.
// Registry failures are logged and never fail the ingestion.
func (p *IngestionPipeline) register(ctx context.Context, source string, chunks []Chunk, ids []string) []string {
	if p.registry == nil {
		return nil
	}

	var orphaned []string
	prev, err := p.registry.Get(ctx, source)
	switch {
	case err == nil:
		current := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			current[id] = struct{}{}
		}
		for _, id := range prev.ChunkIDs {
			if _, ok := current[id]; !ok {
				orphaned = append(orphaned, id)
			}
		}
	case !errors.Is(err, errno.ErrNotFound):
		logger.Warnw("Registry lookup failed", "document", source, "error", err.Error())
	}

	if len(orphaned) > 0 {
		logger.Warnw("Re-ingestion left orphaned chunk ids in the vector store",
			"document", source, "orphaned", len(orphaned))
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	doc := &model.Document{
		Source:      source,
		ChunkCount:  len(ids),
		ChunkIDs:    ids,
		ContentHash: ContentHash(strings.Join(texts, "\n")),
	}
	if err := p.registry.Save(ctx, doc); err != nil {
		logger.Warnw("Registry save failed", "document", source, "error", err.Error())
	}
	return orphaned
}

// DeleteDocument removes every point whose source equals source.
// When nothing matches no delete is issued. An empty source is rejected.
func (p *IngestionPipeline) DeleteDocument(ctx context.Context, source string) (outcome DeleteOutcome, err error) {
	if strings.TrimSpace(source) == "" {
		return "", errno.ErrInvalidParam.WithMessage("source must not be empty").WithMessageZH("来源不能为空")
	}

	ctx, span := tracing.StartSpan(ctx, "ingestion.DeleteDocument", attribute.String("source", source))
	defer func() { tracing.End(span, err) }()

	filter := store.Filter{Source: source}
	existing, err := p.store.Scroll(ctx, p.config.Collection, filter, 1)
	if err != nil {
		return "", errno.ErrVectorStore.WithCause(err)
	}
	if len(existing) == 0 {
		logger.Infow("No points found for source, nothing to delete", "document", source)
		return DeleteNoop, nil
	}

	if err := p.store.DeleteByFilter(ctx, p.config.Collection, filter); err != nil {
		return "", errno.ErrVectorStore.WithCause(err)
	}

	if p.registry != nil {
		if err := p.registry.Delete(ctx, source); err != nil {
			logger.Warnw("Registry delete failed", "document", source, "error", err.Error())
		}
	}

	p.metrics.RecordDelete()
	logger.Infow("Document deleted", "document", source)
	return DeleteDeleted, nil
}

// Count returns the number of points in the collection.
func (p *IngestionPipeline) Count(ctx context.Context) (int64, error) {
	n, err := p.store.Count(ctx, p.config.Collection)
	if err != nil {
		return 0, errno.ErrVectorStore.WithCause(err)
	}
	return n, nil
}

// DropCollection removes the whole collection.
func (p *IngestionPipeline) DropCollection(ctx context.Context) error {
	if err := p.store.Drop(ctx, p.config.Collection); err != nil {
		return errno.ErrVectorStore.WithCause(err)
	}
	logger.Warnw("Collection dropped", "collection", p.config.Collection)
	return nil
}

// Collection returns the collection name.
func (p *IngestionPipeline) Collection() string {
	return p.config.Collection
}

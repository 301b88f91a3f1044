// Package handler provides the HTTP handlers of the EvoRAG API.
package handler

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/evorag/internal/evorag/biz"
	"github.com/kart-io/evorag/internal/evorag/evaluation"
	"github.com/kart-io/evorag/internal/evorag/metrics"
	"github.com/kart-io/evorag/internal/model"
	"github.com/kart-io/evorag/pkg/component"
	errno "github.com/kart-io/evorag/pkg/errors"
	"github.com/kart-io/evorag/pkg/response"
	"github.com/kart-io/evorag/pkg/validator"
)

// WelcomeMessage is served on GET /log.
const WelcomeMessage = "Welcome to the EvoRAG API. Please use the /docs endpoint to see the API documentation."

// Ingester is the ingestion side used by the handlers.
type Ingester interface {
	ProcessDocument(ctx context.Context, path string) (*biz.IngestResult, error)
	DeleteDocument(ctx context.Context, source string) (biz.DeleteOutcome, error)
	Count(ctx context.Context) (int64, error)
	Collection() string
}

// Asker answers one query.
type Asker interface {
	Ask(ctx context.Context, query string) *model.Interaction
}

// DocumentLister lists registry entries.
type DocumentLister interface {
	List(ctx context.Context) ([]*model.Document, error)
}

// QueueStatser reports evaluation queue activity.
type QueueStatser interface {
	Stats() evaluation.QueueStats
}

var (
	_ Ingester     = (*biz.IngestionPipeline)(nil)
	_ Asker        = (*biz.Orchestrator)(nil)
	_ QueueStatser = (evaluation.Queue)(nil)
)

// Handler serves the EvoRAG API.
type Handler struct {
	ingester Ingester
	asker    Asker
	docs     DocumentLister
	queue    QueueStatser
	metrics  *metrics.Metrics
	checkers []component.Checker

	// AskTimeout bounds one ask call.
	AskTimeout time.Duration
	// IngestTimeout bounds one document ingestion.
	IngestTimeout time.Duration
	// MaxUploadBytes bounds an uploaded document.
	MaxUploadBytes int64
}

// Option customizes a Handler.
type Option func(*Handler)

// WithDocuments enables GET /v1/documents.
func WithDocuments(d DocumentLister) Option {
	return func(h *Handler) { h.docs = d }
}

// WithQueue adds queue stats to GET /v1/stats.
func WithQueue(q QueueStatser) Option {
	return func(h *Handler) { h.queue = q }
}

// WithMetrics sets the metrics source.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithCheckers sets the components probed by GET /healthz.
func WithCheckers(checkers ...component.Checker) Option {
	return func(h *Handler) { h.checkers = append(h.checkers, checkers...) }
}

// New creates a Handler.
func New(ingester Ingester, asker Asker, opts ...Option) *Handler {
	h := &Handler{
		ingester:       ingester,
		asker:          asker,
		metrics:        metrics.Global(),
		AskTimeout:     120 * time.Second,
		IngestTimeout:  10 * time.Minute,
		MaxUploadBytes: 32 << 20,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// IngestResponse is the body of a successful ingest.
type IngestResponse struct {
	Status      biz.IngestStatus `json:"status"`
	Source      string           `json:"source"`
	ChunkCount  int              `json:"chunk_count"`
	OrphanedIDs []string         `json:"orphaned_ids"`
}

// Ingest stores the uploaded file under its base name in a temp dir and runs
// the ingestion pipeline on it.
//
//	@Summary	Ingest a document
//	@Tags		documents
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		file	formData	file	true	"Document to ingest"
//	@Success	200		{object}	response.Response{data=IngestResponse}
//	@Failure	400		{object}	response.Response
//	@Failure	422		{object}	response.Response{data=IngestResponse}
//	@Router		/v1/ingest [post]
func (h *Handler) Ingest(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.Fail(c, errno.ErrInvalidParam.WithMessage("multipart field 'file' is required").WithCause(err))
		return
	}
	if fh.Size > h.MaxUploadBytes {
		response.Fail(c, errno.ErrInvalidParam.WithMessagef("file exceeds %d bytes", h.MaxUploadBytes))
		return
	}

	name := filepath.Base(filepath.Clean("/" + strings.ReplaceAll(fh.Filename, `\`, "/")))
	if name == "/" || name == "." {
		response.Fail(c, errno.ErrInvalidParam.WithMessage("file name is empty"))
		return
	}

	dir, err := os.MkdirTemp("", "evorag-upload-")
	if err != nil {
		response.Fail(c, errno.ErrInternal.WithCause(err))
		return
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			logger.Warnw("Failed to remove upload dir", "dir", dir, "error", err.Error())
		}
	}()

	path := filepath.Join(dir, name)
	if err := c.SaveUploadedFile(fh, path); err != nil {
		response.Fail(c, errno.ErrInternal.WithCause(err))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.IngestTimeout)
	defer cancel()

	result, err := h.ingester.ProcessDocument(ctx, path)
	if err != nil {
		response.Fail(c, err)
		return
	}

	resp := &IngestResponse{
		Status:      result.Status,
		Source:      result.Source,
		ChunkCount:  result.ChunkCount,
		OrphanedIDs: result.OrphanedIDs,
	}
	if resp.OrphanedIDs == nil {
		resp.OrphanedIDs = []string{}
	}
	if result.Status == biz.StatusNoContent {
		response.FailWithData(c, errno.ErrNoChunks, resp)
		return
	}
	response.OK(c, resp)
}

// AskRequest is the body of POST /v1/ask.
type AskRequest struct {
	Query string `json:"query" validate:"required,notblank"`
}

// AskResponse is the body of a successful ask. The debug fields are only
// filled when ?debug=true.
type AskResponse struct {
	Answer         string   `json:"answer"`
	CitedDocs      []string `json:"cited_docs"`
	ReferencedDocs []string `json:"referenced_docs"`
	RewrittenQuery string   `json:"rewritten_query,omitempty"`
	Context        string   `json:"context,omitempty"`
}

// Ask runs the query pipeline.
//
//	@Summary	Ask a question
//	@Tags		query
//	@Accept		json
//	@Produce	json
//	@Param		request	body		AskRequest	true	"Query"
//	@Param		debug	query		bool		false	"Include rewritten query and context"
//	@Success	200		{object}	response.Response{data=AskResponse}
//	@Failure	400		{object}	response.Response
//	@Router		/v1/ask [post]
func (h *Handler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, errno.ErrInvalidParam.WithMessage("request body must be a JSON object").WithCause(err))
		return
	}
	if errs := validator.StructWithLang(&req, response.Lang(c)); errs != nil {
		response.Fail(c, errno.ErrInvalidParam.WithMessage(errs.First()).WithMessageZH(errs.First()))
		return
	}
	query := strings.TrimSpace(req.Query)

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.AskTimeout)
	defer cancel()

	in := h.asker.Ask(ctx, query)
	resp := &AskResponse{
		Answer:         in.Answer,
		CitedDocs:      in.CitedDocs,
		ReferencedDocs: in.ReferencedDocs,
	}
	if c.Query("debug") == "true" {
		resp.RewrittenQuery = in.RewrittenQuery
		resp.Context = in.Context
	}
	response.OK(c, resp)
}

// DeleteDocument removes every chunk of a source.
//
//	@Summary	Delete a document
//	@Tags		documents
//	@Produce	json
//	@Param		source	path	string	true	"Document source name"
//	@Success	200		{object}	response.Response
//	@Router		/v1/documents/{source} [delete]
func (h *Handler) DeleteDocument(c *gin.Context) {
	source := strings.TrimPrefix(c.Param("source"), "/")
	if source == "" {
		response.Fail(c, errno.ErrInvalidParam.WithMessage("source is required"))
		return
	}

	outcome, err := h.ingester.DeleteDocument(c.Request.Context(), source)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{"status": outcome, "source": source})
}

// ListDocuments returns the registry manifest.
//
//	@Summary	List ingested documents
//	@Tags		documents
//	@Produce	json
//	@Success	200	{object}	response.Response{data=[]model.Document}
//	@Failure	404	{object}	response.Response
//	@Router		/v1/documents [get]
func (h *Handler) ListDocuments(c *gin.Context) {
	if h.docs == nil {
		response.Fail(c, errno.ErrNotFound.WithMessage("document registry is disabled"))
		return
	}
	docs, err := h.docs.List(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, docs)
}

// StatsResponse is the body of GET /v1/stats.
type StatsResponse struct {
	Collection string                 `json:"collection"`
	Points     int64                  `json:"points"`
	Queue      *evaluation.QueueStats `json:"queue,omitempty"`
	Metrics    metrics.Snapshot       `json:"metrics"`
}

// Stats reports collection size, queue activity and counters.
//
//	@Summary	Service statistics
//	@Tags		system
//	@Produce	json
//	@Success	200	{object}	response.Response{data=StatsResponse}
//	@Router		/v1/stats [get]
func (h *Handler) Stats(c *gin.Context) {
	n, err := h.ingester.Count(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}

	resp := &StatsResponse{
		Collection: h.ingester.Collection(),
		Points:     n,
		Metrics:    h.metrics.Snapshot(),
	}
	if h.queue != nil {
		qs := h.queue.Stats()
		resp.Queue = &qs
	}
	response.OK(c, resp)
}

// Welcome serves GET /log.
func (h *Handler) Welcome(c *gin.Context) {
	response.OK(c, gin.H{"message": WelcomeMessage})
}

// Health pings every configured component.
//
//	@Summary	Health check
//	@Tags		system
//	@Produce	json
//	@Success	200	{object}	response.Response
//	@Failure	503	{object}	response.Response
//	@Router		/healthz [get]
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	results := component.CheckAll(ctx, h.checkers...)
	status := make(map[string]string, len(results))
	healthy := true
	for name, err := range results {
		if err != nil {
			healthy = false
			status[name] = err.Error()
			continue
		}
		status[name] = "ok"
	}

	if !healthy {
		response.FailWithData(c, errno.ErrServiceUnavailable, status)
		return
	}
	response.OK(c, status)
}

// Metrics serves the counters in Prometheus text format.
func (h *Handler) Metrics(c *gin.Context) {
	c.String(http.StatusOK, h.metrics.Export("evorag"))
}

package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/kart-io/evorag/internal/evorag/biz"
	"github.com/kart-io/evorag/internal/evorag/handler"
	"github.com/kart-io/evorag/internal/evorag/metrics"
	"github.com/kart-io/evorag/internal/model"
	"github.com/kart-io/evorag/pkg/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubIngester struct{}

func (stubIngester) ProcessDocument(context.Context, string) (*biz.IngestResult, error) {
	return &biz.IngestResult{Status: biz.StatusIngested}, nil
}

func (stubIngester) DeleteDocument(context.Context, string) (biz.DeleteOutcome, error) {
	return biz.DeleteNoop, nil
}

func (stubIngester) Count(context.Context) (int64, error) { return 0, nil }

func (stubIngester) Collection() string { return "documents" }

type stubAsker struct{}

func (stubAsker) Ask(_ context.Context, q string) *model.Interaction {
	return &model.Interaction{OriginalQuery: q, Answer: "a"}
}

func TestRoutes(t *testing.T) {
	r := New(handler.New(stubIngester{}, stubAsker{}, handler.WithMetrics(metrics.New())))

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/log", http.StatusOK},
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/v1/stats", http.StatusOK},
		{http.MethodDelete, "/v1/documents/a.md", http.StatusOK},
		{http.MethodGet, "/v1/documents", http.StatusNotFound},
		{http.MethodGet, "/v1/unknown", http.StatusNotFound},
		{http.MethodGet, "/docs", http.StatusMovedPermanently},
		{http.MethodGet, "/docs/doc.json", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.want, w.Code)
			assert.NotEmpty(t, w.Header().Get(middleware.HeaderXRequestID))
		})
	}
}

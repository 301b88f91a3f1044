package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/evorag/pkg/response"
	"github.com/kart-io/evorag/pkg/utils/json"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(handler gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(Recovery(), RequestID(), Logger(), CORS())
	r.GET("/test", handler)
	return r
}

func TestRequestID(t *testing.T) {
	r := newEngine(func(c *gin.Context) { response.OK(c, nil) })

	t.Run("生成请求 ID", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
		assert.Len(t, w.Header().Get(HeaderXRequestID), 32)
	})

	t.Run("沿用传入的请求 ID", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(HeaderXRequestID, "abc")
		r.ServeHTTP(w, req)
		assert.Equal(t, "abc", w.Header().Get(HeaderXRequestID))

		var resp response.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "abc", resp.RequestID)
	})
}

func TestRecovery_CatchesPanic(t *testing.T) {
	r := newEngine(func(*gin.Context) { panic("test panic") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotZero(t, resp.Code)
}

func TestCORS_Preflight(t *testing.T) {
	r := newEngine(func(c *gin.Context) { response.OK(c, nil) })
	r.OPTIONS("/test", func(c *gin.Context) {})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/test", nil)
	req.Header.Set("Origin", "http://example.com")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodDelete)
}

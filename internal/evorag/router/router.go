// Package router wires the EvoRAG HTTP routes.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/kart-io/evorag/api/swagger/evorag" // swagger docs
	"github.com/kart-io/evorag/internal/evorag/handler"
	"github.com/kart-io/evorag/pkg/middleware"
)

// New returns a gin engine with the standard middleware chain and every
// EvoRAG route registered.
func New(h *handler.Handler) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(), middleware.RequestID(), middleware.Logger(), middleware.CORS())
	Register(r, h)
	return r
}

// Register registers the EvoRAG routes on r.
func Register(r gin.IRouter, h *handler.Handler) {
	logger.Info("Registering EvoRAG routes...")

	r.GET("/log", h.Welcome)
	r.GET("/healthz", h.Health)
	r.GET("/metrics", h.Metrics)

	// Swagger UI: /docs/index.html
	docs := *swaggerFiles.Handler
	docs.Prefix = "/docs"
	r.GET("/docs", func(c *gin.Context) { c.Redirect(http.StatusMovedPermanently, "/docs/index.html") })
	r.GET("/docs/*any", ginSwagger.WrapHandler(&docs, ginSwagger.InstanceName("evorag")))

	v1 := r.Group("/v1")
	{
		v1.POST("/ingest", h.Ingest)
		v1.POST("/ask", h.Ask)
		v1.GET("/documents", h.ListDocuments)
		v1.DELETE("/documents/*source", h.DeleteDocument)
		v1.GET("/stats", h.Stats)
	}

	logger.Info("HTTP routes registered")
}

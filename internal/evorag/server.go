package evorag

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/evorag/internal/evorag/handler"
	"github.com/kart-io/evorag/internal/evorag/router"
)

// Server represents the EvoRAG API server.
type Server struct {
	cfg        *Config
	components *Components
	httpServer *http.Server
}

// NewServer initializes and returns a new Server instance.
func (cfg *Config) NewServer(ctx context.Context) (*Server, error) {
	printBanner(cfg)

	// 1. 初始化日志
	if err := cfg.InitLogger(); err != nil {
		return nil, err
	}
	logger.Info("Starting EvoRAG service...")

	// 2. 初始化各组件
	components, err := cfg.Build(ctx)
	if err != nil {
		return nil, err
	}

	// 3. 初始化 Handler 层
	opts := []handler.Option{
		handler.WithDocuments(components.Registry),
		handler.WithMetrics(components.Metrics),
		handler.WithCheckers(components.Checkers...),
	}
	if components.Queue != nil {
		opts = append(opts, handler.WithQueue(components.Queue))
	}
	h := handler.New(components.Ingestion, components.Orchestrator, opts...)
	h.AskTimeout = cfg.RAGOptions.QueryTimeout
	h.IngestTimeout = cfg.RAGOptions.IngestTimeout
	h.MaxUploadBytes = cfg.HTTPOptions.MaxUploadSize

	// 4. 注册路由
	gin.SetMode(cfg.HTTPOptions.Mode)
	engine := router.New(h)

	logger.Info("EvoRAG service is ready")
	return &Server{
		cfg:        cfg,
		components: components,
		httpServer: &http.Server{
			Addr:         cfg.HTTPOptions.Addr,
			Handler:      engine,
			ReadTimeout:  cfg.HTTPOptions.ReadTimeout,
			WriteTimeout: cfg.HTTPOptions.WriteTimeout,
			IdleTimeout:  cfg.HTTPOptions.IdleTimeout,
		},
	}, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
// Pending evaluation jobs are drained before Run returns.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Infow("HTTP server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case serveErr = <-errCh:
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("HTTP server shutdown failed", "error", err.Error())
	}
	if err := s.components.Close(shutdownCtx); err != nil {
		logger.Warnw("Some components failed to close", "error", err.Error())
	}
	_ = logger.Flush()

	if serveErr != nil {
		return fmt.Errorf("http server: %w", serveErr)
	}
	logger.Info("EvoRAG service stopped")
	return nil
}

func printBanner(cfg *Config) {
	fmt.Printf("Starting %s...\n", Name)
	fmt.Printf("  Embedding: %s (%s)\n", cfg.EmbeddingOptions.Provider, cfg.EmbeddingOptions.Model)
	fmt.Printf("  Rewrite:   %s (%s)\n", cfg.RewriteOptions.Provider, cfg.RewriteOptions.Model)
	fmt.Printf("  Synthesis: %s (%s)\n", cfg.SynthesisOptions.Provider, cfg.SynthesisOptions.Model)
	if cfg.EvaluationOptions.Enabled {
		fmt.Printf("  Judge:     %s (%s), queue=%s\n", cfg.JudgeOptions.Provider, cfg.JudgeOptions.Model, cfg.EvaluationOptions.Backend)
	}
}

// Package app provides the EvoRAG server application.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kart-io/evorag/cmd/evorag/app/options"
	"github.com/kart-io/evorag/internal/evorag"
	"github.com/kart-io/evorag/pkg/infra/app"
)

// commandDesc is the description of the command.
const commandDesc = `EvoRAG API server

A retrieval-augmented question answering service that grades itself.

This server provides:
  - Document ingestion into a Milvus vector collection
  - Query rewriting, retrieval and cited answer synthesis
  - Background LLM-as-judge evaluation with an append-only log`

// NewApp creates and returns a new App object with default parameters.
func NewApp() *app.App {
	opts := options.NewServerOptions()
	return app.NewApp(
		app.WithName(evorag.Name),
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithRunFunc(run(opts)),
	)
}

// run contains the main logic for initializing and running the server.
func run(opts *options.ServerOptions) app.RunFunc {
	return func() error {
		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		ctx := SetupSignalContext()

		server, err := cfg.NewServer(ctx)
		if err != nil {
			return fmt.Errorf("failed to create server: %w", err)
		}
		return server.Run(ctx)
	}
}

// SetupSignalContext returns a context that is cancelled on SIGINT or SIGTERM.
// A second signal exits immediately.
func SetupSignalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		cancel()
		<-c
		os.Exit(1)
	}()
	return ctx
}

// Package main is the entry point for the EvoRAG API server.
//
//	@title			EvoRAG API
//	@version		1.0
//	@description	Document ingestion, retrieval-augmented question answering and asynchronous answer evaluation.
//
//	@host			localhost:8000
//	@BasePath		/
package main

import (
	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/kart-io/evorag/cmd/evorag/app"
)

func main() {
	app.NewApp().Run()
}

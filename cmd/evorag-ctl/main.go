// Package main is the entry point for the EvoRAG maintenance CLI.
package main

import (
	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/kart-io/evorag/cmd/evorag-ctl/app"
)

func main() {
	app.NewApp().Run()
}

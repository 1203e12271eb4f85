// Package main is the entry point for the mcpweave gateway.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mcpweave/mcpweave/cmd/mcpweave/app"
	"github.com/mcpweave/mcpweave/pkg/logging"
)

func main() {
	logging.Initialize(false)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancel()

	if err := app.NewRootCmd().ExecuteContext(ctx); err != nil {
		logging.Errorf("error executing command: %v", err)
		logging.Sync()
		os.Exit(1)
	}
	logging.Sync()
}

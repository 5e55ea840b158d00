package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"cupspdf/internal/backend"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCommand(defaultDeps()).ExecuteContext(ctx)
	stop()
	os.Exit(int(backend.StatusFor(err)))
}

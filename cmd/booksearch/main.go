// Command booksearch builds a semantic index over a book catalogue and
// answers free-text queries against it.
//
//	booksearch build                 build or reuse the index
//	booksearch search <query> -k 3   print the top matches
//	booksearch serve                 serve GET /search over HTTP
//
// Configuration is read from --config, BOOKSEARCH_CONFIG or ./booksearch.yaml,
// then BOOKSEARCH_* environment variables.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("booksearch failed", "error", err)
		stop()
		os.Exit(1)
	}
}

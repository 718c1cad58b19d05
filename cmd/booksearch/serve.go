package main

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/viant/booksearch/search"
	"github.com/viant/booksearch/server"
)

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve search over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			embedder, err := newEmbedder(cfg)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			store, _, err := openIndex(ctx, cfg, embedder, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			svc := search.New(embedder, store, search.WithTimeout(cfg.QueryTimeout), search.WithLogger(logger))
			srv := &http.Server{
				Addr:              cfg.ListenAddr,
				Handler:           server.Handler(svc, server.Config{DefaultK: cfg.DefaultK, MaxK: cfg.MaxK}),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("server starting", "addr", cfg.ListenAddr, "store", store.Path(), "count", store.Count())
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			select {
			case <-ctx.Done():
				logger.Info("shutting down gracefully")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			case err := <-errCh:
				return errors.Wrap(err, "server failed")
			}
		},
	}
}

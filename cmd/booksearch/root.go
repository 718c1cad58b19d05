package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/viant/booksearch/builder"
	"github.com/viant/booksearch/config"
	"github.com/viant/booksearch/embed"
	"github.com/viant/booksearch/record"
	"github.com/viant/booksearch/vector"
)

// options holds the persistent flags.
type options struct {
	configPath     string
	verbose        bool
	rebuildCorrupt bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "booksearch",
		Short:         "Semantic search over a book catalogue",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVar(&opts.rebuildCorrupt, "rebuild-corrupt", false, "delete and rebuild a corrupt store")

	cmd.AddCommand(newBuildCmd(opts), newSearchCmd(opts), newServeCmd(opts))
	return cmd
}

// setup loads configuration and installs the process logger.
func setup(cmd *cobra.Command, opts *options) (*config.Config, *slog.Logger, error) {
	logger := newLogger(cmd.ErrOrStderr(), opts.verbose)
	slog.SetDefault(logger)

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, nil, err
	}
	if opts.rebuildCorrupt {
		cfg.RecoverCorrupt = true
	}
	return cfg, logger, nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// newEmbedder constructs the configured embedder wrapped with the timeout and
// rate limit guards.
func newEmbedder(cfg *config.Config) (embed.Embedder, error) {
	var (
		base embed.Embedder
		err  error
	)
	switch cfg.EmbeddingProvider {
	case config.ProviderHashing:
		base = embed.NewHashing(cfg.EmbeddingDimensions)
	case config.ProviderOllama:
		base, err = embed.NewOllama(cfg.EmbeddingModel, cfg.EmbeddingURL)
	case config.ProviderOpenAI:
		base, err = embed.NewOpenAI(cfg.EmbeddingModel, cfg.EmbeddingAPIKey, cfg.EmbeddingURL)
	default:
		return nil, errors.Wrapf(config.ErrInvalidConfig, "unknown embedding provider %q", cfg.EmbeddingProvider)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "creating %s embedder", cfg.EmbeddingProvider)
	}
	return embed.NewGuard(base,
		embed.WithTimeout(cfg.EmbedTimeout),
		embed.WithRateLimit(cfg.RateLimit, cfg.Workers),
	), nil
}

// openIndex runs the build decision and returns the store to serve from.
func openIndex(ctx context.Context, cfg *config.Config, embedder embed.Embedder, logger *slog.Logger) (*vector.Store, builder.Report, error) {
	b, err := builder.New(builder.Config{
		StorePath:      cfg.StorePath,
		ChunkSize:      cfg.ChunkSize,
		ChunkOverlap:   cfg.ChunkOverlap,
		BatchSize:      cfg.BatchSize,
		Workers:        cfg.Workers,
		SearchMode:     vector.SearchMode(cfg.SearchMode),
		RecoverCorrupt: cfg.RecoverCorrupt,
	}, record.CSVSource{Path: cfg.SourcePath}, embedder, builder.WithLogger(logger))
	if err != nil {
		return nil, builder.Report{}, err
	}
	return b.Build(ctx)
}

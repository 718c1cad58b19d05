// Package builder decides, once per process, whether to reuse a persisted
// index or rebuild it from source records, and hands back the opened store.
package builder

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/viant/booksearch/chunker"
	"github.com/viant/booksearch/embed"
	"github.com/viant/booksearch/observability"
	"github.com/viant/booksearch/record"
	"github.com/viant/booksearch/vector"
)

// Mode is the outcome of the build decision.
type Mode string

const (
	// ModeReuse opens a populated store without reading the source.
	ModeReuse Mode = "reuse"
	// ModeRebuild chunks, embeds and inserts every valid record.
	ModeRebuild Mode = "rebuild"
)

const (
	// DefaultBatchSize is the number of chunks sent per embedding call.
	DefaultBatchSize = 64
	// DefaultWorkers is the number of embedding calls run concurrently.
	DefaultWorkers = 4
)

// ErrInvalidConfig reports unusable build settings.
var ErrInvalidConfig = chunker.ErrInvalidConfig

// Config holds the build settings.
type Config struct {
	StorePath    string
	ChunkSize    int
	ChunkOverlap int
	// BatchSize is the number of chunks per embedding call.
	BatchSize int
	// Workers bounds the number of embedding calls in flight.
	Workers    int
	SearchMode vector.SearchMode
	// RecoverCorrupt deletes and rebuilds a corrupt store instead of failing.
	RecoverCorrupt bool
}

// Report summarizes a build.
type Report struct {
	Mode     Mode
	Records  int
	Skipped  int
	Chunks   int
	Count    int
	Duration time.Duration
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger used for build progress.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// Builder runs the build decision and the rebuild pipeline.
type Builder struct {
	cfg      Config
	splitter *chunker.Splitter
	source   record.Source
	embedder embed.Embedder
	logger   *slog.Logger
}

// New validates cfg and returns a Builder.
func New(cfg Config, source record.Source, embedder embed.Embedder, opts ...Option) (*Builder, error) {
	if cfg.StorePath == "" {
		return nil, errors.Wrap(ErrInvalidConfig, "store path is required")
	}
	if source == nil || embedder == nil {
		return nil, errors.Wrap(ErrInvalidConfig, "source and embedder are required")
	}
	splitter, err := chunker.New(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.SearchMode == "" {
		cfg.SearchMode = vector.SearchBrute
	}
	if !cfg.SearchMode.Valid() {
		return nil, errors.Wrapf(ErrInvalidConfig, "unknown search mode %q", cfg.SearchMode)
	}
	b := &Builder{
		cfg:      cfg,
		splitter: splitter,
		source:   source,
		embedder: embedder,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Build opens the store at the configured path. A store holding entries is
// reused as is; an absent or empty one is rebuilt from the source. The
// returned store is owned by the caller.
func (b *Builder) Build(ctx context.Context) (*vector.Store, Report, error) {
	start := time.Now()
	store, err := b.open(ctx)
	if err != nil {
		return nil, Report{}, err
	}

	var report Report
	if store.Count() > 0 {
		report, err = b.reuse(store)
	} else {
		report, err = b.rebuild(ctx, store)
	}
	if err != nil {
		_ = store.Close()
		return nil, Report{}, err
	}
	report.Count = store.Count()
	report.Duration = time.Since(start)

	observability.BuildsTotal.WithLabelValues(string(report.Mode)).Inc()
	observability.IndexedChunks.Set(float64(report.Count))
	b.logger.Info("index ready",
		"mode", report.Mode,
		"path", b.cfg.StorePath,
		"count", report.Count,
		"records", report.Records,
		"skipped", report.Skipped,
		"duration", report.Duration)
	return store, report, nil
}

func (b *Builder) open(ctx context.Context) (*vector.Store, error) {
	opts := []vector.Option{
		vector.WithLogger(b.logger),
		vector.WithSearchMode(b.cfg.SearchMode),
		vector.WithModel(b.embedder.Model()),
	}
	store, err := vector.Open(ctx, b.cfg.StorePath, opts...)
	if err == nil {
		return store, nil
	}
	if !errors.Is(err, vector.ErrCorruptStore) || !b.cfg.RecoverCorrupt {
		return nil, errors.Wrapf(err, "failed to open store %s", b.cfg.StorePath)
	}
	b.logger.Warn("store is corrupt, deleting and rebuilding", "path", b.cfg.StorePath, "error", err)
	if err := vector.Remove(b.cfg.StorePath); err != nil {
		return nil, errors.Wrapf(err, "failed to remove corrupt store %s", b.cfg.StorePath)
	}
	store, err = vector.Open(ctx, b.cfg.StorePath, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to recreate store %s", b.cfg.StorePath)
	}
	return store, nil
}

func (b *Builder) reuse(store *vector.Store) (Report, error) {
	if stored, current := store.Model(), b.embedder.Model(); stored != "" && stored != current {
		b.logger.Warn("store was built with a different embedding model", "stored", stored, "configured", current)
	}
	if dims := b.embedder.Dimensions(); dims > 0 && dims != store.Dimension() {
		return Report{}, errors.Wrapf(vector.ErrDimensionMismatch,
			"embedder produces %d dimensions, store %s holds %d", dims, b.cfg.StorePath, store.Dimension())
	}
	b.logger.Debug("reusing existing store", "path", b.cfg.StorePath, "count", store.Count())
	return Report{Mode: ModeReuse}, nil
}

func (b *Builder) rebuild(ctx context.Context, store *vector.Store) (Report, error) {
	report := Report{Mode: ModeRebuild}
	b.logger.Info("building index", "path", b.cfg.StorePath, "model", b.embedder.Model())

	records, err := b.source.Records(ctx)
	if err != nil {
		return report, errors.Wrap(err, "failed to read records")
	}
	report.Records = len(records)
	chunks := Chunks(records, b.splitter)
	report.Skipped = report.Records - lo.CountBy(records, func(r record.Record) bool { return r.HasDescription() })
	report.Chunks = len(chunks)
	b.logger.Info("chunked records", "valid", report.Records-report.Skipped, "skipped", report.Skipped, "chunks", report.Chunks)

	if len(chunks) == 0 {
		b.logger.Warn("no records with a description, index is empty", "records", report.Records)
		return report, nil
	}

	entries, err := b.embedChunks(ctx, chunks)
	if err != nil {
		return report, err
	}
	if err := store.InsertBatch(ctx, entries); err != nil {
		return report, errors.Wrap(err, "failed to insert chunks")
	}
	return report, nil
}

// embedChunks embeds chunks in batches, up to Workers at a time, and returns the
// entries in chunk order.
func (b *Builder) embedChunks(ctx context.Context, chunks []vector.Chunk) ([]vector.Entry, error) {
	batches := lo.Chunk(chunks, b.cfg.BatchSize)
	vectors := make([][][]float32, len(batches))
	model := b.embedder.Model()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Workers)
	for i, batch := range batches {
		g.Go(func() error {
			texts := lo.Map(batch, func(c vector.Chunk, _ int) string { return c.Text })
			vecs, err := b.embedder.EmbedBatch(gctx, texts)
			if err == nil && len(vecs) != len(texts) {
				err = errors.Wrapf(embed.ErrUnavailable, "got %d embeddings for %d texts", len(vecs), len(texts))
			}
			if err != nil {
				observability.EmbedBatchesTotal.WithLabelValues(model, "error").Inc()
				return errors.Wrapf(err, "failed to embed batch %d/%d", i+1, len(batches))
			}
			observability.EmbedBatchesTotal.WithLabelValues(model, "ok").Inc()
			vectors[i] = vecs
			b.logger.Debug("embedded batch", "batch", i+1, "of", len(batches))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	entries := make([]vector.Entry, 0, len(chunks))
	for i, batch := range batches {
		for j, c := range batch {
			entries = append(entries, vector.Entry{Chunk: c, Embedding: vectors[i][j]})
		}
	}
	return entries, nil
}

// Chunks drops records without a usable description and splits the trimmed
// rest, tagging every chunk with its record's title and author. Blank chunks
// are dropped. Output follows record order, then chunk order.
func Chunks(records []record.Record, splitter *chunker.Splitter) []vector.Chunk {
	valid := lo.Filter(records, func(r record.Record, _ int) bool { return r.HasDescription() })
	return lo.FlatMap(valid, func(r record.Record, _ int) []vector.Chunk {
		texts := lo.Filter(splitter.Split(strings.TrimSpace(r.Description)), func(text string, _ int) bool {
			return strings.TrimSpace(text) != ""
		})
		return lo.Map(texts, func(text string, _ int) vector.Chunk {
			return vector.Chunk{Text: text, Title: r.Title, Author: r.Author}
		})
	})
}

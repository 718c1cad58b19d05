// Package search answers free-text queries against an opened vector store.
package search

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/viant/booksearch/embed"
	"github.com/viant/booksearch/observability"
	"github.com/viant/booksearch/vector"
)

const (
	// DefaultK is the number of results returned when the caller does not ask.
	DefaultK = 3
	// MaxK is the largest k accepted at the caller-facing boundary.
	MaxK = 10
)

// ErrInvalidArgument reports a malformed search request.
var ErrInvalidArgument = vector.ErrInvalidArgument

// Querier is the read side of vector.Store.
type Querier interface {
	Query(ctx context.Context, vec []float32, k int) ([]vector.Match, error)
}

// Result is one ranked hit.
type Result struct {
	Text     string  `json:"text"`
	Title    string  `json:"title"`
	Author   string  `json:"author"`
	Distance float64 `json:"distance"`
}

// Results is ordered by ascending distance. An empty Results is the
// no-results outcome and is not an error.
type Results []Result

// Empty reports whether the search found nothing.
func (r Results) Empty() bool { return len(r) == 0 }

// Option configures a Service.
type Option func(*Service)

// WithTimeout bounds each search, embedding included.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// WithLogger sets the logger used for query diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Service embeds queries and ranks stored chunks. It is safe for concurrent
// use when the embedder and store are.
type Service struct {
	embedder embed.Embedder
	store    Querier
	timeout  time.Duration
	logger   *slog.Logger
}

// New returns a Service over an opened store.
func New(embedder embed.Embedder, store Querier, opts ...Option) *Service {
	s := &Service{
		embedder: embedder,
		store:    store,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search returns up to k chunks closest to query, in store order.
func (s *Service) Search(ctx context.Context, query string, k int) (Results, error) {
	start := time.Now()
	results, err := s.search(ctx, query, k)
	observability.SearchDuration.Observe(time.Since(start).Seconds())
	observability.SearchesTotal.WithLabelValues(status(results, err)).Inc()
	if err != nil {
		s.logger.Debug("search failed", "query", query, "k", k, "error", err)
		return nil, err
	}
	s.logger.Debug("search", "query", query, "k", k, "found", len(results))
	return results, nil
}

func (s *Service) search(ctx context.Context, query string, k int) (Results, error) {
	if k < 1 {
		return nil, errors.Wrapf(ErrInvalidArgument, "k must be >= 1, got %d", k)
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		if !errors.Is(err, embed.ErrUnavailable) {
			err = errors.Wrap(embed.ErrUnavailable, err.Error())
		}
		return nil, errors.Wrap(err, "failed to embed query")
	}

	matches, err := s.store.Query(ctx, vec, k)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query store")
	}
	return lo.Map(matches, func(m vector.Match, _ int) Result {
		return Result{
			Text:     m.Chunk.Text,
			Title:    m.Chunk.Title,
			Author:   m.Chunk.Author,
			Distance: m.Distance,
		}
	}), nil
}

func status(results Results, err error) string {
	switch {
	case err == nil && results.Empty():
		return "empty"
	case err == nil:
		return "ok"
	case errors.Is(err, vector.ErrInvalidArgument), errors.Is(err, vector.ErrDimensionMismatch):
		return "invalid"
	case errors.Is(err, embed.ErrUnavailable), errors.Is(err, vector.ErrStoreUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

// ClampK limits k to 1..max. A max below 1 selects MaxK.
func ClampK(k, max int) int {
	if max < 1 {
		max = MaxK
	}
	return lo.Clamp(k, 1, max)
}

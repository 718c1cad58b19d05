// Package server exposes search over HTTP.
//
// Routes:
//
//	GET /search?q=<query>&k=<n>  ranked results as JSON; k is clamped to 1..max_k
//	GET /healthz                 liveness
//	GET /metrics                 Prometheus metrics
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/viant/booksearch/embed"
	"github.com/viant/booksearch/observability"
	"github.com/viant/booksearch/search"
	"github.com/viant/booksearch/vector"
)

// Searcher is implemented by search.Service.
type Searcher interface {
	Search(ctx context.Context, query string, k int) (search.Results, error)
}

// Config holds the query boundary settings.
type Config struct {
	DefaultK int
	MaxK     int
}

// Response is the body of a successful /search call.
type Response struct {
	Query    string         `json:"query"`
	K        int            `json:"k"`
	Empty    bool           `json:"empty"`
	Results  search.Results `json:"results"`
	Markdown string         `json:"markdown"`
}

// Handler returns the HTTP handler for the query surface.
func Handler(searcher Searcher, cfg Config) http.Handler {
	if cfg.MaxK < 1 {
		cfg.MaxK = search.MaxK
	}
	if cfg.DefaultK < 1 {
		cfg.DefaultK = search.DefaultK
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /search", func(w http.ResponseWriter, r *http.Request) {
		handleSearch(w, r, searcher, cfg)
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	return observability.MetricsMiddleware(mux)
}

func handleSearch(w http.ResponseWriter, r *http.Request, searcher Searcher, cfg Config) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeJSONError(w, "query parameter q is required", http.StatusBadRequest)
		return
	}
	k := cfg.DefaultK
	if raw := r.URL.Query().Get("k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeJSONError(w, "k must be an integer", http.StatusBadRequest)
			return
		}
		k = n
	}
	k = search.ClampK(k, cfg.MaxK)

	results, err := searcher.Search(r.Context(), query, k)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			slog.Error("search failed", "query", query, "k", k, "error", err)
		}
		writeJSONError(w, http.StatusText(status)+": "+err.Error(), status)
		return
	}
	if results == nil {
		results = search.Results{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(Response{
		Query:    query,
		K:        k,
		Empty:    results.Empty(),
		Results:  results,
		Markdown: search.Format(results),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, vector.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, embed.ErrUnavailable), errors.Is(err, vector.ErrStoreUnavailable),
		errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]interface{}{
			"message": message,
			"status":  status,
		},
	})
}

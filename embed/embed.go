// Package embed maps text to fixed-dimension float vectors.
//
// Adapters wrap a local hashing model, langchaingo providers (OpenAI, Ollama)
// and plain functions behind a single Embedder contract. Guard adds per-call
// timeouts and rate limiting on top of any of them.
package embed

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrUnavailable reports that the model could not be reached, loaded or
// answered in time.
var ErrUnavailable = errors.New("embed: embedding unavailable")

// Embedder converts text into embeddings. EmbedBatch is element-for-element
// equivalent to calling Embed on each text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// Dimensions returns the vector length, or 0 before the first successful
	// call for models that discover it lazily.
	Dimensions() int
	// Model names the underlying model.
	Model() string
}

// Func converts free-form text into an embedding.
type Func func(ctx context.Context, text string) ([]float32, error)

// FuncEmbedder adapts a Func to Embedder.
type FuncEmbedder struct {
	fn    Func
	model string
	dims  dimension
}

// FromFunc returns an Embedder backed by fn.
func FromFunc(model string, fn Func) (*FuncEmbedder, error) {
	if fn == nil {
		return nil, fmt.Errorf("embed: Func is nil")
	}
	return &FuncEmbedder{fn: fn, model: model}, nil
}

// Embed calls the wrapped Func and checks the vector length is stable.
func (f *FuncEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := f.fn(ctx, text)
	if err != nil {
		return nil, unavailable(err)
	}
	if err := f.dims.observe(len(vec)); err != nil {
		return nil, err
	}
	return vec, nil
}

// EmbedBatch embeds texts one at a time, stopping at the first failure.
func (f *FuncEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := f.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// Dimensions returns the length observed on the first successful call.
func (f *FuncEmbedder) Dimensions() int { return f.dims.get() }

// Model returns the name given to FromFunc.
func (f *FuncEmbedder) Model() string { return f.model }

// dimension caches the vector length reported by the first successful call.
type dimension struct {
	v atomic.Int64
}

func (d *dimension) get() int { return int(d.v.Load()) }

func (d *dimension) observe(n int) error {
	if n == 0 {
		return fmt.Errorf("%w: model returned an empty vector", ErrUnavailable)
	}
	if d.v.CompareAndSwap(0, int64(n)) {
		return nil
	}
	if want := d.get(); want != n {
		return fmt.Errorf("%w: model returned %d dimensions, expected %d", ErrUnavailable, n, want)
	}
	return nil
}

// unavailable wraps err with ErrUnavailable unless it already carries it or
// is a caller cancellation.
func unavailable(err error) error {
	if err == nil || errors.Is(err, ErrUnavailable) || errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

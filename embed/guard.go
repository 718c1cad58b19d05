package embed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// WithTimeout bounds every call to the wrapped embedder.
func WithTimeout(d time.Duration) GuardOption {
	return func(g *Guard) { g.timeout = d }
}

// WithRateLimit limits calls to rps per second with the given burst. rps <= 0
// disables limiting.
func WithRateLimit(rps float64, burst int) GuardOption {
	return func(g *Guard) {
		if rps <= 0 {
			g.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// Guard wraps an Embedder with a per-call timeout and an optional token
// bucket. Timeouts surface as ErrUnavailable.
type Guard struct {
	next    Embedder
	timeout time.Duration
	limiter *rate.Limiter
}

// NewGuard wraps next.
func NewGuard(next Embedder, opts ...GuardOption) *Guard {
	g := &Guard{next: next}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Embed waits for the rate limiter, then embeds text within the timeout.
func (g *Guard) Embed(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	err := g.call(ctx, func(ctx context.Context) error {
		var err error
		out, err = g.next.Embed(ctx, text)
		return err
	})
	return out, err
}

// EmbedBatch counts as a single call against the limiter and timeout.
func (g *Guard) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	err := g.call(ctx, func(ctx context.Context) error {
		var err error
		out, err = g.next.EmbedBatch(ctx, texts)
		return err
	})
	return out, err
}

// Dimensions delegates to the wrapped Embedder.
func (g *Guard) Dimensions() int { return g.next.Dimensions() }

// Model delegates to the wrapped Embedder.
func (g *Guard) Model() string { return g.next.Model() }

func (g *Guard) call(ctx context.Context, fn func(ctx context.Context) error) error {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil && !errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return ctx.Err()
			}
			return fmt.Errorf("%w: rate limit: %w", ErrUnavailable, err)
		}
	}
	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	err := fn(callCtx)
	if err == nil {
		return nil
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrUnavailable) {
		return fmt.Errorf("%w: timed out after %s: %w", ErrUnavailable, g.timeout, err)
	}
	return unavailable(err)
}

package search

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/booksearch/builder"
	"github.com/viant/booksearch/chunker"
	"github.com/viant/booksearch/embed"
	"github.com/viant/booksearch/record"
	"github.com/viant/booksearch/vector"
)

// buildService indexes records with the hashing model and returns a Service
// over the result.
func buildService(t *testing.T, records record.Slice, opts ...Option) *Service {
	t.Helper()
	e := embed.NewHashing(256)
	b, err := builder.New(builder.Config{
		StorePath:    filepath.Join(t.TempDir(), "store"),
		ChunkSize:    chunker.DefaultSize,
		ChunkOverlap: chunker.DefaultOverlap,
	}, records, e)
	require.NoError(t, err)
	store, _, err := b.Build(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return New(e, store, opts...)
}

func TestSearch_WarAndPeace(t *testing.T) {
	svc := buildService(t, record.Slice{
		{Title: "The Cookbook", Author: "A. Chef", Description: "Recipes for bread, soups and chocolate cake."},
		{Title: "War and Peace", Author: "Leo Tolstoy", Description: "Napoleon invades Russia and the war reaches Moscow."},
		{Title: "Gardening", Author: "G. Green", Description: "How to grow tomatoes, roses and herbs in a small garden."},
	})

	results, err := svc.Search(context.Background(), "Napoleon invades Russia", DefaultK)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "War and Peace", results[0].Title)
	assert.Equal(t, "Leo Tolstoy", results[0].Author)
	assert.Contains(t, results[0].Text, "Napoleon")
	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i-1].Distance, results[i].Distance)
	}

	one, err := svc.Search(context.Background(), "chocolate cake recipes", 1)
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "The Cookbook", one[0].Title)
}

func TestSearch_EmptyStore(t *testing.T) {
	svc := buildService(t, record.Slice{{Title: "x", Description: "nan"}})
	results, err := svc.Search(context.Background(), "anything", 3)
	require.NoError(t, err)
	assert.True(t, results.Empty())
	assert.Equal(t, NoResults, Format(results))
}

func TestSearch_InvalidK(t *testing.T) {
	svc := New(embed.NewHashing(8), stubQuerier{})
	for _, k := range []int{0, -1} {
		_, err := svc.Search(context.Background(), "q", k)
		assert.ErrorIs(t, err, ErrInvalidArgument, "k=%d", k)
	}
}

type stubQuerier struct {
	matches []vector.Match
	err     error
}

func (s stubQuerier) Query(context.Context, []float32, int) ([]vector.Match, error) {
	return s.matches, s.err
}

func TestSearch_EmbedderUnavailable(t *testing.T) {
	e, err := embed.FromFunc("down", func(context.Context, string) ([]float32, error) {
		return nil, errors.New("connection refused")
	})
	require.NoError(t, err)
	_, err = New(e, stubQuerier{}).Search(context.Background(), "q", 3)
	assert.ErrorIs(t, err, embed.ErrUnavailable)
}

func TestSearch_Timeout(t *testing.T) {
	slow, err := embed.FromFunc("slow", func(ctx context.Context, _ string) ([]float32, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	require.NoError(t, err)
	_, err = New(slow, stubQuerier{}, WithTimeout(10*time.Millisecond)).Search(context.Background(), "q", 3)
	assert.ErrorIs(t, err, embed.ErrUnavailable)
}

func TestSearch_StoreUnavailable(t *testing.T) {
	q := stubQuerier{err: vector.ErrStoreUnavailable}
	_, err := New(embed.NewHashing(8), q).Search(context.Background(), "q", 3)
	assert.ErrorIs(t, err, vector.ErrStoreUnavailable)
}

func TestSearch_KeepsStoreOrder(t *testing.T) {
	q := stubQuerier{matches: []vector.Match{
		{Chunk: vector.Chunk{Text: "b", Title: "B", Author: "bb"}, Distance: 0.1},
		{Chunk: vector.Chunk{Text: "a", Title: "A", Author: "aa"}, Distance: 0.1},
	}}
	results, err := New(embed.NewHashing(8), q).Search(context.Background(), "q", 2)
	require.NoError(t, err)
	assert.Equal(t, Results{
		{Text: "b", Title: "B", Author: "bb", Distance: 0.1},
		{Text: "a", Title: "A", Author: "aa", Distance: 0.1},
	}, results)
}

func TestFormat(t *testing.T) {
	out := Format(Results{
		{Title: "War and Peace", Author: "Leo Tolstoy", Text: "Napoleon."},
		{Title: "Cookbook", Author: "Chef", Text: "Cake."},
	})
	assert.Equal(t, "**War and Peace** by Leo Tolstoy\n\nNapoleon.\n\n---\n\n**Cookbook** by Chef\n\nCake.", out)
}

func TestClampK(t *testing.T) {
	assert.Equal(t, 1, ClampK(0, MaxK))
	assert.Equal(t, 1, ClampK(-5, MaxK))
	assert.Equal(t, 3, ClampK(3, MaxK))
	assert.Equal(t, MaxK, ClampK(50, MaxK))
	assert.Equal(t, MaxK, ClampK(50, 0))
}

package embed

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// DefaultHashingDimensions matches the all-MiniLM-L6-v2 output size so stores
// built offline have the same shape as ones built with the hosted model.
const DefaultHashingDimensions = 384

// Hashing is a deterministic, offline embedder using the hashing trick over
// lower-cased word unigrams and bigrams. Vectors are L2-normalized; text
// without words maps to the zero vector.
type Hashing struct {
	dims int
}

// NewHashing returns a hashing embedder with dims buckets. dims <= 0 selects
// DefaultHashingDimensions.
func NewHashing(dims int) *Hashing {
	if dims <= 0 {
		dims = DefaultHashingDimensions
	}
	return &Hashing{dims: dims}
}

// Embed returns the L2-normalized feature hash of text.
func (h *Hashing) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vec := make([]float32, h.dims)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for i, w := range words {
		h.add(vec, w, 1)
		if i > 0 {
			h.add(vec, words[i-1]+" "+w, 0.5)
		}
	}
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec, nil
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
	return vec, nil
}

// add folds a feature into its bucket; the sign comes from a second hash bit
// so collisions tend to cancel.
func (h *Hashing) add(vec []float32, feature string, weight float32) {
	hasher := fnv.New64a()
	_, _ = hasher.Write([]byte(feature))
	sum := hasher.Sum64()
	bucket := int(sum % uint64(h.dims))
	if sum>>63 == 1 {
		weight = -weight
	}
	vec[bucket] += weight
}

// EmbedBatch embeds each text in order.
func (h *Hashing) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := h.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// Dimensions returns the configured vector length.
func (h *Hashing) Dimensions() int { return h.dims }

// Model returns "hashing-<dims>".
func (h *Hashing) Model() string { return fmt.Sprintf("hashing-%d", h.dims) }

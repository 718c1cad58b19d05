package bruteforce

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/viant/booksearch/index"
)

// Index is a brute-force vector index ranking by cosine distance.
type Index struct {
	ids  []int64
	vecs [][]float32
	mags []float32
	dim  int
}

var _ index.Index = (*Index)(nil)

// New creates an empty index.
func New() *Index { return &Index{} }

// Build resets the index and loads ids and vectors.
func (i *Index) Build(ids []int64, vectors [][]float32) error {
	i.ids, i.vecs, i.mags, i.dim = nil, nil, nil, 0
	return i.Add(ids, vectors)
}

// Add appends vectors and precomputes magnitudes. Vectors are copied so the
// caller keeps ownership of its slices.
func (i *Index) Add(ids []int64, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("bruteforce: ids and vectors length mismatch: %d != %d", len(ids), len(vectors))
	}
	if len(ids) == 0 {
		return nil
	}
	dim := i.dim
	if dim == 0 {
		dim = len(vectors[0])
	}
	if dim == 0 {
		return errors.New("bruteforce: empty vector")
	}
	for j := range vectors {
		if len(vectors[j]) != dim {
			return fmt.Errorf("bruteforce: inconsistent vector dims %d vs %d", len(vectors[j]), dim)
		}
	}
	for j := range vectors {
		vec := append([]float32(nil), vectors[j]...)
		i.ids = append(i.ids, ids[j])
		i.vecs = append(i.vecs, vec)
		i.mags = append(i.mags, index.Magnitude(vec))
	}
	i.dim = dim
	return nil
}

// Query returns the top-k by ascending cosine distance. Zero-magnitude
// vectors score distance 1 against everything.
func (i *Index) Query(query []float32, k int) ([]index.Neighbor, error) {
	if k <= 0 {
		return nil, fmt.Errorf("bruteforce: k must be positive, got %d", k)
	}
	if i.dim == 0 || len(i.vecs) == 0 {
		return nil, nil
	}
	if len(query) != i.dim {
		return nil, fmt.Errorf("bruteforce: query dim %d != index dim %d", len(query), i.dim)
	}
	qm := index.Magnitude(query)
	type scored struct {
		pos  int
		dist float64
	}
	scoreds := make([]scored, len(i.vecs))
	for j := range i.vecs {
		scoreds[j] = scored{pos: j, dist: index.CosineDistanceWithMagnitude(query, i.vecs[j], qm, i.mags[j])}
	}
	// stable: equal distances keep insertion order
	sort.SliceStable(scoreds, func(a, b int) bool { return scoreds[a].dist < scoreds[b].dist })
	if k > len(scoreds) {
		k = len(scoreds)
	}
	out := make([]index.Neighbor, k)
	for n := 0; n < k; n++ {
		out[n] = index.Neighbor{ID: i.ids[scoreds[n].pos], Distance: scoreds[n].dist}
	}
	return out, nil
}

// Clone returns an index sharing the stored vectors, which are never
// mutated, so appending to the clone leaves i untouched.
func (i *Index) Clone() *Index {
	return &Index{
		ids:  append([]int64(nil), i.ids...),
		vecs: append([][]float32(nil), i.vecs...),
		mags: append([]float32(nil), i.mags...),
		dim:  i.dim,
	}
}

// Len returns the number of indexed vectors.
func (i *Index) Len() int { return len(i.ids) }

// Dimension returns the index dimension.
func (i *Index) Dimension() int { return i.dim }

// MarshalBinary stores: dim(uint32), n(uint32), then for each item:
// id(int64), vec(float32[dim]).
func (i *Index) MarshalBinary() ([]byte, error) {
	out := make([]byte, 8, 8+len(i.ids)*(8+4*i.dim))
	binary.LittleEndian.PutUint32(out[0:4], uint32(i.dim))
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(i.ids)))
	for idx, id := range i.ids {
		out = binary.LittleEndian.AppendUint64(out, uint64(id))
		for _, v := range i.vecs[idx] {
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(v))
		}
	}
	return out, nil
}

// UnmarshalBinary restores the index from bytes.
func (i *Index) UnmarshalBinary(data []byte) error {
	if len(data) < 8 {
		return errors.New("bruteforce: invalid data")
	}
	dim := int(binary.LittleEndian.Uint32(data[0:4]))
	n := int(binary.LittleEndian.Uint32(data[4:8]))
	if n > 0 && dim == 0 {
		return errors.New("bruteforce: zero dimension")
	}
	if want := 8 + n*(8+4*dim); len(data) != want {
		return fmt.Errorf("bruteforce: truncated data: %d bytes, want %d", len(data), want)
	}
	off := 8
	ids := make([]int64, n)
	vecs := make([][]float32, n)
	for idx := 0; idx < n; idx++ {
		ids[idx] = int64(binary.LittleEndian.Uint64(data[off:]))
		off += 8
		vec := make([]float32, dim)
		for j := 0; j < dim; j++ {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
			off += 4
		}
		vecs[idx] = vec
	}
	return i.Build(ids, vecs)
}

package index

import (
	"math"

	"github.com/viant/vec/search"
)

// MaxDistance is the largest cosine distance; NaN scores are clamped to it.
const MaxDistance = 2.0

// Magnitude returns the L2 norm of v.
func Magnitude(v []float32) float32 { return search.Float32s(v).Magnitude() }

// CosineDistance returns 1 - cos(a, b) for vectors of equal length.
func CosineDistance(a, b []float32) float64 {
	return CosineDistanceWithMagnitude(a, b, Magnitude(a), Magnitude(b))
}

// CosineDistanceWithMagnitude is CosineDistance with precomputed magnitudes.
// A zero-magnitude vector is at distance 1 from everything. Rounding below
// zero is clamped to 0 so parallel vectors tie exactly.
func CosineDistanceWithMagnitude(a, b []float32, am, bm float32) float64 {
	if am == 0 || bm == 0 {
		return 1
	}
	d := float64(search.Float32s(a).CosineDistance(b))
	switch {
	case math.IsNaN(d):
		return MaxDistance
	case d < 0:
		return 0
	}
	return d
}

package index

import (
	"math"
	"testing"
)

func TestCosineDistance(t *testing.T) {
	testCases := []struct {
		description string
		a, b        []float32
		want        float64
		delta       float64
	}{
		{description: "parallel", a: []float32{3, 4}, b: []float32{6, 8}, want: 0, delta: 1e-6},
		{description: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 1, delta: 1e-6},
		{description: "opposite", a: []float32{1, 0}, b: []float32{-1, 0}, want: 2, delta: 1e-6},
		{description: "zero query", a: []float32{0, 0}, b: []float32{1, 0}, want: 1},
		{description: "zero stored", a: []float32{1, 0}, b: []float32{0, 0}, want: 1},
	}
	for _, tc := range testCases {
		got := CosineDistance(tc.a, tc.b)
		if math.Abs(got-tc.want) > tc.delta {
			t.Errorf("%s: CosineDistance = %v, want %v", tc.description, got, tc.want)
		}
	}
}

func TestCosineDistance_NeverNegative(t *testing.T) {
	vectors := [][]float32{
		{0.1, 0.2, 0.3},
		{0.3312, -0.9127, 0.0041, 0.2389},
		{1e-3, 7.77, -3.1415, 2.71828, 0.5},
	}
	for _, v := range vectors {
		scaled := make([]float32, len(v))
		for i := range v {
			scaled[i] = v[i] * 3
		}
		for _, other := range [][]float32{v, scaled} {
			got := CosineDistance(v, other)
			if got < 0 || got > 1e-6 {
				t.Errorf("CosineDistance(%v, %v) = %v, want 0 within rounding and never negative", v, other, got)
			}
		}
	}
}

package engine_test

import (
	"math"
	"testing"

	"github.com/viant/booksearch/engine"
	"github.com/viant/booksearch/index"
	"github.com/viant/booksearch/vector"
)

func TestRegisterVectorFunctionsAndUse(t *testing.T) {
	if err := engine.RegisterVectorFunctions(nil); err != nil {
		t.Fatalf("RegisterVectorFunctions failed: %v", err)
	}
	db, err := engine.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	defer db.Close()

	aBlob, err := vector.EncodeEmbedding([]float32{1, 0})
	if err != nil {
		t.Fatalf("EncodeEmbedding a failed: %v", err)
	}
	bBlob, err := vector.EncodeEmbedding([]float32{0, 1})
	if err != nil {
		t.Fatalf("EncodeEmbedding b failed: %v", err)
	}
	cBlob, err := vector.EncodeEmbedding([]float32{2, 0})
	if err != nil {
		t.Fatalf("EncodeEmbedding c failed: %v", err)
	}
	zeroBlob, err := vector.EncodeEmbedding([]float32{0, 0})
	if err != nil {
		t.Fatalf("EncodeEmbedding zero failed: %v", err)
	}

	var dist float64
	if err := db.QueryRow(`SELECT vec_cosine_distance(?, ?)`, aBlob, bBlob).Scan(&dist); err != nil {
		t.Fatalf("vec_cosine_distance(a,b) query failed: %v", err)
	}
	if math.Abs(dist-1) > 1e-6 {
		t.Fatalf("vec_cosine_distance(a,b) = %v, want 1", dist)
	}

	if err := db.QueryRow(`SELECT vec_cosine_distance(?, ?)`, aBlob, cBlob).Scan(&dist); err != nil {
		t.Fatalf("vec_cosine_distance(a,c) query failed: %v", err)
	}
	if math.Abs(dist) > 1e-6 {
		t.Fatalf("vec_cosine_distance(a,c) = %v, want 0", dist)
	}

	if err := db.QueryRow(`SELECT vec_cosine_distance(?, ?)`, aBlob, zeroBlob).Scan(&dist); err != nil {
		t.Fatalf("vec_cosine_distance(a,zero) query failed: %v", err)
	}
	if dist != 1 {
		t.Fatalf("vec_cosine_distance(a,zero) = %v, want 1", dist)
	}
}

func TestVectorFunctionsDimensionMismatch(t *testing.T) {
	db, err := engine.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	defer db.Close()

	a, _ := vector.EncodeEmbedding([]float32{1, 0})
	b, _ := vector.EncodeEmbedding([]float32{1, 0, 0})
	var dist float64
	if err := db.QueryRow(`SELECT vec_cosine_distance(?, ?)`, a, b).Scan(&dist); err == nil {
		t.Fatalf("expected dimension mismatch error, got distance %v", dist)
	}
}

func TestVecCosineDistanceMatchesIndex(t *testing.T) {
	db, err := engine.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	defer db.Close()

	vectors := [][]float32{
		{0.3312, -0.9127, 0.0041, 0.2389},
		{1e-3, 7.77, -3.1415, 2.71828},
		{0.1, 0.2, 0.3, 0.4},
	}
	for _, v := range vectors {
		blob, err := vector.EncodeEmbedding(v)
		if err != nil {
			t.Fatalf("EncodeEmbedding failed: %v", err)
		}
		var dist float64
		if err := db.QueryRow(`SELECT vec_cosine_distance(?, ?)`, blob, blob).Scan(&dist); err != nil {
			t.Fatalf("vec_cosine_distance(v,v) query failed: %v", err)
		}
		if dist < 0 {
			t.Fatalf("vec_cosine_distance(%v, itself) = %v, want non-negative", v, dist)
		}
		if want := index.CosineDistance(v, v); dist != want {
			t.Fatalf("vec_cosine_distance(%v, itself) = %v, index scores %v", v, dist, want)
		}
	}
}

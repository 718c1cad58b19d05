package index

// Neighbor is a single kNN hit: the caller-assigned id of the stored vector
// and its cosine distance to the query.
type Neighbor struct {
	ID       int64
	Distance float64
}

// Index defines an append-only vector index.
type Index interface {
	// Add appends vectors under the given ids. ids and vectors must have the
	// same length and every vector must match the index dimension. The order
	// of Add calls defines the insertion order used to break distance ties.
	Add(ids []int64, vectors [][]float32) error

	// Query returns up to k neighbours ordered by ascending distance, ties
	// broken by insertion order.
	Query(query []float32, k int) ([]Neighbor, error)

	// Len returns the number of indexed vectors.
	Len() int

	// Dimension returns the established vector dimension, or 0 when empty.
	Dimension() int

	// MarshalBinary serializes the index into a byte slice.
	MarshalBinary() ([]byte, error)

	// UnmarshalBinary reconstructs the index from a serialized byte slice.
	UnmarshalBinary(data []byte) error
}

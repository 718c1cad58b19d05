package vector

// Chunk is a bounded slice of a source record's text, carrying only the
// denormalized metadata of the record it came from.
type Chunk struct {
	// ID is the logical identifier of the chunk. When empty on insert, the
	// store generates one.
	ID string

	// Text holds the chunk body.
	Text string

	// Title and Author are copied from the originating record.
	Title  string
	Author string
}

// Entry is the persisted unit: a chunk and its embedding.
type Entry struct {
	Chunk     Chunk
	Embedding []float32
}

// Match is a single similarity search hit.
type Match struct {
	Chunk Chunk
	// Distance is the cosine distance (1 - cosine similarity) to the query.
	Distance float64
}

// SearchMode selects how Query ranks stored vectors.
type SearchMode string

const (
	// SearchBrute scans an in-memory copy of all vectors.
	SearchBrute SearchMode = "brute"
	// SearchSQL orders rows with the vec_cosine_distance SQL function.
	SearchSQL SearchMode = "sql"
)

// Valid reports whether m names a supported mode.
func (m SearchMode) Valid() bool {
	return m == SearchBrute || m == SearchSQL
}

// Package bruteforce provides a vector index that answers kNN queries by
// scanning all vectors and scoring via cosine distance. It supports a compact
// binary format for persistence in the vector_storage table.
package bruteforce

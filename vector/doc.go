// Package vector implements the durable, directory-addressed vector store
// used by booksearch. It includes:
//   - Chunk, Entry and Match models
//   - Store: SQLite-backed storage with an O(1) persisted count and
//     exhaustive cosine kNN search (in-memory index or SQL scan)
//   - Schema helpers for the chunks, store_meta and vector_storage tables
//   - Embedding encoding (BLOB) and distance functions
package vector

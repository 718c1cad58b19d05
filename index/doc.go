// Package index defines a minimal abstraction for in-memory vector indexes
// that are appended to in insertion order, queried for kNN by cosine
// distance, and serialized for persistence next to the rows they cover. The
// cosine distance here is shared with the SQL search path.
package index

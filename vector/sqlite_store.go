package vector

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/viant/booksearch/engine"
	"github.com/viant/booksearch/index/bruteforce"
)

// FileName is the database file kept inside the store directory.
const FileName = "store.db"

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for store diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSearchMode selects the query strategy. Invalid modes are ignored.
func WithSearchMode(mode SearchMode) Option {
	return func(s *Store) {
		if mode.Valid() {
			s.mode = mode
		}
	}
}

// WithModel names the embedding model whose vectors will be inserted. The
// name is recorded on the first insert into an empty store.
func WithModel(model string) Option {
	return func(s *Store) { s.model = model }
}

// Store is a durable, directory-addressed collection of embedded chunks.
// Count is answered from a persisted marker; Query ranks by cosine distance
// with ties broken by insertion order. Readers run concurrently; InsertBatch
// excludes them.
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	dir    string
	mode   SearchMode
	model  string
	logger *slog.Logger

	storedModel string
	dim         int
	count       int
	idx         *bruteforce.Index
}

// Exists reports whether the store directory exists.
func Exists(dir string) (bool, error) {
	_, err := os.Stat(dir)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
}

// Remove deletes the store directory and everything in it.
func Remove(dir string) error {
	clean := filepath.Clean(dir)
	if clean == "." || clean == string(filepath.Separator) || clean == "" {
		return fmt.Errorf("%w: refusing to remove %q", ErrInvalidArgument, dir)
	}
	return os.RemoveAll(clean)
}

// Open opens the store at dir, creating an empty one when dir does not exist.
// It fails with ErrCorruptStore when dir exists but does not hold a readable,
// consistent store.
func Open(ctx context.Context, dir string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("%w: empty store path", ErrInvalidArgument)
	}
	info, err := os.Stat(dir)
	switch {
	case err == nil && !info.IsDir():
		return nil, fmt.Errorf("%w: %s is not a directory", ErrCorruptStore, dir)
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: creating %s: %w", ErrStoreUnavailable, dir, err)
		}
	case err != nil:
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	dbPath := filepath.Join(dir, FileName)
	if _, err := os.Stat(dbPath); errors.Is(err, fs.ErrNotExist) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
		if len(entries) > 0 {
			return nil, fmt.Errorf("%w: %s has no %s but is not empty", ErrCorruptStore, dir, FileName)
		}
	}

	db, err := engine.OpenFile(dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	s := &Store{
		db:     db,
		dir:    dir,
		mode:   SearchBrute,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.load(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	s.logger.Debug("vector store opened", "path", dir, "count", s.count, "dimension", s.dim, "mode", s.mode)
	return s, nil
}

// load validates the persisted layout and restores the in-memory state.
func (s *Store) load(ctx context.Context) error {
	tables, err := s.tables(ctx)
	if err != nil {
		return classify(err)
	}
	if len(tables) == 0 {
		if err := EnsureSchema(ctx, s.db); err != nil {
			return classify(err)
		}
		s.idx = bruteforce.New()
		return nil
	}
	for _, name := range requiredTables {
		if !tables[name] {
			return fmt.Errorf("%w: missing table %s", ErrCorruptStore, name)
		}
	}

	meta, err := s.readMeta(ctx)
	if err != nil {
		return classify(err)
	}
	if v := meta[metaFormatVersion]; v != FormatVersion {
		return fmt.Errorf("%w: unsupported format version %q", ErrCorruptStore, v)
	}
	if s.count, err = strconv.Atoi(meta[metaCount]); err != nil || s.count < 0 {
		return fmt.Errorf("%w: invalid count marker %q", ErrCorruptStore, meta[metaCount])
	}
	if s.dim, err = strconv.Atoi(meta[metaDimension]); err != nil || s.dim < 0 {
		return fmt.Errorf("%w: invalid dimension marker %q", ErrCorruptStore, meta[metaDimension])
	}
	if s.count > 0 && s.dim == 0 {
		return fmt.Errorf("%w: %d entries without a dimension", ErrCorruptStore, s.count)
	}
	s.storedModel = meta[metaModel]

	var maxSeq int64
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM chunks`).Scan(&maxSeq); err != nil {
		return classify(err)
	}
	if maxSeq != int64(s.count) {
		return fmt.Errorf("%w: count marker %d does not match stored rows %d", ErrCorruptStore, s.count, maxSeq)
	}

	if s.mode == SearchBrute {
		return s.loadIndex(ctx)
	}
	return nil
}

func (s *Store) tables(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out[name] = true
	}
	return out, rows.Err()
}

func (s *Store) readMeta(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM store_meta`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

// loadIndex restores the brute-force index from its snapshot, falling back to
// the chunk rows when the snapshot is missing or stale.
func (s *Store) loadIndex(ctx context.Context) error {
	idx := bruteforce.New()
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT "index" FROM vector_storage WHERE name = ?`, snapshotName).Scan(&data)
	switch {
	case err == nil:
		if uerr := idx.UnmarshalBinary(data); uerr == nil && idx.Len() == s.count && (s.count == 0 || idx.Dimension() == s.dim) {
			s.idx = idx
			return nil
		}
		s.logger.Warn("vector store snapshot is stale, rebuilding from rows", "path", s.dir)
	case errors.Is(err, sql.ErrNoRows):
	default:
		return classify(err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT seq, embedding FROM chunks ORDER BY seq`)
	if err != nil {
		return classify(err)
	}
	defer rows.Close()
	ids := make([]int64, 0, s.count)
	vecs := make([][]float32, 0, s.count)
	for rows.Next() {
		var seq int64
		var blob []byte
		if err := rows.Scan(&seq, &blob); err != nil {
			return classify(err)
		}
		vec, err := DecodeEmbedding(blob)
		if err != nil {
			return fmt.Errorf("%w: row %d: %w", ErrCorruptStore, seq, err)
		}
		if len(vec) != s.dim {
			return fmt.Errorf("%w: row %d has dimension %d, store has %d", ErrCorruptStore, seq, len(vec), s.dim)
		}
		ids = append(ids, seq)
		vecs = append(vecs, vec)
	}
	if err := rows.Err(); err != nil {
		return classify(err)
	}
	idx = bruteforce.New()
	if err := idx.Build(ids, vecs); err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptStore, err)
	}
	s.idx = idx
	return nil
}

// Count returns the number of persisted entries.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

// Dimension returns the established vector dimension, or 0 for an empty store.
func (s *Store) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dim
}

// Model returns the embedding model recorded at the first insert.
func (s *Store) Model() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.storedModel
}

// Path returns the store directory.
func (s *Store) Path() string { return s.dir }

// Mode returns the active search mode.
func (s *Store) Mode() SearchMode { return s.mode }

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertBatch appends entries in order within a single transaction: either
// every entry is persisted or none is. The first insert into an empty store
// establishes the dimension.
func (s *Store) InsertBatch(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	dim := s.dim
	if dim == 0 {
		dim = len(entries[0].Embedding)
	}
	if dim == 0 {
		return fmt.Errorf("%w: empty embedding", ErrDimensionMismatch)
	}
	for i, e := range entries {
		if len(e.Embedding) != dim {
			return fmt.Errorf("%w: entry %d has dimension %d, store has %d", ErrDimensionMismatch, i, len(e.Embedding), dim)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO chunks(id, content, title, author, embedding) VALUES(?, ?, ?, ?, ?)`)
	if err != nil {
		return classify(err)
	}
	defer stmt.Close()

	seqs := make([]int64, 0, len(entries))
	vecs := make([][]float32, 0, len(entries))
	for _, e := range entries {
		id := e.Chunk.ID
		if id == "" {
			id = uuid.NewString()
		}
		blob, err := EncodeEmbedding(e.Embedding)
		if err != nil {
			return err
		}
		res, err := stmt.ExecContext(ctx, id, e.Chunk.Text, e.Chunk.Title, e.Chunk.Author, blob)
		if err != nil {
			return classify(err)
		}
		seq, err := res.LastInsertId()
		if err != nil {
			return classify(err)
		}
		seqs = append(seqs, seq)
		vecs = append(vecs, e.Embedding)
	}

	count := s.count + len(entries)
	if err := setMeta(ctx, tx, metaCount, strconv.Itoa(count)); err != nil {
		return classify(err)
	}
	if err := setMeta(ctx, tx, metaDimension, strconv.Itoa(dim)); err != nil {
		return classify(err)
	}
	storedModel := s.storedModel
	if storedModel == "" && s.model != "" {
		storedModel = s.model
		if err := setMeta(ctx, tx, metaModel, storedModel); err != nil {
			return classify(err)
		}
	}

	var next *bruteforce.Index
	if s.mode == SearchBrute {
		next = s.idx.Clone()
		if err := next.Add(seqs, vecs); err != nil {
			return fmt.Errorf("%w: %w", ErrDimensionMismatch, err)
		}
		data, err := next.MarshalBinary()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO vector_storage(name, "index") VALUES(?, ?)
ON CONFLICT(name) DO UPDATE SET "index" = excluded."index"`, snapshotName, data); err != nil {
			return classify(err)
		}
	} else if _, err := tx.ExecContext(ctx, `DELETE FROM vector_storage WHERE name = ?`, snapshotName); err != nil {
		return classify(err)
	}

	if err := tx.Commit(); err != nil {
		return classify(err)
	}
	s.count = count
	s.dim = dim
	s.storedModel = storedModel
	if next != nil {
		s.idx = next
	}
	return nil
}

// Query returns the min(k, Count()) entries closest to vec by cosine
// distance, ascending, ties broken by insertion order.
func (s *Store) Query(ctx context.Context, vec []float32, k int) ([]Match, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be >= 1, got %d", ErrInvalidArgument, k)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.count == 0 {
		return nil, nil
	}
	if len(vec) != s.dim {
		return nil, fmt.Errorf("%w: query has dimension %d, store has %d", ErrDimensionMismatch, len(vec), s.dim)
	}
	if err := ctx.Err(); err != nil {
		return nil, classify(err)
	}
	if s.mode == SearchSQL {
		return s.querySQL(ctx, vec, k)
	}
	return s.queryIndex(ctx, vec, k)
}

func (s *Store) queryIndex(ctx context.Context, vec []float32, k int) ([]Match, error) {
	neighbors, err := s.idx.Query(vec, k)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDimensionMismatch, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, classify(err)
	}
	if len(neighbors) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(neighbors)), ",")
	args := make([]any, len(neighbors))
	for i, n := range neighbors {
		args[i] = n.ID
	}
	rows, err := s.db.QueryContext(ctx, `SELECT seq, id, content, title, author FROM chunks WHERE seq IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	bySeq := make(map[int64]Chunk, len(neighbors))
	for rows.Next() {
		var seq int64
		var c Chunk
		if err := rows.Scan(&seq, &c.ID, &c.Text, &c.Title, &c.Author); err != nil {
			return nil, classify(err)
		}
		bySeq[seq] = c
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}

	out := make([]Match, 0, len(neighbors))
	for _, n := range neighbors {
		c, ok := bySeq[n.ID]
		if !ok {
			return nil, fmt.Errorf("%w: indexed row %d is missing", ErrCorruptStore, n.ID)
		}
		out = append(out, Match{Chunk: c, Distance: n.Distance})
	}
	return out, nil
}

func (s *Store) querySQL(ctx context.Context, vec []float32, k int) ([]Match, error) {
	blob, err := EncodeEmbedding(vec)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, content, title, author, vec_cosine_distance(?, embedding) AS distance
FROM chunks
ORDER BY distance ASC, seq ASC
LIMIT ?`, blob, k)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	var out []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.Chunk.ID, &m.Chunk.Text, &m.Chunk.Title, &m.Chunk.Author, &m.Distance); err != nil {
			return nil, classify(err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// classify maps driver and context errors onto the store's error taxonomy.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_NOTADB, sqlite3.SQLITE_CORRUPT:
			return fmt.Errorf("%w: %w", ErrCorruptStore, err)
		}
	}
	// Pragma failures while opening a connection may arrive unwrapped.
	if msg := err.Error(); strings.Contains(msg, "not a database") || strings.Contains(msg, "malformed") {
		return fmt.Errorf("%w: %w", ErrCorruptStore, err)
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

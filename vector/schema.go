package vector

import (
	"context"
	"database/sql"
)

// FormatVersion identifies the on-disk layout written by this package.
const FormatVersion = "1"

// snapshotName keys the serialized in-memory index in vector_storage.
const snapshotName = "chunks"

// Meta keys stored in store_meta.
const (
	metaFormatVersion = "format_version"
	metaDimension     = "dimension"
	metaCount         = "count"
	metaModel         = "model"
)

// seq is the rowid alias; with no deletes it is both the insertion order and,
// at its maximum, equal to the persisted count.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS chunks (
    seq       INTEGER PRIMARY KEY,
    id        TEXT NOT NULL UNIQUE,
    content   TEXT NOT NULL,
    title     TEXT NOT NULL DEFAULT '',
    author    TEXT NOT NULL DEFAULT '',
    embedding BLOB NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS store_meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS vector_storage (
    name    TEXT PRIMARY KEY,
    "index" BLOB
)`,
}

// requiredTables lists the tables a valid store must contain.
var requiredTables = []string{"chunks", "store_meta", "vector_storage"}

// EnsureSchema creates the store tables and seeds store_meta for an empty
// store. It is safe to call on an existing store.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	seed := map[string]string{
		metaFormatVersion: FormatVersion,
		metaDimension:     "0",
		metaCount:         "0",
		metaModel:         "",
	}
	for k, v := range seed {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO store_meta(key, value) VALUES(?, ?)`, k, v); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func setMeta(ctx context.Context, tx *sql.Tx, key, value string) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO store_meta(key, value) VALUES(?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

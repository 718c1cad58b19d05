package engine

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // register pure-Go SQLite driver
)

// BusyTimeoutMillis bounds how long a connection waits on a locked database
// before returning SQLITE_BUSY.
const BusyTimeoutMillis = 5000

// Open opens a SQLite database using the modernc.org/sqlite driver. Vector
// functions are registered before the first connection is made so every
// pooled connection sees them.
//
// For in-memory databases, pass ":memory:".
func Open(dsn string) (*sql.DB, error) {
	if err := RegisterVectorFunctions(nil); err != nil {
		return nil, err
	}
	return sql.Open("sqlite", dsn)
}

// OpenFile opens a file-backed database in WAL mode with a busy timeout so
// concurrent readers do not block on each other.
func OpenFile(path string) (*sql.DB, error) {
	return Open(FileDSN(path))
}

// FileDSN builds the driver DSN for a database file.
func FileDSN(path string) string {
	return fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)", path, BusyTimeoutMillis)
}

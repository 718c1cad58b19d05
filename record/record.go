// Package record reads the raw book records that feed the index.
package record

import (
	"context"
	"strings"
)

// Defaults applied when a source has no title or author column.
const (
	UnknownTitle  = "Unknown Title"
	UnknownAuthor = "Unknown Author"
)

// MissingSentinel is how tabular exports spell a missing description.
const MissingSentinel = "nan"

// Record is one row of the source catalogue. Identity is the row position.
type Record struct {
	Title       string
	Author      string
	Description string
}

// HasDescription reports whether the description is present, non-blank and
// not the missing-value sentinel.
func (r Record) HasDescription() bool {
	d := strings.TrimSpace(r.Description)
	return d != "" && !strings.EqualFold(d, MissingSentinel)
}

// Source yields records in source order.
type Source interface {
	Records(ctx context.Context) ([]Record, error)
}

// Slice is an in-memory Source.
type Slice []Record

// Records returns the records.
func (s Slice) Records(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

package record

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrInvalidSource reports a source that cannot yield records.
var ErrInvalidSource = errors.New("record: invalid source")

// CSVSource reads records from a CSV file with a header row. Columns are
// matched case-insensitively: title, authors (or author) and description.
// Only description is required.
type CSVSource struct {
	Path string
}

// Records reads every record in file order.
func (s CSVSource) Records(ctx context.Context) ([]Record, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSource, err)
	}
	defer f.Close()
	return ReadCSV(ctx, f)
}

// ReadCSV parses CSV data from r. Short rows are tolerated; missing cells
// read as empty strings.
func ReadCSV(ctx context.Context, r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: missing header row", ErrInvalidSource)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSource, err)
	}
	cols := columns(header)
	if cols.description < 0 {
		return nil, fmt.Errorf("%w: no description column in %v", ErrInvalidSource, header)
	}

	var out []Record
	for line := 2; ; line++ {
		if line%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrInvalidSource, line, err)
		}
		out = append(out, Record{
			Title:       cell(row, cols.title, UnknownTitle),
			Author:      cell(row, cols.author, UnknownAuthor),
			Description: strings.TrimSpace(cell(row, cols.description, "")),
		})
	}
	return out, nil
}

type columnIndex struct {
	title, author, description int
}

func columns(header []string) columnIndex {
	idx := columnIndex{title: -1, author: -1, description: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))) {
		case "title":
			idx.title = i
		case "authors", "author":
			if idx.author < 0 {
				idx.author = i
			}
		case "description":
			idx.description = i
		}
	}
	return idx
}

// cell returns row[i], or def when the column is absent. A present but empty
// cell stays empty.
func cell(row []string, i int, def string) string {
	if i < 0 {
		return def
	}
	if i >= len(row) {
		return ""
	}
	return row[i]
}

// Package chunker splits text into fixed-size overlapping chunks.
package chunker

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultSize is the default number of characters per chunk.
const DefaultSize = 500

// DefaultOverlap is the default number of characters shared by consecutive
// chunks.
const DefaultOverlap = 50

// ErrInvalidConfig reports a size/overlap pair that cannot make progress.
var ErrInvalidConfig = errors.New("chunker: invalid config")

// Splitter splits text with a fixed size and overlap.
type Splitter struct {
	size    int
	overlap int
}

// New validates size and overlap and returns a Splitter.
func New(size, overlap int) (*Splitter, error) {
	if err := Validate(size, overlap); err != nil {
		return nil, err
	}
	return &Splitter{size: size, overlap: overlap}, nil
}

// Size returns the maximum chunk length in characters.
func (s *Splitter) Size() int { return s.size }

// Overlap returns the number of characters shared by consecutive chunks.
func (s *Splitter) Overlap() int { return s.overlap }

// Split splits text using the splitter's settings.
func (s *Splitter) Split(text string) []string {
	return split([]rune(text), s.size, s.overlap)
}

// Validate reports whether 0 <= overlap < size.
func Validate(size, overlap int) error {
	if size <= 0 {
		return fmt.Errorf("%w: size must be positive, got %d", ErrInvalidConfig, size)
	}
	if overlap < 0 || overlap >= size {
		return fmt.Errorf("%w: overlap must be in [0, %d), got %d", ErrInvalidConfig, size, overlap)
	}
	return nil
}

// Split cuts text into substrings of at most size characters, starting every
// size-overlap characters, until the tail is consumed. The last chunk may be
// shorter. Whitespace-only text yields no chunks.
func Split(text string, size, overlap int) ([]string, error) {
	if err := Validate(size, overlap); err != nil {
		return nil, err
	}
	return split([]rune(text), size, overlap), nil
}

func split(runes []rune, size, overlap int) []string {
	if strings.TrimSpace(string(runes)) == "" {
		return nil
	}
	n := len(runes)
	step := size - overlap
	chunks := make([]string, 0, n/step+1)
	for start := 0; start < n; start += step {
		end := start + size
		if end > n {
			end = n
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == n {
			break
		}
	}
	return chunks
}

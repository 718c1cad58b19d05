package search

import (
	"fmt"
	"strings"
)

// NoResults is rendered when a search finds nothing.
const NoResults = "No results found. Try a different query."

// Format renders results as markdown blocks separated by horizontal rules.
func Format(results Results) string {
	if results.Empty() {
		return NoResults
	}
	blocks := make([]string, len(results))
	for i, r := range results {
		blocks[i] = fmt.Sprintf("**%s** by %s\n\n%s", r.Title, r.Author, r.Text)
	}
	return strings.Join(blocks, "\n\n---\n\n")
}

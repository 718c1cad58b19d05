package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/booksearch/search"
)

const catalogue = `title,authors,description
War and Peace,Leo Tolstoy,"Napoleon invades Russia in 1812 and the war reaches Moscow, changing the lives of Russian aristocratic families."
The Cookbook,A. Chef,"Recipes for bread, soups, roast chicken and chocolate cake."
Empty,Nobody,nan
`

// writeConfig lays out a catalogue and a config file in a temp dir and
// returns the config path.
func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "books.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(catalogue), 0o644))
	cfg := fmt.Sprintf("store_path: %s\nsource_path: %s\nembedding_provider: hashing\nembedding_dimensions: 256\n",
		filepath.Join(dir, "store"), csvPath)
	cfgPath := filepath.Join(dir, "booksearch.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))
	return cfgPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestBuildThenReuse(t *testing.T) {
	cfgPath := writeConfig(t)

	out, err := execute(t, "build", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "rebuild: 2 chunks")
	assert.Contains(t, out, "skipped 1")

	out, err = execute(t, "build", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "reuse: 2 chunks")
}

func TestSearchCommand(t *testing.T) {
	cfgPath := writeConfig(t)

	out, err := execute(t, "search", "--config", cfgPath, "-k", "1", "Napoleon", "invades", "Russia")
	require.NoError(t, err)
	assert.Contains(t, out, "**War and Peace** by Leo Tolstoy")
	assert.NotContains(t, out, "The Cookbook")

	out, err = execute(t, "search", "--config", cfgPath, "--json", "chocolate cake")
	require.NoError(t, err)
	var results search.Results
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	assert.Equal(t, "The Cookbook", results[0].Title)
}

func TestInvalidConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("chunk_size: 10\nchunk_overlap: 10\n"), 0o644))
	_, err := execute(t, "build", "--config", cfgPath)
	assert.Error(t, err)
}

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.StorePath != "chroma_db" {
		t.Errorf("default store_path = %q, want \"chroma_db\"", cfg.StorePath)
	}
	if cfg.SourcePath != "books_cleaned.csv" {
		t.Errorf("default source_path = %q, want \"books_cleaned.csv\"", cfg.SourcePath)
	}
	if cfg.ChunkSize != 500 || cfg.ChunkOverlap != 50 {
		t.Errorf("default chunking = %d/%d, want 500/50", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.DefaultK != 3 || cfg.MaxK != 10 {
		t.Errorf("default k = %d/%d, want 3/10", cfg.DefaultK, cfg.MaxK)
	}
	if cfg.EmbedTimeout != 30*time.Second {
		t.Errorf("default embed_timeout = %v, want 30s", cfg.EmbedTimeout)
	}
	if cfg.SearchMode != "brute" {
		t.Errorf("default search_mode = %q, want \"brute\"", cfg.SearchMode)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoadFromYAML(t *testing.T) {
	yamlContent := `
store_path: /var/lib/booksearch
chunk_size: 200
chunk_overlap: 20
embedding_provider: ollama
embedding_model: all-minilm
embedding_url: http://localhost:11434
embed_timeout: 5s
search_mode: sql
`
	path := filepath.Join(t.TempDir(), "booksearch.yaml")
	if err := os.WriteFile(path, []byte(yamlContent), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.StorePath != "/var/lib/booksearch" {
		t.Errorf("store_path = %q", cfg.StorePath)
	}
	if cfg.ChunkSize != 200 || cfg.ChunkOverlap != 20 {
		t.Errorf("chunking = %d/%d, want 200/20", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.EmbeddingProvider != ProviderOllama || cfg.EmbeddingModel != "all-minilm" {
		t.Errorf("embedding = %q/%q", cfg.EmbeddingProvider, cfg.EmbeddingModel)
	}
	if cfg.EmbedTimeout != 5*time.Second {
		t.Errorf("embed_timeout = %v, want 5s", cfg.EmbedTimeout)
	}
	if cfg.SearchMode != "sql" {
		t.Errorf("search_mode = %q, want sql", cfg.SearchMode)
	}
	// Untouched fields keep their defaults.
	if cfg.DefaultK != 3 {
		t.Errorf("default_k = %d, want 3", cfg.DefaultK)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BOOKSEARCH_CONFIG", "")
	t.Setenv("BOOKSEARCH_STORE_PATH", "/tmp/store")
	t.Setenv("BOOKSEARCH_DEFAULT_K", "5")
	t.Setenv("BOOKSEARCH_QUERY_TIMEOUT", "250ms")
	t.Setenv("BOOKSEARCH_RATE_LIMIT", "2.5")
	t.Setenv("BOOKSEARCH_RECOVER_CORRUPT", "true")

	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("Load with a missing explicit file succeeded, want error")
	}

	chdir(t, t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.StorePath != "/tmp/store" {
		t.Errorf("store_path = %q, want /tmp/store", cfg.StorePath)
	}
	if cfg.DefaultK != 5 {
		t.Errorf("default_k = %d, want 5", cfg.DefaultK)
	}
	if cfg.QueryTimeout != 250*time.Millisecond {
		t.Errorf("query_timeout = %v, want 250ms", cfg.QueryTimeout)
	}
	if cfg.RateLimit != 2.5 {
		t.Errorf("rate_limit = %v, want 2.5", cfg.RateLimit)
	}
	if !cfg.RecoverCorrupt {
		t.Errorf("recover_corrupt = false, want true")
	}
}

func TestEnvOverrideInvalidNumber(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("BOOKSEARCH_CONFIG", "")
	t.Setenv("BOOKSEARCH_CHUNK_SIZE", "large")
	if _, err := Load(""); err == nil {
		t.Fatalf("Load with BOOKSEARCH_CHUNK_SIZE=large succeeded, want error")
	}
}

func TestAPIKeyFile(t *testing.T) {
	chdir(t, t.TempDir())
	keyPath := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(keyPath, []byte("  sk-test\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BOOKSEARCH_CONFIG", "")
	t.Setenv("BOOKSEARCH_EMBEDDING_PROVIDER", "openai")
	t.Setenv("BOOKSEARCH_EMBEDDING_API_KEY_FILE", keyPath)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.EmbeddingAPIKey != "sk-test" {
		t.Errorf("embedding_api_key = %q, want sk-test", cfg.EmbeddingAPIKey)
	}
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"overlap too large", func(c *Config) { c.ChunkOverlap = c.ChunkSize }},
		{"empty store path", func(c *Config) { c.StorePath = "" }},
		{"unknown provider", func(c *Config) { c.EmbeddingProvider = "word2vec" }},
		{"openai without key", func(c *Config) { c.EmbeddingProvider = ProviderOpenAI }},
		{"default k above max", func(c *Config) { c.DefaultK = 11 }},
		{"zero workers", func(c *Config) { c.Workers = 0 }},
		{"unknown search mode", func(c *Config) { c.SearchMode = "hnsw" }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Defaults()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

// chdir switches to dir for the duration of the test so ./booksearch.yaml
// discovery does not pick up stray files.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

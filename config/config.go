// Package config provides layered configuration for booksearch.
package config

import "time"

// Embedding providers.
const (
	ProviderHashing = "hashing"
	ProviderOllama  = "ollama"
	ProviderOpenAI  = "openai"
)

// Config is the root configuration.
type Config struct {
	StorePath  string `yaml:"store_path"`  // default: chroma_db
	SourcePath string `yaml:"source_path"` // default: books_cleaned.csv

	ChunkSize    int `yaml:"chunk_size"`    // default: 500
	ChunkOverlap int `yaml:"chunk_overlap"` // default: 50

	EmbeddingProvider   string `yaml:"embedding_provider"` // hashing, ollama or openai
	EmbeddingModel      string `yaml:"embedding_model"`
	EmbeddingURL        string `yaml:"embedding_url"`
	EmbeddingAPIKey     string `yaml:"embedding_api_key"`
	EmbeddingAPIKeyFile string `yaml:"embedding_api_key_file"`
	// EmbeddingDimensions applies to the hashing provider only.
	EmbeddingDimensions int `yaml:"embedding_dimensions"`

	DefaultK int `yaml:"default_k"` // default: 3
	MaxK     int `yaml:"max_k"`     // default: 10

	BatchSize    int           `yaml:"batch_size"`    // default: 64
	Workers      int           `yaml:"workers"`       // default: 4
	EmbedTimeout time.Duration `yaml:"embed_timeout"` // default: 30s
	QueryTimeout time.Duration `yaml:"query_timeout"` // default: 10s
	// RateLimit caps embedding requests per second; 0 disables it.
	RateLimit float64 `yaml:"rate_limit"`

	SearchMode     string `yaml:"search_mode"` // brute or sql
	RecoverCorrupt bool   `yaml:"recover_corrupt"`

	ListenAddr string `yaml:"listen_addr"` // default: :8080
}

// Defaults returns a Config populated with default values.
func Defaults() Config {
	return Config{
		StorePath:           "chroma_db",
		SourcePath:          "books_cleaned.csv",
		ChunkSize:           500,
		ChunkOverlap:        50,
		EmbeddingProvider:   ProviderHashing,
		EmbeddingDimensions: 384,
		DefaultK:            3,
		MaxK:                10,
		BatchSize:           64,
		Workers:             4,
		EmbedTimeout:        30 * time.Second,
		QueryTimeout:        10 * time.Second,
		SearchMode:          "brute",
		ListenAddr:          ":8080",
	}
}

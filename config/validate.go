package config

import (
	"errors"
	"fmt"

	"github.com/viant/booksearch/chunker"
)

// ErrInvalidConfig reports a configuration that cannot start the service.
var ErrInvalidConfig = chunker.ErrInvalidConfig

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	if c.StorePath == "" {
		errs = append(errs, fmt.Errorf("store_path is required"))
	}
	if err := chunker.Validate(c.ChunkSize, c.ChunkOverlap); err != nil {
		errs = append(errs, fmt.Errorf("chunk_size/chunk_overlap: %v", err))
	}

	switch c.EmbeddingProvider {
	case ProviderHashing:
		if c.EmbeddingDimensions <= 0 {
			errs = append(errs, fmt.Errorf("embedding_dimensions must be > 0, got %d", c.EmbeddingDimensions))
		}
	case ProviderOllama:
	case ProviderOpenAI:
		if c.EmbeddingAPIKey == "" && c.EmbeddingURL == "" {
			errs = append(errs, fmt.Errorf("embedding_api_key or embedding_api_key_file is required when embedding_provider is \"openai\""))
		}
	default:
		errs = append(errs, fmt.Errorf("embedding_provider must be \"hashing\", \"ollama\", or \"openai\", got %q", c.EmbeddingProvider))
	}

	if c.MaxK < 1 {
		errs = append(errs, fmt.Errorf("max_k must be >= 1, got %d", c.MaxK))
	}
	if c.DefaultK < 1 || c.DefaultK > c.MaxK {
		errs = append(errs, fmt.Errorf("default_k must be in [1, max_k], got %d", c.DefaultK))
	}
	if c.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("batch_size must be > 0, got %d", c.BatchSize))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be > 0, got %d", c.Workers))
	}
	if c.EmbedTimeout < 0 || c.QueryTimeout < 0 {
		errs = append(errs, fmt.Errorf("timeouts must not be negative"))
	}
	if c.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("rate_limit must not be negative, got %v", c.RateLimit))
	}

	switch c.SearchMode {
	case "brute", "sql":
	default:
		errs = append(errs, fmt.Errorf("search_mode must be \"brute\" or \"sql\", got %q", c.SearchMode))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

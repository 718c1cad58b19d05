package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "BOOKSEARCH_"

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, BOOKSEARCH_CONFIG env, ./booksearch.yaml)
//  3. BOOKSEARCH_* environment variables
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	if filePath := discoverConfigFile(configPath); filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, errors.Wrapf(err, "loading config file %s", filePath)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, errors.Wrap(err, "applying environment overrides")
	}

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, errors.Wrap(err, "resolving file references")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation")
	}
	return &cfg, nil
}

// discoverConfigFile returns the explicit path, then BOOKSEARCH_CONFIG, then
// ./booksearch.yaml when it exists. Returns empty string if none applies.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}
	if envPath := os.Getenv(EnvPrefix + "CONFIG"); envPath != "" {
		return envPath
	}
	if _, err := os.Stat("booksearch.yaml"); err == nil {
		return "booksearch.yaml"
	}
	return ""
}

// loadYAMLFile parses a YAML file into cfg. Fields not present in the YAML
// retain their current values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps BOOKSEARCH_<KEY> variables onto config fields.
func applyEnvOverrides(cfg *Config) error {
	strs := map[string]*string{
		"STORE_PATH":             &cfg.StorePath,
		"SOURCE_PATH":            &cfg.SourcePath,
		"EMBEDDING_PROVIDER":     &cfg.EmbeddingProvider,
		"EMBEDDING_MODEL":        &cfg.EmbeddingModel,
		"EMBEDDING_URL":          &cfg.EmbeddingURL,
		"EMBEDDING_API_KEY":      &cfg.EmbeddingAPIKey,
		"EMBEDDING_API_KEY_FILE": &cfg.EmbeddingAPIKeyFile,
		"SEARCH_MODE":            &cfg.SearchMode,
		"LISTEN_ADDR":            &cfg.ListenAddr,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"CHUNK_SIZE":           &cfg.ChunkSize,
		"CHUNK_OVERLAP":        &cfg.ChunkOverlap,
		"EMBEDDING_DIMENSIONS": &cfg.EmbeddingDimensions,
		"DEFAULT_K":            &cfg.DefaultK,
		"MAX_K":                &cfg.MaxK,
		"BATCH_SIZE":           &cfg.BatchSize,
		"WORKERS":              &cfg.Workers,
	}
	for key, dst := range ints {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return errors.Wrapf(err, "%s%s", EnvPrefix, key)
			}
			*dst = n
		}
	}

	durations := map[string]*time.Duration{
		"EMBED_TIMEOUT": &cfg.EmbedTimeout,
		"QUERY_TIMEOUT": &cfg.QueryTimeout,
	}
	for key, dst := range durations {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			d, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil {
				return errors.Wrapf(err, "%s%s", EnvPrefix, key)
			}
			*dst = d
		}
	}

	if v, ok := os.LookupEnv(EnvPrefix + "RATE_LIMIT"); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return errors.Wrapf(err, "%sRATE_LIMIT", EnvPrefix)
		}
		cfg.RateLimit = f
	}
	if v, ok := os.LookupEnv(EnvPrefix + "RECOVER_CORRUPT"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return errors.Wrapf(err, "%sRECOVER_CORRUPT", EnvPrefix)
		}
		cfg.RecoverCorrupt = b
	}
	return nil
}

// resolveFileReferences populates the API key from embedding_api_key_file
// when the key itself is unset.
func resolveFileReferences(cfg *Config) error {
	if cfg.EmbeddingAPIKeyFile != "" && cfg.EmbeddingAPIKey == "" {
		val, err := readSecretFile(cfg.EmbeddingAPIKeyFile)
		if err != nil {
			return errors.Wrap(err, "embedding_api_key_file")
		}
		cfg.EmbeddingAPIKey = val
	}
	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

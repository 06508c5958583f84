// Package config loads the server configuration from a YAML file,
// falling back to defaults when the file is absent.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the full server configuration.
type Config struct {
	// DataDir holds the database and its backups.
	DataDir string `yaml:"data_dir"`

	Embedding EmbeddingConfig `yaml:"embedding"`
	Memory    MemoryConfig    `yaml:"memory"`
	Reindex   ReindexConfig   `yaml:"reindex"`
}

// EmbeddingConfig tunes the embedding engine.
type EmbeddingConfig struct {
	// Dimension is the vector size. Changing it invalidates stored
	// embeddings, which a forced reindex regenerates.
	Dimension int `yaml:"dimension"`

	// ModelName keys stored vectors so different engine versions can
	// coexist in one database.
	ModelName string `yaml:"model_name"`

	// Enabled gates vector generation entirely.
	Enabled bool `yaml:"enabled"`

	// CacheSize bounds the in-process vector cache.
	CacheSize int `yaml:"cache_size"`
}

// MemoryConfig tunes the memory service.
type MemoryConfig struct {
	// Types is the closed set of accepted memory categories.
	Types []string `yaml:"types"`

	// DefaultType is browsed when recall gets neither query nor type.
	DefaultType string `yaml:"default_type"`

	// DefaultLimit caps recall results when the caller does not say.
	DefaultLimit int `yaml:"default_limit"`

	// MaxSearchResults is the hard cap on any single query.
	MaxSearchResults int `yaml:"max_search_results"`
}

// ReindexConfig tunes the offline rebuild.
type ReindexConfig struct {
	// Threshold is the cosine similarity above which same-type memories merge.
	Threshold float32 `yaml:"threshold"`

	// BackupEnabled makes a timestamped database copy before rebuilding.
	BackupEnabled bool `yaml:"backup_enabled"`

	// BatchSize bounds embedding batch size during rebuilds.
	BatchSize int `yaml:"batch_size"`
}

// DatabaseFile is the SQLite file name inside DataDir.
const DatabaseFile = "memories.db"

// Default returns the built-in configuration rooted at ~/.mnemo.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir: filepath.Join(home, ".mnemo"),
		Embedding: EmbeddingConfig{
			Dimension: 384,
			ModelName: "tfidf-hash-v1",
			Enabled:   true,
			CacheSize: 1024,
		},
		Memory: MemoryConfig{
			Types:            []string{"tech", "project_tech", "domain"},
			DefaultType:      "tech",
			DefaultLimit:     10,
			MaxSearchResults: 50,
		},
		Reindex: ReindexConfig{
			Threshold:     0.85,
			BackupEnabled: true,
			BatchSize:     64,
		},
	}
}

// DefaultPath is where Load looks when no path is given.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".mnemo", "config.yaml")
}

// Load reads the configuration at path, layered over Default. A missing
// file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, cfg.validate()
}

// DatabasePath is the full path of the SQLite database.
func (c Config) DatabasePath() string {
	return filepath.Join(c.DataDir, DatabaseFile)
}

func (c Config) validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("config: data_dir must not be empty")
	}
	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("config: embedding.dimension must be positive")
	}
	if c.Reindex.Threshold <= 0 || c.Reindex.Threshold > 1 {
		return fmt.Errorf("config: reindex.threshold must be in (0, 1]")
	}
	if len(c.Memory.Types) == 0 {
		return fmt.Errorf("config: memory.types must not be empty")
	}
	return nil
}

// Package config loads and validates insightql configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the complete insightql configuration.
type Config struct {
	Version int           `yaml:"version" json:"version"`
	Store   StoreConfig   `yaml:"store" json:"store"`
	Ingest  IngestConfig  `yaml:"ingest" json:"ingest"`
	Search  SearchConfig  `yaml:"search" json:"search"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// StoreConfig configures the document store.
type StoreConfig struct {
	// Path is the SQLite database file. Empty means in-memory.
	Path string `yaml:"path" json:"path"`
	// CacheSize is the number of documents held in the read cache.
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// IngestConfig configures ingestion.
type IngestConfig struct {
	// RootDir is the directory scanned for resource files.
	RootDir string `yaml:"root_dir" json:"root_dir"`
	// Pattern is the glob matched against discovered files.
	Pattern string `yaml:"pattern" json:"pattern"`
	// MaxFileSizeMB skips files larger than this many megabytes.
	MaxFileSizeMB int `yaml:"max_file_size_mb" json:"max_file_size_mb"`
	// Workers bounds concurrent file reads.
	Workers int `yaml:"workers" json:"workers"`
	// ChunkSize is the maximum chunk length in characters.
	ChunkSize int `yaml:"chunk_size" json:"chunk_size"`
	// ChunkOverlap is the overlap between consecutive chunks in characters.
	ChunkOverlap int `yaml:"chunk_overlap" json:"chunk_overlap"`
}

// SearchConfig configures search behavior.
type SearchConfig struct {
	// MaxResults is the default result limit.
	MaxResults int `yaml:"max_results" json:"max_results"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" json:"level"`
	// Dir is the log directory. Empty uses the default under the home dir.
	Dir string `yaml:"dir" json:"dir"`
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Store: StoreConfig{
			Path:      filepath.Join(".insightql", "store.db"),
			CacheSize: 1000,
		},
		Ingest: IngestConfig{
			RootDir:       "resources",
			Pattern:       "**/*.llm",
			MaxFileSizeMB: 10,
			Workers:       0, // 0 = runtime.NumCPU()
			ChunkSize:     2000,
			ChunkOverlap:  200,
		},
		Search: SearchConfig{
			MaxResults: 5,
		},
		Logging: LoggingConfig{
			Level: "info",
			Dir:   "",
		},
	}
}

// Load loads configuration from the specified directory.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. Project config (.insightql.yaml in dir)
//  3. Environment variables (INSIGHTQL_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromFile attempts to load configuration from .insightql.yaml or .insightql.yml.
func (c *Config) loadFromFile(dir string) error {
	yamlPath := filepath.Join(dir, ".insightql.yaml")
	if fileExists(yamlPath) {
		return c.loadYAML(yamlPath)
	}

	ymlPath := filepath.Join(dir, ".insightql.yml")
	if fileExists(ymlPath) {
		return c.loadYAML(ymlPath)
	}

	// No config file is fine - use defaults
	return nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	if other.Store.Path != "" {
		c.Store.Path = other.Store.Path
	}
	if other.Store.CacheSize != 0 {
		c.Store.CacheSize = other.Store.CacheSize
	}

	if other.Ingest.RootDir != "" {
		c.Ingest.RootDir = other.Ingest.RootDir
	}
	if other.Ingest.Pattern != "" {
		c.Ingest.Pattern = other.Ingest.Pattern
	}
	if other.Ingest.MaxFileSizeMB != 0 {
		c.Ingest.MaxFileSizeMB = other.Ingest.MaxFileSizeMB
	}
	if other.Ingest.Workers != 0 {
		c.Ingest.Workers = other.Ingest.Workers
	}
	if other.Ingest.ChunkSize != 0 {
		c.Ingest.ChunkSize = other.Ingest.ChunkSize
	}
	if other.Ingest.ChunkOverlap != 0 {
		c.Ingest.ChunkOverlap = other.Ingest.ChunkOverlap
	}

	if other.Search.MaxResults != 0 {
		c.Search.MaxResults = other.Search.MaxResults
	}

	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.Dir != "" {
		c.Logging.Dir = other.Logging.Dir
	}
}

// applyEnvOverrides applies INSIGHTQL_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("INSIGHTQL_STORE_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("INSIGHTQL_RESOURCES_DIR"); v != "" {
		c.Ingest.RootDir = v
	}
	if v := os.Getenv("INSIGHTQL_PATTERN"); v != "" {
		c.Ingest.Pattern = v
	}
	if v := os.Getenv("INSIGHTQL_CHUNK_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Ingest.ChunkSize = n
		}
	}
	if v := os.Getenv("INSIGHTQL_CHUNK_OVERLAP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Ingest.ChunkOverlap = n
		}
	}
	if v := os.Getenv("INSIGHTQL_MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Search.MaxResults = n
		}
	}
	if v := os.Getenv("INSIGHTQL_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Store.CacheSize < 0 {
		return fmt.Errorf("store.cache_size must be non-negative, got %d", c.Store.CacheSize)
	}

	if c.Ingest.ChunkSize <= 0 {
		return fmt.Errorf("ingest.chunk_size must be positive, got %d", c.Ingest.ChunkSize)
	}
	if c.Ingest.ChunkOverlap < 0 {
		return fmt.Errorf("ingest.chunk_overlap must be non-negative, got %d", c.Ingest.ChunkOverlap)
	}
	if c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
		return fmt.Errorf("ingest.chunk_overlap (%d) must be smaller than ingest.chunk_size (%d)",
			c.Ingest.ChunkOverlap, c.Ingest.ChunkSize)
	}
	if c.Ingest.MaxFileSizeMB < 0 {
		return fmt.Errorf("ingest.max_file_size_mb must be non-negative, got %d", c.Ingest.MaxFileSizeMB)
	}
	if c.Ingest.Workers < 0 {
		return fmt.Errorf("ingest.workers must be non-negative, got %d", c.Ingest.Workers)
	}

	if c.Search.MaxResults <= 0 {
		return fmt.Errorf("search.max_results must be positive, got %d", c.Search.MaxResults)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

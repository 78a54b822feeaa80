// Package config provides configuration management for the calculator.
// This file contains the lightweight configuration for the stdio MCP server.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/congenital-syphilis-mcp-server/internal/domain"
)

// LiteConfig is a simplified configuration for standalone operation.
// It reads only environment variables and uses the embedded dataset unless
// told otherwise.
type LiteConfig struct {
	// Data storage
	DataDir string // Base directory for local dataset files

	// Dataset settings
	DatasetSource  string        // embedded, file, http, sqlite
	DatasetPath    string        // File or SQLite path
	DatasetURL     string        // Remote dataset URL
	DatasetTimeout time.Duration // Remote fetch timeout

	// Logging
	LogLevel  string // Log level: debug, info, warn, error
	LogFormat string // Log format: json, text
}

// DefaultLiteConfig returns a configuration with sensible defaults.
func DefaultLiteConfig() *LiteConfig {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".cscalc")

	return &LiteConfig{
		DataDir:        dataDir,
		DatasetSource:  domain.DatasetSourceEmbedded,
		DatasetTimeout: 10 * time.Second,
		LogLevel:       "info",
		LogFormat:      "json",
	}
}

// LoadLiteConfig loads configuration from environment variables.
// Falls back to defaults if not set.
func LoadLiteConfig() *LiteConfig {
	cfg := DefaultLiteConfig()

	if v := os.Getenv("CSCALC_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	// Dataset
	if v := os.Getenv("CSCALC_DATASET_SOURCE"); v != "" {
		cfg.DatasetSource = v
	}
	if v := os.Getenv("CSCALC_DATASET_PATH"); v != "" {
		cfg.DatasetPath = v
	}
	if v := os.Getenv("CSCALC_DATASET_URL"); v != "" {
		cfg.DatasetURL = v
	}
	if v := os.Getenv("CSCALC_DATASET_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.DatasetTimeout = d
		}
	}

	// Logging
	if v := os.Getenv("CSCALC_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("CSCALC_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}

	return cfg
}

// SQLitePath returns the default path of the local SQLite dataset.
func (c *LiteConfig) SQLitePath() string {
	return filepath.Join(c.DataDir, "categories.db")
}

// Dataset returns the dataset settings, defaulting the SQLite path to the
// data directory.
func (c *LiteConfig) Dataset() domain.DatasetConfig {
	cfg := domain.DatasetConfig{
		Source:  c.DatasetSource,
		Path:    c.DatasetPath,
		URL:     c.DatasetURL,
		Timeout: c.DatasetTimeout,
	}
	if cfg.Source == domain.DatasetSourceSQLite && cfg.Path == "" {
		cfg.Path = c.SQLitePath()
	}
	return cfg
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c *LiteConfig) EnsureDataDir() error {
	return os.MkdirAll(c.DataDir, 0755)
}

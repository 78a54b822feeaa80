package domain

import (
	"context"
)

// CategorySource retrieves the external category dataset. Implementations
// are read-only and perform a single retrieval per call with no retry.
type CategorySource interface {
	Load(ctx context.Context) (*CategoryDataset, error)
	Name() string
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetServerConfig() *ServerConfig
	GetDatasetConfig() *DatasetConfig
	Reload() error
	Validate() error
	IsProduction() bool
	IsDevelopment() bool
}

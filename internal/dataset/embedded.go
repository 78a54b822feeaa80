package dataset

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/congenital-syphilis-mcp-server/internal/domain"
)

//go:embed data/categories.json
var defaultCategories []byte

// DefaultDocument returns the bundled dataset document.
func DefaultDocument() []byte {
	return append([]byte(nil), defaultCategories...)
}

// EmbeddedSource serves the dataset compiled into the binary.
type EmbeddedSource struct{}

// NewEmbeddedSource creates the built-in source.
func NewEmbeddedSource() *EmbeddedSource {
	return &EmbeddedSource{}
}

// Load decodes a fresh copy of the bundled dataset.
func (s *EmbeddedSource) Load(ctx context.Context) (*domain.CategoryDataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRetrieval, err)
	}
	return Decode(defaultCategories, FormatJSON)
}

// Name implements domain.CategorySource.
func (s *EmbeddedSource) Name() string {
	return domain.DatasetSourceEmbedded
}

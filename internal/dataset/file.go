package dataset

import (
	"context"
	"fmt"
	"os"

	"github.com/congenital-syphilis-mcp-server/internal/domain"
)

// FileSource reads the dataset from a local JSON or YAML document on every
// Load, so edits to the file apply to the next lookup.
type FileSource struct {
	path   string
	format Format
}

// NewFileSource creates a file source; the format follows the extension.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path, format: FormatFromPath(path)}
}

// Load reads and decodes the file.
func (s *FileSource) Load(ctx context.Context) (*domain.CategoryDataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRetrieval, err)
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrieval, err)
	}

	return Decode(data, s.format)
}

// Name implements domain.CategorySource.
func (s *FileSource) Name() string {
	return "file:" + s.path
}

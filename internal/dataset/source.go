// Package dataset provides the read-only category dataset sources that back
// recommendation lookup: an embedded default, a local JSON or YAML file, a
// remote HTTP document, and a SQLite table.
package dataset

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/congenital-syphilis-mcp-server/internal/domain"
)

// ErrRetrieval is wrapped by every source failure: unreachable location,
// unreadable content, or a document that is not a category dataset.
var ErrRetrieval = errors.New("category dataset retrieval failed")

// Format is the encoding of a dataset document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the document format from a file extension. Anything
// other than .yaml or .yml is treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Decode parses a dataset document. A document without a categories list is
// rejected so that a wrong URL or file fails loudly instead of resolving
// every code to "not found".
func Decode(data []byte, format Format) (*domain.CategoryDataset, error) {
	var ds struct {
		Categories *[]domain.CategoryRecord `json:"categories" yaml:"categories"`
	}

	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &ds)
	default:
		err = json.Unmarshal(data, &ds)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", ErrRetrieval, format, err)
	}
	if ds.Categories == nil {
		return nil, fmt.Errorf("%w: document has no categories list", ErrRetrieval)
	}

	return &domain.CategoryDataset{Categories: *ds.Categories}, nil
}

// NewSource builds the category source selected by configuration.
func NewSource(cfg domain.DatasetConfig, logger *logrus.Logger) (domain.CategorySource, error) {
	source := cfg.Source
	if source == "" {
		source = domain.DatasetSourceEmbedded
	}

	logger.WithFields(logrus.Fields{
		"source": source,
		"path":   cfg.Path,
		"url":    cfg.URL,
	}).Debug("Configuring category dataset source")

	switch source {
	case domain.DatasetSourceEmbedded:
		return NewEmbeddedSource(), nil
	case domain.DatasetSourceFile:
		if cfg.Path == "" {
			return nil, fmt.Errorf("dataset.path is required for the file source")
		}
		return NewFileSource(cfg.Path), nil
	case domain.DatasetSourceHTTP:
		if cfg.URL == "" {
			return nil, fmt.Errorf("dataset.url is required for the http source")
		}
		return NewHTTPSource(cfg.URL, cfg.Timeout, logger), nil
	case domain.DatasetSourceSQLite:
		if cfg.Path == "" {
			return nil, fmt.Errorf("dataset.path is required for the sqlite source")
		}
		src, err := NewSQLiteSource(cfg.Path)
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		return nil, fmt.Errorf("unknown dataset source %q", source)
	}
}

// Package mcp exposes the congenital syphilis evaluator as an MCP server over
// stdio. It needs no database: category content comes from the configured
// dataset source.
package mcp

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	litecfg "github.com/congenital-syphilis-mcp-server/internal/config"
	"github.com/congenital-syphilis-mcp-server/internal/dataset"
	"github.com/congenital-syphilis-mcp-server/internal/domain"
	"github.com/congenital-syphilis-mcp-server/internal/logging"
	"github.com/congenital-syphilis-mcp-server/internal/service"
)

// ServerName and ServerVersion identify the server to MCP clients.
const (
	ServerName    = "congenital-syphilis-mcp-server"
	ServerVersion = "1.0.0"
)

// LiteServer is a lightweight MCP server backed by a single category source.
type LiteServer struct {
	config    *litecfg.LiteConfig
	mcpServer *mcp.Server
	source    domain.CategorySource
	evaluator *service.EvaluationService
	ops       *logging.OperationLogger
	logger    *logrus.Logger
}

// LiteServerOption is a functional option for LiteServer.
type LiteServerOption func(*LiteServer) error

// WithLogger sets a custom logger.
func WithLogger(logger *logrus.Logger) LiteServerOption {
	return func(s *LiteServer) error {
		s.logger = logger
		return nil
	}
}

// WithCategorySource sets the category source instead of building one from
// configuration.
func WithCategorySource(source domain.CategorySource) LiteServerOption {
	return func(s *LiteServer) error {
		if source == nil {
			return fmt.Errorf("category source is nil")
		}
		s.source = source
		return nil
	}
}

// NewLiteServer creates a new lightweight MCP server instance.
func NewLiteServer(cfg *litecfg.LiteConfig, opts ...LiteServerOption) (*LiteServer, error) {
	if cfg == nil {
		cfg = litecfg.DefaultLiteConfig()
	}

	// stdout carries the protocol, so logs go to stderr
	server := &LiteServer{
		config: cfg,
		logger: logging.NewWithOutput(domain.LoggingConfig{Level: cfg.LogLevel, Format: cfg.LogFormat}, os.Stderr),
	}

	for _, opt := range opts {
		if err := opt(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.source == nil {
		dsCfg := cfg.Dataset()
		if dsCfg.Source == domain.DatasetSourceSQLite {
			if err := cfg.EnsureDataDir(); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}

		source, err := dataset.NewSource(dsCfg, server.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create category source: %w", err)
		}
		server.source = source
	}

	server.evaluator = service.NewEvaluationService(server.logger, server.source)
	server.ops = logging.NewOperationLogger(server.logger)

	server.mcpServer = mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: ServerVersion,
	}, nil)
	server.registerTools()

	server.logger.WithFields(logrus.Fields{
		"dataset_source": server.source.Name(),
	}).Info("MCP server initialized")

	return server, nil
}

// registerTools registers the evaluator tools with the SDK server.
func (s *LiteServer) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "evaluate_case",
		Description: "Evaluate a mother-infant dyad: classify the congenital syphilis outcome, attach CDC recommendations, and prepare titer trend data",
	}, s.handleEvaluateCase)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "classify_outcome",
		Description: "Classify the outcome category (0-6) for conventional or reverse-sequence screening without looking up recommendations",
	}, s.handleClassifyOutcome)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "compare_titers",
		Description: "Report whether an infant nontreponemal titer is fourfold or greater than the maternal titer",
	}, s.handleCompareTiters)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "lookup_category",
		Description: "Return the findings, recommended evaluation, and treatment for an outcome category",
	}, s.handleLookupCategory)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "prepare_trend",
		Description: "Merge maternal and infant titer histories into chart data with the fourfold reference line and reinfection check",
	}, s.handlePrepareTrend)

	s.logger.WithField("tools", 5).Debug("Registered MCP tools")
}

// Start runs the server on stdio until ctx is canceled or the client
// disconnects.
func (s *LiteServer) Start(ctx context.Context) error {
	s.logger.Info("Starting MCP server on stdio")

	if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		return fmt.Errorf("MCP server stopped: %w", err)
	}
	return nil
}

// Close releases the category source if it holds resources.
func (s *LiteServer) Close() error {
	if closer, ok := s.source.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// MCPServer returns the underlying SDK server.
func (s *LiteServer) MCPServer() *mcp.Server {
	return s.mcpServer
}

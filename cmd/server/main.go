// Package main provides the HTTP entry point for the congenital syphilis
// outcome evaluator.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/congenital-syphilis-mcp-server/internal/api"
	"github.com/congenital-syphilis-mcp-server/internal/config"
	"github.com/congenital-syphilis-mcp-server/internal/dataset"
	"github.com/congenital-syphilis-mcp-server/internal/domain"
	"github.com/congenital-syphilis-mcp-server/internal/logging"
	"github.com/congenital-syphilis-mcp-server/internal/service"
)

func main() {
	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		cancel()
	}()

	err := run(ctx)
	cancel()
	if err != nil {
		log.Fatal(err)
	}
}

// run loads configuration, opens the category dataset and serves until ctx
// is canceled. Every resource it opens is released before it returns.
func run(ctx context.Context) error {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	cfg := configManager.GetConfig()
	logger := logging.New(cfg.Logging)

	source, err := dataset.NewSource(cfg.Dataset, logger)
	if err != nil {
		return fmt.Errorf("failed to configure category dataset: %w", err)
	}

	return serve(ctx, configManager, source, logger)
}

// serve runs the HTTP API over source and closes source when the server
// stops, whether it shut down cleanly or failed to start.
func serve(ctx context.Context, configManager domain.ConfigManager, source domain.CategorySource, logger *logrus.Logger) error {
	if closer, ok := source.(io.Closer); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				logger.WithError(err).Warn("Failed to close category dataset")
			}
		}()
	}

	evaluator := service.NewEvaluationService(logger, source)

	serverCfg := configManager.GetServerConfig()
	logger.WithField("dataset_source", source.Name()).
		Infof("Starting congenital syphilis evaluator on %s:%d", serverCfg.Host, serverCfg.Port)

	server := api.NewServer(configManager, evaluator, logger)
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("server failed to start: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}

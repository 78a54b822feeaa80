// Package main provides the MCP entry point for the congenital syphilis
// outcome evaluator. It speaks MCP over stdio and needs no database.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/congenital-syphilis-mcp-server/internal/config"
	"github.com/congenital-syphilis-mcp-server/internal/mcp"
	"github.com/congenital-syphilis-mcp-server/internal/setup"
)

func main() {
	// stdout is reserved for the protocol
	log.SetOutput(os.Stderr)

	// Check for setup subcommand
	if len(os.Args) > 1 && os.Args[1] == "setup" {
		if err := setup.NewCLI(os.Stdout).Run(os.Args[2:]); err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		return
	}

	cfg := config.LoadLiteConfig()

	log.Printf("Starting congenital syphilis MCP server with dataset source: %s", cfg.DatasetSource)

	server, err := mcp.NewLiteServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create MCP server: %v", err)
	}
	defer server.Close()

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		log.Fatalf("MCP server failed: %v", err)
	}

	log.Println("Congenital syphilis MCP server stopped")
}

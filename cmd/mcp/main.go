// MCP server exposing the thread store to operator tooling over stdio.
// Runs as a separate process against the same storage backend as the
// monitor daemon; all tools are read-only.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/nookly/threadwatch/internal/config"
	"github.com/nookly/threadwatch/internal/mcptools"
	"github.com/nookly/threadwatch/internal/storage"
	"github.com/nookly/threadwatch/internal/store"
	"github.com/sirupsen/logrus"
)

const version = "1.0.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	// Logs go to stderr so they never interfere with the stdio transport.
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	var backend storage.Backend
	switch cfg.Storage.Backend {
	case "azure":
		backend, err = storage.NewAzureStorage(cfg.Storage.AzureAccount, cfg.Storage.AzureContainer)
	default:
		backend, err = storage.NewLocalStorage(cfg.Storage.Path)
	}
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}

	threads, err := store.New(backend, cfg.Storage.MaxRecordsPerTier)
	if err != nil {
		return fmt.Errorf("opening thread store: %w", err)
	}

	s := server.NewMCPServer(
		"threadwatch",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	recentTool := mcptools.NewRecentTool(threads)
	s.AddTool(recentTool.Definition(), recentTool.Handle)

	searchTool := mcptools.NewSearchTool(threads)
	s.AddTool(searchTool.Definition(), searchTool.Handle)

	statusTool := mcptools.NewStatusTool(cfg, threads)
	s.AddTool(statusTool.Definition(), statusTool.Handle)

	return server.ServeStdio(s)
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/academiax/internal/api"
	"github.com/felixgeelhaar/academiax/internal/assistant"
	"github.com/felixgeelhaar/academiax/internal/config"
	mcpserver "github.com/felixgeelhaar/academiax/internal/mcp"
	"github.com/felixgeelhaar/academiax/internal/storage/backend"
)

// cmdMCP starts the MCP server on stdio
func cmdMCP() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// stdout carries the protocol; logs go to stderr
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	// Setup context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	store, err := backend.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close(context.Background())

	provider, err := api.NewProvider(cfg)
	if err != nil {
		return fmt.Errorf("init completion provider: %w", err)
	}

	mcpSrv := mcpserver.NewServer(mcpserver.Config{
		Store:     store,
		Assistant: assistant.NewService(provider, store),
		Version:   Version,
	})

	// Serve on stdio
	return mcpSrv.ServeStdio(ctx)
}

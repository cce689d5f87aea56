package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/rentzmp/rentz-server/internal/randutil"
	"github.com/rentzmp/rentz-server/internal/room"
	"github.com/rentzmp/rentz-server/internal/server"
)

var CLI struct {
	Config   string `short:"c" long:"config" default:"rentz-server.hcl" help:"Path to HCL configuration file"`
	Addr     string `short:"a" long:"addr" help:"Server address to bind to (overrides config)"`
	LogLevel string `short:"l" long:"log-level" help:"Log level (overrides config)"`
}

func main() {
	kctx := kong.Parse(&CLI)

	// Load configuration
	cfg, err := server.LoadServerConfig(CLI.Config)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		kctx.Exit(1)
	}

	// Apply command line overrides
	if CLI.Addr != "" {
		cfg.Server.Address = CLI.Addr
	}
	if CLI.LogLevel != "" {
		cfg.Server.LogLevel = CLI.LogLevel
	}

	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		kctx.Exit(1)
	}

	// Setup logging
	logger := log.New(os.Stderr)
	switch cfg.Server.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "info":
		logger.SetLevel(log.InfoLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}

	ttl, _ := cfg.RoomTTL()
	reapInterval, _ := cfg.ReapInterval()

	logger.Info("Starting Rentz server",
		"addr", cfg.GetServerAddress(),
		"roomTTL", ttl,
		"reapInterval", reapInterval)

	clock := quartz.NewReal()
	rng := randutil.NewLockedEntropy()

	registry := room.NewRegistry(logger, rng, clock, ttl)
	service := server.NewService(registry, logger, clock, rng)
	srv := server.NewServer(cfg.GetServerAddress(), logger, service, registry, reapInterval)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logger.Error("Server error", "error", err)
		kctx.Exit(1)
	}

	logger.Info("Server shutdown complete")
}

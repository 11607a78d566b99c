package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/a3tai/mcp-shiplabel/internal/app"
	"github.com/a3tai/mcp-shiplabel/internal/config"
	"github.com/a3tai/mcp-shiplabel/internal/httpapi"
	"github.com/a3tai/mcp-shiplabel/internal/logger"
	"github.com/a3tai/mcp-shiplabel/internal/mcp"
	"github.com/a3tai/mcp-shiplabel/internal/session"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// loggingOptions picks the log destination for the server mode. In stdio
// mode stdout carries the MCP protocol, so logs go to stderr and only when
// debugging.
func loggingOptions(cfg *config.Config, stderr io.Writer) logger.Options {
	opts := logger.Options{Level: cfg.LogLevel, Output: stderr}
	if cfg.IsStdioMode() && !cfg.IsDebug() {
		opts.Output = io.Discard
	}
	if cfg.IsServerMode() {
		opts.JSON = true
	}
	return opts
}

// servers holds both front ends over one App.
type servers struct {
	app  *app.App
	mcp  *mcp.Server
	http *httpapi.Server
}

// build wires the pipeline, the MCP server and the HTTP API. Export
// notifications reach MCP clients and event-stream subscribers alike.
func build(cfg *config.Config, log *slog.Logger) (*servers, error) {
	if log == nil {
		log = slog.Default()
	}
	hub := httpapi.NewHub()

	var mcpServer *mcp.Server
	notify := func(n session.Notification) {
		hub.Publish(n)
		if mcpServer != nil {
			mcpServer.Notify(n)
		}
	}

	a, err := app.New(cfg, log, session.WithNotifier(notify))
	if err != nil {
		return nil, err
	}

	mcpServer, err = mcp.NewServer(cfg, a)
	if err != nil {
		return nil, fmt.Errorf("failed to create MCP server: %w", err)
	}

	httpServer := httpapi.NewServer(a, hub,
		httpapi.WithMCP(mcpServer.HTTPHandler()),
		httpapi.WithLogger(log),
	)

	return &servers{app: a, mcp: mcpServer, http: httpServer}, nil
}

// runServerMode handles server mode execution with signal handling
func runServerMode(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, s *servers, log *slog.Logger) {
	// Set up signal handling for graceful shutdown
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	// Start server in a goroutine
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- s.http.Run(ctx, cfg.Address())
	}()

	// Wait for shutdown signal or server error
	select {
	case sig := <-signalCh:
		log.Info("received signal, initiating graceful shutdown", "signal", sig.String())
		cancel()

		// Wait for server to shutdown
		if err := <-serverErrCh; err != nil {
			log.Error("server shutdown with error", "error", err)
			os.Exit(1)
		}

	case err := <-serverErrCh:
		if err != nil {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}

	log.Info("server stopped successfully")
}

// runStdioMode handles stdio mode execution
func runStdioMode(ctx context.Context, s *servers, log *slog.Logger) {
	// In stdio mode, the parent process controls our lifecycle
	if err := s.mcp.Run(ctx); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

func isVersionArg(args []string) bool {
	for _, arg := range args {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return true
		}
	}
	return false
}

func main() {
	// Check for version flag before parsing other flags
	if isVersionArg(os.Args[1:]) {
		printVersion(os.Stdout)
		return
	}

	// Load configuration from flags first
	cfg, err := config.LoadFromFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Set version if it was provided during build
	if version != "dev" {
		cfg.Version = version
	}

	log := logger.Init(loggingOptions(cfg, os.Stderr))
	defer func() { _ = logger.Sync() }()
	log.Debug("starting", "config", cfg.String())

	s, err := build(cfg, log)
	if err != nil {
		log.Error("failed to start", "error", err)
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		os.Exit(1)
	}

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle different modes
	if cfg.IsServerMode() {
		runServerMode(ctx, cancel, cfg, s, log)
	} else {
		runStdioMode(ctx, s, log)
	}
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "MCP Shiplabel\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}

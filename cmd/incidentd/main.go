// Incidentd extracts structured fields from free-text incident reports
// written in Portuguese.
//
// The daemon serves an HTTP API that runs two extraction paths per
// request: deterministic rules and a local Ollama model. Results are
// merged, validated against a strict response schema, and returned.
//
// Configuration comes from ~/.config/incidentd/config.yaml plus
// environment overrides. See internal/config for details.
//
// Usage:
//
//	# Start server with defaults
//	incidentd
//
//	# Configure via environment
//	SERVER_PORT=9000 LLM_MODEL=mistral incidentd
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/incidentd/internal/config"
	"github.com/fyrsmithlabs/incidentd/internal/extract"
	"github.com/fyrsmithlabs/incidentd/internal/gazetteer"
	httpserver "github.com/fyrsmithlabs/incidentd/internal/http"
	"github.com/fyrsmithlabs/incidentd/internal/logging"
	"github.com/fyrsmithlabs/incidentd/internal/pipeline"
	"github.com/fyrsmithlabs/incidentd/internal/temporal"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default ~/.config/incidentd/config.yaml)")
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  incidentd           Start the incidentd daemon\n")
			fmt.Fprintf(os.Stderr, "  incidentd version   Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("incidentd by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the incidentd server and blocks until context cancellation.
//
// Returns nil on graceful shutdown.
func run(ctx context.Context, configPath string) error {
	if err := config.EnsureConfigDir(); err != nil {
		return err
	}

	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logging.Sync(logger)
	}()

	logger.Info("Starting incidentd",
		zap.Int("port", cfg.Server.Port),
		zap.String("timezone", cfg.Extraction.Timezone),
		zap.String("llm_model", cfg.LLM.Model),
		zap.Duration("shutdown_timeout", cfg.Server.ShutdownTimeout.Duration()))

	resolver := temporal.NewResolver(cfg.Extraction.Timezone)
	rules := extract.NewRuleExtractor(
		gazetteer.NewMatcher(gazetteer.DefaultEntries()),
		resolver,
	)
	llm := extract.NewClient(cfg.LLM.Host, cfg.LLM.Model, cfg.LLM.WaitTimeout.Duration(), resolver)

	metrics := httpserver.NewMetrics()
	svc := pipeline.New(
		rules,
		llm,
		cfg.LLM.WaitTimeout.Duration(),
		logger.Named("pipeline"),
		pipeline.NewMetrics(metrics.Registerer()),
	)

	srv, err := httpserver.NewServer(svc, logger.Named("http"), &httpserver.Config{
		Host:     cfg.Server.Host,
		Port:     cfg.Server.Port,
		Timezone: cfg.Extraction.Timezone,
	}, metrics)
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

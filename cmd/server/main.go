// Package main is the entry point for the stockdata-service HTTP server.
// In Go, the `main` package with a `main()` function is what gets executed.
// Unlike Ruby/JS, Go compiles to a single static binary — no runtime needed.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fleveque/stockdata-service/internal/config"
	"github.com/fleveque/stockdata-service/internal/llm"
	"github.com/fleveque/stockdata-service/internal/marketdata"
	"github.com/fleveque/stockdata-service/internal/server"
	"github.com/fleveque/stockdata-service/internal/service"
	"github.com/fleveque/stockdata-service/internal/storage"
)

func main() {
	// os.Exit ensures the process exits with a non-zero code on failure.
	// We call run() separately so deferred cleanup functions execute properly
	// (deferred functions don't run when os.Exit is called directly).
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	configPath := os.Getenv("STOCKS_CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Set up structured logging with zap.
	// zap is a high-performance structured logger — it outputs JSON in production
	// and human-readable format in development.
	var logger *zap.Logger
	if cfg.Log.Level == "debug" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	// Sync flushes buffered log entries. We intentionally ignore the error here
	// because Sync commonly fails on stdout/stderr (not a real problem).
	defer func() { _ = logger.Sync() }()

	// Open the document store. The store is a hard precondition: without it
	// every request would fail anyway, so refuse to start instead.
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DatabasePath), 0755); err != nil {
		return fmt.Errorf("creating database directory: %w", err)
	}

	db, err := storage.NewDatabase(cfg.Storage.DatabasePath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	snapshots := storage.NewSnapshotRepository(db)
	calls := storage.NewAnalysisCallRepository(db)

	fetcher := marketdata.NewYahooFetcher(cfg.Market.BaseURL, cfg.Market.Timeout(), logger)
	clients := buildClients(cfg, logger)

	svc := service.NewSnapshotService(fetcher, clients, snapshots, calls, logger)

	// Create and start the HTTP server
	srv := server.New(cfg, server.Deps{
		Service:   svc,
		Snapshots: snapshots,
		Calls:     calls,
	}, logger)

	// Graceful shutdown: listen for SIGINT (Ctrl+C) or SIGTERM (docker stop).
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Start server in a goroutine (lightweight thread managed by Go runtime).
	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	// Block until we receive a signal or the server errors out.
	// select is like a switch for channels — it waits until one is ready.
	select {
	case sig := <-quit:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errChan:
		if err != nil {
			return err
		}
	}

	// Give in-flight requests 10 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(ctx)
}

// buildClients constructs the three analysis clients. Clients without
// credentials stay in the list as disabled providers — they answer every
// call with a fixed "not configured" failure, keeping the response shape
// stable regardless of which providers are live.
func buildClients(cfg *config.Config, logger *zap.Logger) []llm.Client {
	logger.Info("analysis providers",
		zap.Bool("openai", cfg.LLM.OpenAI.APIKey != ""),
		zap.Bool("mistral", cfg.LLM.Mistral.APIKey != ""),
		zap.Bool("gemini", cfg.LLM.Gemini.FlowURL != ""),
	)

	return []llm.Client{
		llm.NewOpenAIClient(cfg.LLM.OpenAI.APIKey, cfg.LLM.OpenAI.Model),
		llm.NewMistralClient(cfg.LLM.Mistral.APIKey, cfg.LLM.Mistral.Model, cfg.LLM.Mistral.BaseURL),
		llm.NewGeminiClient(cfg.LLM.Gemini.FlowURL),
	}
}

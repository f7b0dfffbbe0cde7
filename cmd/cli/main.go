// Package main provides the CLI tool for the stockdata service.
// Uses Cobra for command parsing — Cobra is the standard Go CLI framework
// (used by kubectl, docker, hugo, and many others).
//
// Run with: go run ./cmd/cli fetch --symbols AAPL,MSFT --period 1mo
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fleveque/stockdata-service/internal/config"
	"github.com/fleveque/stockdata-service/internal/llm"
	"github.com/fleveque/stockdata-service/internal/marketdata"
	"github.com/fleveque/stockdata-service/internal/service"
	"github.com/fleveque/stockdata-service/internal/storage"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// rootCmd creates the root command. Cobra builds a tree of commands:
// stockdata-cli fetch --symbol AAPL
// stockdata-cli fetch --symbols AAPL,MSFT,GOOGL --period 1y
func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "stockdata-cli",
		Short: "Stockdata service CLI tools",
	}

	root.AddCommand(fetchCmd())
	return root
}

func fetchCmd() *cobra.Command {
	var (
		symbol   string
		symbols  string
		period   string
		interval string
		text     string
		rpm      int
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch and persist snapshots for one or more symbols",
		// RunE returns an error (vs Run which doesn't). Cobra prints the error automatically.
		RunE: func(cmd *cobra.Command, args []string) error {
			list := splitSymbols(symbol, symbols)
			if len(list) == 0 {
				return fmt.Errorf("no symbols given: use --symbol or --symbols")
			}
			return runFetch(list, period, interval, text, rpm)
		},
	}

	cmd.Flags().StringVar(&symbol, "symbol", "", "Single ticker symbol")
	cmd.Flags().StringVar(&symbols, "symbols", "", "Comma-separated ticker symbols")
	cmd.Flags().StringVar(&period, "period", "6mo", "Lookback window (1mo, 6mo, 1y, 5y, max)")
	cmd.Flags().StringVar(&interval, "interval", "1d", "Sampling granularity (1d, 1wk, 1mo, 1h)")
	cmd.Flags().StringVar(&text, "text", "", "Free text to submit for AI analysis")
	cmd.Flags().IntVar(&rpm, "rpm", 30, "Max provider requests per minute during bulk runs")
	return cmd
}

func splitSymbols(symbol, symbols string) []string {
	var list []string
	if symbol != "" {
		list = append(list, symbol)
	}
	for _, s := range strings.Split(symbols, ",") {
		if s = strings.TrimSpace(s); s != "" {
			list = append(list, s)
		}
	}
	return list
}

func runFetch(symbols []string, period, interval, text string, rpm int) error {
	// Load config
	configPath := os.Getenv("STOCKS_CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Set up logger (always use development mode for CLI)
	logger, err := zap.NewDevelopment()
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	// Initialize storage
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

	clients := []llm.Client{
		llm.NewOpenAIClient(cfg.LLM.OpenAI.APIKey, cfg.LLM.OpenAI.Model),
		llm.NewMistralClient(cfg.LLM.Mistral.APIKey, cfg.LLM.Mistral.Model, cfg.LLM.Mistral.BaseURL),
		llm.NewGeminiClient(cfg.LLM.Gemini.FlowURL),
	}

	svc := service.NewSnapshotService(fetcher, clients, snapshots, calls, logger)

	// Set up context with cancellation (Ctrl+C to stop a bulk run gracefully)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("cancelling fetch...")
		cancel()
	}()

	// Pace bulk runs so we don't hammer the chart API. The limiter only
	// exists here — the HTTP request path performs no rate limiting.
	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)

	var failed int
	for _, sym := range symbols {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}

		outcome, err := svc.Process(ctx, service.Request{
			Symbol:        sym,
			Period:        period,
			Interval:      interval,
			FinancialText: text,
		})
		switch {
		case errors.Is(err, service.ErrNoData):
			logger.Warn("no data", zap.String("symbol", sym))
			failed++
		case err != nil:
			logger.Error("fetch failed", zap.String("symbol", sym), zap.Error(err))
			failed++
		default:
			logger.Info("snapshot saved",
				zap.String("doc_key", outcome.DocKey),
				zap.Int("rows", outcome.Rows),
			)
		}
	}

	logger.Info("fetch complete",
		zap.Int("total", len(symbols)),
		zap.Int("saved", len(symbols)-failed),
		zap.Int("failed", failed),
	)

	if failed == len(symbols) {
		return fmt.Errorf("all %d symbols failed", failed)
	}
	return nil
}

// Package service contains the core business logic for the snapshot
// pipeline. SnapshotService orchestrates one request end to end:
//
//	parse → fetch OHLCV → (optionally) analyze ×3 → shape → write
//
// The fetch and the three analysis calls have no data dependency on each
// other, so the analyses run concurrently with the fetch. Everything is
// attempted exactly once — no retries anywhere in the pipeline.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fleveque/stockdata-service/internal/llm"
	"github.com/fleveque/stockdata-service/internal/marketdata"
	"github.com/fleveque/stockdata-service/internal/model"
	"github.com/fleveque/stockdata-service/internal/storage"
)

// ErrNoData is returned when the provider had no rows for the symbol and
// no analysis succeeded either — nothing to save. The handler maps it to 404.
var ErrNoData = errors.New("could not obtain data")

// ErrStoreUnavailable is returned when the service has no document store.
// Every request fails fast with it before any outbound call is attempted.
var ErrStoreUnavailable = errors.New("document store unavailable")

// Request is the typed, defaulted form of the handler's query parameters.
// Parsing happens once at the HTTP boundary; everything past it works
// with this struct.
type Request struct {
	Symbol        string
	Period        string
	Interval      string
	FinancialText string
}

// Outcome describes a successful pipeline run: which document was written,
// how many observations it holds, and the per-provider analysis results
// (successes and failures alike — the handler reports both).
type Outcome struct {
	DocKey       string
	Rows         int
	AnalysisOnly bool
	Analyses     []model.AnalysisResult
}

// SnapshotService wires the fetcher, the analysis clients and the store.
// Constructed once at process start and shared across requests — it holds
// no per-request state.
type SnapshotService struct {
	fetcher   marketdata.Fetcher
	clients   []llm.Client
	snapshots storage.SnapshotRepository
	calls     storage.AnalysisCallRepository // nil disables call tracking
	logger    *zap.Logger
}

// NewSnapshotService creates the pipeline service. snapshots may be nil
// when the store could not be reached at startup — the service then fails
// every request with ErrStoreUnavailable instead of crashing the process.
func NewSnapshotService(
	fetcher marketdata.Fetcher,
	clients []llm.Client,
	snapshots storage.SnapshotRepository,
	calls storage.AnalysisCallRepository,
	logger *zap.Logger,
) *SnapshotService {
	return &SnapshotService{
		fetcher:   fetcher,
		clients:   clients,
		snapshots: snapshots,
		calls:     calls,
		logger:    logger,
	}
}

// Process runs one request through the pipeline. Exactly one of three
// things happens: a combined document is written at key = symbol, an
// analysis-only document is written at key = symbol + "_analysis", or
// nothing is written and ErrNoData comes back.
func (s *SnapshotService) Process(ctx context.Context, req Request) (*Outcome, error) {
	// The store precondition comes first: with no store there is no point
	// making any outbound call.
	if s.snapshots == nil {
		return nil, ErrStoreUnavailable
	}

	// Kick off the analysis calls before fetching — they don't need the
	// fetch result, so they run while the chart request is in flight.
	// Each goroutine writes only its own slot; failures stay isolated.
	var (
		analyses []model.AnalysisResult
		wg       sync.WaitGroup
	)
	if req.FinancialText != "" {
		analyses = make([]model.AnalysisResult, len(s.clients))
		for i, client := range s.clients {
			wg.Add(1)
			go func(i int, client llm.Client) {
				defer wg.Done()
				analyses[i] = s.analyze(ctx, client, req.Symbol, req.FinancialText)
			}(i, client)
		}
	}

	series, fetchErr := s.fetcher.Fetch(ctx, req.Symbol, req.Period, req.Interval)
	wg.Wait()

	if fetchErr != nil {
		// Unknown symbol, provider outage and network failure all land on
		// the same no-data branch. The distinction only survives in logs.
		if errors.Is(fetchErr, marketdata.ErrNoData) {
			s.logger.Info("no data for symbol", zap.String("symbol", req.Symbol))
		} else {
			s.logger.Warn("fetch failed, treating as no data",
				zap.String("symbol", req.Symbol),
				zap.Error(fetchErr),
			)
		}
		series = nil
	}

	if len(series) > 0 {
		return s.saveCombined(ctx, req, series, analyses)
	}

	if anySucceeded(analyses) {
		return s.saveAnalysisOnly(ctx, req, analyses)
	}

	return nil, ErrNoData
}

// saveCombined writes the data-path document: shaped series plus a
// {provider}_analysis field for each provider that succeeded. Failed
// providers leave no trace in the document.
func (s *SnapshotService) saveCombined(ctx context.Context, req Request, series model.Series, analyses []model.AnalysisResult) (*Outcome, error) {
	fields := map[string]any{
		"symbol":   req.Symbol,
		"period":   req.Period,
		"interval": req.Interval,
		"data":     Shape(series),
	}
	addAnalysisFields(fields, analyses)

	snap, err := buildSnapshot(req.Symbol, req, fields)
	if err != nil {
		return nil, err
	}

	if err := s.snapshots.Upsert(ctx, snap); err != nil {
		return nil, fmt.Errorf("writing snapshot for %s: %w", req.Symbol, err)
	}

	s.logger.Info("snapshot saved",
		zap.String("doc_key", snap.DocKey),
		zap.Int("rows", len(series)),
	)

	return &Outcome{
		DocKey:   snap.DocKey,
		Rows:     len(series),
		Analyses: analyses,
	}, nil
}

// saveAnalysisOnly writes the text-only variant at symbol + "_analysis":
// no series existed but at least one provider produced an analysis.
func (s *SnapshotService) saveAnalysisOnly(ctx context.Context, req Request, analyses []model.AnalysisResult) (*Outcome, error) {
	fields := map[string]any{
		"symbol": req.Symbol,
	}
	addAnalysisFields(fields, analyses)

	snap, err := buildSnapshot(model.AnalysisDocKey(req.Symbol), req, fields)
	if err != nil {
		return nil, err
	}

	if err := s.snapshots.Upsert(ctx, snap); err != nil {
		return nil, fmt.Errorf("writing analysis snapshot for %s: %w", req.Symbol, err)
	}

	s.logger.Info("analysis-only snapshot saved", zap.String("doc_key", snap.DocKey))

	return &Outcome{
		DocKey:       snap.DocKey,
		AnalysisOnly: true,
		Analyses:     analyses,
	}, nil
}

// analyze runs one provider call, converts any error into a failure result
// and records the call for cost tracking. Nothing propagates past this
// method — provider failures must never abort the request.
func (s *SnapshotService) analyze(ctx context.Context, client llm.Client, symbol, text string) model.AnalysisResult {
	start := time.Now()
	result, err := client.Analyze(ctx, text)
	duration := time.Since(start).Milliseconds()

	s.recordCall(ctx, client, symbol, err, duration)

	if err != nil {
		s.logger.Warn("analysis failed",
			zap.String("provider", client.ProviderName()),
			zap.Error(err),
		)
		return model.AnalysisResult{
			Provider: client.ProviderName(),
			Model:    client.ModelName(),
			Err:      err.Error(),
		}
	}

	return model.AnalysisResult{
		Provider: client.ProviderName(),
		Model:    client.ModelName(),
		Text:     result,
	}
}

func (s *SnapshotService) recordCall(ctx context.Context, client llm.Client, symbol string, callErr error, durationMs int64) {
	if s.calls == nil {
		return
	}

	call := &model.AnalysisCall{
		Symbol:   symbol,
		Provider: client.ProviderName(),
		Model:    client.ModelName(),
		Success:  callErr == nil,
	}
	call.DurationMs = &durationMs
	if callErr != nil {
		msg := callErr.Error()
		call.ErrorMessage = &msg
	}

	if err := s.calls.Create(ctx, call); err != nil {
		s.logger.Error("recording analysis call", zap.Error(err))
	}
}

// buildSnapshot serializes the document fields into a Snapshot row.
// The store assigns updated_at itself, so it is absent here.
func buildSnapshot(docKey string, req Request, fields map[string]any) (*model.Snapshot, error) {
	payload, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encoding document for %s: %w", docKey, err)
	}

	return &model.Snapshot{
		DocKey:   docKey,
		Symbol:   req.Symbol,
		Period:   req.Period,
		Interval: req.Interval,
		Payload:  string(payload),
	}, nil
}

// addAnalysisFields copies successful analyses into the document as
// {provider}_analysis fields. Failed providers contribute nothing — the
// field is absent entirely rather than holding an error value.
func addAnalysisFields(fields map[string]any, analyses []model.AnalysisResult) {
	for _, a := range analyses {
		if a.OK() {
			fields[a.Provider+"_analysis"] = a.Text
		}
	}
}

func anySucceeded(analyses []model.AnalysisResult) bool {
	for _, a := range analyses {
		if a.OK() {
			return true
		}
	}
	return false
}

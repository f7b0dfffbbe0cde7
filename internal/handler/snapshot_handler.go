// Package handler contains HTTP request handlers.
// In Gin, a handler is any function with signature func(*gin.Context).
// No need for controller classes — just functions grouped by file.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/stockdata-service/internal/service"
	"github.com/fleveque/stockdata-service/internal/storage"
)

// Defaults applied when a query parameter is absent. They mirror what the
// frontend sends for its landing view.
const (
	defaultSymbol   = "GOOGL"
	defaultPeriod   = "6mo"
	defaultInterval = "1d"
)

// SnapshotProcessor is the slice of the snapshot service this handler
// needs. Declaring the interface on the consumer side keeps the handler
// testable with a three-line stub.
type SnapshotProcessor interface {
	Process(ctx context.Context, req service.Request) (*service.Outcome, error)
}

// SnapshotHandler handles snapshot creation and read-back.
type SnapshotHandler struct {
	processor SnapshotProcessor
	snapshots storage.SnapshotRepository
	logger    *zap.Logger
}

// NewSnapshotHandler creates a new SnapshotHandler.
func NewSnapshotHandler(processor SnapshotProcessor, snapshots storage.SnapshotRepository, logger *zap.Logger) *SnapshotHandler {
	return &SnapshotHandler{
		processor: processor,
		snapshots: snapshots,
		logger:    logger,
	}
}

// Create runs the fetch → analyze → shape → write pipeline for one symbol.
// Route: GET|POST /api/v1/snapshots?symbol=AAPL&period=1mo&interval=1d&financial_text=...
//
// Responses:
//
//	200 {message, [openai_analysis, mistral_analysis, gemini_analysis]}
//	404 {message}  — no data and no successful analysis, nothing written
//	500 {error}    — store unavailable, write failure or unexpected error
func (h *SnapshotHandler) Create(c *gin.Context) {
	req := service.Request{
		Symbol:        c.DefaultQuery("symbol", defaultSymbol),
		Period:        c.DefaultQuery("period", defaultPeriod),
		Interval:      c.DefaultQuery("interval", defaultInterval),
		FinancialText: c.Query("financial_text"),
	}

	// The only local validation: an explicitly empty symbol is rejected.
	// Everything else (period/interval vocabulary, symbol existence) is the
	// provider's to judge.
	if req.Symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol must not be empty"})
		return
	}

	outcome, err := h.processor.Process(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrNoData) {
			c.JSON(http.StatusNotFound, gin.H{
				"message": fmt.Sprintf("Could not obtain valid data for %s.", req.Symbol),
			})
			return
		}

		h.logger.Error("snapshot pipeline failed",
			zap.String("symbol", req.Symbol),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	body := gin.H{}
	if outcome.AnalysisOnly {
		body["message"] = fmt.Sprintf("Analysis for %s saved successfully.", req.Symbol)
	} else {
		body["message"] = fmt.Sprintf("Data for %s saved successfully.", req.Symbol)
	}

	// When analysis ran, the response carries each provider's raw result —
	// or its failure message. The persisted document only ever holds the
	// successes; failures are reported here and nowhere else.
	for _, a := range outcome.Analyses {
		if a.OK() {
			body[a.Provider+"_analysis"] = a.Text
		} else {
			body[a.Provider+"_analysis"] = a.Err
		}
	}

	c.JSON(http.StatusOK, body)
}

// Get returns a stored document by key.
// Route: GET /api/v1/snapshots/:key — key is the symbol, or symbol_analysis
// for the text-only variant.
func (h *SnapshotHandler) Get(c *gin.Context) {
	key := c.Param("key")

	snap, err := h.snapshots.GetByKey(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "snapshot not found"})
			return
		}
		h.logger.Error("reading snapshot", zap.String("doc_key", key), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	// The payload is already JSON — RawMessage embeds it without re-encoding.
	c.JSON(http.StatusOK, gin.H{
		"doc_key":    snap.DocKey,
		"updated_at": snap.UpdatedAt,
		"document":   json.RawMessage(snap.Payload),
	})
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/stockdata-service/internal/storage"
)

// StatsHandler reports store and analysis-call counters.
type StatsHandler struct {
	snapshots storage.SnapshotRepository
	calls     storage.AnalysisCallRepository
	logger    *zap.Logger
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(snapshots storage.SnapshotRepository, calls storage.AnalysisCallRepository, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{
		snapshots: snapshots,
		calls:     calls,
		logger:    logger,
	}
}

// Stats returns snapshot and analysis call counts.
// Route: GET /api/v1/stats
func (h *StatsHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	snapshots, err := h.snapshots.Count(ctx)
	if err != nil {
		h.logger.Error("counting snapshots", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	total, err := h.calls.Count(ctx)
	if err != nil {
		h.logger.Error("counting analysis calls", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	succeeded, err := h.calls.CountBySuccess(ctx, true)
	if err != nil {
		h.logger.Error("counting successful analysis calls", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"snapshots": snapshots,
		"analysis_calls": gin.H{
			"total":     total,
			"succeeded": succeeded,
			"failed":    total - succeeded,
		},
	})
}

// Package server configures the HTTP server and routes.
package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/stockdata-service/internal/config"
	"github.com/fleveque/stockdata-service/internal/handler"
	"github.com/fleveque/stockdata-service/internal/middleware"
	"github.com/fleveque/stockdata-service/internal/service"
	"github.com/fleveque/stockdata-service/internal/storage"
)

// Deps carries the constructed dependencies into route registration.
// In Go, we pass dependencies explicitly — no DI container, no magic.
// Each handler gets exactly the dependencies it needs.
type Deps struct {
	Service   *service.SnapshotService
	Snapshots storage.SnapshotRepository
	Calls     storage.AnalysisCallRepository
}

// RegisterRoutes sets up all HTTP routes on the Gin engine.
func RegisterRoutes(r *gin.Engine, cfg *config.Config, deps Deps, logger *zap.Logger) {
	healthHandler := handler.NewHealthHandler()
	snapshotHandler := handler.NewSnapshotHandler(deps.Service, deps.Snapshots, logger)
	statsHandler := handler.NewStatsHandler(deps.Snapshots, deps.Calls, logger)

	// Public endpoint (no CORS needed for health probes)
	r.GET("/healthz", healthHandler.Healthz)

	// CORS middleware applies to the entire API group.
	api := r.Group("/api/v1")
	api.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	{
		// The snapshot trigger is method-agnostic: the frontend uses GET,
		// curl-driven refreshes tend to POST. Both run the same pipeline.
		api.GET("/snapshots", snapshotHandler.Create)
		api.POST("/snapshots", snapshotHandler.Create)
		api.GET("/snapshots/:key", snapshotHandler.Get)
		api.GET("/stats", statsHandler.Stats)
	}
}

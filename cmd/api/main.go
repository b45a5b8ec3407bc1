// Diary Insights API
//
// Batch pipeline and API for deriving deterministic sleep metrics and
// statistically vetted behavioral insights from diary-survey entries.
package main

import (
	"context"
	"log"
	"net/http"

	"github.com/mlenart/diary-insights/internal/api"
	"github.com/mlenart/diary-insights/internal/api/handler"
	"github.com/mlenart/diary-insights/internal/artifact"
	"github.com/mlenart/diary-insights/internal/config"
	"github.com/mlenart/diary-insights/internal/logging"
	"github.com/mlenart/diary-insights/internal/service"
	"github.com/mlenart/diary-insights/internal/telemetry"
)

func main() {
	// Load configuration
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Initialize tracing (no-op when no OTLP endpoint is configured)
	ctx := context.Background()
	shutdownTracer, err := telemetry.InitTracer(ctx, cfg, "diary-insights-api")
	if err != nil {
		logger.Errorf("Failed to initialize tracer: %v", err)
	} else {
		defer func() {
			if err := shutdownTracer(context.Background()); err != nil {
				logger.Errorf("Tracer shutdown: %v", err)
			}
		}()
	}

	// Initialize artifact writer
	writer := artifact.NewFileWriter(cfg.ArtifactDir)

	// Initialize services
	metricsService := service.NewMetricsService(cfg, logger)
	aggregateService := service.NewAggregateService(cfg)
	insightService := service.NewInsightService(cfg, logger)
	pipelineService := service.NewPipelineService(cfg, logger, metricsService, aggregateService, insightService, writer)

	// Initialize handlers and router
	runHandler := handler.NewRunHandler(pipelineService, writer)
	router := api.NewRouter(logger, runHandler)

	// Start server
	addr := ":" + cfg.Port
	logger.Infof("Starting server on %s (artifacts in %s)", addr, cfg.ArtifactDir)
	if err := http.ListenAndServe(addr, router.Setup()); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

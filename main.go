package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/sitepulse-ai/sitepulse-engine/pkg/analytics"
	"github.com/sitepulse-ai/sitepulse-engine/pkg/config"
	"github.com/sitepulse-ai/sitepulse-engine/pkg/handlers"
	"github.com/sitepulse-ai/sitepulse-engine/pkg/llm"
	"github.com/sitepulse-ai/sitepulse-engine/pkg/logging"
	"github.com/sitepulse-ai/sitepulse-engine/pkg/middleware"
	"github.com/sitepulse-ai/sitepulse-engine/pkg/services"
	"github.com/sitepulse-ai/sitepulse-engine/pkg/sheets"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	llmClient := llm.NewClient(&llm.Config{
		Endpoint:   cfg.LLM.Endpoint,
		Model:      cfg.LLM.Model,
		APIKey:     cfg.LLM.APIKey,
		Timeout:    time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
		MaxRetries: cfg.LLM.MaxRetries,
	}, logger)

	// Collaborator clients are built per request so credential rotation and
	// sheet edits take effect without a restart.
	analyticsFactory := func(ctx context.Context) (analytics.DataClient, error) {
		return analytics.NewClient(ctx, cfg.Analytics.CredentialsPath, logger)
	}
	sheetFactory := func(ctx context.Context) (sheets.Source, error) {
		return sheets.NewSource(ctx, sheets.Options{
			Location:        cfg.SEO.SheetLocation,
			GID:             cfg.SEO.SheetGID,
			WorksheetTitle:  cfg.SEO.WorksheetTitle,
			CredentialsPath: cfg.SEO.CredentialsPath,
		}, logger)
	}

	analyticsAgent := services.NewAnalyticsAgent(analyticsFactory, llmClient, logger)
	seoAgent := services.NewSEOAgent(sheetFactory, llmClient, services.SEOAgentOptions{
		UseAllTabs: cfg.SEO.WantsAllTabs(),
		MaxRows:    cfg.SEO.MaxRows,
	}, logger)

	mux := http.NewServeMux()

	// Register handlers
	healthHandler := handlers.NewHealthHandler(cfg, llmClient, logger)
	healthHandler.RegisterRoutes(mux)

	queryHandler := handlers.NewQueryHandler(analyticsAgent, seoAgent, llmClient, logger)
	queryHandler.RegisterRoutes(mux)

	handler := middleware.RequestLogger(logger)(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	log.Printf("Starting sitepulse-engine on %s (version: %s, llm_enabled: %v)", addr, cfg.Version, llmClient.Enabled())
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

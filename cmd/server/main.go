package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/Denno-Labs/Logistria/internal/adapters/web"
	"github.com/Denno-Labs/Logistria/internal/ai"
	"github.com/Denno-Labs/Logistria/internal/app"
	"github.com/Denno-Labs/Logistria/internal/core"
	"github.com/Denno-Labs/Logistria/internal/db"
	"github.com/Denno-Labs/Logistria/internal/regression"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		logger.Error("unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		logger.Warn("OPENAI_API_KEY is not set; orchestration and rework advice will degrade")
	}

	audit := core.NewAuditTrail(pool, logger)
	ledger := core.NewMaterialLedger(pool, audit, logger)
	planning := core.NewPlanningService(pool)
	scorer := regression.NewClient(os.Getenv("SCORING_SERVICE_URL"), logger)
	ranker := core.NewSupplierScoringService(pool, scorer, core.DefaultScoringWeights(), core.DefaultConfidenceThreshold, audit, logger)
	orchestrator := ai.NewOrchestrator(apiKey, logger)
	advisor := ai.NewAdvisor(apiKey, logger)
	router := core.NewEventRouter(ledger, ranker, orchestrator, audit, logger)
	procurement := core.NewProcurementService(pool, audit, logger)
	production := core.NewProductionService(pool, ledger, router, planning, procurement, advisor, audit, logger)

	svc := app.NewService(production, ledger, procurement, ranker)
	handler := web.NewHandler(svc, os.Getenv("ALLOWED_ORIGINS"), logger)

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	logger.Info("server listening", "addr", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

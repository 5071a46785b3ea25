package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	aipkg "github.com/Denno-Labs/Logistria/internal/ai"
	"github.com/Denno-Labs/Logistria/internal/app"
	"github.com/Denno-Labs/Logistria/internal/core"
	"github.com/Denno-Labs/Logistria/internal/db"
	"github.com/Denno-Labs/Logistria/internal/regression"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Println("Warning: OPENAI_API_KEY is not set")
	}

	audit := core.NewAuditTrail(pool, logger)
	ledger := core.NewMaterialLedger(pool, audit, logger)
	planning := core.NewPlanningService(pool)
	scorer := regression.NewClient(os.Getenv("SCORING_SERVICE_URL"), logger)
	ranker := core.NewSupplierScoringService(pool, scorer, core.DefaultScoringWeights(), core.DefaultConfidenceThreshold, audit, logger)
	orchestrator := aipkg.NewOrchestrator(apiKey, logger)
	advisor := aipkg.NewAdvisor(apiKey, logger)
	router := core.NewEventRouter(ledger, ranker, orchestrator, audit, logger)
	procurement := core.NewProcurementService(pool, audit, logger)
	production := core.NewProductionService(pool, ledger, router, planning, procurement, advisor, audit, logger)
	svc := app.NewService(production, ledger, procurement, ranker)

	if len(os.Args) < 2 {
		usage()
	}

	switch os.Args[1] {
	case "create":
		if len(os.Args) < 5 {
			log.Fatal("Usage: app create <production_id> <product_id> <quantity> [order_id]")
		}
		qty := mustDecimal(os.Args[4])
		orderID := ""
		if len(os.Args) > 5 {
			orderID = os.Args[5]
		}
		result, err := svc.CreateProduction(ctx, app.CreateProductionRequest{
			ProductionID:   os.Args[2],
			OrderID:        orderID,
			ProductID:      os.Args[3],
			TargetQuantity: qty,
		})
		exitOnError(err)
		printJSON(result)

	case "advance":
		if len(os.Args) < 4 {
			log.Fatal("Usage: app advance <production_id> <completed_stage>")
		}
		result, err := svc.AdvanceStage(ctx, app.AdvanceStageRequest{
			ProductionID:   os.Args[2],
			CompletedStage: os.Args[3],
		})
		exitOnError(err)
		printJSON(result)

	case "qc":
		if len(os.Args) < 4 {
			log.Fatal("Usage: app qc <production_id> pass|fail [notes]")
		}
		notes := ""
		if len(os.Args) > 4 {
			notes = strings.Join(os.Args[4:], " ")
		}
		result, err := svc.QualityCheck(ctx, app.QualityCheckRequest{
			ProductionID: os.Args[2],
			Passed:       strings.EqualFold(os.Args[3], "pass"),
			Notes:        notes,
		})
		exitOnError(err)
		printJSON(result)

	case "status":
		if len(os.Args) < 3 {
			log.Fatal("Usage: app status <production_id>")
		}
		result, err := svc.GetProduction(ctx, os.Args[2])
		exitOnError(err)
		printJSON(result)

	case "stock":
		result, err := svc.GetStockLevels(ctx)
		exitOnError(err)
		printStock(result.Levels)

	case "receive":
		if len(os.Args) < 4 {
			log.Fatal("Usage: app receive <material_id> <quantity> [warehouse]")
		}
		warehouse := ""
		if len(os.Args) > 4 {
			warehouse = os.Args[4]
		}
		rec, err := svc.ReceiveStock(ctx, app.ReceiveStockRequest{
			MaterialID:        os.Args[2],
			Quantity:          mustDecimal(os.Args[3]),
			WarehouseLocation: warehouse,
		})
		exitOnError(err)
		printJSON(rec)

	case "rank":
		if len(os.Args) < 4 {
			log.Fatal("Usage: app rank <material_id> <quantity>")
		}
		result, err := svc.RankSuppliers(ctx, os.Args[2], os.Args[3])
		exitOnError(err)
		printJSON(result)

	case "pos":
		status := ""
		if len(os.Args) > 2 {
			status = os.Args[2]
		}
		result, err := svc.ListPurchaseOrders(ctx, status)
		exitOnError(err)
		printJSON(result)

	case "approve":
		if len(os.Args) < 3 {
			log.Fatal("Usage: app approve <po_id>")
		}
		po, err := svc.ApprovePurchaseOrder(ctx, os.Args[2])
		exitOnError(err)
		printJSON(po)

	case "reject":
		if len(os.Args) < 3 {
			log.Fatal("Usage: app reject <po_id>")
		}
		po, err := svc.RejectPurchaseOrder(ctx, os.Args[2])
		exitOnError(err)
		printJSON(po)

	default:
		usage()
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: app <command> [args]

Commands:
  create <production_id> <product_id> <quantity> [order_id]
  advance <production_id> <completed_stage>
  qc <production_id> pass|fail [notes]
  status <production_id>
  stock
  receive <material_id> <quantity> [warehouse]
  rank <material_id> <quantity>
  pos [status]
  approve <po_id>
  reject <po_id>`)
	os.Exit(2)
}

func mustDecimal(v string) decimal.Decimal {
	d, err := decimal.NewFromString(v)
	if err != nil {
		log.Fatalf("Invalid quantity %q: %v", v, err)
	}
	return d
}

func exitOnError(err error) {
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

func printStock(levels []core.MaterialRecord) {
	fmt.Println("\n--- MATERIAL STOCK ---")
	fmt.Printf("%-12s %12s %12s %12s  %s\n", "MATERIAL", "ON HAND", "RESERVED", "AVAILABLE", "LOCATION")
	fmt.Println(strings.Repeat("-", 64))
	for _, rec := range levels {
		fmt.Printf("%-12s %12s %12s %12s  %s\n",
			rec.MaterialID,
			rec.CurrentStock.StringFixed(2),
			rec.ReservedStock.StringFixed(2),
			rec.AvailableStock().StringFixed(2),
			rec.WarehouseLocation)
	}
	fmt.Println(strings.Repeat("-", 64))
}

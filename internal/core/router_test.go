package core_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Denno-Labs/Logistria/internal/core"

	"github.com/shopspring/decimal"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeLedger struct {
	records map[string]core.MaterialRecord
}

func (f *fakeLedger) Material(_ context.Context, materialID string) (core.MaterialRecord, error) {
	rec, ok := f.records[materialID]
	if !ok {
		return core.MaterialRecord{}, &core.MaterialNotFoundError{MaterialID: materialID}
	}
	return rec, nil
}

type fakeRanker struct {
	calls []string
}

func (f *fakeRanker) Rank(_ context.Context, materialID string, _ decimal.Decimal) (*core.SupplierRankingResult, error) {
	f.calls = append(f.calls, materialID)
	return &core.SupplierRankingResult{
		MaterialID: materialID,
		Suppliers: []core.RankedSupplier{
			{SupplierID: "SUP-A", ConfidenceScore: 0.9, RankingPosition: 1},
		},
		OverallRiskLevel: "LOW",
	}, nil
}

type fakeOrchestrator struct {
	request *core.OrchestrationRequest
	plan    *core.OrchestrationResult
	err     error
}

func (f *fakeOrchestrator) Orchestrate(_ context.Context, req core.OrchestrationRequest) (*core.OrchestrationResult, error) {
	f.request = &req
	if f.err != nil {
		return nil, f.err
	}
	return f.plan, nil
}

func validEvent() core.InventoryChangeEvent {
	return core.InventoryChangeEvent{
		EventType:         core.EventTypeInventoryUpdated,
		Source:            "production",
		Timestamp:         time.Now(),
		OrderID:           "SO-1",
		ProductionID:      "PROD-1",
		FinishedProductID: "FP-1",
		AffectedMaterials: []core.AffectedMaterial{
			{MaterialID: "M1", QuantityConsumed: dec("20"), WarehouseLocation: "WH1"},
		},
	}
}

func routerFixture(ledger *fakeLedger, orch *fakeOrchestrator) (*core.EventRouter, *fakeRanker) {
	ranker := &fakeRanker{}
	audit := core.NewAuditTrail(nil, testLogger())
	return core.NewEventRouter(ledger, ranker, orch, audit, testLogger()), ranker
}

func standardConfig() (map[string]core.DemandParams, map[string]core.ReorderPolicy) {
	demand := map[string]core.DemandParams{
		"M1": {AverageDailyDemand: dec("1"), LeadTimeDays: 5, SafetyStock: dec("10")},
	}
	policies := map[string]core.ReorderPolicy{
		"M1": {PolicyType: core.PolicyEOQ, EconomicOrderQuantity: dec("50")},
	}
	return demand, policies
}

func TestRoute_RejectsMalformedEvents(t *testing.T) {
	router, _ := routerFixture(&fakeLedger{}, &fakeOrchestrator{})
	demand, policies := standardConfig()

	cases := map[string]func(*core.InventoryChangeEvent){
		"wrong event type":      func(e *core.InventoryChangeEvent) { e.EventType = "STOCK_CHANGED" },
		"missing source":        func(e *core.InventoryChangeEvent) { e.Source = "" },
		"zero timestamp":        func(e *core.InventoryChangeEvent) { e.Timestamp = time.Time{} },
		"missing production id": func(e *core.InventoryChangeEvent) { e.ProductionID = "" },
		"missing product id":    func(e *core.InventoryChangeEvent) { e.FinishedProductID = "" },
		"empty materials":       func(e *core.InventoryChangeEvent) { e.AffectedMaterials = nil },
		"material without id":   func(e *core.InventoryChangeEvent) { e.AffectedMaterials[0].MaterialID = "" },
	}
	for name, mutate := range cases {
		event := validEvent()
		mutate(&event)
		_, err := router.Route(context.Background(), event, demand, policies)
		var invalid *core.InvalidEventError
		if !errors.As(err, &invalid) {
			t.Errorf("%s: expected InvalidEventError, got %v", name, err)
		}
	}
}

func TestRoute_MissingConfigAbortsBatch(t *testing.T) {
	ledger := &fakeLedger{records: map[string]core.MaterialRecord{
		"M1": record("M1", "5", "0"),
	}}
	router, ranker := routerFixture(ledger, &fakeOrchestrator{})
	demand, policies := standardConfig()

	event := validEvent()
	event.AffectedMaterials = append(event.AffectedMaterials,
		core.AffectedMaterial{MaterialID: "M2", QuantityConsumed: dec("5"), WarehouseLocation: "WH1"})

	_, err := router.Route(context.Background(), event, demand, policies)
	var missing *core.MissingConfigError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingConfigError, got %v", err)
	}
	if missing.MaterialID != "M2" {
		t.Errorf("MaterialID = %s, want M2", missing.MaterialID)
	}
	// The abort happens before any evaluation: no ranking may have run.
	if len(ranker.calls) != 0 {
		t.Errorf("ranker ran %d times before config abort", len(ranker.calls))
	}
}

func TestRoute_TriggeredMaterialDrivesFullCascade(t *testing.T) {
	ledger := &fakeLedger{records: map[string]core.MaterialRecord{
		"M1": record("M1", "5", "0"), // available 5 <= point 15
	}}
	orch := &fakeOrchestrator{plan: &core.OrchestrationResult{
		ProcurementPlan: []core.ProcurementPlanItem{
			{MaterialID: "M1", SelectedSupplier: "SUP-A", QuantityToOrder: 50},
		},
		OverallSupplyChainRisk: "LOW",
		StrategicSummary:       "replenish M1 from SUP-A",
	}}
	router, ranker := routerFixture(ledger, orch)
	demand, policies := standardConfig()

	result, err := router.Route(context.Background(), validEvent(), demand, policies)
	if err != nil {
		t.Fatalf("Route: %v", err)
	}

	if result.EventType != core.EventTypeEvaluationCompleted {
		t.Errorf("EventType = %s", result.EventType)
	}
	if result.MaterialsEvaluated != 1 || len(result.ReorderSummary) != 1 {
		t.Fatalf("evaluated %d materials, summary %d", result.MaterialsEvaluated, len(result.ReorderSummary))
	}
	if !result.ReorderSummary[0].ReorderTrigger {
		t.Error("reorder must trigger at stock 5 against point 15")
	}
	if len(ranker.calls) != 1 || ranker.calls[0] != "M1" {
		t.Errorf("ranker calls = %v, want [M1]", ranker.calls)
	}

	// The orchestrator must see the assembled context, not fragments.
	if orch.request == nil {
		t.Fatal("orchestrator was not called")
	}
	if orch.request.ProductionRequest.ProductionID != "PROD-1" {
		t.Errorf("orchestration production id = %s", orch.request.ProductionRequest.ProductionID)
	}
	if orch.request.ProductionRequest.OrderID != "SO-1" {
		t.Errorf("orchestration order id = %s, want SO-1", orch.request.ProductionRequest.OrderID)
	}
	if orch.request.ProductionRequest.FinishedProductID != "FP-1" {
		t.Errorf("orchestration finished product id = %s, want FP-1", orch.request.ProductionRequest.FinishedProductID)
	}
	if len(orch.request.InventoryAnalysis) != 1 || orch.request.InventoryAnalysis[0].QuantityToOrder != "50" {
		t.Errorf("inventory analysis = %+v", orch.request.InventoryAnalysis)
	}
	if len(orch.request.SupplierRankingResults) != 1 {
		t.Errorf("ranking results = %d, want 1", len(orch.request.SupplierRankingResults))
	}

	if result.Orchestration == nil || result.Orchestration.OverallSupplyChainRisk != "LOW" {
		t.Errorf("orchestration result missing or wrong: %+v", result.Orchestration)
	}
	if result.OrchestrationErr != "" {
		t.Errorf("unexpected orchestration error marker: %q", result.OrchestrationErr)
	}
}

func TestRoute_NoTriggerSkipsDownstream(t *testing.T) {
	ledger := &fakeLedger{records: map[string]core.MaterialRecord{
		"M1": record("M1", "100", "0"), // well above the reorder point
	}}
	orch := &fakeOrchestrator{}
	router, ranker := routerFixture(ledger, orch)
	demand, policies := standardConfig()

	result, err := router.Route(context.Background(), validEvent(), demand, policies)
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if len(result.ReorderSummary) != 1 || result.ReorderSummary[0].ReorderTrigger {
		t.Errorf("expected one non-triggered decision: %+v", result.ReorderSummary)
	}
	if len(ranker.calls) != 0 {
		t.Errorf("ranker must not run without a trigger, ran %d times", len(ranker.calls))
	}
	if orch.request != nil {
		t.Error("orchestrator must not run without a trigger")
	}
}

func TestRoute_OrchestratorFailureDegradesWithMarker(t *testing.T) {
	ledger := &fakeLedger{records: map[string]core.MaterialRecord{
		"M1": record("M1", "5", "0"),
	}}
	orch := &fakeOrchestrator{err: &core.OracleError{Op: "strategic orchestration", Err: errors.New("model unavailable")}}
	router, _ := routerFixture(ledger, orch)
	demand, policies := standardConfig()

	result, err := router.Route(context.Background(), validEvent(), demand, policies)
	if err != nil {
		t.Fatalf("Route must not fail on orchestration errors: %v", err)
	}
	if result.Orchestration != nil {
		t.Error("failed orchestration must not produce a plan")
	}
	if result.OrchestrationErr == "" {
		t.Error("failed orchestration must leave an explicit marker")
	}
	// Decisions and rankings above the failure are retained.
	if len(result.ReorderSummary) != 1 || len(result.SupplierRankings) != 1 {
		t.Errorf("upstream results lost: %+v", result)
	}
}

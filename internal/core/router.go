package core

import (
	"context"
	"log/slog"
	"time"
)

// StrategicOrchestrator turns the assembled replenishment context into a
// structured procurement plan. Implementations live outside this package; the
// router only depends on the contract.
type StrategicOrchestrator interface {
	Orchestrate(ctx context.Context, req OrchestrationRequest) (*OrchestrationResult, error)
}

// OrchestrationRequest is the full context handed to the strategic
// orchestrator: what was produced, what was consumed, which materials need
// replenishment and which suppliers ranked best for each.
type OrchestrationRequest struct {
	ProductionRequest      ProductionRequestContext `json:"production_request"`
	BillOfMaterials        []AffectedMaterial       `json:"bill_of_materials"`
	InventoryAnalysis      []InventoryAnalysisItem  `json:"inventory_analysis"`
	SupplierRankingResults []SupplierRankingResult  `json:"supplier_ranking_results"`
}

// ProductionRequestContext identifies the production event behind the
// orchestration.
type ProductionRequestContext struct {
	OrderID           string `json:"order_id"`
	ProductionID      string `json:"production_id"`
	FinishedProductID string `json:"finished_product_id"`
}

// InventoryAnalysisItem is one triggered material with its recommended order
// quantity.
type InventoryAnalysisItem struct {
	MaterialID      string          `json:"material_id"`
	QuantityToOrder string          `json:"quantity_to_order"`
	Decision        ReorderDecision `json:"decision"`
}

// ProcurementPlanItem is one material's sourcing decision inside the
// orchestrated plan.
type ProcurementPlanItem struct {
	MaterialID         string  `json:"material_id"`
	SelectedSupplier   string  `json:"selected_supplier"`
	QuantityToOrder    float64 `json:"quantity_to_order"`
	RiskLevel          string  `json:"risk_level"`
	ConfidenceLevel    float64 `json:"confidence_level"`
	MitigationStrategy string  `json:"mitigation_strategy"`
	Reasoning          string  `json:"reasoning"`
}

// OrchestrationResult is the orchestrator's structured procurement plan.
type OrchestrationResult struct {
	ProcurementPlan        []ProcurementPlanItem `json:"procurement_plan"`
	OverallSupplyChainRisk string                `json:"overall_supply_chain_risk"`
	StrategicSummary       string                `json:"strategic_summary"`
	OrchestrationLogID     string                `json:"orchestration_log_id,omitempty"`
}

// RouteResult summarizes one routed inventory event. Orchestration is nil and
// OrchestrationErr set when the downstream capability failed; the reorder
// decisions and rankings above it are already final.
type RouteResult struct {
	EventType          string                  `json:"event_type"`
	ProductionID       string                  `json:"production_id"`
	MaterialsEvaluated int                     `json:"materials_evaluated"`
	ReorderSummary     []ReorderDecision       `json:"reorder_summary"`
	SupplierRankings   []SupplierRankingResult `json:"supplier_rankings,omitempty"`
	Orchestration      *OrchestrationResult    `json:"orchestration,omitempty"`
	OrchestrationErr   string                  `json:"orchestration_error,omitempty"`
}

// EventTypeEvaluationCompleted marks a fully routed inventory event.
const EventTypeEvaluationCompleted = "INVENTORY_EVALUATION_COMPLETED"

// EventRouter consumes inventory change events and drives the replenishment
// cascade: reorder evaluation per affected material, supplier ranking for
// each triggered one, then strategic orchestration over the whole picture.
// Materials are processed sequentially in event order.
type EventRouter struct {
	ledger       LedgerReader
	ranker       SupplierRanker
	orchestrator StrategicOrchestrator
	audit        *AuditTrail
	logger       *slog.Logger
}

func NewEventRouter(ledger LedgerReader, ranker SupplierRanker, orchestrator StrategicOrchestrator,
	audit *AuditTrail, logger *slog.Logger) *EventRouter {
	return &EventRouter{
		ledger:       ledger,
		ranker:       ranker,
		orchestrator: orchestrator,
		audit:        audit,
		logger:       logger,
	}
}

// ValidateEvent checks the event shape at the router boundary.
func ValidateEvent(event InventoryChangeEvent) error {
	switch {
	case event.EventType != EventTypeInventoryUpdated:
		return &InvalidEventError{Reason: "event_type must be " + EventTypeInventoryUpdated}
	case event.Source == "":
		return &InvalidEventError{Reason: "source is required"}
	case event.Timestamp.IsZero():
		return &InvalidEventError{Reason: "timestamp is required"}
	case event.ProductionID == "":
		return &InvalidEventError{Reason: "production_id is required"}
	case event.FinishedProductID == "":
		return &InvalidEventError{Reason: "finished_product_id is required"}
	case len(event.AffectedMaterials) == 0:
		return &InvalidEventError{Reason: "affected_materials must not be empty"}
	}
	for _, m := range event.AffectedMaterials {
		if m.MaterialID == "" {
			return &InvalidEventError{Reason: "affected material missing material_id"}
		}
	}
	return nil
}

// Route processes one inventory change event. Before any material is
// evaluated, every affected material is checked against the demand and policy
// maps; a single gap aborts the batch with a MissingConfigError. Decisions
// already computed are final, but the cascade does not continue past an
// abort.
func (r *EventRouter) Route(ctx context.Context, event InventoryChangeEvent,
	demand map[string]DemandParams, policies map[string]ReorderPolicy) (*RouteResult, error) {

	if err := ValidateEvent(event); err != nil {
		return nil, err
	}

	// Fail fast on configuration gaps so no material is silently skipped.
	for _, m := range event.AffectedMaterials {
		if _, ok := demand[m.MaterialID]; !ok {
			return nil, &MissingConfigError{MaterialID: m.MaterialID, Kind: "demand"}
		}
		if _, ok := policies[m.MaterialID]; !ok {
			return nil, &MissingConfigError{MaterialID: m.MaterialID, Kind: "policy"}
		}
	}

	result := &RouteResult{
		EventType:    EventTypeEvaluationCompleted,
		ProductionID: event.ProductionID,
	}

	var analysis []InventoryAnalysisItem
	for _, m := range event.AffectedMaterials {
		record, err := r.ledger.Material(ctx, m.MaterialID)
		if err != nil {
			return nil, err
		}
		decision, err := EvaluateReorder(record, demand[m.MaterialID], policies[m.MaterialID])
		if err != nil {
			return nil, err
		}
		result.MaterialsEvaluated++
		result.ReorderSummary = append(result.ReorderSummary, decision)

		if !decision.ReorderTrigger {
			continue
		}

		ranking, err := r.ranker.Rank(ctx, m.MaterialID, decision.RecommendedOrderQuantity)
		if err != nil {
			return nil, err
		}
		result.SupplierRankings = append(result.SupplierRankings, *ranking)
		analysis = append(analysis, InventoryAnalysisItem{
			MaterialID:      m.MaterialID,
			QuantityToOrder: decision.RecommendedOrderQuantity.String(),
			Decision:        decision,
		})
	}

	r.audit.Record(ctx, "router.evaluated", event.ProductionID, result.ReorderSummary)

	if len(analysis) == 0 {
		r.logger.Info("inventory event routed, no reorder triggered",
			"production_id", event.ProductionID,
			"materials_evaluated", result.MaterialsEvaluated)
		return result, nil
	}

	req := OrchestrationRequest{
		ProductionRequest: ProductionRequestContext{
			OrderID:           event.OrderID,
			ProductionID:      event.ProductionID,
			FinishedProductID: event.FinishedProductID,
		},
		BillOfMaterials:        event.AffectedMaterials,
		InventoryAnalysis:      analysis,
		SupplierRankingResults: result.SupplierRankings,
	}

	plan, err := r.orchestrator.Orchestrate(ctx, req)
	if err != nil {
		// Orchestration is advisory on top of decisions that already stand.
		// Degrade with an explicit marker instead of failing the cascade.
		result.OrchestrationErr = err.Error()
		r.logger.Error("strategic orchestration failed",
			"production_id", event.ProductionID, "error", err)
		return result, nil
	}
	plan.OrchestrationLogID = r.audit.Record(ctx, "router.orchestrated", event.ProductionID, plan)
	result.Orchestration = plan

	r.logger.Info("inventory event routed",
		"production_id", event.ProductionID,
		"materials_evaluated", result.MaterialsEvaluated,
		"reorders_triggered", len(analysis),
		"timestamp", time.Now().UTC().Format(time.RFC3339))
	return result, nil
}

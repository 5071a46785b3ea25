package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ReworkAdviceRequest carries the failed quality check context to the rework
// advisor.
type ReworkAdviceRequest struct {
	ProductionID string          `json:"production_id"`
	ProductID    string          `json:"product_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	FailedStage  Stage           `json:"failed_stage"`
	Notes        string          `json:"notes,omitempty"`
}

// ReworkAdvisor produces remediation guidance for a failed quality check.
// Advise always returns a JSON document: either structured suggestions, raw
// advisor text wrapped verbatim, or an explicit error marker when the
// capability is unavailable. It never fails the rework transition.
type ReworkAdvisor interface {
	Advise(ctx context.Context, req ReworkAdviceRequest) string
}

// CreateProductionRequest starts one production order.
type CreateProductionRequest struct {
	ProductionID   string          `json:"production_id"`
	OrderID        string          `json:"order_id"`
	ProductID      string          `json:"product_id"`
	TargetQuantity decimal.Decimal `json:"target_quantity"`
}

// StageAdvanceRequest reports one completed stage. QuantityCompleted is the
// quantity that actually cleared the stage; zero means the full target
// quantity. QCPassed is only consulted when the completed stage is
// QUALITY_CHECK.
type StageAdvanceRequest struct {
	ProductionID      string          `json:"production_id"`
	CompletedStage    Stage           `json:"completed_stage"`
	QuantityCompleted decimal.Decimal `json:"quantity_completed,omitempty"`
	QCPassed          *bool           `json:"qc_passed,omitempty"`
	QCNotes           string          `json:"qc_notes,omitempty"`
	Operator          string          `json:"operator,omitempty"`
}

// StageAdvanceResult reports the transition outcome. Cascade and
// PurchaseOrderIDs are populated only for the MATERIAL_ISSUED transition;
// CascadeErr marks a downstream failure after the transition itself already
// committed.
type StageAdvanceResult struct {
	ProductionID      string           `json:"production_id"`
	PreviousStage     Stage            `json:"previous_stage"`
	NewStage          Stage            `json:"new_stage"`
	ProductionStatus  ProductionStatus `json:"production_status"`
	QuantityProcessed decimal.Decimal  `json:"quantity_processed"`
	Message           string           `json:"message,omitempty"`
	ReworkAdvice      string           `json:"rework_advice,omitempty"`
	Cascade           *RouteResult     `json:"cascade,omitempty"`
	CascadeErr        string           `json:"cascade_error,omitempty"`
	PurchaseOrderIDs  []string         `json:"purchase_order_ids,omitempty"`
}

// ProductionService is the stage state machine. Each transition serializes on
// the production order row, so concurrent advances for the same production
// resolve to exactly one winner.
type ProductionService struct {
	pool        *pgxpool.Pool
	ledger      *MaterialLedger
	router      *EventRouter
	planning    *PlanningService
	procurement *ProcurementService
	advisor     ReworkAdvisor
	audit       *AuditTrail
	logger      *slog.Logger
}

func NewProductionService(pool *pgxpool.Pool, ledger *MaterialLedger, router *EventRouter,
	planning *PlanningService, procurement *ProcurementService, advisor ReworkAdvisor,
	audit *AuditTrail, logger *slog.Logger) *ProductionService {
	return &ProductionService{
		pool:        pool,
		ledger:      ledger,
		router:      router,
		planning:    planning,
		procurement: procurement,
		advisor:     advisor,
		audit:       audit,
		logger:      logger,
	}
}

// CreateProduction registers a new production order at MATERIAL_ISSUED with
// its first stage-visit row. The production id must be unused in both the
// order table and the WIP history.
func (s *ProductionService) CreateProduction(ctx context.Context, req CreateProductionRequest) (*ProductionOrder, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin create transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM production_orders WHERE production_id = $1)`,
		req.ProductionID,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check production orders: %w", err)
	}
	if exists {
		return nil, &DuplicateProductionError{ProductionID: req.ProductionID, Table: "production_orders"}
	}
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM wip_tracking WHERE production_id = $1)`,
		req.ProductionID,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check wip tracking: %w", err)
	}
	if exists {
		return nil, &DuplicateProductionError{ProductionID: req.ProductionID, Table: "wip_tracking"}
	}

	now := time.Now().UTC()
	order := &ProductionOrder{
		ProductionID:   req.ProductionID,
		OrderID:        req.OrderID,
		ProductID:      req.ProductID,
		TargetQuantity: req.TargetQuantity,
		CurrentStage:   StageMaterialIssued,
		Status:         ProductionCreated,
		CreatedAt:      now,
		LastUpdated:    now,
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO production_orders
			(production_id, order_id, product_id, target_quantity, current_stage, status, created_at, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		order.ProductionID, order.OrderID, order.ProductID, order.TargetQuantity,
		order.CurrentStage, order.Status, order.CreatedAt, order.LastUpdated,
	); err != nil {
		return nil, fmt.Errorf("insert production order: %w", err)
	}
	if err := insertWipRow(ctx, tx, order.ProductionID, StageMaterialIssued, order.TargetQuantity, WipInProgress, now); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit create transaction: %w", err)
	}

	s.audit.Record(ctx, "production.created", order.ProductionID, order)
	s.logger.Info("production order created",
		"production_id", order.ProductionID,
		"product_id", order.ProductID,
		"target_quantity", order.TargetQuantity.String())
	return order, nil
}

// AdvanceStage records the completion of the order's current stage and moves
// it forward. MATERIAL_ISSUED completion consumes the bill of materials,
// scaled by the completed quantity, in the same transaction and, after
// commit, drives the replenishment cascade. QUALITY_CHECK branches on
// qc_passed: pass completes the order and books the completed quantity as
// finished goods, fail sends it back to ASSEMBLY in REWORK.
func (s *ProductionService) AdvanceStage(ctx context.Context, req StageAdvanceRequest) (*StageAdvanceResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin advance transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	order, err := lockProductionOrder(ctx, tx, req.ProductionID)
	if err != nil {
		return nil, err
	}
	if order.CurrentStage.Terminal() {
		return nil, &TerminalStageError{ProductionID: order.ProductionID}
	}
	if order.CurrentStage != req.CompletedStage {
		return nil, &StageMismatchError{
			ProductionID:   order.ProductionID,
			CurrentStage:   order.CurrentStage,
			CompletedStage: req.CompletedStage,
		}
	}

	qty := req.QuantityCompleted
	if qty.IsZero() {
		qty = order.TargetQuantity
	}
	if qty.IsNegative() || qty.GreaterThan(order.TargetQuantity) {
		return nil, &InvalidEventError{Reason: fmt.Sprintf(
			"quantity_completed %s must be positive and at most the target quantity %s",
			qty, order.TargetQuantity)}
	}

	now := time.Now().UTC()
	result := &StageAdvanceResult{
		ProductionID:      order.ProductionID,
		PreviousStage:     order.CurrentStage,
		QuantityProcessed: qty,
	}

	var affected []AffectedMaterial
	var qcFailed bool

	switch req.CompletedStage {
	case StageQualityCheck:
		if req.QCPassed == nil {
			return nil, &InvalidEventError{Reason: "qc_passed is required to complete QUALITY_CHECK"}
		}
		if *req.QCPassed {
			order.CurrentStage = StageCompleted
			order.Status = ProductionCompleted
			if err := s.ledger.AddFinishedGoodsTx(ctx, tx, order.ProductID, qty); err != nil {
				return nil, err
			}
			result.Message = "quality check passed, production completed"
		} else {
			qcFailed = true
			order.CurrentStage = StageAssembly
			order.Status = ProductionRework
			result.Message = "quality check failed, returned to assembly for rework"
		}
	case StageMaterialIssued:
		affected, err = s.ledger.ConsumeTx(ctx, tx, order.ProductionID, order.ProductID, qty)
		if err != nil {
			return nil, err
		}
		order.CurrentStage = StageFabrication
		order.Status = ProductionInProgress
	default:
		next, ok := req.CompletedStage.Next()
		if !ok {
			return nil, &InvalidEventError{Reason: fmt.Sprintf("stage %s cannot be completed", req.CompletedStage)}
		}
		order.CurrentStage = next
		order.Status = ProductionInProgress
	}

	order.LastUpdated = now
	if _, err := tx.Exec(ctx, `
		UPDATE production_orders
		SET current_stage = $1, status = $2, last_updated = $3
		WHERE production_id = $4`,
		order.CurrentStage, order.Status, now, order.ProductionID,
	); err != nil {
		return nil, fmt.Errorf("update production order: %w", err)
	}

	// Close the completed stage visit and open the next one. The history is
	// append-only; rework opens a fresh ASSEMBLY visit in REWORK.
	if _, err := tx.Exec(ctx, `
		UPDATE wip_tracking
		SET status = $1, last_updated = $2
		WHERE production_id = $3 AND stage_name = $4 AND status = ANY($5)`,
		WipCompleted, now, order.ProductionID, req.CompletedStage,
		[]string{string(WipInProgress), string(WipRework)},
	); err != nil {
		return nil, fmt.Errorf("close wip stage: %w", err)
	}
	if !order.CurrentStage.Terminal() {
		nextStatus := WipInProgress
		if qcFailed {
			nextStatus = WipRework
		}
		if err := insertWipRow(ctx, tx, order.ProductionID, order.CurrentStage, qty, nextStatus, now); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit advance transaction: %w", err)
	}

	result.NewStage = order.CurrentStage
	result.ProductionStatus = order.Status
	s.audit.Record(ctx, "production.stage_advanced", order.ProductionID, result)
	s.logger.Info("production stage advanced",
		"production_id", order.ProductionID,
		"from", result.PreviousStage,
		"to", result.NewStage,
		"status", order.Status)

	// Post-commit work. The transition above is already durable; anything
	// below degrades with a marker instead of rolling it back.
	if qcFailed {
		s.recordQualityFailure(ctx, order, req, result)
	}
	if len(affected) > 0 {
		s.runCascade(ctx, order, affected, result)
	}
	return result, nil
}

// recordQualityFailure asks the rework advisor for guidance and persists the
// qc_log row with the advice verbatim.
func (s *ProductionService) recordQualityFailure(ctx context.Context, order *ProductionOrder,
	req StageAdvanceRequest, result *StageAdvanceResult) {

	advice := s.advisor.Advise(ctx, ReworkAdviceRequest{
		ProductionID: order.ProductionID,
		ProductID:    order.ProductID,
		Quantity:     result.QuantityProcessed,
		FailedStage:  StageQualityCheck,
		Notes:        req.QCNotes,
	})
	result.ReworkAdvice = advice

	if _, err := s.pool.Exec(ctx, `
		INSERT INTO qc_log (production_id, passed, inspector, notes, rework_advice, logged_at)
		VALUES ($1, FALSE, $2, $3, $4, $5)`,
		order.ProductionID, req.Operator, req.QCNotes, advice, time.Now().UTC(),
	); err != nil {
		s.logger.Error("failed to persist qc log", "production_id", order.ProductionID, "error", err)
	}
	s.audit.Record(ctx, "production.qc_failed", order.ProductionID, map[string]any{
		"notes":         req.QCNotes,
		"rework_advice": advice,
	})
}

// runCascade emits the inventory change event through the router and saves
// any resulting procurement plan. Failures land on the result as markers.
func (s *ProductionService) runCascade(ctx context.Context, order *ProductionOrder,
	affected []AffectedMaterial, result *StageAdvanceResult) {

	demand, policies, err := s.planning.PlanningConfig(ctx)
	if err != nil {
		result.CascadeErr = err.Error()
		s.logger.Error("cascade aborted loading planning config",
			"production_id", order.ProductionID, "error", err)
		return
	}

	event := InventoryChangeEvent{
		EventType:         EventTypeInventoryUpdated,
		Source:            "production",
		Timestamp:         time.Now().UTC(),
		OrderID:           order.OrderID,
		ProductionID:      order.ProductionID,
		FinishedProductID: order.ProductID,
		AffectedMaterials: affected,
	}
	routed, err := s.router.Route(ctx, event, demand, policies)
	if err != nil {
		result.CascadeErr = err.Error()
		s.logger.Error("cascade failed",
			"production_id", order.ProductionID, "error", err)
		return
	}
	result.Cascade = routed

	if routed.Orchestration != nil {
		poIDs, err := s.procurement.SaveProcurementPlan(ctx, order.ProductionID, routed.Orchestration)
		if err != nil {
			result.CascadeErr = err.Error()
			s.logger.Error("failed to save procurement plan",
				"production_id", order.ProductionID, "error", err)
			return
		}
		result.PurchaseOrderIDs = poIDs
	}
}

// Production returns one production order.
func (s *ProductionService) Production(ctx context.Context, productionID string) (*ProductionOrder, error) {
	var order ProductionOrder
	err := s.pool.QueryRow(ctx, `
		SELECT production_id, order_id, product_id, target_quantity, current_stage, status, created_at, last_updated
		FROM production_orders
		WHERE production_id = $1`,
		productionID,
	).Scan(&order.ProductionID, &order.OrderID, &order.ProductID, &order.TargetQuantity,
		&order.CurrentStage, &order.Status, &order.CreatedAt, &order.LastUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &ProductionNotFoundError{ProductionID: productionID}
	}
	if err != nil {
		return nil, fmt.Errorf("query production %s: %w", productionID, err)
	}
	return &order, nil
}

// WipHistory returns the append-only stage-visit rows for a production in
// insertion order.
func (s *ProductionService) WipHistory(ctx context.Context, productionID string) ([]WipEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT production_id, stage_name, quantity, status, last_updated
		FROM wip_tracking
		WHERE production_id = $1
		ORDER BY wip_id`,
		productionID)
	if err != nil {
		return nil, fmt.Errorf("query wip history: %w", err)
	}
	defer rows.Close()

	var out []WipEntry
	for rows.Next() {
		var e WipEntry
		if err := rows.Scan(&e.ProductionID, &e.StageName, &e.Quantity, &e.Status, &e.LastUpdated); err != nil {
			return nil, fmt.Errorf("scan wip entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func lockProductionOrder(ctx context.Context, tx pgx.Tx, productionID string) (*ProductionOrder, error) {
	var order ProductionOrder
	err := tx.QueryRow(ctx, `
		SELECT production_id, order_id, product_id, target_quantity, current_stage, status, created_at, last_updated
		FROM production_orders
		WHERE production_id = $1
		FOR UPDATE`,
		productionID,
	).Scan(&order.ProductionID, &order.OrderID, &order.ProductID, &order.TargetQuantity,
		&order.CurrentStage, &order.Status, &order.CreatedAt, &order.LastUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &ProductionNotFoundError{ProductionID: productionID}
	}
	if err != nil {
		return nil, fmt.Errorf("lock production %s: %w", productionID, err)
	}
	return &order, nil
}

func insertWipRow(ctx context.Context, tx pgx.Tx, productionID string, stage Stage,
	quantity decimal.Decimal, status WipStatus, now time.Time) error {
	if _, err := tx.Exec(ctx, `
		INSERT INTO wip_tracking (production_id, stage_name, quantity, status, last_updated)
		VALUES ($1, $2, $3, $4, $5)`,
		productionID, stage, quantity, status, now,
	); err != nil {
		return fmt.Errorf("insert wip row: %w", err)
	}
	return nil
}

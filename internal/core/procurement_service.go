package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Purchase order lifecycle statuses.
const (
	POStatusPending  = "PENDING"
	POStatusApproved = "APPROVED"
	POStatusRejected = "REJECTED"
)

// PurchaseOrder is one persisted line of an orchestrated procurement plan.
type PurchaseOrder struct {
	POID                 string          `json:"po_id"`
	ProductionID         string          `json:"production_id"`
	MaterialID           string          `json:"material_id"`
	SupplierID           string          `json:"supplier_id"`
	Quantity             decimal.Decimal `json:"quantity"`
	RiskLevel            string          `json:"risk_level"`
	ConfidenceLevel      float64         `json:"confidence_level"`
	MitigationStrategy   string          `json:"mitigation_strategy"`
	Reasoning            string          `json:"reasoning"`
	Status               string          `json:"status"`
	CreatedAt            time.Time       `json:"created_at"`
	ApprovedAt           *time.Time      `json:"approved_at,omitempty"`
	ExpectedDeliveryDate *time.Time      `json:"expected_delivery_date,omitempty"`
}

// ProcurementService persists orchestrated procurement plans as purchase
// orders and drives their approval lifecycle.
type ProcurementService struct {
	pool   *pgxpool.Pool
	audit  *AuditTrail
	logger *slog.Logger
}

func NewProcurementService(pool *pgxpool.Pool, audit *AuditTrail, logger *slog.Logger) *ProcurementService {
	return &ProcurementService{pool: pool, audit: audit, logger: logger}
}

// SaveProcurementPlan persists each plan item as a PENDING purchase order and
// returns the generated po ids in plan order.
func (s *ProcurementService) SaveProcurementPlan(ctx context.Context, productionID string, plan *OrchestrationResult) ([]string, error) {
	if plan == nil || len(plan.ProcurementPlan) == 0 {
		return nil, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin procurement transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	ids := make([]string, 0, len(plan.ProcurementPlan))
	for _, item := range plan.ProcurementPlan {
		poID := "PO-" + uuid.NewString()[:8]
		if _, err := tx.Exec(ctx, `
			INSERT INTO purchase_orders
				(po_id, production_id, material_id, supplier_id, quantity,
				 risk_level, confidence_level, mitigation_strategy, reasoning,
				 status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			poID, productionID, item.MaterialID, item.SelectedSupplier,
			decimal.NewFromFloat(item.QuantityToOrder),
			item.RiskLevel, item.ConfidenceLevel, item.MitigationStrategy, item.Reasoning,
			POStatusPending, now,
		); err != nil {
			return nil, fmt.Errorf("insert purchase order for %s: %w", item.MaterialID, err)
		}
		ids = append(ids, poID)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit procurement transaction: %w", err)
	}

	s.audit.Record(ctx, "procurement.plan_saved", productionID, map[string]any{
		"po_ids":             ids,
		"overall_risk":       plan.OverallSupplyChainRisk,
		"orchestration_log":  plan.OrchestrationLogID,
		"strategic_summary":  plan.StrategicSummary,
		"plan_item_count":    len(plan.ProcurementPlan),
	})
	s.logger.Info("procurement plan saved",
		"production_id", productionID, "purchase_orders", len(ids))
	return ids, nil
}

// ListPurchaseOrders returns purchase orders, newest first, optionally
// filtered by status.
func (s *ProcurementService) ListPurchaseOrders(ctx context.Context, status string) ([]PurchaseOrder, error) {
	query := `
		SELECT po_id, production_id, material_id, supplier_id, quantity,
		       risk_level, confidence_level, mitigation_strategy, reasoning,
		       status, created_at, approved_at, expected_delivery_date
		FROM purchase_orders`
	args := []any{}
	if status != "" {
		query += " WHERE status = $1"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC, po_id"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query purchase orders: %w", err)
	}
	defer rows.Close()

	var out []PurchaseOrder
	for rows.Next() {
		var po PurchaseOrder
		if err := rows.Scan(
			&po.POID, &po.ProductionID, &po.MaterialID, &po.SupplierID, &po.Quantity,
			&po.RiskLevel, &po.ConfidenceLevel, &po.MitigationStrategy, &po.Reasoning,
			&po.Status, &po.CreatedAt, &po.ApprovedAt, &po.ExpectedDeliveryDate,
		); err != nil {
			return nil, fmt.Errorf("scan purchase order: %w", err)
		}
		out = append(out, po)
	}
	return out, rows.Err()
}

// ApprovePurchaseOrder moves a PENDING order to APPROVED, stamping the
// approval time and an expected delivery date derived from the supplier's
// lead time for the ordered material. A missing lead time leaves the delivery
// date unset rather than guessing one.
func (s *ProcurementService) ApprovePurchaseOrder(ctx context.Context, poID string) (*PurchaseOrder, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin approval transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	po, err := lockPurchaseOrder(ctx, tx, poID)
	if err != nil {
		return nil, err
	}
	if po.Status != POStatusPending {
		return nil, &PurchaseOrderStateError{POID: poID, Status: po.Status}
	}

	now := time.Now().UTC()
	po.Status = POStatusApproved
	po.ApprovedAt = &now

	var leadTimeDays float64
	err = tx.QueryRow(ctx, `
		SELECT lead_time_days
		FROM supplier_products
		WHERE supplier_id = $1 AND product_id = $2`,
		po.SupplierID, po.MaterialID,
	).Scan(&leadTimeDays)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		s.logger.Warn("no lead time on record for approved purchase order",
			"po_id", poID, "supplier_id", po.SupplierID, "material_id", po.MaterialID)
	case err != nil:
		return nil, fmt.Errorf("query supplier lead time: %w", err)
	default:
		expected := now.Add(time.Duration(leadTimeDays*24) * time.Hour)
		po.ExpectedDeliveryDate = &expected
	}

	if _, err := tx.Exec(ctx, `
		UPDATE purchase_orders
		SET status = $1, approved_at = $2, expected_delivery_date = $3
		WHERE po_id = $4`,
		po.Status, po.ApprovedAt, po.ExpectedDeliveryDate, poID,
	); err != nil {
		return nil, fmt.Errorf("approve purchase order %s: %w", poID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit approval transaction: %w", err)
	}

	s.audit.Record(ctx, "procurement.approved", poID, po)
	s.logger.Info("purchase order approved", "po_id", poID, "supplier_id", po.SupplierID)
	return &po, nil
}

// RejectPurchaseOrder moves a PENDING order to REJECTED.
func (s *ProcurementService) RejectPurchaseOrder(ctx context.Context, poID string) (*PurchaseOrder, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin rejection transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	po, err := lockPurchaseOrder(ctx, tx, poID)
	if err != nil {
		return nil, err
	}
	if po.Status != POStatusPending {
		return nil, &PurchaseOrderStateError{POID: poID, Status: po.Status}
	}

	po.Status = POStatusRejected
	if _, err := tx.Exec(ctx, `
		UPDATE purchase_orders SET status = $1 WHERE po_id = $2`,
		po.Status, poID,
	); err != nil {
		return nil, fmt.Errorf("reject purchase order %s: %w", poID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit rejection transaction: %w", err)
	}

	s.audit.Record(ctx, "procurement.rejected", poID, po)
	s.logger.Info("purchase order rejected", "po_id", poID)
	return &po, nil
}

func lockPurchaseOrder(ctx context.Context, tx pgx.Tx, poID string) (PurchaseOrder, error) {
	var po PurchaseOrder
	err := tx.QueryRow(ctx, `
		SELECT po_id, production_id, material_id, supplier_id, quantity,
		       risk_level, confidence_level, mitigation_strategy, reasoning,
		       status, created_at, approved_at, expected_delivery_date
		FROM purchase_orders
		WHERE po_id = $1
		FOR UPDATE`,
		poID,
	).Scan(
		&po.POID, &po.ProductionID, &po.MaterialID, &po.SupplierID, &po.Quantity,
		&po.RiskLevel, &po.ConfidenceLevel, &po.MitigationStrategy, &po.Reasoning,
		&po.Status, &po.CreatedAt, &po.ApprovedAt, &po.ExpectedDeliveryDate,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return PurchaseOrder{}, fmt.Errorf("purchase order %s not found", poID)
	}
	if err != nil {
		return PurchaseOrder{}, fmt.Errorf("lock purchase order %s: %w", poID, err)
	}
	return po, nil
}

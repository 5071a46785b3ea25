package core

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Stage is one step of the fixed production sequence.
type Stage string

const (
	StageMaterialIssued Stage = "MATERIAL_ISSUED"
	StageFabrication    Stage = "FABRICATION"
	StageAssembly       Stage = "ASSEMBLY"
	StagePainting       Stage = "PAINTING"
	StageQualityCheck   Stage = "QUALITY_CHECK"
	StageCompleted      Stage = "COMPLETED"
)

// stageTransitions is the explicit forward transition table. QUALITY_CHECK is
// absent on purpose: its successor depends on the qc_passed branch and is
// resolved by the state machine, not by this table.
var stageTransitions = map[Stage]Stage{
	StageMaterialIssued: StageFabrication,
	StageFabrication:    StageAssembly,
	StageAssembly:       StagePainting,
	StagePainting:       StageQualityCheck,
}

// Next returns the successor stage in the forward sequence.
func (s Stage) Next() (Stage, bool) {
	next, ok := stageTransitions[s]
	return next, ok
}

// Terminal reports whether the stage is the terminal COMPLETED value.
func (s Stage) Terminal() bool { return s == StageCompleted }

// ParseStage validates a wire-level stage name.
func ParseStage(v string) (Stage, error) {
	switch Stage(v) {
	case StageMaterialIssued, StageFabrication, StageAssembly,
		StagePainting, StageQualityCheck, StageCompleted:
		return Stage(v), nil
	}
	return "", fmt.Errorf("unknown production stage %q", v)
}

// ProductionStatus is the lifecycle status of a production order.
type ProductionStatus string

const (
	ProductionCreated    ProductionStatus = "CREATED"
	ProductionInProgress ProductionStatus = "IN_PROGRESS"
	ProductionRework     ProductionStatus = "REWORK"
	ProductionCompleted  ProductionStatus = "COMPLETED"
)

// WipStatus is the status of one stage visit.
type WipStatus string

const (
	WipInProgress WipStatus = "IN_PROGRESS"
	WipCompleted  WipStatus = "COMPLETED"
	WipRework     WipStatus = "REWORK"
)

// ProductionOrder tracks one manufactured batch through the stage sequence.
type ProductionOrder struct {
	ProductionID   string           `json:"production_id"`
	OrderID        string           `json:"order_id"`
	ProductID      string           `json:"product_id"`
	TargetQuantity decimal.Decimal  `json:"target_quantity"`
	CurrentStage   Stage            `json:"current_stage"`
	Status         ProductionStatus `json:"status"`
	CreatedAt      time.Time        `json:"created_at"`
	LastUpdated    time.Time        `json:"last_updated"`
}

// WipEntry is one row of the append-only stage-visit history. Rework appends
// a fresh ASSEMBLY row rather than reopening the old one.
type WipEntry struct {
	ProductionID string          `json:"production_id"`
	StageName    Stage           `json:"stage_name"`
	Quantity     decimal.Decimal `json:"quantity"`
	Status       WipStatus       `json:"status"`
	LastUpdated  time.Time       `json:"last_updated"`
}

// EventTypeInventoryUpdated is the only event type the router accepts.
const EventTypeInventoryUpdated = "INVENTORY_UPDATED"

// AffectedMaterial is one consumed component inside an inventory change
// event, in BOM order.
type AffectedMaterial struct {
	MaterialID        string          `json:"material_id"`
	QuantityConsumed  decimal.Decimal `json:"quantity_consumed"`
	WarehouseLocation string          `json:"warehouse_location"`
}

// InventoryChangeEvent is the transient notification emitted after a BOM
// consumption commits. It is constructed and consumed within one cascade and
// never persisted as its own entity.
type InventoryChangeEvent struct {
	EventType         string             `json:"event_type"`
	Source            string             `json:"source"`
	Timestamp         time.Time          `json:"timestamp"`
	OrderID           string             `json:"order_id,omitempty"`
	ProductionID      string             `json:"production_id"`
	FinishedProductID string             `json:"finished_product_id"`
	AffectedMaterials []AffectedMaterial `json:"affected_materials"`
}

// DemandParams are the per-material demand figures behind the reorder point.
type DemandParams struct {
	AverageDailyDemand decimal.Decimal `json:"average_daily_demand"`
	LeadTimeDays       int             `json:"lead_time_days"`
	SafetyStock        decimal.Decimal `json:"safety_stock"`
}

// PolicyType selects how the recommended order quantity is computed.
type PolicyType string

const (
	PolicyEOQ         PolicyType = "EOQ"
	PolicyTargetLevel PolicyType = "TARGET_LEVEL"
	PolicyFixedLot    PolicyType = "FIXED_LOT"
)

// ReorderPolicy is the per-material replenishment policy. Only the parameter
// matching PolicyType is meaningful.
type ReorderPolicy struct {
	PolicyType            PolicyType      `json:"policy_type"`
	EconomicOrderQuantity decimal.Decimal `json:"economic_order_quantity"`
	TargetLevel           decimal.Decimal `json:"target_level"`
	FixedLotSize          decimal.Decimal `json:"fixed_lot_size"`
}

// ReorderDecision is the deterministic outcome of one reorder evaluation.
// PolicyUsed and RecommendedOrderQuantity are only populated when the trigger
// fired; the decision is never retried or mutated after computation.
type ReorderDecision struct {
	MaterialID               string          `json:"material_id"`
	WarehouseLocation        string          `json:"warehouse_location"`
	AvailableStock           decimal.Decimal `json:"available_stock"`
	ReorderPoint             decimal.Decimal `json:"reorder_point"`
	ReorderTrigger           bool            `json:"reorder_trigger"`
	PolicyUsed               PolicyType      `json:"policy_used,omitempty"`
	RecommendedOrderQuantity decimal.Decimal `json:"recommended_order_quantity"`
}

// MaterialRecord is the authoritative ledger row for one raw material.
type MaterialRecord struct {
	MaterialID        string          `json:"material_id"`
	CurrentStock      decimal.Decimal `json:"current_stock"`
	ReservedStock     decimal.Decimal `json:"reserved_stock"`
	WarehouseLocation string          `json:"warehouse_location"`
	LastUpdated       time.Time       `json:"last_updated"`
}

// AvailableStock is on-hand minus reserved.
func (r MaterialRecord) AvailableStock() decimal.Decimal {
	return r.CurrentStock.Sub(r.ReservedStock)
}

// BomLine is one immutable bill-of-materials component row.
type BomLine struct {
	FinishedProductID  string          `json:"finished_product_id"`
	ComponentProductID string          `json:"component_product_id"`
	QuantityRequired   decimal.Decimal `json:"quantity_required"`
}

// FinishedGoodsRecord tracks completed output stock per product.
type FinishedGoodsRecord struct {
	ProductID    string          `json:"product_id"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	LastUpdated  time.Time       `json:"last_updated"`
}

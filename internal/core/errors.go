package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Error taxonomy. Configuration errors (MissingBomError, MissingConfigError,
// UnsupportedPolicyError) are fatal to the single operation and never
// retried. State errors (DuplicateProductionError, StageMismatchError,
// TerminalStageError, ProductionNotFoundError) indicate caller misuse or a
// race and are surfaced as-is. InsufficientStockError is an expected
// business condition carrying the first short component. OracleError wraps
// failures of the external reasoning capabilities after retries exhaust.

// DuplicateProductionError is returned when a production_id already exists
// in the order table or in the WIP history.
type DuplicateProductionError struct {
	ProductionID string
	Table        string
}

func (e *DuplicateProductionError) Error() string {
	return fmt.Sprintf("production %s already exists in %s", e.ProductionID, e.Table)
}

// StageMismatchError is returned when the completed_stage of an advance
// request does not match the order's current stage.
type StageMismatchError struct {
	ProductionID   string
	CurrentStage   Stage
	CompletedStage Stage
}

func (e *StageMismatchError) Error() string {
	return fmt.Sprintf("production %s is at stage %s, cannot complete %s",
		e.ProductionID, e.CurrentStage, e.CompletedStage)
}

// TerminalStageError is returned when advancing a production that is already
// COMPLETED.
type TerminalStageError struct {
	ProductionID string
}

func (e *TerminalStageError) Error() string {
	return fmt.Sprintf("production %s is already completed", e.ProductionID)
}

// ProductionNotFoundError is returned when a production_id does not exist.
type ProductionNotFoundError struct {
	ProductionID string
}

func (e *ProductionNotFoundError) Error() string {
	return fmt.Sprintf("production %s not found", e.ProductionID)
}

// MissingBomError is returned when a finished product has no bill of
// materials.
type MissingBomError struct {
	ProductID string
}

func (e *MissingBomError) Error() string {
	return fmt.Sprintf("no bill of materials defined for product %s", e.ProductID)
}

// InsufficientStockError identifies the first BOM component that cannot
// cover the requested consumption. The ledger is left untouched when it is
// raised.
type InsufficientStockError struct {
	MaterialID string
	Required   decimal.Decimal
	OnHand     decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for material %s: required %s, on hand %s",
		e.MaterialID, e.Required.String(), e.OnHand.String())
}

// MissingConfigError is returned by the event router when an affected
// material has no demand parameters or no reorder policy. The whole batch
// aborts: a silently skipped material risks a stockout.
type MissingConfigError struct {
	MaterialID string
	Kind       string // "demand" or "policy"
}

func (e *MissingConfigError) Error() string {
	return fmt.Sprintf("%s configuration missing for material %s", e.Kind, e.MaterialID)
}

// UnsupportedPolicyError is returned by the reorder engine for an unknown
// policy type.
type UnsupportedPolicyError struct {
	PolicyType PolicyType
}

func (e *UnsupportedPolicyError) Error() string {
	return fmt.Sprintf("unsupported reorder policy type: %s", e.PolicyType)
}

// InvalidEventError is returned when an inventory change event fails shape
// validation at the router boundary.
type InvalidEventError struct {
	Reason string
}

func (e *InvalidEventError) Error() string {
	return fmt.Sprintf("invalid inventory event: %s", e.Reason)
}

// MaterialNotFoundError is returned when a ledger lookup misses.
type MaterialNotFoundError struct {
	MaterialID string
}

func (e *MaterialNotFoundError) Error() string {
	return fmt.Sprintf("material %s not found in ledger", e.MaterialID)
}

// PurchaseOrderStateError is returned when approving or rejecting a purchase
// order that is not PENDING.
type PurchaseOrderStateError struct {
	POID   string
	Status string
}

func (e *PurchaseOrderStateError) Error() string {
	return fmt.Sprintf("purchase order %s is already %s", e.POID, e.Status)
}

// OracleError wraps a failure of an external reasoning capability (strategic
// orchestrator or regression scorer) after bounded retries. Op names the
// capability call that failed.
type OracleError struct {
	Op  string
	Err error
}

func (e *OracleError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OracleError) Unwrap() error { return e.Err }

package app

import "github.com/shopspring/decimal"

// CreateProductionRequest is the input for starting a production order.
type CreateProductionRequest struct {
	ProductionID   string
	OrderID        string
	ProductID      string
	TargetQuantity decimal.Decimal
}

// AdvanceStageRequest reports one completed non-QC stage. A zero
// QuantityCompleted means the full target quantity cleared the stage.
type AdvanceStageRequest struct {
	ProductionID      string
	CompletedStage    string
	QuantityCompleted decimal.Decimal
}

// QualityCheckRequest records a QUALITY_CHECK outcome.
type QualityCheckRequest struct {
	ProductionID      string
	Passed            bool
	QuantityCompleted decimal.Decimal
	Inspector         string
	Notes             string
}

// ReceiveStockRequest is the input for recording a material receipt.
type ReceiveStockRequest struct {
	MaterialID        string
	Quantity          decimal.Decimal
	WarehouseLocation string // optional; defaults to the standard warehouse
}

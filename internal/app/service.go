package app

import (
	"context"

	"github.com/Denno-Labs/Logistria/internal/core"
)

// ApplicationService is the single interface all adapters (CLI, Web) call.
// It decouples presentation from business logic. Implementations must contain
// no fmt.Println, no ANSI codes, and no display logic of any kind.
type ApplicationService interface {
	// CreateProduction registers a new production order at MATERIAL_ISSUED.
	CreateProduction(ctx context.Context, req CreateProductionRequest) (*ProductionResult, error)

	// AdvanceStage records the completion of the production's current stage.
	// Completing MATERIAL_ISSUED consumes the bill of materials and may
	// cascade into reorder evaluation, supplier ranking and a procurement
	// plan.
	AdvanceStage(ctx context.Context, req AdvanceStageRequest) (*core.StageAdvanceResult, error)

	// QualityCheck records a QUALITY_CHECK outcome. Pass completes the
	// production and books finished goods; fail returns it to assembly.
	QualityCheck(ctx context.Context, req QualityCheckRequest) (*core.StageAdvanceResult, error)

	// GetProduction returns one production order with its stage history.
	GetProduction(ctx context.Context, productionID string) (*ProductionResult, error)

	// GetStockLevels returns the raw material ledger.
	GetStockLevels(ctx context.Context) (*StockResult, error)

	// GetFinishedGoods returns finished goods stock.
	GetFinishedGoods(ctx context.Context) (*FinishedGoodsResult, error)

	// ReceiveStock adds received quantity to a material, creating the ledger
	// row when needed.
	ReceiveStock(ctx context.Context, req ReceiveStockRequest) (*core.MaterialRecord, error)

	// RankSuppliers runs the supplier scoring pipeline for one material.
	RankSuppliers(ctx context.Context, materialID string, requiredQuantity string) (*core.SupplierRankingResult, error)

	// ListPurchaseOrders returns purchase orders, optionally filtered by
	// status (PENDING, APPROVED, REJECTED).
	ListPurchaseOrders(ctx context.Context, status string) (*PurchaseOrdersResult, error)

	// ApprovePurchaseOrder transitions a PENDING purchase order to APPROVED
	// and stamps the expected delivery date from the supplier's lead time.
	ApprovePurchaseOrder(ctx context.Context, poID string) (*core.PurchaseOrder, error)

	// RejectPurchaseOrder transitions a PENDING purchase order to REJECTED.
	RejectPurchaseOrder(ctx context.Context, poID string) (*core.PurchaseOrder, error)
}

package app

import "github.com/Denno-Labs/Logistria/internal/core"

// ProductionResult is returned by production lifecycle operations.
type ProductionResult struct {
	Order      *core.ProductionOrder
	WipHistory []core.WipEntry
}

// StockResult is returned by GetStockLevels.
type StockResult struct {
	Levels []core.MaterialRecord
}

// FinishedGoodsResult is returned by GetFinishedGoods.
type FinishedGoodsResult struct {
	Stock []core.FinishedGoodsRecord
}

// PurchaseOrdersResult is returned by ListPurchaseOrders.
type PurchaseOrdersResult struct {
	Orders []core.PurchaseOrder
}

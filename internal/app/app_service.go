package app

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Denno-Labs/Logistria/internal/core"
)

// Service wires the core services behind the ApplicationService interface.
type Service struct {
	production  *core.ProductionService
	ledger      *core.MaterialLedger
	procurement *core.ProcurementService
	ranker      core.SupplierRanker
}

var _ ApplicationService = (*Service)(nil)

func NewService(production *core.ProductionService, ledger *core.MaterialLedger,
	procurement *core.ProcurementService, ranker core.SupplierRanker) *Service {
	return &Service{
		production:  production,
		ledger:      ledger,
		procurement: procurement,
		ranker:      ranker,
	}
}

func (s *Service) CreateProduction(ctx context.Context, req CreateProductionRequest) (*ProductionResult, error) {
	if req.ProductionID == "" || req.ProductID == "" {
		return nil, fmt.Errorf("production_id and product_id are required")
	}
	if !req.TargetQuantity.IsPositive() {
		return nil, fmt.Errorf("target_quantity must be positive")
	}

	order, err := s.production.CreateProduction(ctx, core.CreateProductionRequest{
		ProductionID:   req.ProductionID,
		OrderID:        req.OrderID,
		ProductID:      req.ProductID,
		TargetQuantity: req.TargetQuantity,
	})
	if err != nil {
		return nil, err
	}
	history, err := s.production.WipHistory(ctx, order.ProductionID)
	if err != nil {
		return nil, err
	}
	return &ProductionResult{Order: order, WipHistory: history}, nil
}

func (s *Service) AdvanceStage(ctx context.Context, req AdvanceStageRequest) (*core.StageAdvanceResult, error) {
	stage, err := core.ParseStage(req.CompletedStage)
	if err != nil {
		return nil, &core.InvalidEventError{Reason: err.Error()}
	}
	if stage == core.StageQualityCheck {
		return nil, &core.InvalidEventError{Reason: "QUALITY_CHECK must be completed through the quality check operation"}
	}
	return s.production.AdvanceStage(ctx, core.StageAdvanceRequest{
		ProductionID:      req.ProductionID,
		CompletedStage:    stage,
		QuantityCompleted: req.QuantityCompleted,
	})
}

func (s *Service) QualityCheck(ctx context.Context, req QualityCheckRequest) (*core.StageAdvanceResult, error) {
	passed := req.Passed
	return s.production.AdvanceStage(ctx, core.StageAdvanceRequest{
		ProductionID:      req.ProductionID,
		CompletedStage:    core.StageQualityCheck,
		QuantityCompleted: req.QuantityCompleted,
		QCPassed:          &passed,
		QCNotes:           req.Notes,
		Operator:          req.Inspector,
	})
}

func (s *Service) GetProduction(ctx context.Context, productionID string) (*ProductionResult, error) {
	order, err := s.production.Production(ctx, productionID)
	if err != nil {
		return nil, err
	}
	history, err := s.production.WipHistory(ctx, productionID)
	if err != nil {
		return nil, err
	}
	return &ProductionResult{Order: order, WipHistory: history}, nil
}

func (s *Service) GetStockLevels(ctx context.Context) (*StockResult, error) {
	levels, err := s.ledger.StockLevels(ctx)
	if err != nil {
		return nil, err
	}
	return &StockResult{Levels: levels}, nil
}

func (s *Service) GetFinishedGoods(ctx context.Context) (*FinishedGoodsResult, error) {
	stock, err := s.ledger.FinishedGoods(ctx)
	if err != nil {
		return nil, err
	}
	return &FinishedGoodsResult{Stock: stock}, nil
}

func (s *Service) ReceiveStock(ctx context.Context, req ReceiveStockRequest) (*core.MaterialRecord, error) {
	if req.MaterialID == "" {
		return nil, fmt.Errorf("material_id is required")
	}
	if !req.Quantity.IsPositive() {
		return nil, fmt.Errorf("quantity must be positive")
	}
	rec, err := s.ledger.Receive(ctx, req.MaterialID, req.Quantity, req.WarehouseLocation)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Service) RankSuppliers(ctx context.Context, materialID string, requiredQuantity string) (*core.SupplierRankingResult, error) {
	qty, err := decimal.NewFromString(requiredQuantity)
	if err != nil {
		return nil, fmt.Errorf("invalid required quantity %q: %w", requiredQuantity, err)
	}
	return s.ranker.Rank(ctx, materialID, qty)
}

func (s *Service) ListPurchaseOrders(ctx context.Context, status string) (*PurchaseOrdersResult, error) {
	orders, err := s.procurement.ListPurchaseOrders(ctx, status)
	if err != nil {
		return nil, err
	}
	return &PurchaseOrdersResult{Orders: orders}, nil
}

func (s *Service) ApprovePurchaseOrder(ctx context.Context, poID string) (*core.PurchaseOrder, error) {
	return s.procurement.ApprovePurchaseOrder(ctx, poID)
}

func (s *Service) RejectPurchaseOrder(ctx context.Context, poID string) (*core.PurchaseOrder, error) {
	return s.procurement.RejectPurchaseOrder(ctx, poID)
}

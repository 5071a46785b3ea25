package core

import (
	"github.com/shopspring/decimal"
)

// ReorderPoint computes average daily demand × lead time + safety stock.
func ReorderPoint(demand DemandParams) decimal.Decimal {
	leadTime := decimal.NewFromInt(int64(demand.LeadTimeDays))
	return demand.AverageDailyDemand.Mul(leadTime).Add(demand.SafetyStock)
}

// OrderQuantity determines the recommended replenishment quantity for the
// configured policy. EOQ and FIXED_LOT return their configured constants
// regardless of the current shortfall; TARGET_LEVEL fills up to the target
// and never goes negative.
func OrderQuantity(policy ReorderPolicy, availableStock decimal.Decimal) (decimal.Decimal, error) {
	switch policy.PolicyType {
	case PolicyEOQ:
		return policy.EconomicOrderQuantity, nil
	case PolicyTargetLevel:
		qty := policy.TargetLevel.Sub(availableStock)
		if qty.IsNegative() {
			return decimal.Zero, nil
		}
		return qty, nil
	case PolicyFixedLot:
		return policy.FixedLotSize, nil
	}
	return decimal.Zero, &UnsupportedPolicyError{PolicyType: policy.PolicyType}
}

// EvaluateReorder is the deterministic reorder evaluation for one material.
// Pure: it reads the ledger record passed in and performs no I/O. The
// trigger fires when available stock is at or below the reorder point;
// the boundary case is inclusive. Quantity and trigger are computed
// independently of whether a supplier pipeline later succeeds.
func EvaluateReorder(record MaterialRecord, demand DemandParams, policy ReorderPolicy) (ReorderDecision, error) {
	available := record.AvailableStock()
	point := ReorderPoint(demand)

	decision := ReorderDecision{
		MaterialID:        record.MaterialID,
		WarehouseLocation: record.WarehouseLocation,
		AvailableStock:    available,
		ReorderPoint:      point,
		ReorderTrigger:    available.LessThanOrEqual(point),
	}

	if !decision.ReorderTrigger {
		return decision, nil
	}

	qty, err := OrderQuantity(policy, available)
	if err != nil {
		return ReorderDecision{}, err
	}
	decision.PolicyUsed = policy.PolicyType
	decision.RecommendedOrderQuantity = qty
	return decision, nil
}

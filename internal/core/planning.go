package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PlanningService loads per-material demand parameters and reorder policies
// from the material_planning reference table. The router receives both maps
// up front so missing configuration is detected before any evaluation runs.
type PlanningService struct {
	pool *pgxpool.Pool
}

func NewPlanningService(pool *pgxpool.Pool) *PlanningService {
	return &PlanningService{pool: pool}
}

// PlanningConfig returns the demand and policy maps keyed by material id.
func (p *PlanningService) PlanningConfig(ctx context.Context) (map[string]DemandParams, map[string]ReorderPolicy, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT material_id, average_daily_demand, lead_time_days, safety_stock,
		       policy_type, economic_order_quantity, target_level, fixed_lot_size
		FROM material_planning
		ORDER BY material_id`)
	if err != nil {
		return nil, nil, fmt.Errorf("query material planning: %w", err)
	}
	defer rows.Close()

	demand := make(map[string]DemandParams)
	policies := make(map[string]ReorderPolicy)
	for rows.Next() {
		var materialID string
		var d DemandParams
		var pol ReorderPolicy
		if err := rows.Scan(
			&materialID,
			&d.AverageDailyDemand, &d.LeadTimeDays, &d.SafetyStock,
			&pol.PolicyType, &pol.EconomicOrderQuantity, &pol.TargetLevel, &pol.FixedLotSize,
		); err != nil {
			return nil, nil, fmt.Errorf("scan material planning: %w", err)
		}
		demand[materialID] = d
		policies[materialID] = pol
	}
	return demand, policies, rows.Err()
}

package core_test

import (
	"errors"
	"testing"

	"github.com/Denno-Labs/Logistria/internal/core"

	"github.com/shopspring/decimal"
)

func dec(v string) decimal.Decimal {
	d, err := decimal.NewFromString(v)
	if err != nil {
		panic(err)
	}
	return d
}

func record(materialID, current, reserved string) core.MaterialRecord {
	return core.MaterialRecord{
		MaterialID:        materialID,
		CurrentStock:      dec(current),
		ReservedStock:     dec(reserved),
		WarehouseLocation: "WH1",
	}
}

func TestReorderPoint(t *testing.T) {
	demand := core.DemandParams{
		AverageDailyDemand: dec("1"),
		LeadTimeDays:       5,
		SafetyStock:        dec("10"),
	}
	if got := core.ReorderPoint(demand); !got.Equal(dec("15")) {
		t.Errorf("ReorderPoint = %s, want 15", got)
	}
}

func TestEvaluateReorder_BoundaryTriggers(t *testing.T) {
	demand := core.DemandParams{AverageDailyDemand: dec("2"), LeadTimeDays: 3, SafetyStock: dec("4")}
	policy := core.ReorderPolicy{PolicyType: core.PolicyEOQ, EconomicOrderQuantity: dec("50")}

	// reorder point = 2*3+4 = 10; available exactly 10 must trigger.
	decision, err := core.EvaluateReorder(record("M1", "12", "2"), demand, policy)
	if err != nil {
		t.Fatalf("EvaluateReorder: %v", err)
	}
	if !decision.ReorderTrigger {
		t.Error("available == reorder point must trigger")
	}
	if decision.PolicyUsed != core.PolicyEOQ {
		t.Errorf("PolicyUsed = %s, want EOQ", decision.PolicyUsed)
	}
	if !decision.RecommendedOrderQuantity.Equal(dec("50")) {
		t.Errorf("RecommendedOrderQuantity = %s, want 50", decision.RecommendedOrderQuantity)
	}

	// One above the point must not trigger, and must not carry a policy.
	decision, err = core.EvaluateReorder(record("M1", "13", "2"), demand, policy)
	if err != nil {
		t.Fatalf("EvaluateReorder: %v", err)
	}
	if decision.ReorderTrigger {
		t.Error("available above reorder point must not trigger")
	}
	if decision.PolicyUsed != "" {
		t.Errorf("PolicyUsed = %q on a non-triggered decision", decision.PolicyUsed)
	}
}

func TestOrderQuantity_EOQIgnoresShortfall(t *testing.T) {
	policy := core.ReorderPolicy{PolicyType: core.PolicyEOQ, EconomicOrderQuantity: dec("75")}
	for _, available := range []string{"0", "5", "1000"} {
		qty, err := core.OrderQuantity(policy, dec(available))
		if err != nil {
			t.Fatalf("OrderQuantity(available=%s): %v", available, err)
		}
		if !qty.Equal(dec("75")) {
			t.Errorf("OrderQuantity(available=%s) = %s, want 75", available, qty)
		}
	}
}

func TestOrderQuantity_TargetLevelClampsAtZero(t *testing.T) {
	policy := core.ReorderPolicy{PolicyType: core.PolicyTargetLevel, TargetLevel: dec("100")}

	qty, err := core.OrderQuantity(policy, dec("40"))
	if err != nil {
		t.Fatalf("OrderQuantity: %v", err)
	}
	if !qty.Equal(dec("60")) {
		t.Errorf("OrderQuantity = %s, want 60", qty)
	}

	// Available above target must return zero, never negative.
	qty, err = core.OrderQuantity(policy, dec("130"))
	if err != nil {
		t.Fatalf("OrderQuantity: %v", err)
	}
	if !qty.Equal(decimal.Zero) {
		t.Errorf("OrderQuantity = %s, want 0", qty)
	}
}

func TestOrderQuantity_FixedLot(t *testing.T) {
	policy := core.ReorderPolicy{PolicyType: core.PolicyFixedLot, FixedLotSize: dec("25")}
	qty, err := core.OrderQuantity(policy, dec("3"))
	if err != nil {
		t.Fatalf("OrderQuantity: %v", err)
	}
	if !qty.Equal(dec("25")) {
		t.Errorf("OrderQuantity = %s, want 25", qty)
	}
}

func TestEvaluateReorder_UnsupportedPolicy(t *testing.T) {
	demand := core.DemandParams{AverageDailyDemand: dec("1"), LeadTimeDays: 1, SafetyStock: dec("100")}
	policy := core.ReorderPolicy{PolicyType: "JIT"}

	_, err := core.EvaluateReorder(record("M1", "5", "0"), demand, policy)
	var unsupported *core.UnsupportedPolicyError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedPolicyError, got %v", err)
	}
	if unsupported.PolicyType != "JIT" {
		t.Errorf("PolicyType = %s, want JIT", unsupported.PolicyType)
	}
}

func TestStageTransitionTable(t *testing.T) {
	want := map[core.Stage]core.Stage{
		core.StageMaterialIssued: core.StageFabrication,
		core.StageFabrication:    core.StageAssembly,
		core.StageAssembly:       core.StagePainting,
		core.StagePainting:       core.StageQualityCheck,
	}
	for from, to := range want {
		next, ok := from.Next()
		if !ok || next != to {
			t.Errorf("%s.Next() = %s/%v, want %s", from, next, ok, to)
		}
	}
	if _, ok := core.StageQualityCheck.Next(); ok {
		t.Error("QUALITY_CHECK must not have a table successor; its branch is decided by qc_passed")
	}
	if _, ok := core.StageCompleted.Next(); ok {
		t.Error("COMPLETED is terminal")
	}
	if !core.StageCompleted.Terminal() {
		t.Error("COMPLETED must be terminal")
	}
}

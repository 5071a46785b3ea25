package core_test

import (
	"math"
	"testing"

	"github.com/Denno-Labs/Logistria/internal/core"
)

func floatPtr(v float64) *float64 { return &v }

func candidateRows() []core.SupplierRow {
	return []core.SupplierRow{
		{
			SupplierID: "SUP-A", MaterialID: "M1",
			CostPerUnit: 10, TransportCost: 50, LeadTimeDays: 5,
			MaxCapacity: 1000, MinimumOrderQuantity: 10,
			ReliabilityScore: 0.9, Rating: 4.5, QualityScore: 0.95, RiskLevel: "LOW",
			OnTimeDeliveryRate: floatPtr(0.98), DefectRate: floatPtr(0.01), AverageDelayDays: floatPtr(0.5),
		},
		{
			SupplierID: "SUP-B", MaterialID: "M1",
			CostPerUnit: 8, TransportCost: 200, LeadTimeDays: 15,
			MaxCapacity: 50, MinimumOrderQuantity: 100,
			ReliabilityScore: 0.6, Rating: 3.0, QualityScore: 0.80, RiskLevel: "HIGH",
		},
	}
}

func TestBuildSupplierFeatures_SoftDefaults(t *testing.T) {
	features := core.BuildSupplierFeatures(candidateRows(), 100)

	// SUP-B has no performance history: defaults apply instead of exclusion.
	b := features[1]
	if b.OnTimeDeliveryRate != 0.5 {
		t.Errorf("default on-time rate = %v, want 0.5", b.OnTimeDeliveryRate)
	}
	if b.DefectRate != 0.1 {
		t.Errorf("default defect rate = %v, want 0.1", b.DefectRate)
	}
	// Missing delay defaults to the candidate mean (only SUP-A has one).
	if b.AverageDelayDays != 0.5 {
		t.Errorf("default delay = %v, want candidate mean 0.5", b.AverageDelayDays)
	}
}

func TestBuildSupplierFeatures_Normalization(t *testing.T) {
	features := core.BuildSupplierFeatures(candidateRows(), 100)

	// SUP-A total: 100*10+50 = 1050; SUP-B: 100*8+200 = 1000.
	if features[0].NormalizedCost != 1.0 || features[1].NormalizedCost != 0.0 {
		t.Errorf("normalized costs = %v, %v; want 1 and 0",
			features[0].NormalizedCost, features[1].NormalizedCost)
	}
	if features[0].NormalizedLeadTime != 0.0 || features[1].NormalizedLeadTime != 1.0 {
		t.Errorf("normalized lead times = %v, %v; want 0 and 1",
			features[0].NormalizedLeadTime, features[1].NormalizedLeadTime)
	}
}

func TestBuildSupplierFeatures_Penalties(t *testing.T) {
	features := core.BuildSupplierFeatures(candidateRows(), 100)

	// SUP-A: capacity 1000 and MOQ 10 comfortably satisfied.
	if features[0].CapacityPenalty != 0 || features[0].MoqPenalty != 0 {
		t.Errorf("unviolated constraints must carry zero penalty: %+v", features[0])
	}

	// SUP-B: capacity 50 < required 100 → (100-50)/(50+1).
	wantCap := 50.0 / 51.0
	if math.Abs(features[1].CapacityPenalty-wantCap) > 1e-9 {
		t.Errorf("capacity penalty = %v, want %v", features[1].CapacityPenalty, wantCap)
	}
	// Penalties scale with violation size, never binary.
	if features[1].CapacityPenalty <= 0 || features[1].CapacityPenalty >= 1 {
		t.Errorf("soft penalty out of expected range: %v", features[1].CapacityPenalty)
	}
}

func TestConfidenceScore_ClampsToUnitInterval(t *testing.T) {
	weights := core.DefaultScoringWeights()

	high := core.ConfidenceScore(weights, core.SupplierFeatures{}, core.ScorePrediction{Performance: 10, Risk: 0})
	if high != 1.0 {
		t.Errorf("score above 1 must clamp to 1, got %v", high)
	}

	low := core.ConfidenceScore(weights, core.SupplierFeatures{
		NormalizedCost: 1, LeadTimePenalty: 1, CapacityPenalty: 1, DefectPenalty: 1,
	}, core.ScorePrediction{Performance: 0, Risk: 1})
	if low != 0.0 {
		t.Errorf("negative score must clamp to 0, got %v", low)
	}
}

func TestSelectTopSuppliers_HighConfidenceCut(t *testing.T) {
	scored := []core.ScoredSupplier{
		{Row: core.SupplierRow{SupplierID: "SUP-A"}, Confidence: 0.9},
		{Row: core.SupplierRow{SupplierID: "SUP-B"}, Confidence: 0.7},
		{Row: core.SupplierRow{SupplierID: "SUP-C"}, Confidence: 0.65},
	}

	ranked, warning := core.SelectTopSuppliers(scored, 0.6)
	if warning != "" {
		t.Errorf("unexpected warning: %q", warning)
	}
	if len(ranked) != 2 {
		t.Fatalf("len(ranked) = %d, want 2", len(ranked))
	}
	if ranked[0].SupplierID != "SUP-A" || ranked[1].SupplierID != "SUP-B" {
		t.Errorf("ranking order = %s, %s", ranked[0].SupplierID, ranked[1].SupplierID)
	}
	if ranked[0].RankingPosition != 1 || ranked[1].RankingPosition != 2 {
		t.Errorf("ranking positions = %d, %d", ranked[0].RankingPosition, ranked[1].RankingPosition)
	}
}

func TestSelectTopSuppliers_FallbackWithWarning(t *testing.T) {
	scored := []core.ScoredSupplier{
		{Row: core.SupplierRow{SupplierID: "SUP-A"}, Confidence: 0.4},
		{Row: core.SupplierRow{SupplierID: "SUP-B"}, Confidence: 0.3},
		{Row: core.SupplierRow{SupplierID: "SUP-C"}, Confidence: 0.2},
	}

	ranked, warning := core.SelectTopSuppliers(scored, 0.6)
	if warning == "" {
		t.Error("below-threshold ranking must carry a warning")
	}
	if len(ranked) != 2 {
		t.Fatalf("len(ranked) = %d, want best-effort top 2", len(ranked))
	}
	if ranked[0].SupplierID != "SUP-A" {
		t.Errorf("best candidate = %s, want SUP-A", ranked[0].SupplierID)
	}
}

func TestSelectTopSuppliers_SingleCandidate(t *testing.T) {
	scored := []core.ScoredSupplier{
		{Row: core.SupplierRow{SupplierID: "SUP-A"}, Confidence: 0.95},
	}
	ranked, warning := core.SelectTopSuppliers(scored, 0.6)
	if len(ranked) != 1 {
		t.Fatalf("len(ranked) = %d, want 1", len(ranked))
	}
	// One high-confidence candidate is still fewer than two: flag it.
	if warning == "" {
		t.Error("single-candidate ranking must carry the availability warning")
	}
}

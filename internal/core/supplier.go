package core

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Soft defaults applied when historical performance fields are missing.
// Suppliers with gaps stay in the candidate set instead of being excluded.
const (
	defaultOnTimeDeliveryRate = 0.5
	defaultDefectRate         = 0.1
)

// SupplierRanker ranks suppliers for a material and required quantity.
type SupplierRanker interface {
	Rank(ctx context.Context, materialID string, requiredQuantity decimal.Decimal) (*SupplierRankingResult, error)
}

// SupplierScoringService joins supplier reference data, engineers features,
// asks the regression capability for performance/risk predictions and ranks
// candidates by confidence score.
type SupplierScoringService struct {
	pool      *pgxpool.Pool
	scorer    RegressionScorer
	weights   ScoringWeights
	threshold float64
	audit     *AuditTrail
	logger    *slog.Logger
}

// NewSupplierScoringService constructs the pipeline. Zero-valued weights are
// replaced by the defaults; a zero threshold falls back to the default cut.
func NewSupplierScoringService(pool *pgxpool.Pool, scorer RegressionScorer,
	weights ScoringWeights, threshold float64, audit *AuditTrail, logger *slog.Logger) *SupplierScoringService {

	if weights == (ScoringWeights{}) {
		weights = DefaultScoringWeights()
	}
	if threshold == 0 {
		threshold = DefaultConfidenceThreshold
	}
	return &SupplierScoringService{
		pool:      pool,
		scorer:    scorer,
		weights:   weights,
		threshold: threshold,
		audit:     audit,
		logger:    logger,
	}
}

// Rank runs the full pipeline for one material. When no reference rows match
// the material exactly, the full supplier set is considered instead of
// returning zero candidates.
func (s *SupplierScoringService) Rank(ctx context.Context, materialID string, requiredQuantity decimal.Decimal) (*SupplierRankingResult, error) {
	rows, err := s.loadCandidates(ctx, materialID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		rows, err = s.loadCandidates(ctx, "")
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, &MissingConfigError{MaterialID: materialID, Kind: "supplier"}
		}
		s.logger.Warn("no supplier rows for material, falling back to full supplier set",
			"material_id", materialID, "candidates", len(rows))
	}

	qty, _ := requiredQuantity.Float64()
	features := BuildSupplierFeatures(rows, qty)

	predictions, err := s.scorer.Score(ctx, features)
	if err != nil {
		return nil, &OracleError{Op: "regression scorer", Err: err}
	}
	if len(predictions) != len(rows) {
		return nil, &OracleError{Op: "regression scorer",
			Err: fmt.Errorf("got %d predictions for %d candidates", len(predictions), len(rows))}
	}

	scored := make([]ScoredSupplier, len(rows))
	for i := range rows {
		scored[i] = ScoredSupplier{
			Row:        rows[i],
			Features:   features[i],
			Prediction: predictions[i],
			Confidence: ConfidenceScore(s.weights, features[i], predictions[i]),
		}
	}

	ranked, warning := SelectTopSuppliers(scored, s.threshold)
	result := &SupplierRankingResult{
		MaterialID:       materialID,
		Suppliers:        ranked,
		OverallRiskLevel: overallRiskLevel(ranked),
		Warning:          warning,
	}

	auditID := s.audit.Record(ctx, "supplier.ranking", materialID, result)
	s.logger.Info("supplier ranking completed",
		"audit_id", auditID,
		"material_id", materialID,
		"required_quantity", requiredQuantity.String(),
		"candidates", len(rows),
		"returned", len(ranked),
		"warning", warning != "")
	return result, nil
}

// loadCandidates joins master, product and performance reference rows. An
// empty materialID loads the whole supplier/product set.
func (s *SupplierScoringService) loadCandidates(ctx context.Context, materialID string) ([]SupplierRow, error) {
	query := `
		SELECT sm.supplier_id, sp.product_id,
		       sp.cost_per_unit, sp.transport_cost, sp.lead_time_days,
		       sp.max_capacity, sp.minimum_order_quantity,
		       sm.reliability_score, sm.rating, sm.risk_level,
		       COALESCE(perf.quality_score, 0),
		       perf.on_time_delivery_rate, perf.defect_rate, perf.average_delay_days
		FROM supplier_master sm
		JOIN supplier_products sp ON sp.supplier_id = sm.supplier_id
		LEFT JOIN supplier_performance perf
		       ON perf.supplier_id = sp.supplier_id AND perf.product_id = sp.product_id`
	args := []any{}
	if materialID != "" {
		query += " WHERE sp.product_id = $1"
		args = append(args, materialID)
	}
	query += " ORDER BY sm.supplier_id, sp.product_id"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query supplier candidates: %w", err)
	}
	defer rows.Close()

	var out []SupplierRow
	for rows.Next() {
		var r SupplierRow
		if err := rows.Scan(
			&r.SupplierID, &r.MaterialID,
			&r.CostPerUnit, &r.TransportCost, &r.LeadTimeDays,
			&r.MaxCapacity, &r.MinimumOrderQuantity,
			&r.ReliabilityScore, &r.Rating, &r.RiskLevel,
			&r.QualityScore,
			&r.OnTimeDeliveryRate, &r.DefectRate, &r.AverageDelayDays,
		); err != nil {
			return nil, fmt.Errorf("scan supplier candidate: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// BuildSupplierFeatures engineers the scoring features for a candidate set.
// Missing historical fields default softly; cost and lead time are min-max
// normalized across the candidates; penalties are soft constraints, positive
// only when violated.
func BuildSupplierFeatures(rows []SupplierRow, requiredQuantity float64) []SupplierFeatures {
	riskEncoding := encodeRiskLevels(rows)
	delayMean := meanDelay(rows)

	costs := make([]float64, len(rows))
	leadTimes := make([]float64, len(rows))
	var leadTimeSum float64
	for i, r := range rows {
		costs[i] = requiredQuantity*r.CostPerUnit + r.TransportCost
		leadTimes[i] = r.LeadTimeDays
		leadTimeSum += r.LeadTimeDays
	}
	avgLeadTime := 0.0
	if len(rows) > 0 {
		avgLeadTime = leadTimeSum / float64(len(rows))
	}

	features := make([]SupplierFeatures, len(rows))
	for i, r := range rows {
		onTime := defaultOnTimeDeliveryRate
		if r.OnTimeDeliveryRate != nil {
			onTime = *r.OnTimeDeliveryRate
		}
		defect := defaultDefectRate
		if r.DefectRate != nil {
			defect = *r.DefectRate
		}
		delay := delayMean
		if r.AverageDelayDays != nil {
			delay = *r.AverageDelayDays
		}

		f := SupplierFeatures{
			TotalCostEstimate:  costs[i],
			NormalizedCost:     minMaxNormalize(costs, costs[i]),
			NormalizedLeadTime: minMaxNormalize(leadTimes, r.LeadTimeDays),
			ReliabilityScore:   r.ReliabilityScore,
			Rating:             r.Rating,
			QualityScore:       r.QualityScore,
			OnTimeDeliveryRate: onTime,
			RiskLevelEncoded:   riskEncoding[r.RiskLevel],
			DefectRate:         defect,
			AverageDelayDays:   delay,
			CapacityPenalty:    math.Max(0, (requiredQuantity-r.MaxCapacity)/(r.MaxCapacity+1)),
			MoqPenalty:         math.Max(0, (r.MinimumOrderQuantity-requiredQuantity)/(r.MinimumOrderQuantity+1)),
			LeadTimePenalty:    math.Max(0, (r.LeadTimeDays-avgLeadTime)/(avgLeadTime+1)),
		}
		f.DefectPenalty = f.DefectRate
		features[i] = f
	}
	return features
}

// ConfidenceScore is the weighted composite, clamped to [0,1].
func ConfidenceScore(w ScoringWeights, f SupplierFeatures, p ScorePrediction) float64 {
	score := w.Performance*p.Performance -
		w.Risk*p.Risk -
		w.Cost*f.NormalizedCost -
		w.LeadTimePenalty*f.LeadTimePenalty -
		w.CapacityPenalty*f.CapacityPenalty -
		w.DefectPenalty*f.DefectPenalty
	return math.Min(1, math.Max(0, score))
}

// SelectTopSuppliers sorts by confidence descending and returns the top two
// candidates at or above the threshold. When fewer than two clear it, the
// top two overall are returned with an explicit warning; the list is never
// empty while a candidate exists.
func SelectTopSuppliers(scored []ScoredSupplier, threshold float64) ([]RankedSupplier, string) {
	sorted := make([]ScoredSupplier, len(scored))
	copy(sorted, scored)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	var highConfidence []ScoredSupplier
	for _, c := range sorted {
		if c.Confidence >= threshold {
			highConfidence = append(highConfidence, c)
		}
	}

	warning := ""
	pick := highConfidence
	if len(highConfidence) < 2 {
		warning = "High-confidence suppliers not available. Returning best possible options."
		pick = sorted
	}
	if len(pick) > 2 {
		pick = pick[:2]
	}

	ranked := make([]RankedSupplier, len(pick))
	for i, c := range pick {
		ranked[i] = RankedSupplier{
			SupplierID:                c.Row.SupplierID,
			PredictedPerformanceScore: c.Prediction.Performance,
			PredictedRiskScore:        c.Prediction.Risk,
			ConfidenceScore:           c.Confidence,
			EstimatedTotalCost:        c.Features.TotalCostEstimate,
			LeadTimeDays:              c.Row.LeadTimeDays,
			RankingPosition:           i + 1,
		}
	}
	return ranked, warning
}

func overallRiskLevel(ranked []RankedSupplier) string {
	if len(ranked) == 0 {
		return ""
	}
	var sum float64
	for _, r := range ranked {
		sum += r.PredictedRiskScore
	}
	mean := sum / float64(len(ranked))
	switch {
	case mean < 0.3:
		return "LOW"
	case mean < 0.6:
		return "MEDIUM"
	default:
		return "HIGH"
	}
}

// encodeRiskLevels assigns each distinct risk level an ordinal by sorted
// label, matching a label-encoder over the candidate set.
func encodeRiskLevels(rows []SupplierRow) map[string]float64 {
	seen := map[string]bool{}
	var labels []string
	for _, r := range rows {
		if !seen[r.RiskLevel] {
			seen[r.RiskLevel] = true
			labels = append(labels, r.RiskLevel)
		}
	}
	sort.Strings(labels)
	encoding := make(map[string]float64, len(labels))
	for i, l := range labels {
		encoding[l] = float64(i)
	}
	return encoding
}

// meanDelay is the candidate-set mean of known average delays, used as the
// soft default for suppliers without delay history.
func meanDelay(rows []SupplierRow) float64 {
	var sum float64
	var n int
	for _, r := range rows {
		if r.AverageDelayDays != nil {
			sum += *r.AverageDelayDays
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// minMaxNormalize maps v into [0,1] relative to the candidate values. A
// constant column normalizes to 0.
func minMaxNormalize(values []float64, v float64) float64 {
	if len(values) == 0 {
		return 0
	}
	min, max := values[0], values[0]
	for _, x := range values {
		if x < min {
			min = x
		}
		if x > max {
			max = x
		}
	}
	if max == min {
		return 0
	}
	return (v - min) / (max - min)
}

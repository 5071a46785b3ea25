package core

import "context"

// SupplierRow is one joined supplier/product/performance reference row used
// as scoring input. Historical fields are pointers: absence is legal and is
// softened to defaults during feature engineering instead of excluding the
// supplier.
type SupplierRow struct {
	SupplierID           string
	MaterialID           string
	CostPerUnit          float64
	TransportCost        float64
	LeadTimeDays         float64
	MaxCapacity          float64
	MinimumOrderQuantity float64
	ReliabilityScore     float64
	Rating               float64
	QualityScore         float64
	RiskLevel            string
	OnTimeDeliveryRate   *float64
	DefectRate           *float64
	AverageDelayDays     *float64
}

// SupplierFeatures is the engineered feature vector handed to the regression
// capability and to the confidence formula.
type SupplierFeatures struct {
	TotalCostEstimate  float64 `json:"total_cost_estimate"`
	NormalizedCost     float64 `json:"normalized_cost"`
	NormalizedLeadTime float64 `json:"normalized_lead_time"`
	ReliabilityScore   float64 `json:"reliability_score"`
	Rating             float64 `json:"rating"`
	QualityScore       float64 `json:"quality_score"`
	OnTimeDeliveryRate float64 `json:"on_time_delivery_rate"`
	RiskLevelEncoded   float64 `json:"risk_level_encoded"`
	DefectRate         float64 `json:"defect_rate"`
	AverageDelayDays   float64 `json:"average_delay_days"`
	CapacityPenalty    float64 `json:"capacity_penalty"`
	MoqPenalty         float64 `json:"moq_penalty"`
	LeadTimePenalty    float64 `json:"lead_time_penalty"`
	DefectPenalty      float64 `json:"defect_penalty"`
}

// ScorePrediction is the regression capability's output for one supplier.
type ScorePrediction struct {
	Performance float64 `json:"performance"`
	Risk        float64 `json:"risk"`
}

// RegressionScorer is the external scoring capability: given feature vectors
// it predicts a performance score and a risk score per supplier. Its
// training algorithm is a black box to this package.
type RegressionScorer interface {
	Score(ctx context.Context, features []SupplierFeatures) ([]ScorePrediction, error)
}

// ScoringWeights are the confidence-formula weights. They are configuration,
// never hard-coded into the formula itself.
type ScoringWeights struct {
	Performance     float64
	Risk            float64
	Cost            float64
	LeadTimePenalty float64
	CapacityPenalty float64
	DefectPenalty   float64
}

// DefaultScoringWeights returns the standard weighting.
func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{
		Performance:     0.35,
		Risk:            0.25,
		Cost:            0.15,
		LeadTimePenalty: 0.10,
		CapacityPenalty: 0.10,
		DefectPenalty:   0.05,
	}
}

// DefaultConfidenceThreshold is the minimum confidence for the primary
// ranking cut.
const DefaultConfidenceThreshold = 0.6

// ScoredSupplier pairs a candidate with its features, prediction and
// confidence score.
type ScoredSupplier struct {
	Row        SupplierRow
	Features   SupplierFeatures
	Prediction ScorePrediction
	Confidence float64
}

// RankedSupplier is one entry of the final ranking.
type RankedSupplier struct {
	SupplierID                string  `json:"supplier_id"`
	PredictedPerformanceScore float64 `json:"predicted_performance_score"`
	PredictedRiskScore        float64 `json:"predicted_risk_score"`
	ConfidenceScore           float64 `json:"confidence_score"`
	EstimatedTotalCost        float64 `json:"estimated_total_cost"`
	LeadTimeDays              float64 `json:"lead_time_days"`
	RankingPosition           int     `json:"ranking_position"`
}

// SupplierRankingResult is the pipeline output for one material. Warning is
// non-empty exactly when fewer than two candidates cleared the confidence
// threshold.
type SupplierRankingResult struct {
	MaterialID       string           `json:"material_id"`
	Suppliers        []RankedSupplier `json:"suppliers"`
	OverallRiskLevel string           `json:"overall_risk_level"`
	Warning          string           `json:"warning,omitempty"`
}

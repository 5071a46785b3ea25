package regression

import (
	"context"
	"math"

	"github.com/Denno-Labs/Logistria/internal/core"
)

// Baseline feature scales. Risk level encodings run 0..2 for the usual
// LOW/MEDIUM/HIGH set and delays beyond ten days saturate the risk term.
const (
	riskEncodingScale = 2.0
	delayScaleDays    = 10.0
)

// Baseline is a deterministic heuristic scorer used when no remote scoring
// service is configured or reachable. It weighs delivery history for
// performance and declared risk plus delay history for risk, on the same
// [0,1] scale the remote model uses.
type Baseline struct{}

// Score implements core.RegressionScorer.
func (Baseline) Score(_ context.Context, features []core.SupplierFeatures) ([]core.ScorePrediction, error) {
	predictions := make([]core.ScorePrediction, len(features))
	for i, f := range features {
		perf := 0.6*f.OnTimeDeliveryRate + 0.4*(1-f.DefectRate)
		risk := 0.6*(f.RiskLevelEncoded/riskEncodingScale) + 0.4*(f.AverageDelayDays/delayScaleDays)
		predictions[i] = core.ScorePrediction{
			Performance: clamp01(perf),
			Risk:        clamp01(risk),
		}
	}
	return predictions, nil
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

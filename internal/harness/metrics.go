package harness

import (
	"math"

	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/eval"
)

// nearZeroActual guards the percentage metric: actuals at or below this
// magnitude are excluded from MAPE and the exclusion is reported, never
// silently scored as zero error.
const nearZeroActual = 1e-8

// stepMetrics scores one fold's forecast against its actuals, one result per
// horizon step so accuracy degradation over the horizon stays visible.
func stepMetrics(model string, foldID int, forecast, actual []float64) []eval.MetricResult {
	results := make([]eval.MetricResult, 0, len(actual))
	for h := range actual {
		absErr := math.Abs(forecast[h] - actual[h])
		r := eval.MetricResult{
			Model:   model,
			FoldID:  foldID,
			Horizon: h + 1,
			Metrics: map[string]float64{
				eval.MetricMAE:  absErr,
				eval.MetricRMSE: absErr, // single point per step; RMSE aggregates quadratically
			},
		}
		if math.Abs(actual[h]) > nearZeroActual {
			r.Metrics[eval.MetricMAPE] = 100 * absErr / math.Abs(actual[h])
		} else {
			r.MAPEExcluded = true
		}
		results = append(results, r)
	}
	return results
}

// missingResult records a fit failure or timeout for a model x fold cell.
func missingResult(model string, foldID int, reason string) eval.MetricResult {
	return eval.MetricResult{
		Model:         model,
		FoldID:        foldID,
		Missing:       true,
		FailureReason: reason,
	}
}

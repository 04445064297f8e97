package report

import (
	"math"
	"sort"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/core"
	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/eval"
)

// Aggregate reduces the metric result sequence into a ComparisonReport:
// per model and metric, the mean and standard deviation across folds
// (missing cells from fit failures are skipped, and the count of folds that
// did contribute is reported), plus a deterministic ranking by the primary
// metric. Returns core.ErrAggregation when every model failed every fold.
func Aggregate(runID core.RunID, target string, seed int64, primaryMetric string, results []eval.MetricResult, totalFolds int) (*eval.ComparisonReport, error) {
	if primaryMetric == "" {
		primaryMetric = eval.MetricRMSE
	}

	type foldAccum struct {
		absErr  []float64
		sqErr   []float64
		mape    []float64
		byStep  map[int]float64
		missing bool
	}

	perModel := make(map[string]map[int]*foldAccum)
	failures := make(map[string]int)
	exclusions := make(map[string]int)

	for _, r := range results {
		folds, ok := perModel[r.Model]
		if !ok {
			folds = make(map[int]*foldAccum)
			perModel[r.Model] = folds
		}
		acc, ok := folds[r.FoldID]
		if !ok {
			acc = &foldAccum{byStep: make(map[int]float64)}
			folds[r.FoldID] = acc
		}

		if r.Missing {
			acc.missing = true
			failures[r.Model]++
			continue
		}

		absErr := r.Metrics[eval.MetricMAE]
		acc.absErr = append(acc.absErr, absErr)
		acc.sqErr = append(acc.sqErr, absErr*absErr)
		acc.byStep[r.Horizon] = absErr
		if r.MAPEExcluded {
			exclusions[r.Model]++
		} else {
			acc.mape = append(acc.mape, r.Metrics[eval.MetricMAPE])
		}
	}

	reports := make(map[string]eval.ModelReport, len(perModel))
	anyValid := false

	for model, folds := range perModel {
		maes := make([]float64, 0, len(folds))
		rmses := make([]float64, 0, len(folds))
		mapes := make([]float64, 0, len(folds))
		stepErrs := make(map[int][]float64)

		foldIDs := make([]int, 0, len(folds))
		for id := range folds {
			foldIDs = append(foldIDs, id)
		}
		sort.Ints(foldIDs)

		for _, id := range foldIDs {
			acc := folds[id]
			if acc.missing || len(acc.absErr) == 0 {
				continue
			}
			mae, _ := stats.Mean(acc.absErr)
			msq, _ := stats.Mean(acc.sqErr)
			maes = append(maes, mae)
			rmses = append(rmses, math.Sqrt(msq))
			if len(acc.mape) > 0 {
				mape, _ := stats.Mean(acc.mape)
				mapes = append(mapes, mape)
			}
			for step, e := range acc.byStep {
				stepErrs[step] = append(stepErrs[step], e)
			}
		}

		mr := eval.ModelReport{
			Model:          model,
			Metrics:        make(map[string]eval.MetricSummary, 3),
			FitFailures:    failures[model],
			FoldsAttempted: len(folds),
			MAPEExclusions: exclusions[model],
		}
		if len(maes) > 0 {
			anyValid = true
			mr.Metrics[eval.MetricMAE] = summarize(maes)
			mr.Metrics[eval.MetricRMSE] = summarize(rmses)
			if len(mapes) > 0 {
				mr.Metrics[eval.MetricMAPE] = summarize(mapes)
			}
			mr.ByHorizon = make(map[int]eval.MetricSummary, len(stepErrs))
			for step, errs := range stepErrs {
				mr.ByHorizon[step] = summarize(errs)
			}
		}
		reports[model] = mr
	}

	if !anyValid {
		return nil, core.ErrAggregation
	}

	r := &eval.ComparisonReport{
		RunID:         runID,
		GeneratedAt:   time.Now().UTC(),
		Target:        target,
		Seed:          seed,
		PrimaryMetric: primaryMetric,
		Ranking:       rank(reports, primaryMetric),
		Models:        reports,
		Folds:         totalFolds,
	}
	for _, mr := range reports {
		if mr.FitFailures > 0 {
			r.Partial = true
		}
	}
	r.Fingerprint = r.ComputeFingerprint()
	return r, nil
}

// rank orders models by mean primary metric ascending; ties break on MAPE,
// then model name, so the order is fully deterministic. Models with no
// valid primary metric sort last, by name.
func rank(reports map[string]eval.ModelReport, primaryMetric string) []string {
	names := make([]string, 0, len(reports))
	for name := range reports {
		names = append(names, name)
	}

	primary := func(name string) (float64, bool) {
		s, ok := reports[name].Metrics[primaryMetric]
		return s.Mean, ok
	}
	secondary := func(name string) float64 {
		if s, ok := reports[name].Metrics[eval.MetricMAPE]; ok {
			return s.Mean
		}
		return math.Inf(1)
	}

	sort.Slice(names, func(i, j int) bool {
		pi, oki := primary(names[i])
		pj, okj := primary(names[j])
		if oki != okj {
			return oki
		}
		if oki && okj && pi != pj {
			return pi < pj
		}
		si, sj := secondary(names[i]), secondary(names[j])
		if si != sj {
			return si < sj
		}
		return names[i] < names[j]
	})
	return names
}

func summarize(values []float64) eval.MetricSummary {
	mean, _ := stats.Mean(values)
	std := 0.0
	if len(values) > 1 {
		std, _ = stats.StandardDeviationSample(values)
	}
	return eval.MetricSummary{Mean: mean, StdDev: std, Folds: len(values)}
}

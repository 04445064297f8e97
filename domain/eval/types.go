package eval

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/core"
)

// Metric names computed by the harness.
const (
	MetricMAE  = "mae"
	MetricRMSE = "rmse"
	MetricMAPE = "mape"
)

// Metrics lists the computed metrics in stable order.
func Metrics() []string {
	return []string{MetricMAE, MetricRMSE, MetricMAPE}
}

// ModelSpec is the configuration object a forecasting model is built from.
type ModelSpec struct {
	Name   string             `json:"name"`
	Params map[string]float64 `json:"params,omitempty"`

	// Capability tags, used by the harness to decide what to hand the model.
	Multivariate  bool `json:"multivariate,omitempty"`
	Probabilistic bool `json:"probabilistic,omitempty"`
	Stochastic    bool `json:"stochastic,omitempty"`
}

// Param returns a hyperparameter with a default.
func (s ModelSpec) Param(key string, def float64) float64 {
	if v, ok := s.Params[key]; ok {
		return v
	}
	return def
}

// WindowKind selects the walk-forward windowing policy.
type WindowKind string

const (
	WindowExpanding WindowKind = "expanding"
	WindowRolling   WindowKind = "rolling"
)

// WindowPolicy configures fold generation. InitialSize is the first train
// length for expanding windows and the fixed train length for rolling ones.
type WindowPolicy struct {
	Kind        WindowKind `json:"kind"`
	InitialSize int        `json:"initial_size"`
	Step        int        `json:"step"`
	Horizon     int        `json:"horizon"`
}

// Fold is one (train, test) split over frame row indices. Train strictly
// precedes test: TrainLo <= i < TrainHi < TestLo... with TestLo == TrainHi.
type Fold struct {
	ID        int       `json:"id"`
	TrainLo   int       `json:"train_lo"`
	TrainHi   int       `json:"train_hi"`
	TestLo    int       `json:"test_lo"`
	TestHi    int       `json:"test_hi"`
	TrainFrom time.Time `json:"train_from"`
	TrainTo   time.Time `json:"train_to"`
	TestFrom  time.Time `json:"test_from"`
	TestTo    time.Time `json:"test_to"`
}

// TrainLen returns the number of training rows.
func (f Fold) TrainLen() int { return f.TrainHi - f.TrainLo }

// MetricResult is one model x fold x horizon-step measurement. Missing marks
// a fit failure or timeout: no metric values exist and FailureReason says
// why. Immutable once computed.
type MetricResult struct {
	Model         string             `json:"model"`
	FoldID        int                `json:"fold_id"`
	Horizon       int                `json:"horizon"` // 1-based step ahead, 0 when Missing
	Metrics       map[string]float64 `json:"metrics,omitempty"`
	MAPEExcluded  bool               `json:"mape_excluded,omitempty"` // near-zero actual, MAPE not computed
	Missing       bool               `json:"missing,omitempty"`
	FailureReason string             `json:"failure_reason,omitempty"`
}

// MetricSummary aggregates one metric for one model across folds and steps.
type MetricSummary struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std"`
	Folds  int     `json:"folds"` // folds contributing at least one value
}

// ModelReport is the per-model section of a ComparisonReport.
type ModelReport struct {
	Model          string                   `json:"model"`
	Metrics        map[string]MetricSummary `json:"metrics"`
	ByHorizon      map[int]MetricSummary    `json:"rmse_by_horizon,omitempty"`
	FitFailures    int                      `json:"fit_failures"`
	FoldsAttempted int                      `json:"folds_attempted"`
	MAPEExclusions int                      `json:"mape_exclusions"`
}

// ComparisonReport is the aggregated output of one evaluation run. It is
// created once per run and never mutated, only replaced by a later run.
type ComparisonReport struct {
	RunID         core.RunID             `json:"run_id"`
	GeneratedAt   time.Time              `json:"generated_at"`
	Target        string                 `json:"target"`
	Seed          int64                  `json:"seed"`
	PrimaryMetric string                 `json:"primary_metric"`
	Ranking       []string               `json:"ranking"`
	Models        map[string]ModelReport `json:"models"`
	Partial       bool                   `json:"partial"`
	Folds         int                    `json:"folds"`
	Fingerprint   core.Hash              `json:"fingerprint"`
}

// ComputeFingerprint hashes the canonical ranking table so bit-identical
// reruns are checkable. The fingerprint covers model order and the rounded
// aggregate metrics, not timestamps or run IDs.
func (r *ComparisonReport) ComputeFingerprint() core.Hash {
	type entry struct {
		Model   string                   `json:"model"`
		Metrics map[string]MetricSummary `json:"metrics"`
	}
	canonical := struct {
		Target  string   `json:"target"`
		Seed    int64    `json:"seed"`
		Ranking []string `json:"ranking"`
		Entries []entry  `json:"entries"`
	}{Target: r.Target, Seed: r.Seed, Ranking: r.Ranking}

	names := make([]string, 0, len(r.Models))
	for name := range r.Models {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		canonical.Entries = append(canonical.Entries, entry{
			Model:   name,
			Metrics: r.Models[name].Metrics,
		})
	}

	data, _ := json.Marshal(canonical)
	return core.NewHash(data)
}

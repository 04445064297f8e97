package ports

import (
	"context"
	"time"

	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/core"
	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/eval"
)

// RunSummary is the listing row for a completed evaluation run.
type RunSummary struct {
	RunID       core.RunID `json:"run_id"`
	Target      string     `json:"target"`
	Seed        int64      `json:"seed"`
	Partial     bool       `json:"partial"`
	GeneratedAt time.Time  `json:"generated_at"`
}

// ResultRepository persists evaluation output for the external dashboard.
// The engine writes once after a run completes and never reads its own
// output back during evaluation.
type ResultRepository interface {
	SaveRun(ctx context.Context, report *eval.ComparisonReport, results []eval.MetricResult) error
	GetReport(ctx context.Context, runID core.RunID) (*eval.ComparisonReport, error)
	LatestReport(ctx context.Context) (*eval.ComparisonReport, error)
	GetMetricResults(ctx context.Context, runID core.RunID) ([]eval.MetricResult, error)
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)
}

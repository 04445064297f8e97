package testkit

import (
	"context"
	"sort"
	"sync"

	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/core"
	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/eval"
	"github.com/ppisarski/Climate-Data-Daily-IDN/ports"
)

// InMemoryResultRepository keeps run output in process memory. It backs the
// report API when no DATABASE_URL is configured and doubles as the test
// repository.
type InMemoryResultRepository struct {
	mu      sync.RWMutex
	reports map[core.RunID]*eval.ComparisonReport
	results map[core.RunID][]eval.MetricResult
	order   []core.RunID
}

// NewInMemoryResultRepository creates an empty repository.
func NewInMemoryResultRepository() *InMemoryResultRepository {
	return &InMemoryResultRepository{
		reports: make(map[core.RunID]*eval.ComparisonReport),
		results: make(map[core.RunID][]eval.MetricResult),
	}
}

var _ ports.ResultRepository = (*InMemoryResultRepository)(nil)

func (r *InMemoryResultRepository) SaveRun(_ context.Context, report *eval.ComparisonReport, results []eval.MetricResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports[report.RunID] = report
	r.results[report.RunID] = append([]eval.MetricResult(nil), results...)
	r.order = append(r.order, report.RunID)
	return nil
}

func (r *InMemoryResultRepository) GetReport(_ context.Context, runID core.RunID) (*eval.ComparisonReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	report, ok := r.reports[runID]
	if !ok {
		return nil, core.ErrRunNotFound
	}
	return report, nil
}

func (r *InMemoryResultRepository) LatestReport(_ context.Context) (*eval.ComparisonReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.order) == 0 {
		return nil, core.ErrRunNotFound
	}
	return r.reports[r.order[len(r.order)-1]], nil
}

func (r *InMemoryResultRepository) GetMetricResults(_ context.Context, runID core.RunID) ([]eval.MetricResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	results, ok := r.results[runID]
	if !ok {
		return nil, core.ErrRunNotFound
	}
	return results, nil
}

func (r *InMemoryResultRepository) ListRuns(_ context.Context, limit int) ([]ports.RunSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summaries := make([]ports.RunSummary, 0, len(r.order))
	for _, id := range r.order {
		report := r.reports[id]
		summaries = append(summaries, ports.RunSummary{
			RunID:       id,
			Target:      report.Target,
			Seed:        report.Seed,
			Partial:     report.Partial,
			GeneratedAt: report.GeneratedAt,
		})
	}
	// Newest first.
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].GeneratedAt.After(summaries[j].GeneratedAt)
	})
	if limit > 0 && len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}

package harness

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/core"
	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/eval"
	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/feature"
	"github.com/ppisarski/Climate-Data-Daily-IDN/internal/models"
	"github.com/ppisarski/Climate-Data-Daily-IDN/ports"
)

// Harness evaluates every configured model over every walk-forward fold.
// The fold x model grid is embarrassingly parallel: each cell gets its own
// frame copies and a fresh model instance, and a weighted semaphore caps
// in-flight fits. A per-fit timeout is treated exactly like a fit failure.
type Harness struct {
	policy      eval.WindowPolicy
	parallelism int64
	fitTimeout  time.Duration

	// build is swappable in tests; defaults to the model registry factory.
	build func(spec eval.ModelSpec, seed int64) (ports.Forecaster, error)
}

// New creates a harness with the given windowing policy.
func New(policy eval.WindowPolicy, parallelism int, fitTimeout time.Duration) *Harness {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Harness{
		policy:      policy,
		parallelism: int64(parallelism),
		fitTimeout:  fitTimeout,
		build:       models.New,
	}
}

// Run executes the full evaluation grid. Results come back in fold order
// then model order, stable run-to-run for a fixed seed. Cancellation stops
// spawning new cells; cells already computed are returned alongside the
// context error so the caller can build a partial report.
func (h *Harness) Run(ctx context.Context, frame *feature.Frame, specs []eval.ModelSpec, seed int64) ([]eval.MetricResult, []eval.Fold, error) {
	folds, err := GenerateFolds(frame, h.policy)
	if err != nil {
		return nil, nil, err
	}

	log.Printf("[Harness] evaluating %d models over %d folds (parallelism=%d)",
		len(specs), len(folds), h.parallelism)

	cells := make([][]eval.MetricResult, len(folds)*len(specs))
	sem := semaphore.NewWeighted(h.parallelism)
	var wg sync.WaitGroup

spawn:
	for fi, fold := range folds {
		for si, spec := range specs {
			if ctx.Err() != nil {
				break spawn
			}
			if err := sem.Acquire(ctx, 1); err != nil {
				break spawn
			}

			wg.Add(1)
			go func(idx int, fold eval.Fold, spec eval.ModelSpec) {
				defer wg.Done()
				defer sem.Release(1)
				cells[idx] = h.evaluateCell(ctx, frame, fold, spec, seed)
			}(fi*len(specs)+si, fold, spec)
		}
	}

	wg.Wait()

	var results []eval.MetricResult
	for _, cell := range cells {
		results = append(results, cell...)
	}
	return results, folds, ctx.Err()
}

// evaluateCell fits and scores one model on one fold. Fit failures and
// timeouts become a missing metric, never a run failure.
func (h *Harness) evaluateCell(ctx context.Context, frame *feature.Frame, fold eval.Fold, spec eval.ModelSpec, seed int64) []eval.MetricResult {
	model, err := h.build(spec, core.SubSeed(seed, fmt.Sprintf("%s|fold-%d", spec.Name, fold.ID)))
	if err != nil {
		return []eval.MetricResult{missingResult(spec.Name, fold.ID, err.Error())}
	}

	// Each worker operates on its own copies of the fold slices.
	train := frame.Slice(fold.TrainLo, fold.TrainHi).Clone()
	test := frame.Slice(fold.TestLo, fold.TestHi).Clone()
	actual := append([]float64(nil), test.Target...)
	test.Target = nil // future rows expose derived features only

	fitCtx := ctx
	if h.fitTimeout > 0 {
		var cancel context.CancelFunc
		fitCtx, cancel = context.WithTimeout(ctx, h.fitTimeout)
		defer cancel()
	}

	start := time.Now()
	if err := model.Fit(fitCtx, train); err != nil {
		reason := err.Error()
		if errors.Is(err, context.DeadlineExceeded) || fitCtx.Err() == context.DeadlineExceeded {
			reason = fmt.Sprintf("%v after %s", core.ErrFitTimeout, h.fitTimeout)
		}
		log.Printf("[Harness] %s fold=%d fit failed: %s", spec.Name, fold.ID, reason)
		return []eval.MetricResult{missingResult(spec.Name, fold.ID, reason)}
	}

	forecast, err := model.Predict(fitCtx, h.policy.Horizon, test)
	if err != nil {
		log.Printf("[Harness] %s fold=%d predict failed: %v", spec.Name, fold.ID, err)
		return []eval.MetricResult{missingResult(spec.Name, fold.ID, err.Error())}
	}
	if len(forecast) != h.policy.Horizon {
		return []eval.MetricResult{missingResult(spec.Name, fold.ID,
			fmt.Sprintf("forecast length %d != horizon %d", len(forecast), h.policy.Horizon))}
	}

	log.Printf("[Harness] %s fold=%d scored in %s", spec.Name, fold.ID, time.Since(start).Round(time.Millisecond))
	return stepMetrics(spec.Name, fold.ID, forecast, actual)
}

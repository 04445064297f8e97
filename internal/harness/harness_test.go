package harness

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/core"
	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/eval"
	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/feature"
	"github.com/ppisarski/Climate-Data-Daily-IDN/internal/testkit"
	"github.com/ppisarski/Climate-Data-Daily-IDN/ports"
)

var testPolicy = eval.WindowPolicy{
	Kind:        eval.WindowExpanding,
	InitialSize: 60,
	Step:        10,
	Horizon:     5,
}

func TestRunScoresEveryCell(t *testing.T) {
	frame := testkit.GenerateFrame(100, 9)
	h := New(testPolicy, 4, time.Minute)
	specs := []eval.ModelSpec{{Name: "naive"}, {Name: "ses"}, {Name: "linear"}}

	results, folds, err := h.Run(context.Background(), frame, specs, 42)
	require.NoError(t, err)
	require.Len(t, folds, 4)

	// Every model x fold cell yields one result per horizon step.
	assert.Len(t, results, len(folds)*len(specs)*testPolicy.Horizon)

	seen := make(map[string]int)
	for _, r := range results {
		require.False(t, r.Missing)
		assert.Contains(t, r.Metrics, eval.MetricMAE)
		assert.Contains(t, r.Metrics, eval.MetricRMSE)
		seen[r.Model]++
	}
	for _, spec := range specs {
		assert.Equal(t, len(folds)*testPolicy.Horizon, seen[spec.Name])
	}
}

func TestRunIsDeterministic(t *testing.T) {
	frame := testkit.GenerateFrame(100, 9)
	specs := []eval.ModelSpec{{Name: "naive"}, {Name: "gbt"}, {Name: "mlp"}}

	run := func() []eval.MetricResult {
		results, _, err := New(testPolicy, 3, time.Minute).Run(context.Background(), frame, specs, 42)
		require.NoError(t, err)
		return results
	}

	first := run()
	second := run()
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i], second[i], "result %d differs between identical runs", i)
	}
}

func TestRunSeedChangesStochasticModels(t *testing.T) {
	frame := testkit.GenerateFrame(100, 9)
	specs := []eval.ModelSpec{{Name: "mlp", Stochastic: true}}

	a, _, err := New(testPolicy, 2, time.Minute).Run(context.Background(), frame, specs, 1)
	require.NoError(t, err)
	b, _, err := New(testPolicy, 2, time.Minute).Run(context.Background(), frame, specs, 2)
	require.NoError(t, err)

	different := false
	for i := range a {
		if a[i].Metrics[eval.MetricMAE] != b[i].Metrics[eval.MetricMAE] {
			different = true
			break
		}
	}
	assert.True(t, different, "different seeds should perturb stochastic fits")
}

func TestRunFitFailureBecomesMissingCell(t *testing.T) {
	frame := testkit.GenerateFrame(100, 9)
	// The AR order makes MinTrainRows exceed the first folds' train length
	// while naive keeps succeeding.
	specs := []eval.ModelSpec{
		{Name: "naive"},
		{Name: "ar", Params: map[string]float64{"order": 40}},
	}
	policy := eval.WindowPolicy{Kind: eval.WindowRolling, InitialSize: 70, Step: 10, Horizon: 5}

	results, folds, err := New(policy, 2, time.Minute).Run(context.Background(), frame, specs, 42)
	require.NoError(t, err)
	require.NotEmpty(t, folds)

	var missing, scored int
	for _, r := range results {
		switch {
		case r.Model == "ar" && r.Missing:
			missing++
			assert.Contains(t, r.FailureReason, "ar")
		case r.Model == "naive":
			require.False(t, r.Missing)
			scored++
		}
	}
	assert.Equal(t, len(folds), missing, "every ar fold should fail its precondition")
	assert.Equal(t, len(folds)*policy.Horizon, scored)
}

func TestRunUnknownModelBecomesMissingCell(t *testing.T) {
	frame := testkit.GenerateFrame(100, 9)
	specs := []eval.ModelSpec{{Name: "naive"}, {Name: "prophet"}}

	results, folds, err := New(testPolicy, 2, time.Minute).Run(context.Background(), frame, specs, 42)
	require.NoError(t, err)

	var missing int
	for _, r := range results {
		if r.Model == "prophet" {
			assert.True(t, r.Missing)
			missing++
		}
	}
	assert.Equal(t, len(folds), missing)
}

// slowForecaster blocks in Fit until its context is done.
type slowForecaster struct{ spec eval.ModelSpec }

func (m *slowForecaster) Spec() eval.ModelSpec { return m.spec }
func (m *slowForecaster) MinTrainRows() int    { return 1 }
func (m *slowForecaster) Fit(ctx context.Context, _ *feature.Frame) error {
	<-ctx.Done()
	return ctx.Err()
}
func (m *slowForecaster) Predict(_ context.Context, horizon int, _ *feature.Frame) ([]float64, error) {
	return make([]float64, horizon), nil
}

func TestRunFitTimeoutIsReportedAsMissing(t *testing.T) {
	frame := testkit.GenerateFrame(100, 9)
	h := New(testPolicy, 2, 20*time.Millisecond)
	h.build = func(spec eval.ModelSpec, _ int64) (ports.Forecaster, error) {
		return &slowForecaster{spec: spec}, nil
	}

	results, folds, err := h.Run(context.Background(), frame, []eval.ModelSpec{{Name: "slow"}}, 42)
	require.NoError(t, err)
	require.Len(t, results, len(folds))

	for _, r := range results {
		assert.True(t, r.Missing)
		assert.Contains(t, r.FailureReason, core.ErrFitTimeout.Error())
	}
}

func TestRunCancellationReturnsPartialResults(t *testing.T) {
	frame := testkit.GenerateFrame(100, 9)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h := New(testPolicy, 2, time.Minute)
	results, _, err := h.Run(ctx, frame, []eval.ModelSpec{{Name: "naive"}}, 42)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
}

func TestRunModelsNeverSeeTestTargets(t *testing.T) {
	frame := testkit.GenerateFrame(100, 9)
	h := New(testPolicy, 1, time.Minute)
	h.build = func(spec eval.ModelSpec, _ int64) (ports.Forecaster, error) {
		return &targetSpy{spec: spec, t: t}, nil
	}

	_, _, err := h.Run(context.Background(), frame, []eval.ModelSpec{{Name: "spy"}}, 42)
	require.NoError(t, err)
}

// targetSpy fails the test if the harness leaks actuals into Predict.
type targetSpy struct {
	spec eval.ModelSpec
	t    *testing.T
}

func (m *targetSpy) Spec() eval.ModelSpec                          { return m.spec }
func (m *targetSpy) MinTrainRows() int                             { return 1 }
func (m *targetSpy) Fit(_ context.Context, _ *feature.Frame) error { return nil }
func (m *targetSpy) Predict(_ context.Context, horizon int, future *feature.Frame) ([]float64, error) {
	assert.Nil(m.t, future.Target, "future frame must not carry actuals")
	assert.Len(m.t, future.Rows, horizon)
	return make([]float64, horizon), nil
}

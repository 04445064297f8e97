package ports

import (
	"context"

	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/eval"
	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/feature"
)

// Forecaster is the uniform contract every model in the registry satisfies.
//
// Fit consumes a training frame and stores fitted state on the receiver;
// it returns a core.ErrFit-wrapped error when the training data violates the
// model's preconditions (callers exclude the model for that fold rather than
// aborting the run). Predict produces exactly horizon forecasts, one per
// future row. Future rows carry derived features only; implementations must
// never read future.Target.
//
// Deterministic models produce bit-identical output for identical input.
// Stochastic models receive a seed at construction and must honor it.
type Forecaster interface {
	Spec() eval.ModelSpec
	MinTrainRows() int
	Fit(ctx context.Context, train *feature.Frame) error
	Predict(ctx context.Context, horizon int, future *feature.Frame) ([]float64, error)
}

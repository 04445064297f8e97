package models

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/core"
	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/eval"
	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/feature"
)

// regression fits the target on the full feature frame: ordinary least
// squares when lambda is zero, ridge otherwise. The intercept is never
// penalized. Prediction reads the future rows' derived features, so this is
// the registry's multivariate workhorse.
type regression struct {
	spec    eval.ModelSpec
	lambda  float64
	columns []string
	beta    []float64 // [intercept, one per column]
}

func newRegression(spec eval.ModelSpec, lambda float64) *regression {
	spec.Multivariate = true
	return &regression{spec: spec, lambda: lambda}
}

func (m *regression) Spec() eval.ModelSpec { return m.spec }

func (m *regression) MinTrainRows() int {
	min := int(m.spec.Param("min_train", 0))
	if min > 0 {
		return min
	}
	return len(m.columns) + 2
}

func (m *regression) Fit(_ context.Context, train *feature.Frame) error {
	m.columns = train.Columns
	d := len(train.Columns) + 1
	if err := checkFit(m.spec.Name, train, m.MinTrainRows()); err != nil {
		return err
	}

	n := train.Len()
	x := mat.NewDense(n, d, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		x.Set(i, 0, 1)
		for j, v := range train.Rows[i] {
			x.Set(i, j+1, v)
		}
		y.SetVec(i, train.Target[i])
	}

	// Normal equations with an optional ridge penalty on the slopes.
	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	for j := 1; j < d; j++ {
		xtx.Set(j, j, xtx.At(j, j)+m.lambda)
	}
	var xty mat.VecDense
	xty.MulVec(x.T(), y)

	var beta mat.VecDense
	if err := beta.SolveVec(&xtx, &xty); err != nil {
		return core.NewFitError(m.spec.Name, fmt.Errorf("singular design matrix: %w", err))
	}

	m.beta = make([]float64, d)
	for j := range m.beta {
		m.beta[j] = beta.AtVec(j)
	}
	return nil
}

func (m *regression) Predict(_ context.Context, horizon int, future *feature.Frame) ([]float64, error) {
	if m.beta == nil {
		return nil, fmt.Errorf("%s: predict before fit", m.spec.Name)
	}
	if future == nil || future.Len() < horizon {
		return nil, fmt.Errorf("%s: needs %d future feature rows", m.spec.Name, horizon)
	}
	if len(future.Columns) != len(m.columns) {
		return nil, fmt.Errorf("%s: feature set changed between fit and predict", m.spec.Name)
	}

	out := make([]float64, horizon)
	for h := 0; h < horizon; h++ {
		yhat := m.beta[0]
		for j, v := range future.Rows[h] {
			yhat += m.beta[j+1] * v
		}
		out[h] = yhat
	}
	return out, nil
}

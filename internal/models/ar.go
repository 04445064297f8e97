package models

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/core"
	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/eval"
	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/feature"
)

// ar is an autoregressive model of order p. Coefficients come from a least
// squares fit over the training target; multi-step forecasts feed earlier
// forecasts back in recursively.
type ar struct {
	spec    eval.ModelSpec
	order   int
	coef    []float64 // [intercept, phi_1..phi_p]
	history []float64 // last p training values, newest last
}

func newAR(spec eval.ModelSpec) *ar {
	return &ar{spec: spec, order: int(spec.Param("order", 7))}
}

func (m *ar) Spec() eval.ModelSpec { return m.spec }

func (m *ar) MinTrainRows() int {
	// p lagged columns plus intercept need p+2 equations to be determined.
	return 2*m.order + 2
}

func (m *ar) Fit(_ context.Context, train *feature.Frame) error {
	if err := checkFit(m.spec.Name, train, m.MinTrainRows()); err != nil {
		return err
	}

	y := train.Target
	n := len(y)
	p := m.order
	rows := n - p

	x := mat.NewDense(rows, p+1, nil)
	b := mat.NewVecDense(rows, nil)
	for t := 0; t < rows; t++ {
		x.Set(t, 0, 1)
		for j := 1; j <= p; j++ {
			x.Set(t, j, y[p+t-j])
		}
		b.SetVec(t, y[p+t])
	}

	var qr mat.QR
	qr.Factorize(x)
	coef := mat.NewDense(p+1, 1, nil)
	if err := qr.SolveTo(coef, false, b); err != nil {
		return core.NewFitError(m.spec.Name, fmt.Errorf("least squares solve: %w", err))
	}

	m.coef = make([]float64, p+1)
	for j := range m.coef {
		m.coef[j] = coef.At(j, 0)
	}
	m.history = append([]float64(nil), y[n-p:]...)
	return nil
}

func (m *ar) Predict(_ context.Context, horizon int, _ *feature.Frame) ([]float64, error) {
	if m.coef == nil {
		return nil, fmt.Errorf("%s: predict before fit", m.spec.Name)
	}

	hist := append([]float64(nil), m.history...)
	out := make([]float64, horizon)
	for h := 0; h < horizon; h++ {
		yhat := m.coef[0]
		for j := 1; j <= m.order; j++ {
			yhat += m.coef[j] * hist[len(hist)-j]
		}
		out[h] = yhat
		hist = append(hist, yhat)
	}
	return out, nil
}

package models

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/core"
	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/eval"
	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/feature"
)

// mlp is a small feed-forward sequence model: one tanh hidden layer over the
// lagged feature vector, trained by full-batch gradient descent on
// standardized inputs. Weight init is seeded, so runs are reproducible.
type mlp struct {
	spec   eval.ModelSpec
	hidden int
	epochs int
	rate   float64
	seed   int64

	columns  []string
	featMean []float64
	featStd  []float64
	yMean    float64
	yStd     float64

	w1 [][]float64 // hidden x inputs
	b1 []float64
	w2 []float64 // hidden
	b2 float64
	ok bool
}

func newMLP(spec eval.ModelSpec, seed int64) *mlp {
	spec.Multivariate = true
	spec.Stochastic = true
	return &mlp{
		spec:   spec,
		hidden: int(spec.Param("hidden", 8)),
		epochs: int(spec.Param("epochs", 200)),
		rate:   spec.Param("rate", 0.01),
		seed:   seed,
	}
}

func (m *mlp) Spec() eval.ModelSpec { return m.spec }

func (m *mlp) MinTrainRows() int {
	return int(m.spec.Param("min_train", 30))
}

func (m *mlp) Fit(ctx context.Context, train *feature.Frame) error {
	if err := checkFit(m.spec.Name, train, m.MinTrainRows()); err != nil {
		return err
	}

	n := train.Len()
	d := len(train.Columns)
	m.columns = train.Columns

	m.featMean, m.featStd = columnMoments(train.Rows, d)
	m.yMean, m.yStd = seriesMoments(train.Target)

	x := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = m.standardize(train.Rows[i])
		y[i] = (train.Target[i] - m.yMean) / m.yStd
	}

	rng := rand.New(rand.NewSource(m.seed))
	m.w1 = make([][]float64, m.hidden)
	m.b1 = make([]float64, m.hidden)
	m.w2 = make([]float64, m.hidden)
	for h := 0; h < m.hidden; h++ {
		m.w1[h] = make([]float64, d)
		for j := 0; j < d; j++ {
			m.w1[h][j] = rng.NormFloat64() * 0.1
		}
		m.w2[h] = rng.NormFloat64() * 0.1
	}

	hiddenOut := make([]float64, m.hidden)
	gradW1 := make([][]float64, m.hidden)
	for h := range gradW1 {
		gradW1[h] = make([]float64, d)
	}
	gradB1 := make([]float64, m.hidden)
	gradW2 := make([]float64, m.hidden)

	for epoch := 0; epoch < m.epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return core.NewFitError(m.spec.Name, err)
		}

		for h := range gradW1 {
			for j := range gradW1[h] {
				gradW1[h][j] = 0
			}
			gradB1[h] = 0
			gradW2[h] = 0
		}
		gradB2 := 0.0

		for i := 0; i < n; i++ {
			yhat := m.b2
			for h := 0; h < m.hidden; h++ {
				z := m.b1[h]
				for j := 0; j < d; j++ {
					z += m.w1[h][j] * x[i][j]
				}
				hiddenOut[h] = math.Tanh(z)
				yhat += m.w2[h] * hiddenOut[h]
			}

			errOut := yhat - y[i]
			gradB2 += errOut
			for h := 0; h < m.hidden; h++ {
				gradW2[h] += errOut * hiddenOut[h]
				dz := errOut * m.w2[h] * (1 - hiddenOut[h]*hiddenOut[h])
				gradB1[h] += dz
				for j := 0; j < d; j++ {
					gradW1[h][j] += dz * x[i][j]
				}
			}
		}

		scale := m.rate / float64(n)
		m.b2 -= scale * gradB2
		for h := 0; h < m.hidden; h++ {
			m.w2[h] -= scale * gradW2[h]
			m.b1[h] -= scale * gradB1[h]
			for j := 0; j < d; j++ {
				m.w1[h][j] -= scale * gradW1[h][j]
			}
		}
	}

	m.ok = true
	return nil
}

func (m *mlp) Predict(_ context.Context, horizon int, future *feature.Frame) ([]float64, error) {
	if !m.ok {
		return nil, fmt.Errorf("%s: predict before fit", m.spec.Name)
	}
	if future == nil || future.Len() < horizon {
		return nil, fmt.Errorf("%s: needs %d future feature rows", m.spec.Name, horizon)
	}

	out := make([]float64, horizon)
	for i := 0; i < horizon; i++ {
		x := m.standardize(future.Rows[i])
		yhat := m.b2
		for h := 0; h < m.hidden; h++ {
			z := m.b1[h]
			for j := range x {
				z += m.w1[h][j] * x[j]
			}
			yhat += m.w2[h] * math.Tanh(z)
		}
		out[i] = yhat*m.yStd + m.yMean
	}
	return out, nil
}

func (m *mlp) standardize(row []float64) []float64 {
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - m.featMean[j]) / m.featStd[j]
	}
	return out
}

func columnMoments(rows [][]float64, d int) (mean, std []float64) {
	mean = make([]float64, d)
	std = make([]float64, d)
	n := float64(len(rows))
	for _, row := range rows {
		for j, v := range row {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= n
	}
	for _, row := range rows {
		for j, v := range row {
			std[j] += (v - mean[j]) * (v - mean[j])
		}
	}
	for j := range std {
		std[j] = math.Sqrt(std[j] / n)
		if std[j] == 0 {
			std[j] = 1 // constant column, leave it centered
		}
	}
	return mean, std
}

func seriesMoments(values []float64) (mean, std float64) {
	n := float64(len(values))
	for _, v := range values {
		mean += v
	}
	mean /= n
	for _, v := range values {
		std += (v - mean) * (v - mean)
	}
	std = math.Sqrt(std / n)
	if std == 0 {
		std = 1
	}
	return mean, std
}

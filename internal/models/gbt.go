package models

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/core"
	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/eval"
	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/feature"
)

// stump is a depth-one regression tree.
type stump struct {
	feature   int
	threshold float64
	left      float64
	right     float64
}

func (s stump) predict(row []float64) float64 {
	if row[s.feature] <= s.threshold {
		return s.left
	}
	return s.right
}

// gbt is a gradient-boosted ensemble of regression stumps over the feature
// frame. Row subsampling is driven by the injected seed, so identical seeds
// reproduce identical ensembles.
type gbt struct {
	spec      eval.ModelSpec
	rounds    int
	rate      float64
	subsample float64
	seed      int64

	columns []string
	base    float64
	stumps  []stump
	fit     bool
}

func newGBT(spec eval.ModelSpec, seed int64) *gbt {
	spec.Multivariate = true
	spec.Stochastic = true
	return &gbt{
		spec:      spec,
		rounds:    int(spec.Param("rounds", 100)),
		rate:      spec.Param("rate", 0.1),
		subsample: spec.Param("subsample", 0.8),
		seed:      seed,
	}
}

func (m *gbt) Spec() eval.ModelSpec { return m.spec }

func (m *gbt) MinTrainRows() int {
	min := int(m.spec.Param("min_train", 20))
	return min
}

func (m *gbt) Fit(ctx context.Context, train *feature.Frame) error {
	if err := checkFit(m.spec.Name, train, m.MinTrainRows()); err != nil {
		return err
	}

	n := train.Len()
	m.columns = train.Columns
	rng := rand.New(rand.NewSource(m.seed))

	// Base prediction is the target mean; every round fits the residuals.
	sum := 0.0
	for _, y := range train.Target {
		sum += y
	}
	m.base = sum / float64(n)

	pred := make([]float64, n)
	for i := range pred {
		pred[i] = m.base
	}

	residual := make([]float64, n)
	m.stumps = make([]stump, 0, m.rounds)
	sampleSize := int(math.Ceil(m.subsample * float64(n)))
	if sampleSize < 2 {
		sampleSize = n
	}

	for round := 0; round < m.rounds; round++ {
		if err := ctx.Err(); err != nil {
			return core.NewFitError(m.spec.Name, err)
		}

		for i := range residual {
			residual[i] = train.Target[i] - pred[i]
		}

		sample := rng.Perm(n)[:sampleSize]
		sort.Ints(sample)

		best, ok := bestStump(train.Rows, residual, sample)
		if !ok {
			break // residuals are constant, nothing left to learn
		}

		m.stumps = append(m.stumps, best)
		for i := range pred {
			pred[i] += m.rate * best.predict(train.Rows[i])
		}
	}

	m.fit = true
	return nil
}

// bestStump finds the (feature, threshold) split minimizing the residual SSE
// over the sampled rows. Candidate thresholds are quantiles of the sampled
// feature values, capped per feature to keep rounds cheap.
func bestStump(rows [][]float64, residual []float64, sample []int) (stump, bool) {
	const maxCandidates = 16

	bestSSE := math.Inf(1)
	var best stump
	found := false

	for f := 0; f < len(rows[0]); f++ {
		values := make([]float64, len(sample))
		for k, i := range sample {
			values[k] = rows[i][f]
		}
		sort.Float64s(values)

		step := len(values) / maxCandidates
		if step < 1 {
			step = 1
		}
		prev := math.NaN()
		for c := step - 1; c < len(values)-1; c += step {
			threshold := values[c]
			if threshold == prev {
				continue
			}
			prev = threshold

			var sumL, sumR float64
			var nL, nR int
			for _, i := range sample {
				if rows[i][f] <= threshold {
					sumL += residual[i]
					nL++
				} else {
					sumR += residual[i]
					nR++
				}
			}
			if nL == 0 || nR == 0 {
				continue
			}
			meanL := sumL / float64(nL)
			meanR := sumR / float64(nR)

			sse := 0.0
			for _, i := range sample {
				var d float64
				if rows[i][f] <= threshold {
					d = residual[i] - meanL
				} else {
					d = residual[i] - meanR
				}
				sse += d * d
			}
			if sse < bestSSE {
				bestSSE = sse
				best = stump{feature: f, threshold: threshold, left: meanL, right: meanR}
				found = true
			}
		}
	}
	return best, found
}

func (m *gbt) Predict(_ context.Context, horizon int, future *feature.Frame) ([]float64, error) {
	if !m.fit {
		return nil, fmt.Errorf("%s: predict before fit", m.spec.Name)
	}
	if future == nil || future.Len() < horizon {
		return nil, fmt.Errorf("%s: needs %d future feature rows", m.spec.Name, horizon)
	}

	out := make([]float64, horizon)
	for h := 0; h < horizon; h++ {
		yhat := m.base
		for _, s := range m.stumps {
			yhat += m.rate * s.predict(future.Rows[h])
		}
		out[h] = yhat
	}
	return out, nil
}

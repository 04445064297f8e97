package models

import (
	"context"
	"fmt"

	"github.com/montanaflynn/stats"

	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/core"
	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/eval"
	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/feature"
)

// checkFit validates the shared minimum-length precondition.
func checkFit(name string, train *feature.Frame, minRows int) error {
	if train.Len() < minRows {
		return core.NewFitError(name,
			fmt.Errorf("requires at least %d training rows, have %d", minRows, train.Len()))
	}
	return nil
}

// naive is the persistence baseline: every step of the horizon repeats the
// last observed training value.
type naive struct {
	spec eval.ModelSpec
	last float64
	fit  bool
}

func newNaive(spec eval.ModelSpec) *naive { return &naive{spec: spec} }

func (m *naive) Spec() eval.ModelSpec { return m.spec }
func (m *naive) MinTrainRows() int    { return int(m.spec.Param("min_train", 1)) }

func (m *naive) Fit(_ context.Context, train *feature.Frame) error {
	if err := checkFit(m.spec.Name, train, m.MinTrainRows()); err != nil {
		return err
	}
	m.last = train.Target[train.Len()-1]
	m.fit = true
	return nil
}

func (m *naive) Predict(_ context.Context, horizon int, _ *feature.Frame) ([]float64, error) {
	if !m.fit {
		return nil, fmt.Errorf("%s: predict before fit", m.spec.Name)
	}
	out := make([]float64, horizon)
	for i := range out {
		out[i] = m.last
	}
	return out, nil
}

// seasonalNaive repeats the last full season of training values.
type seasonalNaive struct {
	spec   eval.ModelSpec
	period int
	season []float64
}

func newSeasonalNaive(spec eval.ModelSpec) *seasonalNaive {
	return &seasonalNaive{spec: spec, period: int(spec.Param("period", 7))}
}

func (m *seasonalNaive) Spec() eval.ModelSpec { return m.spec }
func (m *seasonalNaive) MinTrainRows() int    { return m.period }

func (m *seasonalNaive) Fit(_ context.Context, train *feature.Frame) error {
	if err := checkFit(m.spec.Name, train, m.MinTrainRows()); err != nil {
		return err
	}
	n := train.Len()
	m.season = append([]float64(nil), train.Target[n-m.period:n]...)
	return nil
}

func (m *seasonalNaive) Predict(_ context.Context, horizon int, _ *feature.Frame) ([]float64, error) {
	if m.season == nil {
		return nil, fmt.Errorf("%s: predict before fit", m.spec.Name)
	}
	out := make([]float64, horizon)
	for i := range out {
		out[i] = m.season[i%m.period]
	}
	return out, nil
}

// movingAverage forecasts the trailing-window mean of the training tail.
type movingAverage struct {
	spec   eval.ModelSpec
	window int
	mean   float64
	fit    bool
}

func newMovingAverage(spec eval.ModelSpec) *movingAverage {
	return &movingAverage{spec: spec, window: int(spec.Param("window", 7))}
}

func (m *movingAverage) Spec() eval.ModelSpec { return m.spec }
func (m *movingAverage) MinTrainRows() int    { return m.window }

func (m *movingAverage) Fit(_ context.Context, train *feature.Frame) error {
	if err := checkFit(m.spec.Name, train, m.MinTrainRows()); err != nil {
		return err
	}
	n := train.Len()
	mean, err := stats.Mean(train.Target[n-m.window : n])
	if err != nil {
		return core.NewFitError(m.spec.Name, err)
	}
	m.mean = mean
	m.fit = true
	return nil
}

func (m *movingAverage) Predict(_ context.Context, horizon int, _ *feature.Frame) ([]float64, error) {
	if !m.fit {
		return nil, fmt.Errorf("%s: predict before fit", m.spec.Name)
	}
	out := make([]float64, horizon)
	for i := range out {
		out[i] = m.mean
	}
	return out, nil
}

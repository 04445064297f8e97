package models

import (
	"context"
	"fmt"

	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/eval"
	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/feature"
)

// ses is simple exponential smoothing; the forecast is flat at the final
// smoothed level.
type ses struct {
	spec  eval.ModelSpec
	alpha float64
	level float64
	fit   bool
}

func newSES(spec eval.ModelSpec) *ses {
	return &ses{spec: spec, alpha: spec.Param("alpha", 0.3)}
}

func (m *ses) Spec() eval.ModelSpec { return m.spec }
func (m *ses) MinTrainRows() int    { return 2 }

func (m *ses) Fit(_ context.Context, train *feature.Frame) error {
	if err := checkFit(m.spec.Name, train, m.MinTrainRows()); err != nil {
		return err
	}
	level := train.Target[0]
	for _, y := range train.Target[1:] {
		level = m.alpha*y + (1-m.alpha)*level
	}
	m.level = level
	m.fit = true
	return nil
}

func (m *ses) Predict(_ context.Context, horizon int, _ *feature.Frame) ([]float64, error) {
	if !m.fit {
		return nil, fmt.Errorf("%s: predict before fit", m.spec.Name)
	}
	out := make([]float64, horizon)
	for i := range out {
		out[i] = m.level
	}
	return out, nil
}

// holt is double exponential smoothing; the forecast extrapolates the final
// level plus h times the final trend.
type holt struct {
	spec  eval.ModelSpec
	alpha float64
	beta  float64
	level float64
	trend float64
	fit   bool
}

func newHolt(spec eval.ModelSpec) *holt {
	return &holt{
		spec:  spec,
		alpha: spec.Param("alpha", 0.3),
		beta:  spec.Param("beta", 0.1),
	}
}

func (m *holt) Spec() eval.ModelSpec { return m.spec }
func (m *holt) MinTrainRows() int    { return 3 }

func (m *holt) Fit(_ context.Context, train *feature.Frame) error {
	if err := checkFit(m.spec.Name, train, m.MinTrainRows()); err != nil {
		return err
	}
	level := train.Target[0]
	trend := train.Target[1] - train.Target[0]
	for _, y := range train.Target[1:] {
		prevLevel := level
		level = m.alpha*y + (1-m.alpha)*(level+trend)
		trend = m.beta*(level-prevLevel) + (1-m.beta)*trend
	}
	m.level = level
	m.trend = trend
	m.fit = true
	return nil
}

func (m *holt) Predict(_ context.Context, horizon int, _ *feature.Frame) ([]float64, error) {
	if !m.fit {
		return nil, fmt.Errorf("%s: predict before fit", m.spec.Name)
	}
	out := make([]float64, horizon)
	for i := range out {
		out[i] = m.level + float64(i+1)*m.trend
	}
	return out, nil
}

package models

import (
	"fmt"
	"sort"

	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/eval"
	"github.com/ppisarski/Climate-Data-Daily-IDN/ports"
)

// builder constructs a forecaster from its spec and a derived seed.
type builder func(spec eval.ModelSpec, seed int64) ports.Forecaster

var builders = map[string]builder{
	"naive":          func(spec eval.ModelSpec, _ int64) ports.Forecaster { return newNaive(spec) },
	"seasonal_naive": func(spec eval.ModelSpec, _ int64) ports.Forecaster { return newSeasonalNaive(spec) },
	"moving_average": func(spec eval.ModelSpec, _ int64) ports.Forecaster { return newMovingAverage(spec) },
	"ses":            func(spec eval.ModelSpec, _ int64) ports.Forecaster { return newSES(spec) },
	"holt":           func(spec eval.ModelSpec, _ int64) ports.Forecaster { return newHolt(spec) },
	"ar":             func(spec eval.ModelSpec, _ int64) ports.Forecaster { return newAR(spec) },
	"linear":         func(spec eval.ModelSpec, _ int64) ports.Forecaster { return newRegression(spec, 0) },
	"ridge": func(spec eval.ModelSpec, _ int64) ports.Forecaster {
		return newRegression(spec, spec.Param("lambda", 1.0))
	},
	"gbt": func(spec eval.ModelSpec, seed int64) ports.Forecaster { return newGBT(spec, seed) },
	"mlp": func(spec eval.ModelSpec, seed int64) ports.Forecaster { return newMLP(spec, seed) },
}

// New acts as the factory for the model registry. Stochastic models receive
// the seed; deterministic ones ignore it.
func New(spec eval.ModelSpec, seed int64) (ports.Forecaster, error) {
	b, ok := builders[spec.Name]
	if !ok {
		return nil, fmt.Errorf("unknown model %q (available: %v)", spec.Name, Available())
	}
	return b(spec, seed), nil
}

// Available lists registered model names in stable order.
func Available() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

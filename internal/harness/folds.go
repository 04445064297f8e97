package harness

import (
	"fmt"

	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/core"
	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/eval"
	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/feature"
)

// GenerateFolds produces the walk-forward splits for a frame, earliest
// first. Train ranges always precede their test range and test ranges never
// reach back before the paired train range, so no future information can
// leak into training.
func GenerateFolds(frame *feature.Frame, policy eval.WindowPolicy) ([]eval.Fold, error) {
	if policy.InitialSize <= 0 || policy.Step <= 0 || policy.Horizon <= 0 {
		return nil, fmt.Errorf("window policy requires positive initial size, step and horizon, got %+v", policy)
	}

	n := frame.Len()
	var folds []eval.Fold
	for i := 0; ; i++ {
		trainLo := 0
		if policy.Kind == eval.WindowRolling {
			trainLo = i * policy.Step
		}
		trainHi := trainLo + policy.InitialSize
		if policy.Kind == eval.WindowExpanding {
			trainHi = policy.InitialSize + i*policy.Step
		}
		testLo := trainHi
		testHi := testLo + policy.Horizon
		if testHi > n {
			break
		}

		folds = append(folds, eval.Fold{
			ID:        i,
			TrainLo:   trainLo,
			TrainHi:   trainHi,
			TestLo:    testLo,
			TestHi:    testHi,
			TrainFrom: frame.Dates[trainLo],
			TrainTo:   frame.Dates[trainHi-1],
			TestFrom:  frame.Dates[testLo],
			TestTo:    frame.Dates[testHi-1],
		})
	}

	if len(folds) == 0 {
		return nil, fmt.Errorf("%w: %d rows cannot satisfy initial=%d horizon=%d",
			core.ErrInsufficientHistory, n, policy.InitialSize, policy.Horizon)
	}
	return folds, nil
}

package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/core"
	"github.com/ppisarski/Climate-Data-Daily-IDN/domain/eval"
	"github.com/ppisarski/Climate-Data-Daily-IDN/internal/testkit"
)

func TestGenerateFoldsExpanding(t *testing.T) {
	frame := testkit.GenerateFrame(400, 1)
	policy := eval.WindowPolicy{
		Kind:        eval.WindowExpanding,
		InitialSize: 300,
		Step:        7,
		Horizon:     7,
	}

	folds, err := GenerateFolds(frame, policy)
	require.NoError(t, err)
	require.Len(t, folds, 14)

	first := folds[0]
	assert.Equal(t, 0, first.TrainLo)
	assert.Equal(t, 300, first.TrainHi)
	assert.Equal(t, 300, first.TestLo)
	assert.Equal(t, 307, first.TestHi)

	last := folds[len(folds)-1]
	assert.Equal(t, 0, last.TrainLo)
	assert.Equal(t, 391, last.TrainHi)
	assert.Equal(t, 398, last.TestHi)

	for i, fold := range folds {
		assert.Equal(t, i, fold.ID)
		// Train strictly precedes test with test starting where train ends.
		assert.Equal(t, fold.TrainHi, fold.TestLo)
		assert.LessOrEqual(t, fold.TestHi, frame.Len())
		assert.True(t, fold.TrainTo.Before(fold.TestFrom))
		if i > 0 {
			// Expanding windows grow by exactly one step.
			assert.Equal(t, folds[i-1].TrainHi+policy.Step, fold.TrainHi)
			assert.Equal(t, 0, fold.TrainLo)
		}
	}
}

func TestGenerateFoldsRolling(t *testing.T) {
	frame := testkit.GenerateFrame(120, 1)
	policy := eval.WindowPolicy{
		Kind:        eval.WindowRolling,
		InitialSize: 60,
		Step:        10,
		Horizon:     5,
	}

	folds, err := GenerateFolds(frame, policy)
	require.NoError(t, err)
	require.NotEmpty(t, folds)

	for i, fold := range folds {
		// Rolling windows keep a fixed train length and slide forward.
		assert.Equal(t, 60, fold.TrainLen())
		assert.Equal(t, i*10, fold.TrainLo)
		assert.Equal(t, fold.TrainHi, fold.TestLo)
		assert.LessOrEqual(t, fold.TestHi, frame.Len())
	}
}

func TestGenerateFoldsTestRangesNeverOverlapTrain(t *testing.T) {
	frame := testkit.GenerateFrame(200, 2)
	for _, kind := range []eval.WindowKind{eval.WindowExpanding, eval.WindowRolling} {
		policy := eval.WindowPolicy{Kind: kind, InitialSize: 50, Step: 13, Horizon: 9}
		folds, err := GenerateFolds(frame, policy)
		require.NoError(t, err)
		for _, fold := range folds {
			assert.GreaterOrEqual(t, fold.TestLo, fold.TrainHi, "%s fold %d", kind, fold.ID)
		}
	}
}

func TestGenerateFoldsInsufficientHistory(t *testing.T) {
	frame := testkit.GenerateFrame(50, 1)
	policy := eval.WindowPolicy{
		Kind:        eval.WindowExpanding,
		InitialSize: 100,
		Step:        7,
		Horizon:     7,
	}
	_, err := GenerateFolds(frame, policy)
	assert.ErrorIs(t, err, core.ErrInsufficientHistory)
}

func TestGenerateFoldsRejectsBadPolicy(t *testing.T) {
	frame := testkit.GenerateFrame(100, 1)
	_, err := GenerateFolds(frame, eval.WindowPolicy{Kind: eval.WindowExpanding, InitialSize: 10, Step: 0, Horizon: 7})
	assert.Error(t, err)
}

package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubSeedIsDeterministicPerStream(t *testing.T) {
	assert.Equal(t, SubSeed(42, "mlp|fold-0"), SubSeed(42, "mlp|fold-0"))
	assert.NotEqual(t, SubSeed(42, "mlp|fold-0"), SubSeed(42, "mlp|fold-1"))
	assert.NotEqual(t, SubSeed(42, "mlp|fold-0"), SubSeed(43, "mlp|fold-0"))
}

func TestNewHashIsContentAddressed(t *testing.T) {
	a := NewHash([]byte("ranking"))
	b := NewHash([]byte("ranking"))
	c := NewHash([]byte("ranking2"))

	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(c))
	assert.Len(t, a.String(), 64)
	assert.False(t, a.IsEmpty())
}

func TestErrorTaxonomy(t *testing.T) {
	assert.True(t, IsFatalSourceError(NewFormatError("date")))
	assert.True(t, IsFatalSourceError(NewDuplicateError(96001, "01-01-2015")))
	assert.True(t, IsFatalSourceError(ErrDataRange))
	assert.False(t, IsFatalSourceError(ErrFit))

	fitErr := NewFitError("ar", errors.New("singular matrix"))
	assert.True(t, IsFitError(fitErr))
	assert.True(t, IsFitError(ErrFitTimeout))
	assert.False(t, IsFitError(ErrDataFormat))

	assert.True(t, IsNotFoundError(ErrRunNotFound))

	// Duplicates and ordering violations are format errors.
	assert.ErrorIs(t, ErrDuplicateTimestamp, ErrDataFormat)
	assert.ErrorIs(t, ErrNonMonotonic, ErrDataFormat)
}

func TestRunIDs(t *testing.T) {
	a := NewRunID()
	b := NewRunID()
	assert.NotEqual(t, a, b)

	parsed, err := ParseRunID(a.String())
	require.NoError(t, err)
	assert.Equal(t, a, parsed)

	_, err = ParseRunID("  ")
	assert.Error(t, err)
}

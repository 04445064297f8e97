package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Source errors (fatal, the run aborts before any model is fit)
	ErrSource             = errors.New("data source unreachable")
	ErrDataFormat         = errors.New("data format invalid")
	ErrDataRange          = errors.New("no records in requested date range")
	ErrDuplicateTimestamp = fmt.Errorf("%w: duplicate timestamp", ErrDataFormat)
	ErrNonMonotonic       = fmt.Errorf("%w: timestamps not increasing", ErrDataFormat)

	// Row-level errors (rows dropped, the run continues)
	ErrInsufficientHistory = errors.New("insufficient history for requested lag or window")

	// Model-level errors (recorded as a missing metric, the run continues)
	ErrFit        = errors.New("model fit failed")
	ErrFitTimeout = fmt.Errorf("%w: timed out", ErrFit)

	// Aggregation error (fatal only when every model failed every fold)
	ErrAggregation = errors.New("no valid metric results to aggregate")

	ErrNotFound    = errors.New("resource not found")
	ErrRunNotFound = fmt.Errorf("%w: run", ErrNotFound)
)

// Error constructors with context
func NewFormatError(column string) error {
	return fmt.Errorf("%w: missing required column %q", ErrDataFormat, column)
}

func NewDuplicateError(stationID int, date string) error {
	return fmt.Errorf("%w: station %d at %s", ErrDuplicateTimestamp, stationID, date)
}

func NewFitError(model string, cause error) error {
	return fmt.Errorf("%w: %s: %v", ErrFit, model, cause)
}

// Error checking helpers
func IsFatalSourceError(err error) bool {
	return errors.Is(err, ErrSource) ||
		errors.Is(err, ErrDataFormat) ||
		errors.Is(err, ErrDataRange)
}

func IsFitError(err error) bool {
	return errors.Is(err, ErrFit)
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

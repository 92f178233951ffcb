package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Input errors
	ErrInvalidInput            = errors.New("invalid input")
	ErrEmptyInput              = fmt.Errorf("%w: empty input", ErrInvalidInput)
	ErrColumnNotFound          = fmt.Errorf("%w: column not found", ErrInvalidInput)
	ErrInsufficientColumns     = fmt.Errorf("%w: insufficient columns", ErrInvalidInput)
	ErrInsufficientData        = fmt.Errorf("%w: insufficient data for analysis", ErrInvalidInput)
	ErrInsufficientGroupSize   = fmt.Errorf("%w: insufficient group size", ErrInvalidInput)
	ErrInvalidSelection        = fmt.Errorf("%w: target/feature selection invalid", ErrInvalidInput)
	ErrSchemaMismatch          = fmt.Errorf("%w: record does not match dataset columns", ErrInvalidInput)
	ErrUnsupportedTest         = fmt.Errorf("%w: unsupported hypothesis test", ErrInvalidInput)
	ErrUnsupportedAlgorithm    = fmt.Errorf("%w: unsupported algorithm", ErrInvalidInput)
	ErrUnsupportedExportFormat = fmt.Errorf("%w: unsupported export format", ErrInvalidInput)

	// Lookup errors
	ErrNotFound      = errors.New("resource not found")
	ErrModelNotFound = fmt.Errorf("%w: model", ErrNotFound)
)

// Error checking helpers
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

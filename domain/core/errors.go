package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Shape errors
	ErrInvalidPortCount = errors.New("port count must be at least 1")
	ErrShapeMismatch    = errors.New("array shape does not match port count")
	ErrPortMismatch     = errors.New("port count differs from reference")

	// Unit and axis errors
	ErrUnknownFrequencyUnit = errors.New("unknown frequency unit")
	ErrFrequencyMismatch    = errors.New("frequency axis differs from reference")

	// Estimation errors
	ErrInsufficientSamples     = errors.New("at least 2 samples are required")
	ErrMissingCovariance       = errors.New("dataset carries no covariance")
	ErrCovarianceNotRepairable = errors.New("covariance could not be repaired")

	// File errors
	ErrMalformedFile = errors.New("malformed file")

	// Lifecycle errors
	ErrNotReady        = errors.New("measurement set not ready")
	ErrReferenceLoaded = errors.New("reference already loaded")
)

// Error constructors with context
func NewInvalidPortCountError(ports int) error {
	return fmt.Errorf("%w: got %d", ErrInvalidPortCount, ports)
}

func NewShapeError(field string, got, want int) error {
	return fmt.Errorf("%w: %s has %d entries, want %d", ErrShapeMismatch, field, got, want)
}

func NewPortMismatchError(sample, got, want int) error {
	return fmt.Errorf("%w: sample %d has %d ports, reference has %d", ErrPortMismatch, sample, got, want)
}

func NewUnknownFrequencyUnitError(unit string) error {
	return fmt.Errorf("%w: %q", ErrUnknownFrequencyUnit, unit)
}

// NewFrequencyLengthError reports a sample whose axis length differs from the reference.
func NewFrequencyLengthError(sample, got, want int) error {
	return fmt.Errorf("%w: sample %d has %d points, reference has %d", ErrFrequencyMismatch, sample, got, want)
}

// NewFrequencyValueError reports the first frequency index where a sample departs from the reference.
func NewFrequencyValueError(sample, index int, got, want float64) error {
	return fmt.Errorf("%w: sample %d index %d is %g Hz, reference is %g Hz", ErrFrequencyMismatch, sample, index, got, want)
}

func NewInsufficientSamplesError(n int) error {
	return fmt.Errorf("%w: got %d", ErrInsufficientSamples, n)
}

func NewNotRepairableError(index int, freq float64, reason string) error {
	return fmt.Errorf("%w at index %d (%g Hz): %s", ErrCovarianceNotRepairable, index, freq, reason)
}

func NewNotReadyError(state, want string) error {
	return fmt.Errorf("%w: state is %s, need %s", ErrNotReady, state, want)
}

// NewMalformedError reports a file that could not be parsed at line.
func NewMalformedError(path string, line int, msg string) error {
	return fmt.Errorf("%w: %s:%d: %s", ErrMalformedFile, path, line, msg)
}

// WrapMalformedError is NewMalformedError keeping cause in the chain, so both
// ErrMalformedFile and the cause's own sentinel match.
func WrapMalformedError(path string, line int, cause error) error {
	return fmt.Errorf("%w: %s:%d: %w", ErrMalformedFile, path, line, cause)
}

// Error checking helpers
func IsShapeError(err error) bool {
	return errors.Is(err, ErrInvalidPortCount) ||
		errors.Is(err, ErrShapeMismatch) ||
		errors.Is(err, ErrPortMismatch)
}

func IsInputError(err error) bool {
	return IsShapeError(err) ||
		errors.Is(err, ErrUnknownFrequencyUnit) ||
		errors.Is(err, ErrFrequencyMismatch) ||
		errors.Is(err, ErrInsufficientSamples) ||
		errors.Is(err, ErrMissingCovariance) ||
		errors.Is(err, ErrMalformedFile)
}

func IsNumericalError(err error) bool {
	return errors.Is(err, ErrCovarianceNotRepairable)
}

package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// InvalidConfiguration covers enumerated fields holding values outside
	// their domain (statistical test, CI type, aggregation, effect mode).
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// DegenerateInput covers inputs a computation cannot proceed on:
	// empty samples, zero or negative variance, a zero mean with a
	// nonzero relative effect, strata missing from one group.
	ErrDegenerateInput = errors.New("degenerate input")

	// PreconditionViolation covers design parameters outside their
	// required open intervals, rejected before any computation.
	ErrPreconditionViolation = errors.New("precondition violation")

	// Splitting errors
	ErrDuplicateExperiment = errors.New("experiment already registered")
	ErrInvalidExperiment   = errors.New("invalid experiment")
)

// Error constructors with context
func NewInvalidConfigurationError(field string, value interface{}) error {
	return fmt.Errorf("%w: %s=%v", ErrInvalidConfiguration, field, value)
}

func NewDegenerateInputError(reason string) error {
	return fmt.Errorf("%w: %s", ErrDegenerateInput, reason)
}

func NewPreconditionError(param string, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrPreconditionViolation, param, reason)
}

// Error checking helpers
func IsInvalidConfiguration(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration)
}

func IsDegenerateInput(err error) bool {
	return errors.Is(err, ErrDegenerateInput)
}

func IsPreconditionViolation(err error) bool {
	return errors.Is(err, ErrPreconditionViolation)
}

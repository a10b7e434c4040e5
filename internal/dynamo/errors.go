package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for integration and analysis.
var (
	// ErrIntegrationFailure marks a run that stopped before t_end. The partial
	// trajectory is still returned alongside it.
	ErrIntegrationFailure = errors.New("dynamo: integration failed")

	// ErrPrecondition indicates a caller bug: bad tolerances, durations, or
	// mismatched inputs.
	ErrPrecondition = errors.New("dynamo: precondition violated")

	// ErrNumericDomain indicates a value outside the domain of an operation
	// (log of a non-positive number, a map evaluated where it is undefined).
	ErrNumericDomain = errors.New("dynamo: numeric domain error")

	// ErrUnrecognizedSystem indicates an unknown system tag.
	ErrUnrecognizedSystem = errors.New("dynamo: unrecognized system")

	// ErrUserInput indicates malformed interactive input.
	ErrUserInput = errors.New("dynamo: invalid user input")

	// ErrMaxSteps indicates the step ceiling was reached before t_end.
	ErrMaxSteps = errors.New("dynamo: maximum number of steps exceeded")

	// ErrStepTooSmall indicates adaptive timestep became too small.
	ErrStepTooSmall = errors.New("dynamo: adaptive timestep below minimum")

	// ErrInvalidState indicates a state vector with NaN or Inf components.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")
)

// IntegrationError wraps the cause of a failed run with where it stopped.
type IntegrationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *IntegrationError) Error() string {
	return fmt.Sprintf("%s at step %d (t=%.6g): %v", ErrIntegrationFailure, e.Step, e.Time, e.Wrapped)
}

func (e *IntegrationError) Unwrap() error {
	return e.Wrapped
}

func (e *IntegrationError) Is(target error) bool {
	return target == ErrIntegrationFailure
}

// DomainError reports which element of an operation left its numeric domain.
type DomainError struct {
	Op    string
	Index int
	Value float64
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s at index %d (value %g)", ErrNumericDomain, e.Op, e.Index, e.Value)
}

func (e *DomainError) Is(target error) bool {
	return target == ErrNumericDomain
}

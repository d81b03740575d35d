package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates a particle with NaN or Inf position or velocity.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrOutOfBounds indicates a particle outside the world region.
	ErrOutOfBounds = errors.New("dynamo: particle outside world region")

	// ErrEmptyWorld indicates a world region without positive area.
	ErrEmptyWorld = errors.New("dynamo: world region has no area")

	// ErrContextCanceled indicates the simulation was interrupted.
	ErrContextCanceled = errors.New("dynamo: simulation canceled by context")
)

// StepError wraps an error with the step and particle it happened at.
type StepError struct {
	Step    int
	ID      uint64
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (particle %d): %v", e.Step, e.ID, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}

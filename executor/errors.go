package executor

import (
	"errors"
	"fmt"
)

var (
	// ErrLifecycle is matched by every LifecycleError.
	ErrLifecycle = errors.New("lifecycle violation")

	// ErrShape reports arrays whose shape does not match their declaration.
	ErrShape = errors.New("shape mismatch")

	// ErrInput reports missing or undeclared parameters, constants, and
	// input data.
	ErrInput = errors.New("invalid input")
)

// A LifecycleError reports an operation called in a phase that does not
// allow it.
type LifecycleError struct {
	Component string
	Variant   string
	Op        string
	Phase     Phase
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("%s (%s): cannot %s when %s",
		e.Component, e.Variant, e.Op, e.Phase)
}

// Unwrap makes LifecycleError match ErrLifecycle.
func (e *LifecycleError) Unwrap() error {
	return ErrLifecycle
}

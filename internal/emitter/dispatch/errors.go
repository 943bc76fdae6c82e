package dispatch

import (
	"errors"
	"fmt"
)

// ErrCallbackPanic is matched by errors.Is for every *PanicError.
var ErrCallbackPanic = errors.New("callback panicked")

// PanicError wraps a recovered panic value as an error.
type PanicError struct {
	// ID is the registration ID of the callback that panicked.
	ID string

	// Value is the value passed to panic().
	Value any

	// Stack is the stack trace at the time of the panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("callback %s panicked: %v", e.ID, e.Value)
}

// Is allows errors.Is to match PanicError with ErrCallbackPanic.
func (e *PanicError) Is(target error) bool {
	return target == ErrCallbackPanic
}

// Unwrap returns the panic value if it was an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

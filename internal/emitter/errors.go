package emitter

import (
	"errors"

	"github.com/dshills/nsemit/internal/emitter/dispatch"
	"github.com/dshills/nsemit/internal/emitter/ident"
	"github.com/dshills/nsemit/internal/emitter/store"
)

// Sentinel errors for the emitter.
var (
	// ErrInvalidIdentifier is returned when an identifier fails the
	// identifier grammar.
	ErrInvalidIdentifier = ident.ErrInvalidIdentifier

	// ErrInvalidCallback is returned when a callback is nil or is not a
	// function.
	ErrInvalidCallback = errors.New("an event callback should be a function")

	// ErrInvalidArgument is returned when a removal names neither an event
	// nor a namespace.
	ErrInvalidArgument = store.ErrInvalidArgument

	// ErrCallbackPanic is matched by errors recovered from panicking
	// callbacks under isolation.
	ErrCallbackPanic = dispatch.ErrCallbackPanic

	// ErrArgumentType is returned by adapted callbacks when an emitted
	// argument cannot be assigned to the function's parameter.
	ErrArgumentType = errors.New("argument type mismatch")
)

// CallbackError wraps an error from a callback with its dispatch context.
type CallbackError struct {
	// Event is the identifier that was emitted.
	Event string

	// RegistrationID is the ID of the registration whose callback failed.
	RegistrationID string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *CallbackError) Error() string {
	return "callback " + e.RegistrationID + " for event " + e.Event + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *CallbackError) Unwrap() error {
	return e.Err
}

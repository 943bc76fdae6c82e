package dispatch

import (
	"errors"
	"time"
)

// Handler is an invocable callback. It mirrors emitter.Callback to avoid an
// import cycle.
type Handler func(args ...any) error

// Call pairs a handler with the registration it came from.
type Call struct {
	// ID identifies the registration, used in results and logs.
	ID string

	// Handler is the callback to run.
	Handler Handler
}

// Result represents the outcome of one callback execution.
type Result struct {
	// ID is the registration ID of the call.
	ID string

	// Error is the error returned by the handler, or a *PanicError if the
	// handler panicked under isolation.
	Error error

	// Panicked is true if the handler panicked.
	Panicked bool

	// PanicValue is the value passed to panic(), if Panicked is true.
	PanicValue any

	// PanicStack is the stack trace at the point of panic.
	PanicStack []byte

	// Duration is how long the handler took to execute.
	Duration time.Duration

	// Skipped is true if the handler was never run.
	Skipped bool
}

// IsSuccess returns true if the handler ran without error or panic.
func (r Result) IsSuccess() bool {
	return !r.Skipped && !r.Panicked && r.Error == nil
}

// PanicHandler is called when a handler panics under isolation. It receives
// the registration ID, the panic value, and the stack trace.
type PanicHandler func(id string, panicValue any, stack []byte)

// FirstError returns the first error among the results, or nil.
func FirstError(results []Result) error {
	for _, r := range results {
		if r.Error != nil {
			return r.Error
		}
	}
	return nil
}

// JoinErrors joins the errors of every failed result.
func JoinErrors(results []Result) error {
	var errs []error
	for _, r := range results {
		if r.Error != nil {
			errs = append(errs, r.Error)
		}
	}
	return errors.Join(errs...)
}

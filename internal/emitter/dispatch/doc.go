// Package dispatch runs emitter callbacks.
//
// Callbacks always run synchronously in the caller's goroutine, one after
// another, in the order given. Two policies are provided:
//
//   - DispatchUntilError: fail-fast. The first callback error stops delivery
//     and a panicking callback unwinds straight through to the caller.
//   - DispatchAll: isolated. Panics are recovered and reported through a
//     PanicHandler, and every callback runs regardless of earlier failures.
//
// # Usage
//
//	d := dispatch.NewDispatcher()
//	results := d.DispatchUntilError(calls, args)
//	if err := dispatch.FirstError(results); err != nil {
//	    return err
//	}
package dispatch

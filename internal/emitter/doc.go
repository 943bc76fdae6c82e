// Package emitter provides a namespaced, synchronous event emitter.
//
// Callbacks are registered under an event name and, optionally, a
// namespace. Emitting an event name reaches every callback registered for
// it regardless of namespace; emitting "name.namespace" reaches only that
// namespace. Namespaces exist mainly for bulk removal: Off(".ns") drops
// every registration made under ns across all event names.
//
// # Basic Usage
//
//	var e emitter.Emitter
//
//	e.On("event1", func(args ...any) error { return nil })
//	e.On("event2.namespace1", cb1)
//	e.On("event2.namespace2", cb2)
//	e.On("event3a.namespace3", cb3)
//
//	e.Emit("event1", data)
//	e.Emit("event2")            // cb1 and cb2
//	e.Emit("event2.namespace1") // cb1 only
//
//	e.Off("event1")
//	e.Off("event2.namespace1")
//	e.Off(".namespace3")
//
// Multiple event arguments are passed through positionally:
//
//	e.OnFunc("event10", func(a int, b string, c Point) { ... })
//	e.Emit("event10", 2, "qwe", Point{X: 3})
//
// Trigger is an alias for Emit.
//
// # Composition
//
// Components that publish events hold an Emitter as a field, or embed it to
// expose On, Off and Emit directly:
//
//	type Player struct {
//	    emitter.Emitter
//	    id string
//	}
//
// # Dispatch Semantics
//
// Emit runs every matched callback to completion, in registration order, in
// the caller's goroutine before returning. The set of callbacks is fixed
// when Emit starts: callbacks may register or remove callbacks on the same
// emitter, and those changes apply from the next Emit.
//
// By default delivery is fail-fast. The first callback error stops delivery
// and is returned as a *CallbackError; a panic unwinds to the caller of
// Emit. WithIsolation recovers panics, logs failures, keeps delivering and
// returns all failures joined.
//
// # Thread Safety
//
// An Emitter may be shared between goroutines. No lock is held while
// callbacks run.
package emitter

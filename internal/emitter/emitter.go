package emitter

import (
	"sync"

	"github.com/dshills/nsemit/internal/emitter/dispatch"
	"github.com/dshills/nsemit/internal/emitter/ident"
	"github.com/dshills/nsemit/internal/emitter/store"
	"github.com/dshills/nsemit/internal/logging"
)

// Emitter registers callbacks under event identifiers and dispatches
// emitted events to them. The zero value is ready to use. An Emitter must
// not be copied after first use.
type Emitter struct {
	mu         sync.Mutex
	items      *store.Container[Callback]
	dispatcher *dispatch.Dispatcher
	logger     *logging.Logger
	isolate    bool
}

// New creates an emitter with the given options.
func New(opts ...Option) *Emitter {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	e := &Emitter{
		logger:  cfg.logger,
		isolate: cfg.isolate,
	}
	e.init()
	return e
}

// init lazily sets up internal state. Callers hold e.mu, except New.
func (e *Emitter) init() {
	if e.logger == nil {
		e.logger = logging.Nop()
	}
	if e.items == nil {
		e.items = store.New[Callback]()
	}
	if e.dispatcher == nil {
		logger := e.logger
		e.dispatcher = dispatch.NewDispatcher(dispatch.WithPanicHandler(func(id string, v any, stack []byte) {
			logger.WithField("registration", id).Error("callback panicked: %v\n%s", v, stack)
		}))
	}
}

// On registers cb for the identifier "name" or "name.namespace".
func (e *Emitter) On(eventID string, cb Callback) error {
	if cb == nil {
		return ErrInvalidCallback
	}
	id, err := ident.Parse(eventID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.init()

	item := e.items.Add(id.Event, id.Namespace, cb)
	e.logger.WithFields(map[string]any{
		"event":        id.String(),
		"registration": item.ID,
	}).Debug("registered callback")
	return nil
}

// OnFunc registers an arbitrary function, adapted with Func.
func (e *Emitter) OnFunc(eventID string, fn any) error {
	cb, err := Func(fn)
	if err != nil {
		return err
	}
	return e.On(eventID, cb)
}

// Off removes registrations. "name" removes every registration of the event,
// "name.namespace" removes that namespace of the event, and ".namespace"
// removes the namespace from every event.
func (e *Emitter) Off(eventID string) error {
	sel, err := ident.ParseSelector(eventID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.init()

	removed, err := e.items.Remove(sel.Event, sel.Namespace)
	if err != nil {
		return err
	}
	e.logger.WithFields(map[string]any{
		"selector": eventID,
		"removed":  removed,
	}).Debug("removed callbacks")
	return nil
}

// Emit invokes the callbacks matching the identifier with args. "name"
// reaches every namespace of the event, "name.namespace" only that
// namespace.
func (e *Emitter) Emit(eventID string, args ...any) error {
	id, err := ident.Parse(eventID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.init()
	items := e.items.Items(id.Event, id.Namespace)
	d := e.dispatcher
	logger := e.logger
	e.mu.Unlock()

	if len(items) == 0 {
		return nil
	}

	calls := make([]dispatch.Call, len(items))
	for i, item := range items {
		calls[i] = dispatch.Call{ID: item.ID, Handler: dispatch.Handler(item.Callback)}
	}

	logger.WithFields(map[string]any{
		"event":     eventID,
		"callbacks": len(calls),
	}).Debug("dispatching")

	var results []dispatch.Result
	if e.isolate {
		results = d.DispatchAll(calls, args)
	} else {
		results = d.DispatchUntilError(calls, args)
	}

	for i := range results {
		r := &results[i]
		if r.Skipped || r.IsSuccess() {
			continue
		}
		if e.isolate && !r.Panicked {
			logger.WithFields(map[string]any{
				"event":        eventID,
				"registration": r.ID,
			}).Error("callback failed: %v", r.Error)
		}
		r.Error = &CallbackError{Event: eventID, RegistrationID: r.ID, Err: r.Error}
	}

	if !e.isolate {
		return dispatch.FirstError(results)
	}
	return dispatch.JoinErrors(results)
}

// Trigger is an alias for Emit.
func (e *Emitter) Trigger(eventID string, args ...any) error {
	return e.Emit(eventID, args...)
}

// Has returns true if at least one callback would be reached by emitting
// the identifier. Invalid identifiers report false.
func (e *Emitter) Has(eventID string) bool {
	id, err := ident.Parse(eventID)
	if err != nil {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.init()
	return e.items.Has(id.Event, id.Namespace)
}

// Events returns the event names that have registrations, sorted.
func (e *Emitter) Events() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.init()
	return e.items.Events()
}

// Len returns the number of registrations.
func (e *Emitter) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.init()
	return e.items.Len()
}

// Stats returns dispatch statistics.
func (e *Emitter) Stats() dispatch.Stats {
	e.mu.Lock()
	e.init()
	d := e.dispatcher
	e.mu.Unlock()
	return d.Stats()
}

// ResetStats clears dispatch statistics.
func (e *Emitter) ResetStats() {
	e.mu.Lock()
	e.init()
	d := e.dispatcher
	e.mu.Unlock()
	d.ResetStats()
}

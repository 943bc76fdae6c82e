package dispatch

import (
	"sync/atomic"
	"time"
)

// Dispatcher delivers arguments to a sequence of callbacks in the caller's
// goroutine and keeps running totals.
type Dispatcher struct {
	executor *Executor

	dispatched  atomic.Uint64
	succeeded   atomic.Uint64
	failed      atomic.Uint64
	panicked    atomic.Uint64
	skipped     atomic.Uint64
	totalTimeNs atomic.Int64
}

// NewDispatcher creates a new dispatcher.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		executor: NewExecutor(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithPanicHandler sets the handler notified of recovered panics.
func WithPanicHandler(h PanicHandler) Option {
	return func(d *Dispatcher) {
		d.executor = NewExecutor(WithExecutorPanicHandler(h))
	}
}

// DispatchUntilError runs calls in order until one returns an error. The
// remaining calls are reported as skipped. Panics propagate to the caller.
func (d *Dispatcher) DispatchUntilError(calls []Call, args []any) []Result {
	results := make([]Result, len(calls))

	for i, call := range calls {
		results[i] = d.invoke(call, args)

		if results[i].Error != nil {
			for j := i + 1; j < len(calls); j++ {
				results[j] = Result{ID: calls[j].ID, Skipped: true}
				d.skipped.Add(1)
			}
			break
		}
	}

	return results
}

// invoke runs call without recovering. A panic is counted before it
// continues to unwind.
func (d *Dispatcher) invoke(call Call, args []any) Result {
	d.dispatched.Add(1)

	returned := false
	defer func() {
		if !returned {
			d.panicked.Add(1)
		}
	}()

	r := d.executor.Invoke(call, args)
	returned = true
	d.record(r)
	return r
}

// DispatchAll runs every call in order, recovering from panics.
func (d *Dispatcher) DispatchAll(calls []Call, args []any) []Result {
	results := make([]Result, len(calls))

	for i, call := range calls {
		d.dispatched.Add(1)
		results[i] = d.executor.Execute(call, args)
		d.record(results[i])
	}

	return results
}

func (d *Dispatcher) record(r Result) {
	d.totalTimeNs.Add(r.Duration.Nanoseconds())

	switch {
	case r.Panicked:
		d.panicked.Add(1)
	case r.Error != nil:
		d.failed.Add(1)
	default:
		d.succeeded.Add(1)
	}
}

// Stats returns dispatch statistics.
// Stats are read without a mutex, so values may be slightly inconsistent
// if stats are being updated concurrently.
func (d *Dispatcher) Stats() Stats {
	dispatched := d.dispatched.Load()
	totalNs := d.totalTimeNs.Load()

	var avgNs int64
	if dispatched > 0 {
		avgNs = totalNs / int64(dispatched)
	}

	return Stats{
		Dispatched:    dispatched,
		Succeeded:     d.succeeded.Load(),
		Failed:        d.failed.Load(),
		Panicked:      d.panicked.Load(),
		Skipped:       d.skipped.Load(),
		TotalDuration: time.Duration(totalNs),
		AvgDuration:   time.Duration(avgNs),
	}
}

// ResetStats resets all statistics to zero.
func (d *Dispatcher) ResetStats() {
	d.dispatched.Store(0)
	d.succeeded.Store(0)
	d.failed.Store(0)
	d.panicked.Store(0)
	d.skipped.Store(0)
	d.totalTimeNs.Store(0)
}

// Stats contains dispatcher statistics.
type Stats struct {
	// Dispatched is the number of callbacks started.
	Dispatched uint64

	// Succeeded is the number of callbacks that returned nil.
	Succeeded uint64

	// Failed is the number of callbacks that returned an error.
	Failed uint64

	// Panicked is the number of recovered panics.
	Panicked uint64

	// Skipped is the number of callbacks not run after a fail-fast stop.
	Skipped uint64

	// TotalDuration is the cumulative time spent in callbacks.
	TotalDuration time.Duration

	// AvgDuration is the average callback execution time.
	AvgDuration time.Duration
}

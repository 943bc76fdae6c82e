package dispatch

import (
	"runtime/debug"
	"time"
)

// Executor runs single callbacks and captures timing information.
type Executor struct {
	panicHandler PanicHandler
}

// NewExecutor creates a new executor with the given options.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithExecutorPanicHandler sets the panic handler for the executor.
func WithExecutorPanicHandler(h PanicHandler) ExecutorOption {
	return func(e *Executor) {
		e.panicHandler = h
	}
}

// Invoke runs the handler with args. A panic is not recovered.
func (e *Executor) Invoke(call Call, args []any) Result {
	start := time.Now()
	err := call.Handler(args...)
	return Result{
		ID:       call.ID,
		Error:    err,
		Duration: time.Since(start),
	}
}

// Execute runs the handler with args, recovering from a panic.
func (e *Executor) Execute(call Call, args []any) (result Result) {
	result.ID = call.ID
	start := time.Now()

	defer func() {
		result.Duration = time.Since(start)

		if r := recover(); r != nil {
			stack := debug.Stack()

			result.Panicked = true
			result.PanicValue = r
			result.PanicStack = stack
			result.Error = &PanicError{ID: call.ID, Value: r, Stack: string(stack)}

			// A panicking panic handler must not escape the recovery.
			if e.panicHandler != nil {
				func() {
					defer func() {
						_ = recover()
					}()
					e.panicHandler(call.ID, r, stack)
				}()
			}
		}
	}()

	result.Error = call.Handler(args...)
	return result
}

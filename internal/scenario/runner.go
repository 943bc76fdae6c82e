package scenario

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/nsemit/internal/emitter"
	"github.com/dshills/nsemit/internal/logging"
	"github.com/dshills/nsemit/internal/script"
)

// ErrExpectation is wrapped by step errors for emit counts that differ
// from the declared expectation.
var ErrExpectation = errors.New("unexpected invocation count")

// Report summarizes a scenario run.
type Report struct {
	Name        string
	Steps       int
	Emits       int
	Invocations int
	Failures    []*StepError
	Duration    time.Duration
}

// OK returns true if no step failed.
func (r *Report) OK() bool {
	return len(r.Failures) == 0
}

// Err joins every step failure, or returns nil.
func (r *Report) Err() error {
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger used by the runner and its emitters.
func WithLogger(l *logging.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = l
	}
}

// WithIsolation makes the emitters recover callback panics and keep
// delivering after a failure.
func WithIsolation() RunnerOption {
	return func(r *Runner) {
		r.isolate = true
	}
}

// Runner executes scenarios and writes a transcript.
type Runner struct {
	out     io.Writer
	logger  *logging.Logger
	isolate bool
}

// NewRunner creates a runner that writes its transcript to out.
func NewRunner(out io.Writer, opts ...RunnerOption) *Runner {
	r := &Runner{out: out}
	for _, opt := range opts {
		opt(r)
	}
	if r.out == nil {
		r.out = io.Discard
	}
	if r.logger == nil {
		r.logger = logging.Nop()
	}
	return r
}

// run holds the state of a single scenario execution.
type run struct {
	r           *Runner
	em          *emitter.Emitter
	lua         *script.State
	callbacks   map[string]emitter.Callback
	invocations int
}

// Run executes sc against a fresh emitter. Step failures are collected in
// the report. The returned error is non-nil only if the run could not be
// set up.
func (r *Runner) Run(sc *Scenario) (*Report, error) {
	start := time.Now()
	logger := r.logger.WithField("scenario", sc.Name)

	opts := []emitter.Option{emitter.WithLogger(logger.WithComponent("emitter"))}
	if r.isolate {
		opts = append(opts, emitter.WithIsolation())
	}

	x := &run{
		r:         r,
		em:        emitter.New(opts...),
		callbacks: make(map[string]emitter.Callback, len(sc.Handlers)),
	}

	if sc.NeedsLua() {
		if err := x.openLua(sc); err != nil {
			return nil, err
		}
		defer x.lua.Close()
	}

	for _, h := range sc.Handlers {
		cb, err := x.handler(h)
		if err != nil {
			return nil, fmt.Errorf("handler %q: %w", h.Name, err)
		}
		x.callbacks[h.Name] = x.counted(cb)
	}

	report := &Report{Name: sc.Name}
	if sc.Name != "" {
		x.printf("# %s\n", sc.Name)
	}

	for i, step := range sc.Steps {
		report.Steps++
		if step.Op == OpEmit {
			report.Emits++
		}

		before := x.invocations
		err := x.step(step)
		count := x.invocations - before

		if err == nil && step.Op == OpEmit && step.Expect != nil && *step.Expect != count {
			err = fmt.Errorf("%w: want %d, got %d", ErrExpectation, *step.Expect, count)
		}
		if err != nil {
			se := &StepError{Index: i, Op: step.Op, ID: step.ID, Err: err}
			report.Failures = append(report.Failures, se)
			logger.Warn("%v", se)
			x.printf("!! %v\n", se)
		}
	}

	report.Invocations = x.invocations
	report.Duration = time.Since(start)

	status := "ok"
	if !report.OK() {
		status = "FAILED"
	}
	x.printf("%s: %d steps, %d emits, %d invocations, %d failures\n",
		status, report.Steps, report.Emits, report.Invocations, len(report.Failures))

	logger.WithFields(map[string]any{
		"steps":    report.Steps,
		"failures": len(report.Failures),
	}).Info("scenario finished in %v", report.Duration)

	return report, nil
}

func (x *run) openLua(sc *Scenario) error {
	L, err := script.NewState()
	if err != nil {
		return fmt.Errorf("creating lua state: %w", err)
	}
	x.lua = L

	L.BindEmitter(x.em)
	L.RegisterFunc("emit_log", func(ls *lua.LState) int {
		parts := make([]string, 0, ls.GetTop())
		for i := 1; i <= ls.GetTop(); i++ {
			parts = append(parts, ls.ToStringMeta(ls.Get(i)).String())
		}
		x.printf("  %s\n", strings.Join(parts, " "))
		return 0
	})

	if sc.Lua != "" {
		if err := L.DoString(sc.Lua); err != nil {
			L.Close()
			return fmt.Errorf("loading inline lua: %w", err)
		}
	}
	if path := sc.luaFilePath(); path != "" {
		if err := L.DoFile(path); err != nil {
			L.Close()
			return fmt.Errorf("loading %s: %w", path, err)
		}
	}
	return nil
}

func (x *run) handler(h Handler) (emitter.Callback, error) {
	switch h.Kind {
	case KindLog:
		msg := h.Message
		if msg == "" {
			msg = h.Name
		}
		return func(args ...any) error {
			x.printf("  [%s] %s%s\n", h.Name, msg, formatArgs(args))
			return nil
		}, nil
	case KindLua:
		if x.lua == nil {
			return nil, script.ErrStateClosed
		}
		return x.lua.Callback(h.Function)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownKind, h.Kind)
	}
}

// counted wraps cb so every invocation is tallied.
func (x *run) counted(cb emitter.Callback) emitter.Callback {
	return func(args ...any) error {
		x.invocations++
		return cb(args...)
	}
}

func (x *run) step(step Step) error {
	switch step.Op {
	case OpOn:
		cb, ok := x.callbacks[step.Handler]
		if !ok {
			return fmt.Errorf("%w %q", ErrUnknownHandler, step.Handler)
		}
		x.printf("on %s -> %s\n", step.ID, step.Handler)
		return x.em.On(step.ID, cb)
	case OpOff:
		x.printf("off %s\n", step.ID)
		return x.em.Off(step.ID)
	case OpEmit:
		x.printf("emit %s%s\n", step.ID, formatArgs(step.Args))
		return x.em.Emit(step.ID, step.Args...)
	default:
		return fmt.Errorf("%w %q", ErrUnknownOp, step.Op)
	}
}

func (x *run) printf(format string, args ...any) {
	fmt.Fprintf(x.r.out, format, args...)
}

func formatArgs(args []any) string {
	if len(args) == 0 {
		return ""
	}
	return fmt.Sprintf(" %v", args)
}

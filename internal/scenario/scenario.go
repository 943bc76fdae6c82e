// Package scenario loads and runs scripted emitter sessions.
//
// A scenario is a TOML (or YAML) file listing named handlers and a sequence of
// on/off/emit steps. Running it against a fresh emitter produces a
// transcript and a report, and emit steps may state how many callback
// invocations they expect.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/dshills/nsemit/internal/emitter/ident"
)

// Step operations.
const (
	OpOn   = "on"
	OpOff  = "off"
	OpEmit = "emit"
)

// Handler kinds.
const (
	KindLog = "log"
	KindLua = "lua"
)

// Validation errors.
var (
	ErrUnknownOp      = errors.New("unknown step op")
	ErrUnknownKind    = errors.New("unknown handler kind")
	ErrUnknownHandler = errors.New("unknown handler")
	ErrDuplicateName  = errors.New("duplicate handler name")
	ErrMissingField   = errors.New("missing field")
)

// Scenario is a parsed scenario file.
type Scenario struct {
	// Name labels the transcript.
	Name string `toml:"name" yaml:"name"`

	// Lua is inline Lua source loaded before any step runs.
	Lua string `toml:"lua" yaml:"lua"`

	// LuaFile is a Lua file loaded after Lua, relative to the scenario file.
	LuaFile string `toml:"lua_file" yaml:"lua_file"`

	Handlers []Handler `toml:"handlers" yaml:"handlers"`
	Steps    []Step    `toml:"steps" yaml:"steps"`

	// dir is the directory relative paths resolve against.
	dir string
}

// Handler declares a named callback.
type Handler struct {
	Name string `toml:"name" yaml:"name"`
	Kind string `toml:"kind" yaml:"kind"`

	// Message is written by log handlers, followed by the arguments.
	Message string `toml:"message" yaml:"message"`

	// Function is the global Lua function run by lua handlers.
	Function string `toml:"function" yaml:"function"`
}

// Step is one emitter operation.
type Step struct {
	Op      string `toml:"op" yaml:"op"`
	ID      string `toml:"id" yaml:"id"`
	Handler string `toml:"handler" yaml:"handler"`
	Args    []any  `toml:"args" yaml:"args"`

	// Expect is the number of callback invocations an emit step must
	// cause. Nil skips the check.
	Expect *int `toml:"expect" yaml:"expect"`
}

// ParseError represents a scenario file that could not be decoded.
type ParseError struct {
	Path    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// StepError reports a step that is invalid or failed while running.
type StepError struct {
	// Index is the zero-based position of the step.
	Index int
	Op    string
	ID    string
	Err   error
}

// Error implements the error interface.
func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s %s): %v", e.Index+1, e.Op, e.ID, e.Err)
}

// Unwrap returns the underlying error.
func (e *StepError) Unwrap() error {
	return e.Err
}

// Load reads, decodes and validates the scenario at path. Files ending in
// .yaml or .yml are decoded as YAML, anything else as TOML.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario %s: %w", path, err)
	}

	decode := toml.Unmarshal
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		decode = yaml.Unmarshal
	}

	sc, err := parse(path, data, decode)
	if err != nil {
		return nil, err
	}
	sc.dir = filepath.Dir(path)
	return sc, nil
}

// Parse decodes and validates TOML scenario data. Relative paths resolve
// against the working directory.
func Parse(data []byte) (*Scenario, error) {
	return parse("<data>", data, toml.Unmarshal)
}

// ParseYAML is like Parse for YAML data.
func ParseYAML(data []byte) (*Scenario, error) {
	return parse("<data>", data, yaml.Unmarshal)
}

func parse(source string, data []byte, decode func([]byte, any) error) (*Scenario, error) {
	var sc Scenario
	if err := decode(data, &sc); err != nil {
		return nil, &ParseError{
			Path:    source,
			Message: err.Error(),
			Err:     err,
		}
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks handler declarations and every step.
func (sc *Scenario) Validate() error {
	var errs []error

	handlers := make(map[string]bool, len(sc.Handlers))
	for _, h := range sc.Handlers {
		switch {
		case h.Name == "":
			errs = append(errs, fmt.Errorf("handler: %w: name", ErrMissingField))
			continue
		case handlers[h.Name]:
			errs = append(errs, fmt.Errorf("handler %q: %w", h.Name, ErrDuplicateName))
			continue
		}
		handlers[h.Name] = true

		switch h.Kind {
		case KindLog:
		case KindLua:
			if h.Function == "" {
				errs = append(errs, fmt.Errorf("handler %q: %w: function", h.Name, ErrMissingField))
			}
		default:
			errs = append(errs, fmt.Errorf("handler %q: %w %q", h.Name, ErrUnknownKind, h.Kind))
		}
	}

	for i, step := range sc.Steps {
		if err := validateStep(step, handlers); err != nil {
			errs = append(errs, &StepError{Index: i, Op: step.Op, ID: step.ID, Err: err})
		}
	}

	return errors.Join(errs...)
}

func validateStep(step Step, handlers map[string]bool) error {
	switch step.Op {
	case OpOn:
		if _, err := ident.Parse(step.ID); err != nil {
			return err
		}
		if !handlers[step.Handler] {
			return fmt.Errorf("%w %q", ErrUnknownHandler, step.Handler)
		}
	case OpOff:
		if _, err := ident.ParseSelector(step.ID); err != nil {
			return err
		}
	case OpEmit:
		if _, err := ident.Parse(step.ID); err != nil {
			return err
		}
		if step.Expect != nil && *step.Expect < 0 {
			return fmt.Errorf("expect must not be negative, got %d", *step.Expect)
		}
	default:
		return fmt.Errorf("%w %q", ErrUnknownOp, step.Op)
	}
	return nil
}

// NeedsLua returns true if any handler is implemented in Lua.
func (sc *Scenario) NeedsLua() bool {
	for _, h := range sc.Handlers {
		if h.Kind == KindLua {
			return true
		}
	}
	return sc.Lua != "" || sc.LuaFile != ""
}

// luaFilePath resolves LuaFile against the scenario directory.
func (sc *Scenario) luaFilePath() string {
	if sc.LuaFile == "" || filepath.IsAbs(sc.LuaFile) {
		return sc.LuaFile
	}
	return filepath.Join(sc.dir, sc.LuaFile)
}

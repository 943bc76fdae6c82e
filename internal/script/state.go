package script

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/nsemit/internal/emitter"
)

// State wraps gopher-lua for running callback scripts.
type State struct {
	L *lua.LState

	bridge *Bridge
	closed bool
}

// NewState creates a new sandboxed Lua state.
func NewState() (*State, error) {
	L := lua.NewState(lua.Options{
		SkipOpenLibs: true,
	})
	openSafeLibraries(L)

	return &State{
		L:      L,
		bridge: NewBridge(L),
	}, nil
}

// openSafeLibraries opens only safe Lua standard libraries.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	// io, os, debug and package are never opened, and nothing may load code.
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
}

// DoString executes a Lua chunk.
func (s *State) DoString(code string) error {
	if s.closed {
		return ErrStateClosed
	}
	return s.doWithRecovery(func() error {
		return s.L.DoString(code)
	})
}

// DoFile executes a Lua file.
func (s *State) DoFile(path string) error {
	if s.closed {
		return ErrStateClosed
	}
	return s.doWithRecovery(func() error {
		return s.L.DoFile(path)
	})
}

func (s *State) doWithRecovery(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// Call calls a global Lua function with Go arguments and returns its
// results converted to Go values.
func (s *State) Call(name string, args ...any) ([]any, error) {
	fn, err := s.function(name)
	if err != nil {
		return nil, err
	}
	return s.call(fn, lua.MultRet, args)
}

func (s *State) call(fn *lua.LFunction, nret int, args []any) ([]any, error) {
	if s.closed {
		return nil, ErrStateClosed
	}

	top := s.L.GetTop()
	largs := make([]lua.LValue, len(args))
	for i, arg := range args {
		largs[i] = s.bridge.ToLuaValue(arg)
	}

	err := s.doWithRecovery(func() error {
		return s.L.CallByParam(lua.P{Fn: fn, NRet: nret, Protect: true}, largs...)
	})
	if err != nil {
		return nil, err
	}

	n := s.L.GetTop() - top
	results := make([]any, 0, max(n, 0))
	for i := 1; i <= n; i++ {
		results = append(results, s.bridge.ToGoValue(s.L.Get(top+i)))
	}
	if n > 0 {
		s.L.Pop(n)
	}
	return results, nil
}

func (s *State) function(name string) (*lua.LFunction, error) {
	if s.closed {
		return nil, ErrStateClosed
	}
	fn, ok := s.L.GetGlobal(name).(*lua.LFunction)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFunction, name)
	}
	return fn, nil
}

// Callback adapts the global Lua function name into an emitter callback.
// The function must exist when Callback is called. Emitted arguments are
// converted to Lua values; a Lua error becomes the callback's error.
func (s *State) Callback(name string) (emitter.Callback, error) {
	fn, err := s.function(name)
	if err != nil {
		return nil, err
	}
	return s.FuncCallback(fn), nil
}

// FuncCallback adapts a Lua function value into an emitter callback.
func (s *State) FuncCallback(fn *lua.LFunction) emitter.Callback {
	return func(args ...any) error {
		_, err := s.call(fn, 0, args)
		return err
	}
}

// RegisterFunc registers a Go function as a global Lua function.
func (s *State) RegisterFunc(name string, fn lua.LGFunction) {
	if s.closed {
		return
	}
	s.L.SetGlobal(name, s.L.NewFunction(fn))
}

// RegisterModule registers a global table holding the given functions.
func (s *State) RegisterModule(name string, funcs map[string]lua.LGFunction) {
	if s.closed {
		return
	}
	s.L.SetGlobal(name, s.L.SetFuncs(s.L.NewTable(), funcs))
}

// Bridge returns the value bridge of the state.
func (s *State) Bridge() *Bridge {
	return s.bridge
}

// Close releases all resources associated with the Lua state.
// After Close is called, all other methods return ErrStateClosed.
func (s *State) Close() error {
	if s.closed {
		return nil
	}
	s.L.Close()
	s.closed = true
	return nil
}

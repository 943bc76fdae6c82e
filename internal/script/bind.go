package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/nsemit/internal/emitter"
)

// BindEmitter exposes e to scripts as the global table "emitter":
//
//	emitter.on(id, fn)       -- register a Lua function
//	emitter.off(id)          -- remove registrations
//	emitter.emit(id, ...)    -- dispatch with arguments
//
// Failures raise Lua errors.
func (s *State) BindEmitter(e *emitter.Emitter) {
	s.RegisterModule("emitter", map[string]lua.LGFunction{
		"on": func(L *lua.LState) int {
			id := L.CheckString(1)
			fn := L.CheckFunction(2)
			if err := e.On(id, s.FuncCallback(fn)); err != nil {
				L.RaiseError("%s", err.Error())
			}
			return 0
		},
		"off": func(L *lua.LState) int {
			if err := e.Off(L.CheckString(1)); err != nil {
				L.RaiseError("%s", err.Error())
			}
			return 0
		},
		"emit": func(L *lua.LState) int {
			id := L.CheckString(1)
			args := make([]any, 0, L.GetTop()-1)
			for i := 2; i <= L.GetTop(); i++ {
				args = append(args, s.bridge.ToGoValue(L.Get(i)))
			}
			if err := e.Emit(id, args...); err != nil {
				L.RaiseError("%s", err.Error())
			}
			return 0
		},
	})
}

// Package script provides Lua-scripted emitter callbacks.
//
// A State is a sandboxed gopher-lua interpreter: only the base, table,
// string and math libraries are opened, and the base functions that load
// code from files or strings are removed. Global Lua functions can be
// adapted into emitter callbacks, and an emitter can be bound into the
// state so scripts register and emit events themselves:
//
//	s, _ := script.NewState()
//	defer s.Close()
//
//	s.DoString(`
//	    function onState(state) print("state", state) end
//	    emitter.on("PlayerCreated.player1", function() emitter.emit("PlayerStateChange", 1) end)
//	`)
//
//	cb, _ := s.Callback("onState")
//	e.On("PlayerStateChange", cb)
//
// IMPORTANT: gopher-lua's LState is not goroutine-safe, and neither is
// State. Callbacks created from a State must only be run from one goroutine
// at a time. Nested calls (a Lua callback emitting an event that reaches
// another Lua callback) are supported.
package script

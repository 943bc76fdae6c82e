package script

import (
	"fmt"
	"reflect"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// Bridge converts values between Go and Lua.
type Bridge struct {
	L *lua.LState
}

// NewBridge creates a new Bridge for the given Lua state.
func NewBridge(L *lua.LState) *Bridge {
	return &Bridge{L: L}
}

// ToGoValue converts a Lua value to a Go value. Integral numbers become
// int64, other numbers float64. Sequences become []any and other tables
// map[string]any.
func (b *Bridge) ToGoValue(lv lua.LValue) any {
	return b.toGoValue(lv, make(map[*lua.LTable]bool))
}

func (b *Bridge) toGoValue(lv lua.LValue, visited map[*lua.LTable]bool) any {
	switch v := lv.(type) {
	case nil:
		return nil
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		f := float64(v)
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(v)
	case *lua.LTable:
		// Only tables on the current path are cycles; shared tables are
		// converted at every appearance.
		if visited[v] {
			return nil
		}
		visited[v] = true
		defer delete(visited, v)
		return b.tableToGo(v, visited)
	case *lua.LUserData:
		return v.Value
	default:
		return nil
	}
}

func (b *Bridge) tableToGo(t *lua.LTable, visited map[*lua.LTable]bool) any {
	n := t.Len()
	count := 0
	t.ForEach(func(_, _ lua.LValue) {
		count++
	})

	if n > 0 && n == count {
		arr := make([]any, n)
		for i := 1; i <= n; i++ {
			arr[i-1] = b.toGoValue(t.RawGetInt(i), visited)
		}
		return arr
	}

	m := make(map[string]any, count)
	t.ForEach(func(k, v lua.LValue) {
		var key string
		switch kv := k.(type) {
		case lua.LString:
			key = string(kv)
		case lua.LNumber:
			key = fmt.Sprintf("%v", float64(kv))
		default:
			key = k.String()
		}
		m[key] = b.toGoValue(v, visited)
	})
	return m
}

// ToLuaValue converts a Go value to a Lua value. Numbers of any kind become
// Lua numbers, slices and arrays become sequences, maps and structs become
// tables. Values with no Lua counterpart, such as funcs and channels, are
// wrapped in userdata. A pointer, map or slice that refers back to itself
// is converted to nil at the point of recursion.
func (b *Bridge) ToLuaValue(v any) lua.LValue {
	return b.toLuaValue(v, make(map[reference]bool))
}

// reference identifies a Go value that can take part in a cycle.
type reference struct {
	ptr uintptr
	typ reflect.Type
}

func (b *Bridge) toLuaValue(v any, visited map[reference]bool) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case lua.LValue:
		return val
	case []byte:
		return lua.LString(val)
	case error:
		return lua.LString(val.Error())
	}
	return b.reflectToLua(reflect.ValueOf(v), visited)
}

func (b *Bridge) reflectToLua(rv reflect.Value, visited map[reference]bool) lua.LValue {
	switch rv.Kind() {
	case reflect.Invalid:
		return lua.LNil
	case reflect.Bool:
		return lua.LBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return lua.LNumber(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return lua.LNumber(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return lua.LNumber(rv.Float())
	case reflect.String:
		return lua.LString(rv.String())

	case reflect.Interface:
		if rv.IsNil() {
			return lua.LNil
		}
		return b.toLuaValue(rv.Elem().Interface(), visited)

	case reflect.Pointer:
		if rv.IsNil() {
			return lua.LNil
		}
		ref := reference{ptr: rv.Pointer(), typ: rv.Type()}
		if visited[ref] {
			return lua.LNil
		}
		visited[ref] = true
		defer delete(visited, ref)
		return b.toLuaValue(rv.Elem().Interface(), visited)

	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.Len() > 0 {
			ref := reference{ptr: rv.Pointer(), typ: rv.Type()}
			if visited[ref] {
				return lua.LNil
			}
			visited[ref] = true
			defer delete(visited, ref)
		}
		t := b.L.CreateTable(rv.Len(), 0)
		for i := 0; i < rv.Len(); i++ {
			t.RawSetInt(i+1, b.toLuaValue(rv.Index(i).Interface(), visited))
		}
		return t

	case reflect.Map:
		ref := reference{ptr: rv.Pointer(), typ: rv.Type()}
		if visited[ref] {
			return lua.LNil
		}
		visited[ref] = true
		defer delete(visited, ref)

		t := b.L.CreateTable(0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			t.RawSet(b.toLuaValue(iter.Key().Interface(), visited), b.toLuaValue(iter.Value().Interface(), visited))
		}
		return t

	case reflect.Struct:
		return b.structToTable(rv, visited)

	default:
		ud := b.L.NewUserData()
		ud.Value = rv.Interface()
		return ud
	}
}

// structToTable converts a Go struct to a Lua table keyed by exported field
// names, or by the toml tag name when present.
func (b *Bridge) structToTable(rv reflect.Value, visited map[reference]bool) *lua.LTable {
	t := b.L.NewTable()
	rt := rv.Type()

	for i := 0; i < rv.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}

		name := field.Name
		if tag := field.Tag.Get("toml"); tag != "" && tag != "-" {
			if comma := strings.IndexByte(tag, ','); comma >= 0 {
				tag = tag[:comma]
			}
			if tag != "" {
				name = tag
			}
		}

		t.RawSetString(name, b.toLuaValue(rv.Field(i).Interface(), visited))
	}

	return t
}

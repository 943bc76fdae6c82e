package emitter

import (
	"fmt"
	"reflect"
)

// Callback is an event handler. Emitted arguments are passed through
// positionally. Returning an error fails the dispatch.
type Callback func(args ...any) error

var errorType = reflect.TypeFor[error]()

// Func adapts fn into a Callback. fn may be any function. Emitted arguments
// are matched to its parameters by position: missing arguments and nil
// arguments become zero values, surplus arguments are dropped unless fn is
// variadic, and numeric arguments are converted to numeric parameter types.
// If the last result of fn is an error it becomes the callback's error.
//
// Func returns ErrInvalidCallback if fn is nil or not a function.
func Func(fn any) (Callback, error) {
	switch f := fn.(type) {
	case nil:
		return nil, ErrInvalidCallback
	case Callback:
		if f == nil {
			return nil, ErrInvalidCallback
		}
		return f, nil
	case func(...any) error:
		if f == nil {
			return nil, ErrInvalidCallback
		}
		return f, nil
	case func(...any):
		if f == nil {
			return nil, ErrInvalidCallback
		}
		return func(args ...any) error {
			f(args...)
			return nil
		}, nil
	}

	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return nil, ErrInvalidCallback
	}

	t := v.Type()
	returnsError := t.NumOut() > 0 && t.Out(t.NumOut()-1) == errorType

	return func(args ...any) error {
		in, err := buildArgs(t, args)
		if err != nil {
			return err
		}
		out := v.Call(in)
		if returnsError {
			if last := out[len(out)-1]; !last.IsNil() {
				return last.Interface().(error)
			}
		}
		return nil
	}, nil
}

// buildArgs maps emitted arguments onto the parameters of t.
func buildArgs(t reflect.Type, args []any) ([]reflect.Value, error) {
	fixed := t.NumIn()
	if t.IsVariadic() {
		fixed--
	}

	in := make([]reflect.Value, 0, max(t.NumIn(), len(args)))
	for i := 0; i < fixed; i++ {
		pt := t.In(i)
		if i >= len(args) {
			in = append(in, reflect.Zero(pt))
			continue
		}
		v, err := argValue(args[i], pt, i)
		if err != nil {
			return nil, err
		}
		in = append(in, v)
	}

	if t.IsVariadic() {
		et := t.In(t.NumIn() - 1).Elem()
		for i := fixed; i < len(args); i++ {
			v, err := argValue(args[i], et, i)
			if err != nil {
				return nil, err
			}
			in = append(in, v)
		}
	}

	return in, nil
}

func argValue(arg any, t reflect.Type, pos int) (reflect.Value, error) {
	if arg == nil {
		return reflect.Zero(t), nil
	}
	v := reflect.ValueOf(arg)
	if v.Type().AssignableTo(t) {
		return v, nil
	}
	if isNumeric(v.Kind()) && isNumeric(t.Kind()) {
		return v.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("%w: argument %d is %s, want %s", ErrArgumentType, pos, v.Type(), t)
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

package emitter

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/nsemit/internal/emitter/dispatch"
	"github.com/dshills/nsemit/internal/logging"
)

// recorder collects the names of the callbacks it hands out as they run.
type recorder struct {
	calls []string
}

func (r *recorder) cb(name string) Callback {
	return func(args ...any) error {
		r.calls = append(r.calls, name)
		return nil
	}
}

func TestEmitter_ZeroValue(t *testing.T) {
	var e Emitter
	rec := &recorder{}

	require.NoError(t, e.On("event1", rec.cb("a")))
	require.NoError(t, e.Emit("event1"))
	assert.Equal(t, []string{"a"}, rec.calls)
}

func TestEmitter_OnEmit_Once(t *testing.T) {
	names := []string{"a", "Z", "0", "PlayerCreated", "event42"}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			e := New()
			count := 0
			require.NoError(t, e.On(name, func(args ...any) error {
				count++
				return nil
			}))
			require.NoError(t, e.Emit(name))
			assert.Equal(t, 1, count)
		})
	}
}

func TestEmitter_Emit_PassesArguments(t *testing.T) {
	e := New()
	type point struct{ Y int }

	var got []any
	require.NoError(t, e.On("evt", func(args ...any) error {
		got = args
		return nil
	}))

	require.NoError(t, e.Emit("evt", 1, "x", point{Y: 2}))
	assert.Equal(t, []any{1, "x", point{Y: 2}}, got)
}

func TestEmitter_Emit_AllNamespaces(t *testing.T) {
	e := New()
	rec := &recorder{}

	require.NoError(t, e.On("event2.ns1", rec.cb("cb1")))
	require.NoError(t, e.On("event2.ns2", rec.cb("cb2")))

	require.NoError(t, e.Emit("event2"))
	assert.ElementsMatch(t, []string{"cb1", "cb2"}, rec.calls)

	require.NoError(t, e.Off("event2.ns1"))
	rec.calls = nil
	require.NoError(t, e.Emit("event2"))
	assert.Equal(t, []string{"cb2"}, rec.calls)
}

func TestEmitter_Emit_SingleNamespace(t *testing.T) {
	e := New()
	rec := &recorder{}

	require.NoError(t, e.On("event2", rec.cb("plain")))
	require.NoError(t, e.On("event2.ns1", rec.cb("cb1")))
	require.NoError(t, e.On("event2.ns2", rec.cb("cb2")))

	require.NoError(t, e.Emit("event2.ns1"))
	assert.Equal(t, []string{"cb1"}, rec.calls)
}

func TestEmitter_Emit_RegistrationOrder(t *testing.T) {
	e := New()
	rec := &recorder{}

	require.NoError(t, e.On("evt.b", rec.cb("1")))
	require.NoError(t, e.On("evt", rec.cb("2")))
	require.NoError(t, e.On("evt.a", rec.cb("3")))
	require.NoError(t, e.On("evt.b", rec.cb("4")))

	require.NoError(t, e.Emit("evt"))
	assert.Equal(t, []string{"1", "2", "3", "4"}, rec.calls)
}

func TestEmitter_Emit_NoListeners(t *testing.T) {
	e := New()
	assert.NoError(t, e.Emit("nobody"))
	assert.NoError(t, e.Emit("nobody.home"))
}

func TestEmitter_DuplicateRegistration(t *testing.T) {
	e := New()
	count := 0
	cb := func(args ...any) error {
		count++
		return nil
	}

	require.NoError(t, e.On("name.ns", cb))
	require.NoError(t, e.On("name.ns", cb))
	require.NoError(t, e.Emit("name.ns"))

	assert.Equal(t, 2, count)
}

func TestEmitter_Off_EventName(t *testing.T) {
	e := New()
	rec := &recorder{}

	require.NoError(t, e.On("evt", rec.cb("plain")))
	require.NoError(t, e.On("evt.ns1", rec.cb("cb1")))
	require.NoError(t, e.On("evt.ns2", rec.cb("cb2")))
	require.NoError(t, e.On("other", rec.cb("other")))

	require.NoError(t, e.Off("evt"))
	require.NoError(t, e.Emit("evt"))
	assert.Empty(t, rec.calls)
	assert.Equal(t, 1, e.Len())
}

func TestEmitter_Off_Namespace(t *testing.T) {
	e := New()
	rec := &recorder{}

	require.NoError(t, e.On("event3a.namespace3", rec.cb("a")))
	require.NoError(t, e.On("event3b.namespace3", rec.cb("b")))
	require.NoError(t, e.On("event3b.other", rec.cb("keep")))
	require.NoError(t, e.On("event3b", rec.cb("plain")))

	require.NoError(t, e.Off(".namespace3"))

	require.NoError(t, e.Emit("event3a"))
	require.NoError(t, e.Emit("event3a.namespace3"))
	require.NoError(t, e.Emit("event3b.namespace3"))
	assert.Empty(t, rec.calls)

	require.NoError(t, e.Emit("event3b"))
	assert.ElementsMatch(t, []string{"keep", "plain"}, rec.calls)
}

func TestEmitter_Off_Unknown(t *testing.T) {
	e := New()
	assert.NoError(t, e.Off("missing"))
	assert.NoError(t, e.Off("missing.ns"))
	assert.NoError(t, e.Off(".ns"))
}

func TestEmitter_InvalidIdentifier(t *testing.T) {
	invalid := []string{"", "a..b", "a.b.c", "a b", ".", "a.", "*", "a.*"}

	for _, id := range invalid {
		t.Run(id, func(t *testing.T) {
			e := New()
			rec := &recorder{}
			require.NoError(t, e.On("a", rec.cb("a")))
			require.NoError(t, e.On("a.b", rec.cb("ab")))

			assert.ErrorIs(t, e.On(id, rec.cb("x")), ErrInvalidIdentifier)
			assert.ErrorIs(t, e.Off(id), ErrInvalidIdentifier)
			assert.ErrorIs(t, e.Emit(id), ErrInvalidIdentifier)

			assert.Equal(t, 2, e.Len())
			assert.Empty(t, rec.calls)
		})
	}
}

func TestEmitter_NamespaceOnlyRejected(t *testing.T) {
	e := New()
	rec := &recorder{}

	assert.ErrorIs(t, e.On(".ns", rec.cb("x")), ErrInvalidIdentifier)
	assert.ErrorIs(t, e.Emit(".ns"), ErrInvalidIdentifier)
	assert.Equal(t, 0, e.Len())
}

func TestEmitter_InvalidCallback(t *testing.T) {
	e := New()

	assert.ErrorIs(t, e.On("evt", nil), ErrInvalidCallback)

	var nilCb Callback
	assert.ErrorIs(t, e.On("evt", nilCb), ErrInvalidCallback)

	assert.ErrorIs(t, e.OnFunc("evt", nil), ErrInvalidCallback)
	assert.ErrorIs(t, e.OnFunc("evt", 42), ErrInvalidCallback)
	assert.ErrorIs(t, e.OnFunc("evt", "not a function"), ErrInvalidCallback)

	var nilFn func(int)
	assert.ErrorIs(t, e.OnFunc("evt", nilFn), ErrInvalidCallback)

	assert.Equal(t, 0, e.Len())
}

func TestEmitter_CallbackCheckedBeforeIdentifier(t *testing.T) {
	e := New()
	assert.ErrorIs(t, e.On("a b", nil), ErrInvalidCallback)
}

func TestEmitter_FailFast(t *testing.T) {
	e := New()
	rec := &recorder{}
	boom := errors.New("boom")

	require.NoError(t, e.On("evt", rec.cb("first")))
	require.NoError(t, e.On("evt", func(args ...any) error { return boom }))
	require.NoError(t, e.On("evt", rec.cb("never")))

	err := e.Emit("evt")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var cbErr *CallbackError
	require.ErrorAs(t, err, &cbErr)
	assert.Equal(t, "evt", cbErr.Event)
	assert.NotEmpty(t, cbErr.RegistrationID)

	assert.Equal(t, []string{"first"}, rec.calls)
	assert.Equal(t, uint64(1), e.Stats().Skipped)
}

func TestEmitter_FailFast_PanicPropagates(t *testing.T) {
	e := New()
	rec := &recorder{}

	require.NoError(t, e.On("evt", func(args ...any) error { panic("kaboom") }))
	require.NoError(t, e.On("evt", rec.cb("never")))

	assert.PanicsWithValue(t, "kaboom", func() { _ = e.Emit("evt") })
	assert.Empty(t, rec.calls)

	stats := e.Stats()
	assert.Equal(t, uint64(1), stats.Dispatched)
	assert.Equal(t, uint64(1), stats.Panicked)
	assert.Equal(t, stats.Dispatched, stats.Succeeded+stats.Failed+stats.Panicked)

	// The emitter stays usable after a panic.
	require.NoError(t, e.On("other", rec.cb("other")))
	require.NoError(t, e.Emit("other"))
	assert.Equal(t, []string{"other"}, rec.calls)
}

func TestEmitter_Isolation(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.Config{Level: logging.LevelError, Output: &buf})
	e := New(WithIsolation(), WithLogger(logger))
	rec := &recorder{}
	boom := errors.New("boom")

	require.NoError(t, e.On("evt", func(args ...any) error { return boom }))
	require.NoError(t, e.On("evt", func(args ...any) error { panic("kaboom") }))
	require.NoError(t, e.On("evt", rec.cb("last")))

	err := e.Emit("evt")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, ErrCallbackPanic)
	assert.Equal(t, []string{"last"}, rec.calls)

	out := buf.String()
	assert.Contains(t, out, "callback failed: boom")
	assert.Contains(t, out, "callback panicked: kaboom")

	stats := e.Stats()
	assert.Equal(t, uint64(3), stats.Dispatched)
	assert.Equal(t, uint64(1), stats.Failed)
	assert.Equal(t, uint64(1), stats.Panicked)
	assert.Equal(t, uint64(1), stats.Succeeded)
}

func TestEmitter_Reentrant_OnDuringEmit(t *testing.T) {
	e := New()
	rec := &recorder{}

	require.NoError(t, e.On("evt", func(args ...any) error {
		rec.calls = append(rec.calls, "outer")
		return e.On("evt", rec.cb("added"))
	}))

	require.NoError(t, e.Emit("evt"))
	assert.Equal(t, []string{"outer"}, rec.calls)

	rec.calls = nil
	require.NoError(t, e.Emit("evt"))
	assert.Equal(t, []string{"outer", "added"}, rec.calls)
}

func TestEmitter_Reentrant_OffDuringEmit(t *testing.T) {
	e := New()
	rec := &recorder{}

	require.NoError(t, e.On("evt.a", func(args ...any) error {
		rec.calls = append(rec.calls, "remover")
		return e.Off("evt.b")
	}))
	require.NoError(t, e.On("evt.b", rec.cb("removed")))

	// The snapshot taken at Emit still delivers to the removed callback.
	require.NoError(t, e.Emit("evt"))
	assert.Equal(t, []string{"remover", "removed"}, rec.calls)

	rec.calls = nil
	require.NoError(t, e.Emit("evt"))
	assert.Equal(t, []string{"remover"}, rec.calls)
}

func TestEmitter_Reentrant_EmitDuringEmit(t *testing.T) {
	e := New()
	rec := &recorder{}

	require.NoError(t, e.On("outer", func(args ...any) error {
		rec.calls = append(rec.calls, "outer")
		return e.Emit("inner")
	}))
	require.NoError(t, e.On("inner", rec.cb("inner")))

	require.NoError(t, e.Emit("outer"))
	assert.Equal(t, []string{"outer", "inner"}, rec.calls)
}

func TestEmitter_ResetStats(t *testing.T) {
	e := New()
	require.NoError(t, e.On("evt", func(args ...any) error { return nil }))
	require.NoError(t, e.Emit("evt"))
	require.Equal(t, uint64(1), e.Stats().Succeeded)

	e.ResetStats()
	assert.Equal(t, dispatch.Stats{}, e.Stats())
}

func TestEmitter_Trigger(t *testing.T) {
	e := New()
	var got []any
	require.NoError(t, e.On("evt", func(args ...any) error {
		got = args
		return nil
	}))

	require.NoError(t, e.Trigger("evt", "a", 2))
	assert.Equal(t, []any{"a", 2}, got)
}

func TestEmitter_HasAndEvents(t *testing.T) {
	e := New()
	rec := &recorder{}

	require.NoError(t, e.On("b.ns", rec.cb("b")))
	require.NoError(t, e.On("a", rec.cb("a")))

	assert.True(t, e.Has("a"))
	assert.True(t, e.Has("b"))
	assert.True(t, e.Has("b.ns"))
	assert.False(t, e.Has("b.other"))
	assert.False(t, e.Has("a b"))
	assert.Equal(t, []string{"a", "b"}, e.Events())
}

func TestEmitter_DebugLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.Config{Level: logging.LevelDebug, Output: &buf})
	e := New(WithLogger(logger))

	require.NoError(t, e.On("evt.ns", func(args ...any) error { return nil }))
	require.NoError(t, e.Emit("evt"))
	require.NoError(t, e.Off(".ns"))

	out := buf.String()
	assert.Contains(t, out, "registered callback event=evt.ns")
	assert.Contains(t, out, "dispatching callbacks=1 event=evt")
	assert.Contains(t, out, "removed callbacks removed=1 selector=.ns")
}

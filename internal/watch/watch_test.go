package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func startWatcher(t *testing.T, w *Watcher) *atomic.Int32 {
	t.Helper()

	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func() { calls.Add(1) })
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("watcher did not stop")
		}
	})

	// Give the notifier time to register the directory.
	time.Sleep(50 * time.Millisecond)
	return &calls
}

func TestNew_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := New(filepath.Join(dir, "missing.toml"))
	assert.ErrorIs(t, err, ErrPathNotExist)

	_, err = New(dir)
	assert.ErrorIs(t, err, ErrIsDirectory)
}

func TestNew_Options(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.toml")
	writeFile(t, path, "")

	w, err := New(path, WithDelay(5*time.Millisecond), WithDelay(0), WithLogger(nil))
	require.NoError(t, err)
	assert.Equal(t, 5*time.Millisecond, w.delay)
	assert.NotNil(t, w.logger)
	assert.True(t, filepath.IsAbs(w.Path()))
}

func TestWatcher_NotifiesOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.toml")
	writeFile(t, path, "a")

	w, err := New(path, WithDelay(20*time.Millisecond))
	require.NoError(t, err)
	calls := startWatcher(t, w)

	writeFile(t, path, "b")
	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_Debounces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.toml")
	writeFile(t, path, "a")

	w, err := New(path, WithDelay(200*time.Millisecond))
	require.NoError(t, err)
	calls := startWatcher(t, w)

	for _, s := range []string{"b", "c", "d"} {
		writeFile(t, path, s)
	}

	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestWatcher_IgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.toml")
	writeFile(t, path, "a")

	w, err := New(path, WithDelay(10*time.Millisecond))
	require.NoError(t, err)
	calls := startWatcher(t, w)

	writeFile(t, filepath.Join(dir, "other.toml"), "x")
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}

func TestWatcher_StopsOnCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.toml")
	writeFile(t, path, "a")

	w, err := New(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, w.Run(ctx, func() {}))
}

func TestRelevant(t *testing.T) {
	w := &Watcher{path: "/tmp/x/s.toml"}

	assert.True(t, w.relevant(fsnotify.Event{Name: "/tmp/x/s.toml", Op: fsnotify.Write}))
	assert.True(t, w.relevant(fsnotify.Event{Name: "/tmp/x/s.toml", Op: fsnotify.Create}))
	assert.False(t, w.relevant(fsnotify.Event{Name: "/tmp/x/s.toml", Op: fsnotify.Chmod}))
	assert.False(t, w.relevant(fsnotify.Event{Name: "/tmp/x/other.toml", Op: fsnotify.Write}))
}

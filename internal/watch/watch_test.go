// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// start runs w in the background and returns a channel that receives one
// value per fn call, plus a stop function that waits for Run to return.
func start(t *testing.T, w *Watcher, fail bool) (<-chan struct{}, func()) {
	t.Helper()
	calls := make(chan struct{}, 16)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(context.Context) error {
			calls <- struct{}{}
			if fail {
				return errors.New("boom")
			}
			return nil
		})
	}()
	return calls, func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("watcher did not stop")
		}
	}
}

func wait(t *testing.T, calls <-chan struct{}) {
	t.Helper()
	select {
	case <-calls:
	case <-time.After(5 * time.Second):
		t.Fatal("expected a run")
	}
}

func quiet(t *testing.T, calls <-chan struct{}, d time.Duration) {
	t.Helper()
	select {
	case <-calls:
		t.Fatal("unexpected run")
	case <-time.After(d):
	}
}

func TestRunsOnStartAndAfterChanges(t *testing.T) {
	dir := t.TempDir()
	w := &Watcher{Dirs: []string{dir}, Debounce: 100 * time.Millisecond}
	calls, stop := start(t, w, false)
	defer stop()

	wait(t, calls)

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "oak-laser-cleaning.yaml"), []byte(strings.Repeat("x", i)), 0o644))
	}
	wait(t, calls)
	quiet(t, calls, 300*time.Millisecond)
}

func TestWatchesNewSubdirectories(t *testing.T) {
	dir := t.TempDir()
	w := &Watcher{Dirs: []string{dir}, Debounce: 50 * time.Millisecond}
	calls, stop := start(t, w, false)
	defer stop()
	wait(t, calls)

	sub := filepath.Join(dir, "metals")
	require.NoError(t, os.Mkdir(sub, 0o755))
	wait(t, calls)

	require.NoError(t, os.WriteFile(filepath.Join(sub, "tin-laser-cleaning.yaml"), []byte("name: Tin\n"), 0o644))
	wait(t, calls)
}

func TestIgnoredPaths(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(out, 0o755))

	w := &Watcher{
		Dirs:     []string{dir, out},
		Debounce: 50 * time.Millisecond,
		Ignore:   func(p string) bool { return strings.HasPrefix(p, out) },
	}
	calls, stop := start(t, w, false)
	defer stop()
	wait(t, calls)

	require.NoError(t, os.WriteFile(filepath.Join(out, "tin-laser-cleaning.yaml"), []byte("x"), 0o644))
	quiet(t, calls, 300*time.Millisecond)
}

func TestErrorsDoNotStopWatching(t *testing.T) {
	dir := t.TempDir()
	w := &Watcher{Dirs: []string{dir}, Debounce: 50 * time.Millisecond}
	calls, stop := start(t, w, true)
	defer stop()
	wait(t, calls)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("x"), 0o644))
	wait(t, calls)
}

func TestMissingDirectory(t *testing.T) {
	w := &Watcher{Dirs: []string{filepath.Join(t.TempDir(), "missing")}}
	var n atomic.Int32
	err := w.Run(context.Background(), func(context.Context) error {
		n.Add(1)
		return nil
	})
	assert.Error(t, err)
	assert.Zero(t, n.Load())
}

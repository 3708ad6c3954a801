package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// waitForBatch receives one batch or fails the test after the timeout.
func waitForBatch(t *testing.T, w *Watcher, timeout time.Duration) Batch {
	t.Helper()
	select {
	case batch, ok := <-w.Batches():
		require.True(t, ok, "batch channel closed unexpectedly")
		return batch
	case <-time.After(timeout):
		t.Fatal("timed out waiting for a change batch")
		return nil
	}
}

// expectNoBatch asserts that nothing arrives within the window.
func expectNoBatch(t *testing.T, w *Watcher, window time.Duration) {
	t.Helper()
	select {
	case batch := <-w.Batches():
		t.Fatalf("unexpected batch: %v", batch)
	case <-time.After(window):
	}
}

// TestWatcherCoalescesBurst verifies that multiple rapid writes produce a
// single batch containing all changed paths.
func TestWatcherCoalescesBurst(t *testing.T) {
	dir := t.TempDir()

	w, err := New(dir, 100*time.Millisecond, zap.NewNop())
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	a := filepath.Join(dir, "handlers.py")
	b := filepath.Join(dir, "models.py")
	require.NoError(t, os.WriteFile(a, []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("b"), 0o644))

	batch := waitForBatch(t, w, 3*time.Second)
	assert.Contains(t, batch, a)
	assert.Contains(t, batch, b)

	// The burst must not produce a second batch.
	expectNoBatch(t, w, 300*time.Millisecond)
}

// TestWatcherPicksUpNewDirectories verifies that a directory created
// after the watcher starts is registered and its files are observed.
func TestWatcherPicksUpNewDirectories(t *testing.T) {
	dir := t.TempDir()

	w, err := New(dir, 100*time.Millisecond, zap.NewNop())
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	sub := filepath.Join(dir, "webhook")
	require.NoError(t, os.Mkdir(sub, 0o755))

	// Give the event loop a moment to register the new directory before
	// writing into it.
	time.Sleep(300 * time.Millisecond)

	file := filepath.Join(sub, "prodamus.py")
	require.NoError(t, os.WriteFile(file, []byte("app = ..."), 0o644))

	batch := waitForBatch(t, w, 3*time.Second)
	assert.Contains(t, batch, file)
}

// TestWatcherIgnoresJunk verifies that hidden files, editor swap files,
// and bytecode do not trigger restarts.
func TestWatcherIgnoresJunk(t *testing.T) {
	dir := t.TempDir()

	w, err := New(dir, 100*time.Millisecond, zap.NewNop())
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	for _, name := range []string{".env", "prodamus.py.swp", "backup~", "models.pyc"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	expectNoBatch(t, w, 500*time.Millisecond)
}

// TestWatcherClose verifies that Close shuts the batch channel down.
func TestWatcherClose(t *testing.T) {
	w, err := New(t.TempDir(), 50*time.Millisecond, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, w.Close())

	select {
	case _, ok := <-w.Batches():
		assert.False(t, ok, "channel should be closed after Close")
	case <-time.After(2 * time.Second):
		t.Fatal("batch channel not closed after Close")
	}
}

package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// changeRecorder collects paths the watcher reports.
type changeRecorder struct {
	mu    sync.Mutex
	paths []string
}

func (c *changeRecorder) record(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths = append(c.paths, path)
}

func (c *changeRecorder) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.paths...)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestWatcher_FiresAfterDebounce(t *testing.T) {
	dir := t.TempDir()
	rec := &changeRecorder{}

	w, err := New([]string{dir}, rec.record)
	require.NoError(t, err)
	w.SetDebounce(30 * time.Millisecond)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	target := filepath.Join(dir, "page.rst")
	require.NoError(t, os.WriteFile(target, []byte("Title\n=====\n"), 0644))

	waitFor(t, 3*time.Second, func() bool {
		return len(rec.snapshot()) > 0
	})
	assert.Contains(t, rec.snapshot(), target)

	stats := w.Stats()
	assert.Greater(t, stats.Rebuilds, 0)
	assert.Equal(t, target, stats.LastEventPath)
}

func TestWatcher_CoalescesRapidWrites(t *testing.T) {
	dir := t.TempDir()
	rec := &changeRecorder{}

	w, err := New([]string{dir}, rec.record)
	require.NoError(t, err)
	w.SetDebounce(100 * time.Millisecond)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	target := filepath.Join(dir, "page.rst")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(target, []byte("Title\n=====\n"), 0644))
		time.Sleep(10 * time.Millisecond)
	}

	waitFor(t, 3*time.Second, func() bool {
		return len(rec.snapshot()) > 0
	})
	// Rapid saves within the window settle into a single notification.
	assert.Len(t, rec.snapshot(), 1)
}

func TestWatcher_PicksUpNewDirectories(t *testing.T) {
	dir := t.TempDir()
	rec := &changeRecorder{}

	w, err := New([]string{dir}, rec.record)
	require.NoError(t, err)
	w.SetDebounce(30 * time.Millisecond)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	sub := filepath.Join(dir, "guide")
	require.NoError(t, os.Mkdir(sub, 0755))

	// Give the watcher a beat to register the new tree.
	waitFor(t, 3*time.Second, func() bool {
		return len(rec.snapshot()) > 0
	})

	target := filepath.Join(sub, "new.rst")
	require.NoError(t, os.WriteFile(target, []byte("New\n===\n"), 0644))

	waitFor(t, 3*time.Second, func() bool {
		for _, p := range rec.snapshot() {
			if p == target {
				return true
			}
		}
		return false
	})
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	w, err := New([]string{dir}, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	w.Stop()
	w.Stop()
}

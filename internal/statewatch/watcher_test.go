package statewatch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherFiresOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.db")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0644))

	var fired atomic.Int32
	w, err := New(path, func() { fired.Add(1) })
	require.NoError(t, err)
	w.SetDebounce(10 * time.Millisecond)
	w.Start(context.Background())
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("b"), 0644))

	require.Eventually(t, func() bool { return fired.Load() > 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestWatcherDebouncesBurst(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.db")

	var fired atomic.Int32
	w, err := New(path, func() { fired.Add(1) })
	require.NoError(t, err)
	w.SetDebounce(200 * time.Millisecond)
	w.Start(context.Background())
	defer w.Stop()

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path+"-wal", []byte{byte(i)}, 0644))
	}

	require.Eventually(t, func() bool { return fired.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.db")

	var fired atomic.Int32
	w, err := New(path, func() { fired.Add(1) })
	require.NoError(t, err)
	w.SetDebounce(10 * time.Millisecond)
	w.Start(context.Background())
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "debug.log"), []byte("x"), 0644))
	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, fired.Load())
}

func TestMatches(t *testing.T) {
	w := &Watcher{base: "state.db"}
	assert.True(t, w.matches("/x/state.db"))
	assert.True(t, w.matches("/x/state.db-wal"))
	assert.True(t, w.matches("/x/state.db-journal"))
	assert.False(t, w.matches("/x/state.dbx"))
	assert.False(t, w.matches("/x/debug.log"))
}

func TestNewMissingDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope", "state.db"), func() {})
	assert.Error(t, err)
}

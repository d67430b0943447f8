package vocab

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestWatcher_RefreshesOnChange(t *testing.T) {
	defer goleak.VerifyNone(t)

	root, base := newRoot(t)
	writeFile(t, filepath.Join(base, "nested", "shape.txt"), "circle\n")
	store := NewStore(root, DefaultOptions())
	_, err := store.Snapshot(context.Background())
	require.NoError(t, err)

	var latest atomic.Pointer[Snapshot]
	w, err := NewWatcher(store, 50*time.Millisecond, func(s *Snapshot) {
		latest.Store(s)
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	assert.True(t, w.IsWatching())
	assert.Contains(t, w.WatchedDirs(), filepath.Join(base, "nested"))

	writeFile(t, filepath.Join(base, "nested", "animal.txt"), "cat\n")

	require.Eventually(t, func() bool {
		s := latest.Load()
		return s != nil && s.Mapping.Has("animal")
	}, 5*time.Second, 20*time.Millisecond)

	assert.Same(t, latest.Load(), store.Current())
	stats := w.Stats()
	assert.GreaterOrEqual(t, stats.Events, 1)
	assert.GreaterOrEqual(t, stats.Reloads, 1)

	w.Stop()
	assert.False(t, w.IsWatching())
	w.Stop()
}

func TestWatcher_StartIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	root, _ := newRoot(t)
	w, err := NewWatcher(NewStore(root, DefaultOptions()), 0, nil)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, w.Start(ctx))
	require.NoError(t, w.Start(ctx))
	w.Stop()
}

func TestWatcher_StopIsTerminal(t *testing.T) {
	defer goleak.VerifyNone(t)

	root, _ := newRoot(t)
	w, err := NewWatcher(NewStore(root, DefaultOptions()), 0, nil)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, w.Start(ctx))
	w.Stop()

	assert.ErrorIs(t, w.Start(ctx), ErrWatcherStopped)
	assert.False(t, w.IsWatching())
	w.Stop()
}

func TestWatcher_StopWithoutStart(t *testing.T) {
	defer goleak.VerifyNone(t)

	root, _ := newRoot(t)
	w, err := NewWatcher(NewStore(root, DefaultOptions()), 0, nil)
	require.NoError(t, err)

	w.Stop()
	assert.ErrorIs(t, w.Start(context.Background()), ErrWatcherStopped)
}

func TestWatcher_ContextCancelEndsLoop(t *testing.T) {
	defer goleak.VerifyNone(t)

	root, _ := newRoot(t)
	w, err := NewWatcher(NewStore(root, DefaultOptions()), 0, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))
	assert.True(t, w.IsWatching())

	cancel()
	require.Eventually(t, func() bool { return !w.IsWatching() }, 5*time.Second, 10*time.Millisecond)
	w.Stop()
}

package model

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/BinToss/DeadLock/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWatchedPath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	wp, err := NewWatchedPath(file)
	require.NoError(t, err)
	assert.Equal(t, file, wp.Path())
	assert.False(t, wp.IsDir())
	assert.Equal(t, StatusUnknown, wp.Status())
	assert.Equal(t, OwnershipUnknown, wp.Ownership())
	assert.False(t, wp.CancelRequested())

	wd, err := NewWatchedPath(dir)
	require.NoError(t, err)
	assert.True(t, wd.IsDir())
}

func TestNewWatchedPathMissing(t *testing.T) {
	wp, err := NewWatchedPath(filepath.Join(t.TempDir(), "missing"))
	assert.Nil(t, wp)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestNewWatchedPathMakesAbsolute(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile("rel.txt", nil, 0o644))

	wp, err := NewWatchedPath("rel.txt")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(wp.Path()))
	assert.Equal(t, "rel.txt", filepath.Base(wp.Path()))
}

func TestWatchedPathRevisionAndSubscribe(t *testing.T) {
	wp, err := NewWatchedPath(t.TempDir())
	require.NoError(t, err)

	var got []Change
	unsubscribe := wp.Subscribe(func(c Change) { got = append(got, c) })

	wp.SetStatus(StatusLocked)
	wp.SetStatus(StatusLocked) // unchanged, no event
	wp.SetOwnership(OwnershipDenied)
	wp.RequestCancel()

	require.Len(t, got, 3)
	assert.Equal(t, FieldStatus, got[0].Field)
	assert.Equal(t, FieldOwnership, got[1].Field)
	assert.Equal(t, FieldCancel, got[2].Field)
	assert.Equal(t, uint64(3), got[2].Revision)
	assert.Equal(t, uint64(3), wp.Revision())

	unsubscribe()
	wp.SetStatus(StatusUnlocked)
	assert.Len(t, got, 3)
	assert.Equal(t, uint64(4), wp.Revision())
}

func TestWatchedPathSubscriberMayReadState(t *testing.T) {
	wp, err := NewWatchedPath(t.TempDir())
	require.NoError(t, err)

	var seen Status
	wp.Subscribe(func(Change) { seen = wp.Status() })
	wp.SetStatus(StatusUnlocked)
	assert.Equal(t, StatusUnlocked, seen)
}

func TestWatchedPathScanGuard(t *testing.T) {
	wp, err := NewWatchedPath(t.TempDir())
	require.NoError(t, err)

	require.True(t, wp.BeginScan())
	assert.True(t, wp.Scanning())
	assert.False(t, wp.BeginScan())
	wp.EndScan()
	assert.False(t, wp.Scanning())
	assert.True(t, wp.BeginScan())
}

func TestWatchedPathConcurrentAccess(t *testing.T) {
	wp, err := NewWatchedPath(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if (i+j)%2 == 0 {
					wp.SetStatus(StatusLocked)
				} else {
					wp.SetStatus(StatusUnlocked)
				}
				_ = wp.Revision()
			}
		}(i)
	}
	wg.Wait()
	assert.NotEqual(t, StatusUnknown, wp.Status())
}

func TestStatusText(t *testing.T) {
	for _, s := range []Status{StatusUnknown, StatusLocked, StatusUnlocked} {
		b, err := s.MarshalText()
		require.NoError(t, err)
		var back Status
		require.NoError(t, back.UnmarshalText(b))
		assert.Equal(t, s, back)
	}
	var s Status
	assert.Error(t, s.UnmarshalText([]byte("Ajar")))
}

package locker

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BinToss/DeadLock/internal/errors"
	"github.com/BinToss/DeadLock/internal/proc"
	"github.com/BinToss/DeadLock/internal/process"
	"github.com/BinToss/DeadLock/pkg/model"
)

// fakeEnumerator answers from a fixed path -> pids table and records every
// path it was asked about.
type fakeEnumerator struct {
	holders map[string][]int
	queried []string
	onQuery func(path string)
}

func (f *fakeEnumerator) FindLockingProcesses(_ context.Context, path string) ([]int, error) {
	f.queried = append(f.queried, path)
	if f.onQuery != nil {
		f.onQuery(path)
	}
	return f.holders[path], nil
}

type fakeIdentity struct{}

func (fakeIdentity) ExecutablePath(_ context.Context, pid int) process.Identity {
	return process.Identity{Path: "/usr/bin/p" + strconv.Itoa(pid), Strategy: "fake"}
}

func newResolver(enum proc.Enumerator) *Resolver {
	return &Resolver{
		NewEnumerator: func(context.Context) (proc.Enumerator, error) { return enum, nil },
		Identity:      fakeIdentity{},
	}
}

func writeFile(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))
	return path
}

func watch(t *testing.T, path string) *model.WatchedPath {
	t.Helper()
	wp, err := model.NewWatchedPath(path)
	require.NoError(t, err)
	return wp
}

func pids(records []model.LockerRecord) []int {
	out := make([]int, 0, len(records))
	for _, r := range records {
		out = append(out, r.PID)
	}
	return out
}

func TestGetLockersUnlockedFile(t *testing.T) {
	file := writeFile(t, filepath.Join(t.TempDir(), "free.txt"))
	wp := watch(t, file)

	res, err := newResolver(&fakeEnumerator{}).GetLockers(context.Background(), wp)
	require.NoError(t, err)

	assert.Empty(t, res.Lockers)
	assert.Equal(t, model.StatusUnlocked, res.Status)
	assert.Equal(t, model.StatusUnlocked, wp.Status())
	assert.Equal(t, 1, res.FilesScanned)
	assert.False(t, res.Cancelled)
}

func TestGetLockersSingleFile(t *testing.T) {
	file := writeFile(t, filepath.Join(t.TempDir(), "held.txt"))
	wp := watch(t, file)
	enum := &fakeEnumerator{holders: map[string][]int{wp.Path(): {42, 42, 7}}}
	r := newResolver(enum)
	r.User = func(pid int) string { return "user" + strconv.Itoa(pid) }

	res, err := r.GetLockers(context.Background(), wp)
	require.NoError(t, err)

	require.Len(t, res.Lockers, 2)
	assert.Equal(t, model.LockerRecord{
		PID:            42,
		ExecutablePath: "/usr/bin/p42",
		ExecutableName: "p42",
		LockedPath:     wp.Path(),
		User:           "user42",
		Strategy:       "fake",
	}, res.Lockers[0])
	assert.Equal(t, 7, res.Lockers[1].PID)
	assert.Equal(t, model.StatusLocked, wp.Status())
}

func TestGetLockersDirectoryDedupKeepsFirstPath(t *testing.T) {
	root := t.TempDir()
	a := writeFile(t, filepath.Join(root, "a.txt"))
	b := writeFile(t, filepath.Join(root, "sub", "b.txt"))
	c := writeFile(t, filepath.Join(root, "sub", "deeper", "c.txt"))
	wp := watch(t, root)

	enum := &fakeEnumerator{holders: map[string][]int{
		a: {1, 2},
		b: {2, 3},
		c: {1, 4},
	}}
	res, err := newResolver(enum).GetLockers(context.Background(), wp)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3, 4}, pids(res.Lockers))
	byPID := map[int]string{}
	for _, rec := range res.Lockers {
		byPID[rec.PID] = rec.LockedPath
	}
	assert.Equal(t, a, byPID[1])
	assert.Equal(t, a, byPID[2])
	assert.Equal(t, b, byPID[3])
	assert.Equal(t, c, byPID[4])
	assert.Equal(t, 3, res.FilesScanned)
	assert.Equal(t, model.StatusLocked, res.Status)
	assert.Equal(t, []string{a, b, c}, enum.queried, "depth first, files before subdirectories")
}

func TestGetLockersCancelReturnsPartialResult(t *testing.T) {
	root := t.TempDir()
	a := writeFile(t, filepath.Join(root, "a.txt"))
	b := writeFile(t, filepath.Join(root, "b.txt"))
	writeFile(t, filepath.Join(root, "c.txt"))
	wp := watch(t, root)

	enum := &fakeEnumerator{holders: map[string][]int{a: {10}, b: {20}}}
	enum.onQuery = func(path string) {
		if path == b {
			wp.RequestCancel()
		}
	}
	res, err := newResolver(enum).GetLockers(context.Background(), wp)
	require.NoError(t, err)

	assert.True(t, res.Cancelled)
	assert.Equal(t, []int{10}, pids(res.Lockers), "pids seen after the cancel point are dropped")
	assert.Equal(t, []string{a, b}, enum.queried)
	assert.Equal(t, model.StatusLocked, wp.Status())
}

func TestGetLockersCancelledContext(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"))
	wp := watch(t, root)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	enum := &fakeEnumerator{}
	res, err := newResolver(enum).GetLockers(ctx, wp)
	require.NoError(t, err)

	assert.True(t, res.Cancelled)
	assert.Empty(t, enum.queried)
	assert.Equal(t, model.StatusUnlocked, wp.Status())
}

func TestGetLockersResetsStaleCancel(t *testing.T) {
	file := writeFile(t, filepath.Join(t.TempDir(), "f"))
	wp := watch(t, file)
	wp.RequestCancel()

	enum := &fakeEnumerator{holders: map[string][]int{wp.Path(): {5}}}
	res, err := newResolver(enum).GetLockers(context.Background(), wp)
	require.NoError(t, err)

	assert.False(t, res.Cancelled)
	assert.Equal(t, []int{5}, pids(res.Lockers))
}

func TestGetLockersScanInProgress(t *testing.T) {
	file := writeFile(t, filepath.Join(t.TempDir(), "f"))
	wp := watch(t, file)
	require.True(t, wp.BeginScan())
	defer wp.EndScan()

	enum := &fakeEnumerator{}
	_, err := newResolver(enum).GetLockers(context.Background(), wp)

	assert.ErrorIs(t, err, errors.ErrScanInProgress)
	assert.Empty(t, enum.queried)
	assert.Equal(t, model.StatusUnknown, wp.Status())
}

func TestGetLockersMaxFiles(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"1", "2", "3", "4"} {
		writeFile(t, filepath.Join(root, name))
	}
	wp := watch(t, root)

	r := newResolver(&fakeEnumerator{})
	r.MaxFiles = 2
	res, err := r.GetLockers(context.Background(), wp)
	require.NoError(t, err)

	assert.True(t, res.Truncated)
	assert.False(t, res.Cancelled)
	assert.Equal(t, 2, res.FilesScanned)
}

func TestGetLockersIncludeDirs(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "work")
	require.NoError(t, os.Mkdir(sub, 0o755))
	wp := watch(t, root)

	enum := &fakeEnumerator{holders: map[string][]int{sub: {99}}}
	r := newResolver(enum)

	res, err := r.GetLockers(context.Background(), wp)
	require.NoError(t, err)
	assert.Empty(t, res.Lockers, "directories are not queried by default")

	r.IncludeDirs = true
	res, err = r.GetLockers(context.Background(), wp)
	require.NoError(t, err)
	require.Len(t, res.Lockers, 1)
	assert.Equal(t, sub, res.Lockers[0].LockedPath)
}

func TestGetLockersEnumeratorFailure(t *testing.T) {
	file := writeFile(t, filepath.Join(t.TempDir(), "f"))
	wp := watch(t, file)

	r := &Resolver{
		NewEnumerator: func(context.Context) (proc.Enumerator, error) { return nil, errors.New("boom") },
		Identity:      fakeIdentity{},
	}
	res, err := r.GetLockers(context.Background(), wp)
	require.NoError(t, err)
	assert.Equal(t, model.StatusUnlocked, res.Status)

	r.NewEnumerator = func(context.Context) (proc.Enumerator, error) { return nil, errors.ErrUnsupported }
	_, err = r.GetLockers(context.Background(), wp)
	assert.ErrorIs(t, err, errors.ErrUnsupported)
	assert.False(t, wp.Scanning())
}

func TestStartWait(t *testing.T) {
	file := writeFile(t, filepath.Join(t.TempDir(), "f"))
	wp := watch(t, file)
	enum := &fakeEnumerator{holders: map[string][]int{wp.Path(): {3}}}

	scan := newResolver(enum).Start(context.Background(), wp)
	select {
	case <-scan.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("scan did not finish")
	}
	res, err := scan.Wait()
	require.NoError(t, err)
	assert.Equal(t, []int{3}, pids(res.Lockers))
	assert.False(t, wp.Scanning())
}

func TestStartCancel(t *testing.T) {
	root := t.TempDir()
	a := writeFile(t, filepath.Join(root, "a"))
	writeFile(t, filepath.Join(root, "b"))
	wp := watch(t, root)

	started := make(chan struct{})
	release := make(chan struct{})
	enum := &fakeEnumerator{}
	enum.onQuery = func(path string) {
		if path == a {
			close(started)
			<-release
		}
	}

	scan := newResolver(enum).Start(context.Background(), wp)
	<-started
	scan.Cancel()
	close(release)

	res, err := scan.Wait()
	require.NoError(t, err)
	assert.True(t, res.Cancelled)
	assert.Equal(t, []string{a}, enum.queried)
}

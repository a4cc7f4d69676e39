//go:build linux

package locker

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BinToss/DeadLock/internal/proc"
	"github.com/BinToss/DeadLock/internal/process"
	"github.com/BinToss/DeadLock/pkg/model"
)

func TestGetLockersFindsOwnProcess(t *testing.T) {
	dir := t.TempDir()
	f, err := os.Create(filepath.Join(dir, "held.db"))
	require.NoError(t, err)
	defer f.Close()

	wp := watch(t, dir)
	r := New(proc.Options{QueryTimeout: 5 * time.Second, IncludeSelf: true}, process.Default("", time.Second, nil), nil)

	res, err := r.GetLockers(context.Background(), wp)
	require.NoError(t, err)

	var self *model.LockerRecord
	for i := range res.Lockers {
		if res.Lockers[i].PID == os.Getpid() {
			self = &res.Lockers[i]
		}
	}
	require.NotNil(t, self, "own pid not among %v", pids(res.Lockers))
	assert.Equal(t, f.Name(), self.LockedPath)
	assert.Equal(t, process.StrategySelf, self.Strategy)
	assert.Equal(t, model.StatusLocked, wp.Status())
}

func TestGetLockersThroughSymlinkedDirectory(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "real")
	require.NoError(t, os.Mkdir(target, 0o755))
	f, err := os.Create(filepath.Join(target, "held.db"))
	require.NoError(t, err)
	defer f.Close()

	alias := filepath.Join(base, "alias")
	require.NoError(t, os.Symlink(target, alias))

	r := New(proc.Options{QueryTimeout: 5 * time.Second, IncludeSelf: true}, process.Default("", time.Second, nil), nil)
	for _, path := range []string{alias, filepath.Join(alias, "held.db")} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			wp := watch(t, path)
			res, err := r.GetLockers(context.Background(), wp)
			require.NoError(t, err)

			assert.Equal(t, model.StatusLocked, res.Status)
			assert.Contains(t, pids(res.Lockers), os.Getpid())
			for _, l := range res.Lockers {
				if l.PID == os.Getpid() {
					assert.Equal(t, filepath.Join(alias, "held.db"), l.LockedPath, "the path as watched is reported")
				}
			}
		})
	}
}

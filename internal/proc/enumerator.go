package proc

import (
	"context"
	"time"

	"github.com/BinToss/DeadLock/internal/logging"
	"github.com/BinToss/DeadLock/pkg/model"
)

// Enumerator answers which processes hold an open handle to a path.
type Enumerator interface {
	FindLockingProcesses(ctx context.Context, path string) ([]int, error)
}

// Options controls how the system handle table is collected.
type Options struct {
	// QueryTimeout bounds every path-name query that may block in the kernel.
	// Zero disables the bound.
	QueryTimeout time.Duration
	// IncludeMaps adds memory-mapped files (Linux, lsof platforms).
	IncludeMaps bool
	// IncludeCwd adds each process' working directory.
	IncludeCwd bool
	// IncludeSelf keeps handles owned by the current process.
	IncludeSelf bool
	Logger      *logging.Logger
}

const DefaultQueryTimeout = 500 * time.Millisecond

func (o Options) logger() *logging.Logger {
	if o.Logger == nil {
		return logging.NopLogger()
	}
	return o.Logger.WithComponent("proc")
}

// NewEnumerator takes a snapshot of the system handle table for one scan.
// On Windows it falls back to the Restart Manager when the handle table
// cannot be read.
func NewEnumerator(ctx context.Context, opts Options) (Enumerator, error) {
	return newPlatformEnumerator(ctx, opts)
}

// Snapshot collects every open file handle on the system into a table.
func Snapshot(ctx context.Context, opts Options) (*HandleTable, error) {
	handles, err := snapshotHandles(ctx, opts)
	if err != nil {
		return nil, err
	}
	return NewHandleTable(handles), nil
}

// FindLockingProcesses is the one-shot form: snapshot, then look up path.
func FindLockingProcesses(ctx context.Context, path string, opts Options) ([]int, error) {
	e, err := NewEnumerator(ctx, opts)
	if err != nil {
		return nil, err
	}
	return e.FindLockingProcesses(ctx, path)
}

// HandleTable indexes a handle snapshot by normalized path and, for
// advisory locks, by file identity.
type HandleTable struct {
	byPath  map[string][]int
	byFile  map[fileID][]int
	handles int
}

type fileID struct {
	dev   uint64
	inode uint64
}

func NewHandleTable(handles []model.OpenHandle) *HandleTable {
	t := &HandleTable{
		byPath:  make(map[string][]int),
		byFile:  make(map[fileID][]int),
		handles: len(handles),
	}
	for _, h := range handles {
		if h.Kind == model.HandleFlock {
			id := fileID{dev: h.Dev, inode: h.Inode}
			t.byFile[id] = appendPID(t.byFile[id], h.PID)
			continue
		}
		if h.Path == "" {
			continue
		}
		key := pathKey(h.Path)
		t.byPath[key] = appendPID(t.byPath[key], h.PID)
	}
	return t
}

// Len is the number of handles the table was built from.
func (t *HandleTable) Len() int { return t.handles }

// FindLockingProcesses looks path up both as given and with its symlinks
// resolved, since handle paths come back from the kernel fully resolved.
func (t *HandleTable) FindLockingProcesses(ctx context.Context, path string) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	keys := []string{pathKey(path)}
	if resolved, err := canonicalPath(path); err == nil {
		if key := pathKey(resolved); key != keys[0] {
			keys = append(keys, key)
		}
	}

	var pids []int
	for _, key := range keys {
		for _, pid := range t.byPath[key] {
			pids = appendPID(pids, pid)
		}
	}
	if len(t.byFile) > 0 {
		if dev, inode, ok := fileIdentity(path); ok {
			for _, pid := range t.byFile[fileID{dev: dev, inode: inode}] {
				pids = appendPID(pids, pid)
			}
		}
	}
	return pids, nil
}

func appendPID(pids []int, pid int) []int {
	for _, p := range pids {
		if p == pid {
			return pids
		}
	}
	return append(pids, pid)
}

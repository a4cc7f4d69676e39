// Package locker finds the processes holding handles on a watched file or
// anywhere below a watched directory.
package locker

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/BinToss/DeadLock/internal/errors"
	"github.com/BinToss/DeadLock/internal/logging"
	"github.com/BinToss/DeadLock/internal/proc"
	"github.com/BinToss/DeadLock/internal/process"
	"github.com/BinToss/DeadLock/pkg/model"
)

// IdentityResolver turns a pid into an executable path.
type IdentityResolver interface {
	ExecutablePath(ctx context.Context, pid int) process.Identity
}

// Resolver runs lock scans. The zero value is not usable; build one with New
// or fill in at least NewEnumerator and Identity.
type Resolver struct {
	// NewEnumerator is called once per scan. The returned enumerator is a
	// snapshot and is discarded when the scan ends.
	NewEnumerator func(ctx context.Context) (proc.Enumerator, error)
	Identity      IdentityResolver
	// User reports the account a process runs as. Optional.
	User   func(pid int) string
	Logger *logging.Logger

	// MaxFiles stops a directory scan after this many files. Zero means no limit.
	MaxFiles int
	// IncludeDirs also asks the enumerator about every directory visited,
	// which finds processes whose working directory is inside the tree.
	IncludeDirs bool
}

// New returns a resolver backed by the platform handle enumerator.
func New(opts proc.Options, identity IdentityResolver, logger *logging.Logger) *Resolver {
	if logger == nil {
		logger = logging.NopLogger()
	}
	opts.Logger = logger
	return &Resolver{
		NewEnumerator: func(ctx context.Context) (proc.Enumerator, error) {
			return proc.NewEnumerator(ctx, opts)
		},
		Identity:    identity,
		User:        proc.ProcessUser,
		Logger:      logger.WithComponent("locker"),
		IncludeDirs: opts.IncludeCwd,
	}
}

// GetLockers scans wp and returns one record per locking process, keeping
// the first path each process was found on. Unreadable directories,
// vanished files and processes that cannot be inspected are skipped without
// error.
//
// The scan stops early when ctx is done or wp.RequestCancel is called; the
// records found so far are returned with Result.Cancelled set. Either way
// wp's status becomes Locked when any record was found and Unlocked
// otherwise.
//
// Only one scan may run on a WatchedPath at a time; a second concurrent call
// returns ErrScanInProgress and leaves wp untouched.
func (r *Resolver) GetLockers(ctx context.Context, wp *model.WatchedPath) (model.Result, error) {
	if !wp.BeginScan() {
		return model.Result{Path: wp.Path()}, errors.ErrScanInProgress
	}
	defer wp.EndScan()
	wp.ResetCancel()

	s := &scan{
		r:      r,
		ctx:    ctx,
		wp:     wp,
		log:    r.logger().With("path", wp.Path()),
		seen:   make(map[int]bool),
		result: model.Result{Path: wp.Path()},
	}
	start := time.Now()

	enum, err := r.NewEnumerator(ctx)
	switch {
	case err == nil:
		s.enum = enum
		if wp.IsDir() {
			s.walk(wp.Path())
		} else {
			s.checkFile(wp.Path())
		}
	case errors.Is(err, errors.ErrUnsupported):
		return s.result, err
	case ctx.Err() != nil:
		s.result.Cancelled = true
	default:
		s.log.Debug("handle enumeration failed", "error", err)
	}

	if len(s.result.Lockers) == 0 {
		wp.SetStatus(model.StatusUnlocked)
	} else {
		wp.SetStatus(model.StatusLocked)
	}
	s.result.Status = wp.Status()
	s.result.Ownership = wp.Ownership()
	s.result.Duration = time.Since(start)

	s.log.Debug("scan finished",
		"lockers", len(s.result.Lockers),
		"files", s.result.FilesScanned,
		"cancelled", s.result.Cancelled,
		"truncated", s.result.Truncated,
		"duration", s.result.Duration)
	return s.result, nil
}

func (r *Resolver) logger() *logging.Logger {
	if r.Logger == nil {
		return logging.NopLogger()
	}
	return r.Logger
}

// scan is the state of one GetLockers call.
type scan struct {
	r    *Resolver
	ctx  context.Context
	wp   *model.WatchedPath
	log  *logging.Logger
	enum proc.Enumerator

	seen   map[int]bool
	result model.Result
}

// stopped is polled before every directory entry, file and pid.
func (s *scan) stopped() bool {
	if s.result.Truncated || s.result.Cancelled {
		return true
	}
	if s.ctx.Err() != nil || s.wp.CancelRequested() {
		s.result.Cancelled = true
		return true
	}
	return false
}

// walk visits the tree under root depth first with an explicit stack.
// Directory symlinks are treated as leaves and never followed.
func (s *scan) walk(root string) {
	stack := []string{root}
	for len(stack) > 0 {
		if s.stopped() {
			return
		}
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if s.r.IncludeDirs {
			s.query(dir)
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			// permission denied, path too long, removed mid-scan
			s.log.Debug("directory skipped", "dir", dir, "error", err)
			continue
		}

		var subdirs []string
		for _, e := range entries {
			if s.stopped() {
				return
			}
			full := filepath.Join(dir, e.Name())
			if e.IsDir() {
				subdirs = append(subdirs, full)
				continue
			}
			s.checkFile(full)
		}
		// push in reverse so siblings are visited in name order
		for i := len(subdirs) - 1; i >= 0; i-- {
			stack = append(stack, subdirs[i])
		}
	}
}

func (s *scan) checkFile(path string) {
	if s.stopped() {
		return
	}
	if limit := s.r.MaxFiles; limit > 0 && s.result.FilesScanned >= limit {
		s.result.Truncated = true
		return
	}
	s.result.FilesScanned++
	s.query(path)
}

// query asks the enumerator about path and records every process not seen
// earlier in this scan.
func (s *scan) query(path string) {
	pids, err := s.enum.FindLockingProcesses(s.ctx, path)
	if err != nil {
		s.log.Debug("lookup failed", "file", path, "error", err)
		return
	}
	for _, pid := range pids {
		if s.stopped() {
			return
		}
		if s.seen[pid] {
			continue
		}
		s.seen[pid] = true
		s.result.Lockers = append(s.result.Lockers, s.record(pid, path))
	}
}

func (s *scan) record(pid int, path string) model.LockerRecord {
	id := s.r.Identity.ExecutablePath(s.ctx, pid)
	rec := model.LockerRecord{
		PID:            pid,
		ExecutablePath: id.Path,
		ExecutableName: id.Name(),
		LockedPath:     path,
		Strategy:       id.Strategy,
	}
	if s.r.User != nil {
		rec.User = s.r.User(pid)
	}
	return rec
}

// Package watch rescans a watched path until it is unlocked, removed, or the
// caller gives up.
package watch

import (
	"context"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/BinToss/DeadLock/internal/logging"
	"github.com/BinToss/DeadLock/pkg/model"
)

// debounce coalesces the bursts of events editors produce for one save.
const debounce = 100 * time.Millisecond

// Scanner is the part of locker.Resolver the loop needs.
type Scanner interface {
	GetLockers(ctx context.Context, wp *model.WatchedPath) (model.Result, error)
}

// Event is delivered after every scan whose outcome differs from the
// previous one, and once when the path disappears.
type Event struct {
	Time    time.Time
	Result  model.Result
	Err     error
	Removed bool
}

// Watcher periodically rescans one path. File-system activity on the path
// triggers an early rescan.
type Watcher struct {
	Scanner  Scanner
	Interval time.Duration
	// UntilUnlocked ends the loop after the first scan that finds no lockers.
	UntilUnlocked bool
	Logger        *logging.Logger
}

// Run blocks until ctx is done, the path is removed or renamed, or (with
// UntilUnlocked) the path is free. It only returns ctx's error.
func (w *Watcher) Run(ctx context.Context, wp *model.WatchedPath, emit func(Event)) error {
	log := w.logger().With("path", wp.Path())

	var events <-chan fsnotify.Event
	var errs <-chan error
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warn("file notifications unavailable, polling only", "error", err)
	} else {
		defer fw.Close()
		// files are watched through their directory so renames are seen
		dir := wp.Path()
		if !wp.IsDir() {
			dir = filepath.Dir(dir)
		}
		if err := fw.Add(dir); err != nil {
			log.Warn("cannot watch path", "dir", dir, "error", err)
		} else {
			events, errs = fw.Events, fw.Errors
		}
	}

	interval := w.Interval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	debounceTimer := time.NewTimer(0)
	<-debounceTimer.C

	var last *model.Result
	scan := func() bool {
		res, err := w.Scanner.GetLockers(ctx, wp)
		if ctx.Err() != nil {
			return true
		}
		if err != nil || last == nil || changed(*last, res) {
			emit(Event{Time: time.Now(), Result: res, Err: err})
		}
		if err == nil {
			last = &res
		}
		return w.UntilUnlocked && err == nil && res.Status == model.StatusUnlocked
	}

	if scan() {
		return ctx.Err()
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-ticker.C:
			if scan() {
				return ctx.Err()
			}

		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Clean(ev.Name) == wp.Path() && ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				log.Info("watched path removed", "op", ev.Op.String())
				emit(Event{Time: time.Now(), Result: model.Result{Path: wp.Path(), Status: wp.Status()}, Removed: true})
				return nil
			}
			if !wp.IsDir() && filepath.Clean(ev.Name) != wp.Path() {
				continue
			}
			debounceTimer.Reset(debounce)

		case <-debounceTimer.C:
			if scan() {
				return ctx.Err()
			}

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			log.Debug("file notification error", "error", err)
		}
	}
}

func (w *Watcher) logger() *logging.Logger {
	if w.Logger == nil {
		return logging.NopLogger()
	}
	return w.Logger.WithComponent("watch")
}

// changed reports whether b differs from a in status or in the set of
// locking processes.
func changed(a, b model.Result) bool {
	if a.Status != b.Status || len(a.Lockers) != len(b.Lockers) {
		return true
	}
	pids := func(r model.Result) []int {
		out := make([]int, 0, len(r.Lockers))
		for _, l := range r.Lockers {
			out = append(out, l.PID)
		}
		slices.Sort(out)
		return out
	}
	return !slices.Equal(pids(a), pids(b))
}

package model

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/BinToss/DeadLock/internal/errors"
)

// Field names a mutable property of a WatchedPath.
type Field string

const (
	FieldStatus    Field = "status"
	FieldOwnership Field = "ownership"
	FieldCancel    Field = "cancel"
	FieldScanning  Field = "scanning"
)

// Change is delivered to subscribers after a property of a WatchedPath changed.
type Change struct {
	Path     string
	Field    Field
	Revision uint64
}

// WatchedPath is one user-selected file or directory together with the
// results of the last scan of it. Presentation layers either poll Revision
// or register a callback with Subscribe.
//
// All methods are safe for concurrent use. Subscribers are called outside
// the internal lock, on the goroutine that made the change.
type WatchedPath struct {
	path  string
	isDir bool

	mu        sync.Mutex
	status    Status
	ownership Ownership
	cancel    bool
	scanning  bool
	revision  uint64
	subs      map[int]func(Change)
	nextSub   int
}

// NewWatchedPath makes path absolute and fails if it is neither an existing
// file nor an existing directory.
func NewWatchedPath(path string) (*WatchedPath, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.NewNotFoundError(path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, errors.NewNotFoundError(abs, err)
	}
	return &WatchedPath{
		path:  abs,
		isDir: info.IsDir(),
		subs:  make(map[int]func(Change)),
	}, nil
}

func (w *WatchedPath) Path() string { return w.path }

func (w *WatchedPath) IsDir() bool { return w.isDir }

func (w *WatchedPath) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

func (w *WatchedPath) SetStatus(s Status) {
	w.mu.Lock()
	if w.status == s {
		w.mu.Unlock()
		return
	}
	w.status = s
	w.notifyLocked(FieldStatus)
}

func (w *WatchedPath) Ownership() Ownership {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ownership
}

func (w *WatchedPath) SetOwnership(o Ownership) {
	w.mu.Lock()
	if w.ownership == o {
		w.mu.Unlock()
		return
	}
	w.ownership = o
	w.notifyLocked(FieldOwnership)
}

// RequestCancel asks an in-flight scan to stop at its next check point.
func (w *WatchedPath) RequestCancel() {
	w.setCancel(true)
}

// ResetCancel clears a previous cancellation request.
func (w *WatchedPath) ResetCancel() {
	w.setCancel(false)
}

func (w *WatchedPath) CancelRequested() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cancel
}

func (w *WatchedPath) setCancel(v bool) {
	w.mu.Lock()
	if w.cancel == v {
		w.mu.Unlock()
		return
	}
	w.cancel = v
	w.notifyLocked(FieldCancel)
}

// BeginScan marks the path as being scanned. It returns false if a scan is
// already running, in which case the caller must not start another one.
func (w *WatchedPath) BeginScan() bool {
	w.mu.Lock()
	if w.scanning {
		w.mu.Unlock()
		return false
	}
	w.scanning = true
	w.notifyLocked(FieldScanning)
	return true
}

// EndScan clears the mark set by BeginScan.
func (w *WatchedPath) EndScan() {
	w.mu.Lock()
	if !w.scanning {
		w.mu.Unlock()
		return
	}
	w.scanning = false
	w.notifyLocked(FieldScanning)
}

func (w *WatchedPath) Scanning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.scanning
}

// Revision increases by one on every property change.
func (w *WatchedPath) Revision() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.revision
}

// Subscribe registers fn to be called after every property change and
// returns a function that removes the subscription.
func (w *WatchedPath) Subscribe(fn func(Change)) (unsubscribe func()) {
	w.mu.Lock()
	id := w.nextSub
	w.nextSub++
	w.subs[id] = fn
	w.mu.Unlock()

	return func() {
		w.mu.Lock()
		delete(w.subs, id)
		w.mu.Unlock()
	}
}

// notifyLocked bumps the revision and releases w.mu before calling subscribers.
func (w *WatchedPath) notifyLocked(f Field) {
	w.revision++
	change := Change{Path: w.path, Field: f, Revision: w.revision}
	subs := make([]func(Change), 0, len(w.subs))
	for _, fn := range w.subs {
		subs = append(subs, fn)
	}
	w.mu.Unlock()

	for _, fn := range subs {
		fn(change)
	}
}

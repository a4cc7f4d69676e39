// Package errors holds the error definitions shared across deadlock.
//
// Only a handful of conditions ever reach the user: a watched path that does
// not exist, a scan started while another is still running on the same path,
// and invalid configuration. Everything else (access denied on a handle or a
// subtree, a hung path query, a vanished process) is swallowed close to where
// it happens and degrades to an empty, partial or sentinel result.
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrNotFound) { ... }
//
//	var nf *errors.NotFoundError
//	if errors.As(err, &nf) { fmt.Println(nf.Path) }
package errors

import (
	"errors"
	"fmt"
)

// Re-export standard library functions so callers only need this package.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

var (
	// ErrNotFound indicates that a watched path does not exist.
	ErrNotFound = New("path does not exist")
	// ErrAccessDenied indicates that the OS refused access to a process, handle or path.
	ErrAccessDenied = New("access denied")
	// ErrQueryTimeout indicates that a blocking native query was abandoned.
	ErrQueryTimeout = New("query timed out")
	// ErrScanInProgress indicates a second scan was started on a watched path that is still being scanned.
	ErrScanInProgress = New("scan already in progress")
	// ErrUnsupported indicates that the current platform has no handle enumerator.
	ErrUnsupported = New("not supported on this platform")
	// ErrInvalidConfig indicates that the configuration failed validation.
	ErrInvalidConfig = New("invalid configuration")
)

// NotFoundError reports a path that is neither an existing file nor directory.
type NotFoundError struct {
	Path string
	Err  error
}

// NewNotFoundError wraps the underlying stat error for path.
func NewNotFoundError(path string, err error) *NotFoundError {
	return &NotFoundError{Path: path, Err: err}
}

func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("path does not exist: %s: %v", e.Path, e.Err)
	}
	return "path does not exist: " + e.Path
}

// Is lets errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// IsUserFacing reports whether err is one of the conditions that is meant to
// be shown to the user rather than silently degraded.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return Is(err, ErrNotFound) || Is(err, ErrScanInProgress) || Is(err, ErrInvalidConfig) || Is(err, ErrUnsupported)
}

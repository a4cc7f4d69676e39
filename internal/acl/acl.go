// Package acl decides whether the current user may access a watched path.
//
// The decision is deliberately coarse: a path counts as Allowed when its
// access list could be read and holds at least one allow entry, regardless
// of whom that entry is for. Deny entries are reported but never weighed
// against the allow entries.
package acl

import (
	"fmt"
	"io/fs"

	"github.com/BinToss/DeadLock/internal/errors"
	"github.com/BinToss/DeadLock/internal/logging"
	"github.com/BinToss/DeadLock/pkg/model"
)

// Read returns the access list of path. A refusal by the OS to show it is
// reported as ErrAccessDenied.
func Read(path string) ([]model.ACE, error) {
	aces, err := readACL(path)
	if err != nil && errors.Is(err, fs.ErrPermission) {
		return nil, fmt.Errorf("%w: %w", errors.ErrAccessDenied, err)
	}
	return aces, err
}

// Decide maps the outcome of reading an access list to an Ownership.
func Decide(aces []model.ACE, err error) model.Ownership {
	if err != nil {
		return model.OwnershipDenied
	}
	for _, ace := range aces {
		if ace.Type == model.ACEAllow {
			return model.OwnershipAllowed
		}
	}
	return model.OwnershipDenied
}

// Check reads the access list of wp, stores the decision on it and returns it.
func Check(wp *model.WatchedPath, logger *logging.Logger) model.Ownership {
	aces, err := Read(wp.Path())
	if err != nil && logger != nil {
		logger.WithComponent("acl").Debug("access list unreadable", "path", wp.Path(), "error", err)
	}
	o := Decide(aces, err)
	wp.SetOwnership(o)
	return o
}

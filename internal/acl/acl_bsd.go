//go:build unix && !linux

package acl

import (
	"golang.org/x/sys/unix"

	"github.com/BinToss/DeadLock/pkg/model"
)

// readACL synthesizes owner/group/other entries from the mode bits. Extended
// ACLs on these systems are not consulted.
func readACL(path string) ([]model.ACE, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return nil, err
	}
	return modeACEs(uint32(st.Mode), st.Uid, st.Gid), nil
}

//go:build linux

package acl

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/BinToss/DeadLock/pkg/model"
)

const posixACLXattr = "system.posix_acl_access"

// Tags and version of the on-disk POSIX ACL xattr (linux/posix_acl_xattr.h).
const (
	aclXattrVersion = 2

	aclUserObj  = 0x01
	aclUser     = 0x02
	aclGroupObj = 0x04
	aclGroup    = 0x08
	aclMask     = 0x10
	aclOther    = 0x20
)

// readACL returns the POSIX ACL of path, or the owner/group/other entries
// implied by its mode when it carries no extended ACL.
func readACL(path string) ([]model.ACE, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return nil, err
	}

	buf := make([]byte, 512)
	n, err := unix.Getxattr(path, posixACLXattr, buf)
	if err == unix.ERANGE {
		size, serr := unix.Getxattr(path, posixACLXattr, nil)
		if serr != nil {
			return nil, serr
		}
		buf = make([]byte, size)
		n, err = unix.Getxattr(path, posixACLXattr, buf)
	}
	switch err {
	case nil:
		return parsePOSIXACL(buf[:n], st.Uid, st.Gid)
	case unix.ENODATA, unix.EOPNOTSUPP:
		return modeACEs(st.Mode, st.Uid, st.Gid), nil
	default:
		return nil, err
	}
}

// parsePOSIXACL decodes a little-endian posix_acl_xattr_header followed by
// 8-byte {tag, perm, id} entries.
func parsePOSIXACL(b []byte, uid, gid uint32) ([]model.ACE, error) {
	if len(b) < 4 || (len(b)-4)%8 != 0 {
		return nil, fmt.Errorf("malformed acl xattr of %d bytes", len(b))
	}
	if v := binary.LittleEndian.Uint32(b); v != aclXattrVersion {
		return nil, fmt.Errorf("unsupported acl xattr version %d", v)
	}

	var aces []model.ACE
	for off := 4; off < len(b); off += 8 {
		tag := binary.LittleEndian.Uint16(b[off:])
		perm := uint32(binary.LittleEndian.Uint16(b[off+2:]))
		id := binary.LittleEndian.Uint32(b[off+4:])

		var principal string
		switch tag {
		case aclUserObj:
			principal = "owner:" + userName(uid)
		case aclUser:
			principal = "user:" + userName(id)
		case aclGroupObj:
			principal = "group:" + groupName(gid)
		case aclGroup:
			principal = "group:" + groupName(id)
		case aclOther:
			principal = "other"
		case aclMask:
			// the mask limits other entries, it grants nothing itself
			continue
		default:
			continue
		}
		aces = append(aces, permACE(principal, perm))
	}
	return aces, nil
}

//go:build unix

package acl

import (
	"os/user"
	"strconv"

	"github.com/BinToss/DeadLock/pkg/model"
)

// modeACEs expresses the classic permission bits as three entries.
func modeACEs(mode, uid, gid uint32) []model.ACE {
	return []model.ACE{
		permACE("owner:"+userName(uid), (mode>>6)&7),
		permACE("group:"+groupName(gid), (mode>>3)&7),
		permACE("other", mode&7),
	}
}

// permACE turns an rwx triplet into an entry: any bit allows, none denies.
func permACE(principal string, perm uint32) model.ACE {
	ace := model.ACE{Principal: principal, Type: model.ACEDeny, Rights: rwx(perm)}
	if perm&7 != 0 {
		ace.Type = model.ACEAllow
	}
	return ace
}

func rwx(perm uint32) string {
	b := []byte("---")
	if perm&4 != 0 {
		b[0] = 'r'
	}
	if perm&2 != 0 {
		b[1] = 'w'
	}
	if perm&1 != 0 {
		b[2] = 'x'
	}
	return string(b)
}

func userName(uid uint32) string {
	if u, err := user.LookupId(strconv.FormatUint(uint64(uid), 10)); err == nil {
		return u.Username
	}
	return strconv.FormatUint(uint64(uid), 10)
}

func groupName(gid uint32) string {
	if g, err := user.LookupGroupId(strconv.FormatUint(uint64(gid), 10)); err == nil {
		return g.Name
	}
	return strconv.FormatUint(uint64(gid), 10)
}

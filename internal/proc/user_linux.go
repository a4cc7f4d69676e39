//go:build linux

package proc

import (
	"os"
	"os/user"
	"strconv"
	"syscall"
)

// ProcessUser resolves the owner of pid from the uid of its /proc entry.
func ProcessUser(pid int) string {
	info, err := os.Stat("/proc/" + strconv.Itoa(pid))
	if err != nil {
		return ""
	}

	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return ""
	}
	return resolveUID(int(stat.Uid))
}

func resolveUID(uid int) string {
	if uid == 0 {
		return "root"
	}
	if u, err := user.LookupId(strconv.Itoa(uid)); err == nil {
		return u.Username
	}
	return strconv.Itoa(uid)
}

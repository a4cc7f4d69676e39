//go:build linux

package proc

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/BinToss/DeadLock/pkg/model"
)

// readProcLocks parses the kernel's table of advisory locks. Each lock is
// reported by device and inode, not path:
//
//	1: POSIX  ADVISORY  WRITE 1234 08:01:5678 0 EOF
//	2: FLOCK  ADVISORY  WRITE 9876 00:2e:123 0 EOF
//	2: -> FLOCK  ADVISORY  WRITE 5555 00:2e:123 0 EOF
//
// Lines with "->" are waiters blocked on the lock above and are skipped.
func readProcLocks(path string) ([]model.OpenHandle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var handles []model.OpenHandle
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if h, ok := parseLockLine(scanner.Text()); ok {
			handles = append(handles, h)
		}
	}
	return handles, scanner.Err()
}

func parseLockLine(line string) (model.OpenHandle, bool) {
	fields := strings.Fields(line)
	if len(fields) < 6 || fields[1] == "->" {
		return model.OpenHandle{}, false
	}

	pid, err := strconv.Atoi(fields[4])
	if err != nil || pid <= 0 {
		// OFD locks are not tied to a process and report -1
		return model.OpenHandle{}, false
	}

	id := strings.Split(fields[5], ":")
	if len(id) != 3 {
		return model.OpenHandle{}, false
	}
	major, err1 := strconv.ParseUint(id[0], 16, 32)
	minor, err2 := strconv.ParseUint(id[1], 16, 32)
	inode, err3 := strconv.ParseUint(id[2], 10, 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return model.OpenHandle{}, false
	}

	return model.OpenHandle{
		PID:   pid,
		Kind:  model.HandleFlock,
		Dev:   unix.Mkdev(uint32(major), uint32(minor)),
		Inode: inode,
	}, true
}

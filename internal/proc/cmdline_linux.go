//go:build linux

package proc

import (
	"fmt"
	"os"
	"strings"
)

// GetCmdline returns the NUL-separated command line of pid with NULs kept,
// or "" when it cannot be read.
func GetCmdline(pid int) string {
	cmdlineBytes, err := os.ReadFile(fmt.Sprintf("/proc/%d/cmdline", pid))
	if err != nil {
		return ""
	}
	return strings.TrimRight(string(cmdlineBytes), "\x00")
}

func firstArg(cmdline string) string {
	arg, _, _ := strings.Cut(cmdline, "\x00")
	return strings.TrimSpace(arg)
}

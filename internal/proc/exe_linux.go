//go:build linux

package proc

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// MainModulePath reads /proc/<pid>/exe. It needs ptrace-level access to the
// target, so it fails for other users' processes unless running as root.
func MainModulePath(_ context.Context, pid int) (string, error) {
	link, err := os.Readlink(filepath.Join(procRoot, strconv.Itoa(pid), "exe"))
	if err != nil {
		return "", err
	}
	return trimDeleted(link), nil
}

// ImageNamePath uses argv[0] from the world-readable cmdline when it is an
// absolute path.
func ImageNamePath(_ context.Context, pid int) (string, error) {
	argv0 := firstArg(GetCmdline(pid))
	if !filepath.IsAbs(argv0) {
		return "", fmt.Errorf("argv[0] %q is not absolute", argv0)
	}
	return argv0, nil
}

// InventoryPath asks ps for the process arguments and falls back to the
// command name, which ps reports even for kernel threads and processes whose
// cmdline has been cleared.
func InventoryPath(ctx context.Context, pid int) (string, error) {
	out, err := exec.CommandContext(ctx, "ps", "-ww", "-p", strconv.Itoa(pid), "-o", "args=").Output()
	if err == nil {
		if fields := strings.Fields(string(out)); len(fields) > 0 && filepath.IsAbs(fields[0]) {
			return fields[0], nil
		}
	}
	out, err = exec.CommandContext(ctx, "ps", "-p", strconv.Itoa(pid), "-o", "comm=").Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

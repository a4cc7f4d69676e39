//go:build darwin || freebsd

package proc

import (
	"context"
	"errors"
	"os/exec"
	"strconv"
	"strings"
)

// MainModulePath asks lsof for the process text (its executable image).
func MainModulePath(ctx context.Context, pid int) (string, error) {
	out, err := exec.CommandContext(ctx, "lsof", "-n", "-P", "-w", "-a", "-p", strconv.Itoa(pid), "-d", "txt", "-F", "n").Output()
	if err != nil && len(out) == 0 {
		return "", err
	}
	for line := range strings.Lines(string(out)) {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "n/") {
			return line[1:], nil
		}
	}
	return "", errors.New("no txt entry")
}

// ImageNamePath uses ps comm, which on macOS is the full image path.
func ImageNamePath(ctx context.Context, pid int) (string, error) {
	return psField(ctx, pid, "comm=")
}

// InventoryPath falls back to the first word of the full command line.
func InventoryPath(ctx context.Context, pid int) (string, error) {
	args, err := psField(ctx, pid, "args=")
	if err != nil {
		return "", err
	}
	first, _, _ := strings.Cut(args, " ")
	return first, nil
}

// ProcessUser reports the login name owning pid.
func ProcessUser(pid int) string {
	user, err := psField(context.Background(), pid, "user=")
	if err != nil {
		return ""
	}
	return user
}

func psField(ctx context.Context, pid int, field string) (string, error) {
	out, err := exec.CommandContext(ctx, "ps", "-p", strconv.Itoa(pid), "-o", field).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

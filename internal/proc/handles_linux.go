//go:build linux

package proc

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/BinToss/DeadLock/pkg/model"
)

const procRoot = "/proc"

func newPlatformEnumerator(ctx context.Context, opts Options) (Enumerator, error) {
	return Snapshot(ctx, opts)
}

func snapshotHandles(ctx context.Context, opts Options) ([]model.OpenHandle, error) {
	log := opts.logger()

	entries, err := os.ReadDir(procRoot)
	if err != nil {
		return nil, err
	}

	self := os.Getpid()
	var handles []model.OpenHandle
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !e.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		if pid == self && !opts.IncludeSelf {
			continue
		}

		handles = append(handles, processHandles(ctx, pid, opts)...)
	}

	locks, err := readProcLocks(filepath.Join(procRoot, "locks"))
	if err != nil {
		log.Debug("advisory locks unavailable", "error", err)
	}
	for _, l := range locks {
		if l.PID == self && !opts.IncludeSelf {
			continue
		}
		handles = append(handles, l)
	}

	log.Debug("handle snapshot", "handles", len(handles))
	return handles, nil
}

// processHandles collects everything pid holds. Each readlink resolves in
// the kernel and can stall on a hung network mount, so every single call is
// bounded by QueryTimeout; a process with a stalled entry keeps the handles
// found before it.
func processHandles(ctx context.Context, pid int, opts Options) []model.OpenHandle {
	log := opts.logger()
	dir := filepath.Join(procRoot, strconv.Itoa(pid))

	handles, err := collectWithTimeout(ctx, opts.QueryTimeout, func(emit func(model.OpenHandle, bool) bool) {
		fdHandles(dir, pid, emit)
	})
	if err != nil {
		log.Debug("fd listing cut short", "pid", pid, "handles", len(handles), "error", err)
	}

	if opts.IncludeMaps {
		maps, err := collectWithTimeout(ctx, opts.QueryTimeout, func(emit func(model.OpenHandle, bool) bool) {
			mapHandles(dir, pid, emit)
		})
		if err != nil {
			log.Debug("maps listing cut short", "pid", pid, "error", err)
		}
		handles = append(handles, maps...)
	}

	if opts.IncludeCwd {
		for _, name := range []string{"cwd", "root"} {
			link, err := queryWithTimeout(ctx, opts.QueryTimeout, func() (string, error) {
				return os.Readlink(filepath.Join(dir, name))
			})
			if err != nil {
				continue
			}
			// every process has root "/"; only chroots and containers say anything
			if name == "root" && link == "/" {
				continue
			}
			handles = append(handles, model.OpenHandle{PID: pid, Path: trimDeleted(link), Kind: model.HandleCwd})
		}
	}
	return handles
}

// fdHandles lists the file-system objects a process holds open. Sockets,
// pipes and anonymous inodes are not files and are skipped, as is any
// process that exits or refuses access mid-listing.
func fdHandles(dir string, pid int, emit func(model.OpenHandle, bool) bool) {
	fdDir := filepath.Join(dir, "fd")
	entries, err := os.ReadDir(fdDir)
	if err != nil {
		return
	}

	for _, e := range entries {
		fd, err := strconv.ParseUint(e.Name(), 10, 64)
		if err != nil {
			continue
		}
		link, err := os.Readlink(filepath.Join(fdDir, e.Name()))
		h := model.OpenHandle{
			PID:    pid,
			Handle: fd,
			Path:   trimDeleted(link),
			Kind:   model.HandleFile,
		}
		if !emit(h, err == nil && isFileObject(link)) {
			return
		}
	}
}

func isFileObject(link string) bool {
	return strings.HasPrefix(link, "/")
}

func trimDeleted(link string) string {
	return strings.TrimSuffix(link, " (deleted)")
}

// mapHandles lists the files a process has mapped into memory
// (its executable, shared libraries, mmap'ed data files).
func mapHandles(dir string, pid int, emit func(model.OpenHandle, bool) bool) {
	f, err := os.Open(filepath.Join(dir, "maps"))
	if err != nil {
		return
	}
	defer f.Close()

	seen := make(map[string]bool)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		path, ok := parseMapsLine(scanner.Text())
		keep := ok && !seen[path]
		if keep {
			seen[path] = true
		}
		if !emit(model.OpenHandle{PID: pid, Path: path, Kind: model.HandleMmap}, keep) {
			return
		}
	}
}

// parseMapsLine extracts the backing file of one /proc/<pid>/maps line:
//
//	7f2c1a000000-7f2c1a021000 r--p 00000000 08:01 1835032   /usr/lib/libc.so.6
func parseMapsLine(line string) (string, bool) {
	fields := strings.Fields(line)
	if len(fields) < 6 || fields[4] == "0" {
		return "", false
	}
	path := strings.Join(fields[5:], " ")
	if !strings.HasPrefix(path, "/") {
		return "", false
	}
	return trimDeleted(path), true
}

func fileIdentity(path string) (uint64, uint64, bool) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return 0, 0, false
	}
	return uint64(st.Dev), uint64(st.Ino), true
}

//go:build windows

package proc

import (
	"context"
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/BinToss/DeadLock/pkg/model"
)

var (
	modntdll          = windows.NewLazySystemDLL("ntdll.dll")
	procNtQueryObject = modntdll.NewProc("NtQueryObject")
)

const (
	objectTypeInformation = 2
	volumeNameNT          = 0x2
	maxHandleBuffer       = 1 << 30
)

// systemHandleEntry mirrors SYSTEM_HANDLE_TABLE_ENTRY_INFO_EX.
type systemHandleEntry struct {
	Object                uintptr
	UniqueProcessID       uintptr
	HandleValue           uintptr
	GrantedAccess         uint32
	CreatorBackTraceIndex uint16
	ObjectTypeIndex       uint16
	HandleAttributes      uint32
	Reserved              uint32
}

// systemHandleInformation mirrors SYSTEM_HANDLE_INFORMATION_EX.
type systemHandleInformation struct {
	NumberOfHandles uintptr
	Reserved        uintptr
	Handles         [1]systemHandleEntry
}

func newPlatformEnumerator(ctx context.Context, opts Options) (Enumerator, error) {
	table, err := Snapshot(ctx, opts)
	if err == nil {
		return table, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	opts.logger().Warn("system handle table unavailable, using restart manager", "error", err)
	return restartManager{log: opts.logger()}, nil
}

func snapshotHandles(ctx context.Context, opts Options) ([]model.OpenHandle, error) {
	log := opts.logger()

	entries, err := querySystemHandles()
	if err != nil {
		return nil, err
	}
	devices := dosDevices()
	self := uint32(os.Getpid())
	current := windows.CurrentProcess()

	processes := make(map[uint32]windows.Handle)
	defer func() {
		for _, h := range processes {
			if h != 0 {
				windows.CloseHandle(h)
			}
		}
	}()
	typeNames := make(map[uint16]string)

	var handles []model.OpenHandle
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pid := uint32(e.UniqueProcessID)
		if pid == self && !opts.IncludeSelf {
			continue
		}

		proc, ok := processes[pid]
		if !ok {
			proc, err = windows.OpenProcess(windows.PROCESS_DUP_HANDLE, false, pid)
			if err != nil {
				proc = 0
			}
			processes[pid] = proc
		}
		if proc == 0 {
			continue
		}

		var dup windows.Handle
		if err := windows.DuplicateHandle(proc, windows.Handle(e.HandleValue), current, &dup, 0, false, windows.DUPLICATE_SAME_ACCESS); err != nil {
			continue
		}

		typeName, ok := typeNames[e.ObjectTypeIndex]
		if !ok {
			typeName, err = objectTypeName(dup)
			if err != nil {
				windows.CloseHandle(dup)
				continue
			}
			typeNames[e.ObjectTypeIndex] = typeName
		}
		if typeName != "File" {
			windows.CloseHandle(dup)
			continue
		}

		// The worker owns dup from here on; it is closed there even when
		// the query is abandoned.
		ntPath, err := queryWithTimeout(ctx, opts.QueryTimeout, func() (string, error) {
			defer windows.CloseHandle(dup)
			return diskFilePath(dup)
		})
		if err != nil {
			log.Debug("handle skipped", "pid", pid, "handle", e.HandleValue, "error", err)
			continue
		}

		handles = append(handles, model.OpenHandle{
			PID:    int(pid),
			Handle: uint64(e.HandleValue),
			Path:   NormalizeNTPath(devices, ntPath),
			Kind:   model.HandleFile,
		})
	}

	log.Debug("handle snapshot", "entries", len(entries), "handles", len(handles))
	return handles, nil
}

func querySystemHandles() ([]systemHandleEntry, error) {
	size := uint32(1 << 20)
	for {
		buf := make([]byte, size)
		var needed uint32
		err := windows.NtQuerySystemInformation(windows.SystemExtendedHandleInformation, unsafe.Pointer(&buf[0]), size, &needed)
		if err == windows.STATUS_INFO_LENGTH_MISMATCH {
			if needed > size {
				size = needed + 1<<16
			} else {
				size *= 2
			}
			if size > maxHandleBuffer {
				return nil, fmt.Errorf("handle table larger than %d bytes", maxHandleBuffer)
			}
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("NtQuerySystemInformation: %w", err)
		}

		info := (*systemHandleInformation)(unsafe.Pointer(&buf[0]))
		n := int(info.NumberOfHandles)
		if n == 0 {
			return nil, nil
		}
		out := make([]systemHandleEntry, n)
		copy(out, unsafe.Slice(&info.Handles[0], n))
		return out, nil
	}
}

// objectTypeName reads the TypeName field of PUBLIC_OBJECT_TYPE_INFORMATION.
func objectTypeName(h windows.Handle) (string, error) {
	buf := make([]byte, 1024)
	var ret uint32
	r, _, _ := procNtQueryObject.Call(uintptr(h), objectTypeInformation, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)), uintptr(unsafe.Pointer(&ret)))
	if r != 0 {
		return "", windows.NTStatus(r)
	}
	name := (*windows.NTUnicodeString)(unsafe.Pointer(&buf[0]))
	return name.String(), nil
}

// diskFilePath returns the NT path of an on-disk file handle. Pipes and
// character devices are rejected before the name query, which is the call
// that can block forever on a synchronous pipe.
func diskFilePath(h windows.Handle) (string, error) {
	ft, err := windows.GetFileType(h)
	if err != nil {
		return "", err
	}
	if ft != windows.FILE_TYPE_DISK {
		return "", fmt.Errorf("file type %d is not a disk file", ft)
	}

	buf := make([]uint16, windows.MAX_LONG_PATH)
	n, err := windows.GetFinalPathNameByHandle(h, &buf[0], uint32(len(buf)), volumeNameNT)
	if err != nil {
		return "", err
	}
	if n > uint32(len(buf)) {
		buf = make([]uint16, n)
		n, err = windows.GetFinalPathNameByHandle(h, &buf[0], uint32(len(buf)), volumeNameNT)
		if err != nil {
			return "", err
		}
	}
	return windows.UTF16ToString(buf[:n]), nil
}

// dosDevices maps every drive letter's NT device name to the drive.
func dosDevices() map[string]string {
	devices := defaultDevices()
	buf := make([]uint16, windows.MAX_PATH)
	for c := 'A'; c <= 'Z'; c++ {
		drive := string(c) + ":"
		name, err := windows.UTF16PtrFromString(drive)
		if err != nil {
			continue
		}
		n, err := windows.QueryDosDevice(name, &buf[0], uint32(len(buf)))
		if err != nil || n == 0 {
			continue
		}
		// the result is a list of NUL-terminated strings; the first is the target
		devices[windows.UTF16ToString(buf[:n])] = drive
	}
	return devices
}

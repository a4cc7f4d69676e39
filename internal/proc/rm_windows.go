//go:build windows

package proc

import (
	"context"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/BinToss/DeadLock/internal/logging"
)

var (
	modrstrtmgr             = windows.NewLazySystemDLL("rstrtmgr.dll")
	procRmStartSession      = modrstrtmgr.NewProc("RmStartSession")
	procRmEndSession        = modrstrtmgr.NewProc("RmEndSession")
	procRmRegisterResources = modrstrtmgr.NewProc("RmRegisterResources")
	procRmGetList           = modrstrtmgr.NewProc("RmGetList")
)

const (
	rmSessionKeyLen = 32 // CCH_RM_SESSION_KEY
	rmMaxAppName    = 255
	rmMaxSvcName    = 63
)

type rmUniqueProcess struct {
	ProcessID        uint32
	ProcessStartTime windows.Filetime
}

type rmProcessInfo struct {
	Process          rmUniqueProcess
	AppName          [rmMaxAppName + 1]uint16
	ServiceShortName [rmMaxSvcName + 1]uint16
	ApplicationType  uint32
	AppStatus        uint32
	TSSessionID      uint32
	Restartable      int32
}

// restartManager answers the same question as the handle table through the
// Restart Manager API. It needs no privileges but only sees handles that
// block a restart, so it is used when the handle table cannot be read.
type restartManager struct {
	log *logging.Logger
}

func (r restartManager) FindLockingProcesses(ctx context.Context, path string) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var session uint32
	key := make([]uint16, rmSessionKeyLen+1)
	if ret, _, _ := procRmStartSession.Call(uintptr(unsafe.Pointer(&session)), 0, uintptr(unsafe.Pointer(&key[0]))); ret != 0 {
		return nil, fmt.Errorf("RmStartSession: %w", windows.Errno(ret))
	}
	defer procRmEndSession.Call(uintptr(session))

	name, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return nil, err
	}
	files := []*uint16{name}
	if ret, _, _ := procRmRegisterResources.Call(uintptr(session), 1, uintptr(unsafe.Pointer(&files[0])), 0, 0, 0, 0); ret != 0 {
		return nil, fmt.Errorf("RmRegisterResources: %w", windows.Errno(ret))
	}

	var needed, count uint32
	var reasons uint32
	infos := make([]rmProcessInfo, 8)
	for {
		count = uint32(len(infos))
		ret, _, _ := procRmGetList.Call(
			uintptr(session),
			uintptr(unsafe.Pointer(&needed)),
			uintptr(unsafe.Pointer(&count)),
			uintptr(unsafe.Pointer(&infos[0])),
			uintptr(unsafe.Pointer(&reasons)),
		)
		if windows.Errno(ret) == windows.ERROR_MORE_DATA {
			infos = make([]rmProcessInfo, needed+4)
			continue
		}
		if ret != 0 {
			return nil, fmt.Errorf("RmGetList: %w", windows.Errno(ret))
		}
		break
	}

	pids := make([]int, 0, count)
	for _, info := range infos[:count] {
		pids = appendPID(pids, int(info.Process.ProcessID))
	}
	r.log.Debug("restart manager lookup", "path", path, "processes", len(pids))
	return pids, nil
}

//go:build windows

package proc

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"
)

// MainModulePath opens the process for full query and VM read access and
// returns the file name of its first module. This fails across session and
// elevation boundaries and for protected processes.
func MainModulePath(_ context.Context, pid int) (string, error) {
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_INFORMATION|windows.PROCESS_VM_READ, false, uint32(pid))
	if err != nil {
		return "", err
	}
	defer windows.CloseHandle(h)

	var module windows.Handle
	var needed uint32
	if err := windows.EnumProcessModules(h, &module, uint32(unsafe.Sizeof(module)), &needed); err != nil {
		return "", err
	}

	buf := make([]uint16, windows.MAX_LONG_PATH)
	if err := windows.GetModuleFileNameEx(h, module, &buf[0], uint32(len(buf))); err != nil {
		return "", err
	}
	return windows.UTF16ToString(buf), nil
}

// ImageNamePath only needs PROCESS_QUERY_LIMITED_INFORMATION, which is
// granted for far more processes than MainModulePath's access mask.
func ImageNamePath(_ context.Context, pid int) (string, error) {
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		return "", err
	}
	defer windows.CloseHandle(h)

	buf := make([]uint16, windows.MAX_LONG_PATH)
	size := uint32(len(buf))
	if err := windows.QueryFullProcessImageName(h, 0, &buf[0], &size); err != nil {
		return "", err
	}
	return windows.UTF16ToString(buf[:size]), nil
}

// InventoryPath looks the process up in the CIM Win32_Process class. It is
// slow (it starts PowerShell) but runs through the WMI service, which can
// see processes this one cannot open.
func InventoryPath(ctx context.Context, pid int) (string, error) {
	query := fmt.Sprintf("(Get-CimInstance Win32_Process -Filter 'ProcessId=%d').ExecutablePath", pid)
	out, err := exec.CommandContext(ctx, "powershell", "-NoProfile", "-NonInteractive", "-Command", query).Output()
	if err != nil {
		return "", err
	}
	path := strings.TrimSpace(string(out))
	if path == "" {
		return "", errors.New("no executable path in Win32_Process")
	}
	return path, nil
}

// ProcessUser returns DOMAIN\user of the process token owner.
func ProcessUser(pid int) string {
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		return ""
	}
	defer windows.CloseHandle(h)

	var token windows.Token
	if err := windows.OpenProcessToken(h, windows.TOKEN_QUERY, &token); err != nil {
		return ""
	}
	defer token.Close()

	tu, err := token.GetTokenUser()
	if err != nil {
		return ""
	}
	account, domain, _, err := tu.User.Sid.LookupAccount("")
	if err != nil {
		return tu.User.Sid.String()
	}
	if domain == "" {
		return account
	}
	return domain + `\` + account
}

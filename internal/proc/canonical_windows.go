//go:build windows

package proc

import (
	"golang.org/x/sys/windows"
)

const volumeNameDOS = 0x0

// canonicalPath asks the file system for the final path of path, which
// resolves symlinks, junctions, subst drives and mapped drives the same way
// the handle paths in the table were resolved. The file is opened without
// data access, so share modes held by other processes do not get in the way.
func canonicalPath(path string) (string, error) {
	name, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return "", err
	}
	h, err := windows.CreateFile(name, 0,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE|windows.FILE_SHARE_DELETE,
		nil, windows.OPEN_EXISTING, windows.FILE_FLAG_BACKUP_SEMANTICS, 0)
	if err != nil {
		return "", err
	}
	defer windows.CloseHandle(h)

	buf := make([]uint16, windows.MAX_LONG_PATH)
	n, err := windows.GetFinalPathNameByHandle(h, &buf[0], uint32(len(buf)), volumeNameDOS)
	if err != nil {
		return "", err
	}
	if n > uint32(len(buf)) {
		buf = make([]uint16, n)
		if n, err = windows.GetFinalPathNameByHandle(h, &buf[0], uint32(len(buf)), volumeNameDOS); err != nil {
			return "", err
		}
	}
	return NormalizeNTPath(nil, windows.UTF16ToString(buf[:n])), nil
}

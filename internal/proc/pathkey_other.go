//go:build !linux && !windows

package proc

import (
	"path/filepath"
	"strings"
)

// APFS and HFS+ are case-insensitive by default.
func pathKey(p string) string {
	return strings.ToLower(filepath.Clean(p))
}

func fileIdentity(string) (uint64, uint64, bool) {
	return 0, 0, false
}

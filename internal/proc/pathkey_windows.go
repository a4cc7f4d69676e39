//go:build windows

package proc

import (
	"path/filepath"
	"strings"
)

func pathKey(p string) string {
	p = strings.TrimPrefix(p, `\\?\`)
	return strings.ToLower(filepath.Clean(p))
}

func fileIdentity(string) (uint64, uint64, bool) {
	return 0, 0, false
}

//go:build linux

package proc

import "path/filepath"

// Linux filesystems are case-sensitive, so paths are only cleaned.
func pathKey(p string) string {
	return filepath.Clean(p)
}

//go:build !windows

package proc

import "path/filepath"

// canonicalPath resolves every symlink in path, the way the kernel reports
// the paths of open descriptors.
func canonicalPath(path string) (string, error) {
	return filepath.EvalSymlinks(path)
}

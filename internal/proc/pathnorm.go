package proc

import (
	"sort"
	"strings"
)

// NormalizeNTPath rewrites a kernel object path such as
// \Device\HarddiskVolume3\Users\x into its drive-letter form C:\Users\x.
// devices maps NT device names to DOS prefixes ("C:", or `\` for the UNC
// redirector). Paths already in DOS form lose their \\?\ prefix. A path on a
// device with no mapping is returned unchanged.
func NormalizeNTPath(devices map[string]string, ntPath string) string {
	switch {
	case strings.HasPrefix(ntPath, `\\?\UNC\`):
		return `\\` + ntPath[len(`\\?\UNC\`):]
	case strings.HasPrefix(ntPath, `\\?\`):
		return ntPath[len(`\\?\`):]
	case strings.HasPrefix(ntPath, `\??\`):
		return ntPath[len(`\??\`):]
	}

	// longest device name first so \Device\HarddiskVolume10 wins over \Device\HarddiskVolume1
	names := make([]string, 0, len(devices))
	for name := range devices {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })

	for _, name := range names {
		if len(ntPath) < len(name) || !strings.EqualFold(ntPath[:len(name)], name) {
			continue
		}
		rest := ntPath[len(name):]
		if rest != "" && rest[0] != '\\' {
			continue
		}
		prefix := devices[name]
		if prefix == `\` {
			return `\` + rest
		}
		if rest == "" {
			rest = `\`
		}
		return prefix + rest
	}
	return ntPath
}

// defaultDevices holds the mappings that do not come from drive letters.
func defaultDevices() map[string]string {
	return map[string]string{
		`\Device\Mup`:              `\`,
		`\Device\LanmanRedirector`: `\`,
	}
}

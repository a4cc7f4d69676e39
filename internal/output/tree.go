package output

import (
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BinToss/DeadLock/pkg/model"
)

// maxTreeLockers caps the processes listed under one file.
const maxTreeLockers = 10

// PrintTree groups the lockers of a directory scan by the file they were
// found on, relative to the scanned root:
//
//	/srv/data
//	├─ db/wal.log
//	│  └─ postgres (pid 812)
//	└─ logs/app.log
//	   ├─ app (pid 1201)
//	   └─ logrotate (pid 1530)
func PrintTree(w io.Writer, r model.Result, colorEnabled bool) {
	p := NewPrinter(w, colorEnabled)

	p.Printf("%s%s%s\n", statusColor(p, r.Status), r.Path, p.c(colorReset))
	if len(r.Lockers) == 0 {
		return
	}

	byFile := make(map[string][]model.LockerRecord)
	var files []string
	for _, l := range r.Lockers {
		if _, ok := byFile[l.LockedPath]; !ok {
			files = append(files, l.LockedPath)
		}
		byFile[l.LockedPath] = append(byFile[l.LockedPath], l)
	}
	sort.Strings(files)

	for i, file := range files {
		lastFile := i == len(files)-1
		connector, indent := "├─ ", "│  "
		if lastFile {
			connector, indent = "└─ ", "   "
		}
		p.Printf("%s%s%s%s\n", p.c(colorMagenta), connector, p.c(colorReset), relative(r.Path, file))

		lockers := byFile[file]
		count := len(lockers)
		for j, l := range lockers {
			if j >= maxTreeLockers {
				p.Printf("%s%s└─ %s... and %d more\n", indent, p.c(colorMagenta), p.c(colorReset), count-maxTreeLockers)
				break
			}
			child := "├─ "
			if j == count-1 || (j == maxTreeLockers-1 && count <= maxTreeLockers) {
				child = "└─ "
			}
			p.Printf("%s%s%s%s%s%s%s (%spid %d%s)\n", indent, p.c(colorMagenta), child, p.c(colorReset),
				p.c(colorGreen), l.ExecutableName, p.c(colorReset), p.c(colorDim), l.PID, p.c(colorReset))
		}
	}
}

// relative shortens file to a path below root, or returns it unchanged when
// it is the root itself or lies elsewhere.
func relative(root, file string) string {
	rel, err := filepath.Rel(root, file)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return file
	}
	return rel
}

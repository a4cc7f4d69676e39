package output

import (
	"fmt"
	"io"
	"time"

	"github.com/BinToss/DeadLock/pkg/model"
)

// RenderStandard prints a header for the scanned path followed by one block
// per locking process.
func RenderStandard(w io.Writer, r model.Result, colorEnabled bool) {
	p := NewPrinter(w, colorEnabled)

	p.Printf("%sPath%s      : %s\n", p.c(colorBlue), p.c(colorReset), r.Path)
	p.Printf("%sStatus%s    : %s%s%s", p.c(colorBlue), p.c(colorReset), statusColor(p, r.Status), r.Status, p.c(colorReset))
	if n := len(r.Lockers); n > 0 {
		p.Printf(" (%d %s)", n, plural(n, "process", "processes"))
	}
	p.Println()
	if r.Ownership != model.OwnershipUnknown {
		p.Printf("%sOwnership%s : %s\n", p.c(colorBlue), p.c(colorReset), r.Ownership)
	}
	p.Printf("%sScanned%s   : %d %s in %s", p.c(colorBlue), p.c(colorReset), r.FilesScanned, plural(r.FilesScanned, "file", "files"), r.Duration.Round(time.Millisecond))
	switch {
	case r.Cancelled:
		p.Printf(" %s(cancelled, results are partial)%s", p.c(colorYellow), p.c(colorReset))
	case r.Truncated:
		p.Printf(" %s(file limit reached, results are partial)%s", p.c(colorYellow), p.c(colorReset))
	}
	p.Println()

	if len(r.Lockers) == 0 {
		p.Printf("\n%sNo process holds this path open.%s\n", p.c(colorGreen), p.c(colorReset))
		return
	}

	for _, l := range r.Lockers {
		p.Println()
		p.Printf("  %s%s%s %s(pid %d)%s\n", p.c(colorGreen), l.ExecutableName, p.c(colorReset), p.c(colorDim), l.PID, p.c(colorReset))
		p.Printf("    %sExecutable%s : %s\n", p.c(colorCyan), p.c(colorReset), l.ExecutablePath)
		if l.User != "" {
			p.Printf("    %sUser%s       : %s\n", p.c(colorCyan), p.c(colorReset), l.User)
		}
		p.Printf("    %sLocking%s    : %s\n", p.c(colorCyan), p.c(colorReset), l.LockedPath)
	}
}

// RenderError prints a one-line failure for a path that could not be scanned.
func RenderError(w io.Writer, path string, err error, colorEnabled bool) {
	p := NewPrinter(w, colorEnabled)
	p.Printf("%sError%s     : %s: %s\n", p.c(colorRed), p.c(colorReset), path, err)
}

func statusColor(p Printer, s model.Status) ansiString {
	switch s {
	case model.StatusLocked:
		return p.c(colorRed)
	case model.StatusUnlocked:
		return p.c(colorGreen)
	}
	return ""
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// Summary is a single status line, used by watch mode.
func Summary(r model.Result) string {
	if len(r.Lockers) == 0 {
		return fmt.Sprintf("%s: %s", r.Path, r.Status)
	}
	return fmt.Sprintf("%s: %s by %d %s", r.Path, r.Status, len(r.Lockers), plural(len(r.Lockers), "process", "processes"))
}

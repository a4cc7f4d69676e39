package output

import (
	"io"

	"github.com/BinToss/DeadLock/pkg/model"
)

// RenderShort prints one line per locking process, or a single line for an
// unlocked path:
//
//	1234 vim → /home/me/notes.txt
func RenderShort(w io.Writer, r model.Result, colorEnabled bool) {
	p := NewPrinter(w, colorEnabled)

	if len(r.Lockers) == 0 {
		p.Printf("%s%s%s %s\n", p.c(colorGreen), r.Status, p.c(colorReset), r.Path)
		return
	}
	for _, l := range r.Lockers {
		p.Printf("%s%d%s %s%s%s %s→%s %s\n",
			p.c(colorDim), l.PID, p.c(colorReset),
			p.c(colorGreen), l.ExecutableName, p.c(colorReset),
			p.c(colorMagenta), p.c(colorReset),
			l.LockedPath)
	}
}

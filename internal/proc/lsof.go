package proc

import (
	"strconv"
	"strings"

	"github.com/BinToss/DeadLock/pkg/model"
)

// parseLsofFields parses `lsof -F pfn` output. Each process starts with a
// "p<pid>" line; every open file is an "f<descriptor>" line followed by its
// "n<name>" line. Only absolute names are kept, which drops sockets and pipes.
func parseLsofFields(out string, opts Options) []model.OpenHandle {
	var handles []model.OpenHandle
	pid := 0
	fd := ""
	for line := range strings.Lines(out) {
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}
		switch line[0] {
		case 'p':
			pid, _ = strconv.Atoi(line[1:])
			fd = ""
		case 'f':
			fd = line[1:]
		case 'n':
			name := line[1:]
			if pid <= 0 || !strings.HasPrefix(name, "/") {
				continue
			}
			h := model.OpenHandle{PID: pid, Path: name, Kind: model.HandleFile}
			switch fd {
			case "cwd":
				if !opts.IncludeCwd {
					continue
				}
				h.Kind = model.HandleCwd
			case "txt", "mem":
				if !opts.IncludeMaps {
					continue
				}
				h.Kind = model.HandleMmap
			case "rtd":
				continue
			default:
				if n, err := strconv.ParseUint(fd, 10, 64); err == nil {
					h.Handle = n
				}
			}
			handles = append(handles, h)
		}
	}
	return handles
}

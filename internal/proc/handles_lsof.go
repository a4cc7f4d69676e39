//go:build darwin || freebsd

package proc

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"time"

	"github.com/BinToss/DeadLock/pkg/model"
)

const lsofTimeout = 30 * time.Second

func newPlatformEnumerator(ctx context.Context, opts Options) (Enumerator, error) {
	return Snapshot(ctx, opts)
}

// snapshotHandles asks lsof for every open file on the system. lsof does its
// own kernel queries, so the whole run is the disposable unit: it is killed
// when the context or lsofTimeout expires.
func snapshotHandles(ctx context.Context, opts Options) ([]model.OpenHandle, error) {
	ctx, cancel := context.WithTimeout(ctx, lsofTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "lsof", "-n", "-P", "-w", "-F", "pfn").Output()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		// lsof exits 1 when some files could not be examined; the output is still usable.
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 {
			return nil, err
		}
	}

	handles := parseLsofFields(string(out), opts)
	if !opts.IncludeSelf {
		self := os.Getpid()
		kept := handles[:0]
		for _, h := range handles {
			if h.PID != self {
				kept = append(kept, h)
			}
		}
		handles = kept
	}
	opts.logger().Debug("handle snapshot", "handles", len(handles))
	return handles, nil
}

package locker

import (
	"context"

	"github.com/BinToss/DeadLock/pkg/model"
)

// Scan is a GetLockers call running on its own goroutine.
type Scan struct {
	wp     *model.WatchedPath
	cancel context.CancelFunc
	done   chan struct{}

	result model.Result
	err    error
}

// Start runs GetLockers in the background so the caller (a UI loop, a
// watch ticker) stays responsive.
func (r *Resolver) Start(ctx context.Context, wp *model.WatchedPath) *Scan {
	ctx, cancel := context.WithCancel(ctx)
	s := &Scan{wp: wp, cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(s.done)
		defer cancel()
		s.result, s.err = r.GetLockers(ctx, wp)
	}()
	return s
}

// Done is closed when the scan has finished.
func (s *Scan) Done() <-chan struct{} { return s.done }

// Wait blocks until the scan finishes and returns its outcome.
func (s *Scan) Wait() (model.Result, error) {
	<-s.done
	return s.result, s.err
}

// Cancel stops the scan at its next check point. The partial result is
// still delivered through Wait.
func (s *Scan) Cancel() {
	s.wp.RequestCancel()
	s.cancel()
}

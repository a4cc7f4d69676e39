package proc

import (
	"context"
	"time"

	"github.com/BinToss/DeadLock/internal/errors"
)

// queryWithTimeout runs fn on its own goroutine and waits at most timeout
// for it. On timeout or cancellation the goroutine is abandoned, not joined:
// it keeps running until the native call returns and its result is dropped.
// fn must therefore own and release every resource it touches.
func queryWithTimeout[T any](ctx context.Context, timeout time.Duration, fn func() (T, error)) (T, error) {
	if timeout <= 0 {
		return fn()
	}

	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v: v, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var zero T
	select {
	case r := <-ch:
		return r.v, r.err
	case <-timer.C:
		return zero, errors.ErrQueryTimeout
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// collectWithTimeout runs produce on its own goroutine. produce reports each
// step through emit, with keep set when item belongs in the result. The
// timeout applies to a single step rather than to the whole run, so a
// producer that is slow but still advancing is never cut off. When one step
// stalls past timeout, or ctx ends, the goroutine is abandoned and the items
// gathered so far are returned with the error. emit returns false once the
// result is no longer wanted; produce should stop then.
func collectWithTimeout[T any](ctx context.Context, timeout time.Duration, produce func(emit func(item T, keep bool) bool)) ([]T, error) {
	var out []T
	if timeout <= 0 {
		produce(func(item T, keep bool) bool {
			if keep {
				out = append(out, item)
			}
			return ctx.Err() == nil
		})
		return out, ctx.Err()
	}

	type step struct {
		item T
		keep bool
	}
	steps := make(chan step, 64)
	stop := make(chan struct{})
	go func() {
		defer close(steps)
		produce(func(item T, keep bool) bool {
			select {
			case steps <- step{item: item, keep: keep}:
				return true
			case <-stop:
				return false
			}
		})
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case s, ok := <-steps:
			if !ok {
				return out, nil
			}
			if s.keep {
				out = append(out, s.item)
			}
			timer.Reset(timeout)
		case <-timer.C:
			close(stop)
			return out, errors.ErrQueryTimeout
		case <-ctx.Done():
			close(stop)
			return out, ctx.Err()
		}
	}
}

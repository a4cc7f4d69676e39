package process

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct{ calls int }

func (c *call) strategy(name, path string, err error) Strategy {
	return Strategy{Name: name, Resolve: func(context.Context, int) (string, error) {
		c.calls++
		return path, err
	}}
}

// otherPID is any pid that is not the test binary's own.
const otherPID = 1<<22 + 17

func TestExecutablePathFallsThrough(t *testing.T) {
	var first, second, third call
	r := NewResolver("", nil,
		first.strategy("first", "", nil),
		second.strategy("second", "/usr/bin/editor", nil),
		third.strategy("third", "/never", nil),
	)

	id := r.ExecutablePath(context.Background(), otherPID)

	assert.Equal(t, Identity{Path: "/usr/bin/editor", Strategy: "second"}, id)
	assert.Equal(t, "editor", id.Name())
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
	assert.Zero(t, third.calls, "third strategy must not run once one succeeded")
}

func TestExecutablePathSkipsErrors(t *testing.T) {
	var failing, ok call
	r := NewResolver("", nil,
		failing.strategy("denied", "/partial", errors.New("access denied")),
		ok.strategy("ok", "/bin/sh", nil),
	)

	assert.Equal(t, Identity{Path: "/bin/sh", Strategy: "ok"}, r.ExecutablePath(context.Background(), otherPID))
}

func TestExecutablePathSentinel(t *testing.T) {
	var a, b call
	r := NewResolver("", nil,
		a.strategy("a", "", errors.New("nope")),
		b.strategy("b", "", nil),
	)

	id := r.ExecutablePath(context.Background(), otherPID)
	assert.Equal(t, DefaultSentinel, id.Path)
	assert.Empty(t, id.Strategy)
	assert.Equal(t, DefaultSentinel, id.Name())

	custom := NewResolver("unknown", nil, a.strategy("a", "", nil))
	assert.Equal(t, "unknown", custom.ExecutablePath(context.Background(), otherPID).Path)
}

func TestExecutablePathSelf(t *testing.T) {
	var c call
	r := NewResolver("", nil, c.strategy("never", "/x", nil))

	exe, err := os.Executable()
	require.NoError(t, err)

	id := r.ExecutablePath(context.Background(), os.Getpid())
	assert.Equal(t, exe, id.Path)
	assert.Equal(t, StrategySelf, id.Strategy)
	assert.Equal(t, filepath.Base(exe), id.Name())
	assert.Zero(t, c.calls)
}

func TestStrategyTimeout(t *testing.T) {
	slow := Strategy{
		Name:    "slow",
		Timeout: 10 * time.Millisecond,
		Resolve: func(ctx context.Context, _ int) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	}
	var fallback call
	r := NewResolver("", nil, slow, fallback.strategy("fallback", "/bin/true", nil))

	assert.Equal(t, "fallback", r.ExecutablePath(context.Background(), otherPID).Strategy)
}

func TestExecutablePathCancelled(t *testing.T) {
	var c call
	r := NewResolver("", nil, c.strategy("a", "/x", nil))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, DefaultSentinel, r.ExecutablePath(ctx, otherPID).Path)
	assert.Zero(t, c.calls)
}

// Package process resolves what is known about a process from its pid.
//
// The executable path of another process can be hidden from us for many
// reasons (another user, a protected process, a different session), so it is
// looked up through an ordered list of strategies that need progressively
// less access. The first one that yields a path wins.
package process

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/BinToss/DeadLock/internal/logging"
	"github.com/BinToss/DeadLock/internal/proc"
)

// DefaultSentinel is reported as the executable path when no strategy succeeds.
const DefaultSentinel = "Access denied"

// DefaultInventoryTimeout bounds the slow inventory lookup.
const DefaultInventoryTimeout = 5 * time.Second

// Strategy names reported in Identity.Strategy.
const (
	StrategySelf       = "self"
	StrategyMainModule = "main-module"
	StrategyImageName  = "image-name"
	StrategyInventory  = "inventory"
)

// Strategy is one way of finding the executable path of a process.
type Strategy struct {
	Name    string
	Resolve func(ctx context.Context, pid int) (string, error)
	// Timeout bounds Resolve through its context. Zero means no bound.
	Timeout time.Duration
}

// Identity is the outcome of a lookup. Strategy is empty when Path is the
// sentinel.
type Identity struct {
	Path     string
	Strategy string
}

// Name is the base name of Path, or the sentinel itself when unresolved.
func (i Identity) Name() string {
	if i.Strategy == "" {
		return i.Path
	}
	return filepath.Base(i.Path)
}

// Resolver runs its strategies in order until one returns a non-empty path.
type Resolver struct {
	Strategies []Strategy
	Sentinel   string
	Logger     *logging.Logger

	// self is the path of the running executable, consulted before any
	// strategy when the pid is our own.
	selfPID  int
	selfPath string
}

// NewResolver builds a resolver over the given strategies.
func NewResolver(sentinel string, logger *logging.Logger, strategies ...Strategy) *Resolver {
	if sentinel == "" {
		sentinel = DefaultSentinel
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	r := &Resolver{
		Strategies: strategies,
		Sentinel:   sentinel,
		Logger:     logger.WithComponent("identity"),
		selfPID:    os.Getpid(),
	}
	if exe, err := os.Executable(); err == nil {
		r.selfPath = exe
	}
	return r
}

// Default returns the platform chain: main module, image name, then the
// system process inventory bounded by inventoryTimeout.
func Default(sentinel string, inventoryTimeout time.Duration, logger *logging.Logger) *Resolver {
	if inventoryTimeout <= 0 {
		inventoryTimeout = DefaultInventoryTimeout
	}
	return NewResolver(sentinel, logger,
		Strategy{Name: StrategyMainModule, Resolve: proc.MainModulePath},
		Strategy{Name: StrategyImageName, Resolve: proc.ImageNamePath},
		Strategy{Name: StrategyInventory, Resolve: proc.InventoryPath, Timeout: inventoryTimeout},
	)
}

// ExecutablePath never fails: when every strategy comes back empty it
// returns the sentinel with an empty Strategy.
func (r *Resolver) ExecutablePath(ctx context.Context, pid int) Identity {
	if pid == r.selfPID && r.selfPath != "" {
		return Identity{Path: r.selfPath, Strategy: StrategySelf}
	}

	for _, s := range r.Strategies {
		if ctx.Err() != nil {
			break
		}
		path, err := r.run(ctx, s, pid)
		if err != nil {
			r.Logger.Debug("identity strategy failed", "pid", pid, "strategy", s.Name, "error", err)
			continue
		}
		if path == "" {
			r.Logger.Debug("identity strategy returned nothing", "pid", pid, "strategy", s.Name)
			continue
		}
		return Identity{Path: path, Strategy: s.Name}
	}
	return Identity{Path: r.Sentinel}
}

func (r *Resolver) run(ctx context.Context, s Strategy, pid int) (string, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	return s.Resolve(ctx, pid)
}

//go:build !linux && !windows && !darwin && !freebsd

package proc

import (
	"context"

	"github.com/BinToss/DeadLock/internal/errors"
)

func MainModulePath(context.Context, int) (string, error) { return "", errors.ErrUnsupported }

func ImageNamePath(context.Context, int) (string, error) { return "", errors.ErrUnsupported }

func InventoryPath(context.Context, int) (string, error) { return "", errors.ErrUnsupported }

func ProcessUser(int) string { return "" }

//go:build !linux && !windows && !darwin && !freebsd

package proc

import (
	"context"

	"github.com/BinToss/DeadLock/internal/errors"
	"github.com/BinToss/DeadLock/pkg/model"
)

func newPlatformEnumerator(context.Context, Options) (Enumerator, error) {
	return nil, errors.ErrUnsupported
}

func snapshotHandles(context.Context, Options) ([]model.OpenHandle, error) {
	return nil, errors.ErrUnsupported
}

//go:build !unix && !windows

package acl

import (
	"github.com/BinToss/DeadLock/internal/errors"
	"github.com/BinToss/DeadLock/pkg/model"
)

func readACL(string) ([]model.ACE, error) { return nil, errors.ErrUnsupported }

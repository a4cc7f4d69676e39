//go:build unix

package acl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BinToss/DeadLock/internal/errors"
	"github.com/BinToss/DeadLock/pkg/model"
)

func TestModeACEs(t *testing.T) {
	aces := modeACEs(0o640, uint32(os.Getuid()), uint32(os.Getgid()))
	require.Len(t, aces, 3)

	assert.Equal(t, model.ACEAllow, aces[0].Type)
	assert.Equal(t, "rw-", aces[0].Rights)
	assert.Equal(t, model.ACEAllow, aces[1].Type)
	assert.Equal(t, "r--", aces[1].Rights)
	assert.Equal(t, model.ACEDeny, aces[2].Type)
	assert.Equal(t, "other", aces[2].Principal)
	assert.Equal(t, "---", aces[2].Rights)
}

func TestReadNoPermissionBits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locked-down")
	require.NoError(t, os.WriteFile(path, nil, 0o600))
	require.NoError(t, os.Chmod(path, 0))

	aces, err := Read(path)
	require.NoError(t, err)
	for _, ace := range aces {
		assert.Equal(t, model.ACEDeny, ace.Type, ace.Principal)
	}
	assert.Equal(t, model.OwnershipDenied, Decide(aces, err))
}

func TestReadUnreachablePathIsAccessDenied(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root bypasses directory permissions")
	}
	dir := filepath.Join(t.TempDir(), "sealed")
	require.NoError(t, os.Mkdir(dir, 0o755))
	path := filepath.Join(dir, "inner.txt")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	require.NoError(t, os.Chmod(dir, 0))
	t.Cleanup(func() { os.Chmod(dir, 0o755) })

	aces, err := Read(path)
	assert.Nil(t, aces)
	assert.ErrorIs(t, err, errors.ErrAccessDenied)
	assert.Equal(t, model.OwnershipDenied, Decide(aces, err))
}

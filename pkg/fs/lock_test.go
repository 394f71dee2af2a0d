package fs_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rowdb/pkg/fs"
)

func TestLockerExclusion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "table.lock")

	locker := fs.NewLocker(fs.NewReal())

	first, err := locker.TryLock(path)
	require.NoError(t, err)
	defer first.Close()

	_, err = locker.TryLock(path)
	assert.ErrorIs(t, err, fs.ErrWouldBlock)

	require.NoError(t, first.Close())

	second, err := locker.TryLock(path)
	require.NoError(t, err)
	defer second.Close()
}

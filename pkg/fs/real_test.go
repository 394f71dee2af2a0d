package fs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"rowdb/pkg/fs"
)

func TestRealExists(t *testing.T) {
	dir := t.TempDir()
	real := fs.NewReal()

	exists, err := real.Exists(filepath.Join(dir, "missing.tbl"))
	require.NoError(t, err)
	require.False(t, exists)

	path := filepath.Join(dir, "present.tbl")
	require.NoError(t, os.WriteFile(path, []byte("row"), 0o644))

	exists, err = real.Exists(path)
	require.NoError(t, err)
	require.True(t, exists)
}

func TestRealOpenFileCreatesAndReopens(t *testing.T) {
	dir := t.TempDir()
	real := fs.NewReal()
	path := filepath.Join(dir, "table.rowdb")

	f, err := real.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	require.NoError(t, err)
	_, err = f.Write([]byte("preamble"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	reopened, err := real.Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	buf := make([]byte, len("preamble"))
	_, err = reopened.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "preamble", string(buf))
}

func TestRealOpenMissingFileFails(t *testing.T) {
	dir := t.TempDir()
	real := fs.NewReal()

	_, err := real.Open(filepath.Join(dir, "does-not-exist.rowdb"))
	require.Error(t, err)
	require.True(t, os.IsNotExist(err))
}

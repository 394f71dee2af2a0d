package schema_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"rowdb/pkg/fs"
	"rowdb/pkg/schema"
)

func TestLoadRecoversResolvedSchema(t *testing.T) {
	want, err := schema.Resolve(bankConfig())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "t.tbl")
	data := append(append([]byte{}, want.Preamble()...), 0, 0, 0, 0)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	got, err := schema.Load(fs.NewReal(), path)
	require.NoError(t, err)

	require.Equal(t, want.Preamble(), got.Preamble())
	require.Equal(t, want.RowLength, got.RowLength)
	require.Equal(t, want.KeyWidth, got.KeyWidth)
	require.Equal(t, want.DataOffset, got.DataOffset)
	require.Len(t, got.Columns, len(want.Columns))
	for i := range want.Columns {
		require.Equal(t, want.Columns[i].Name, got.Columns[i].Name)
		require.Equal(t, want.Columns[i].Type, got.Columns[i].Type)
		require.Equal(t, want.Columns[i].Width, got.Columns[i].Width)
		require.Equal(t, want.Columns[i].Offset, got.Columns[i].Offset)
		if i > 0 {
			// The key column's default is never persisted (it has none,
			// per spec.md §3), so Load leaves it unset.
			require.Equal(t, want.Columns[i].Default, got.Columns[i].Default)
		}
	}
}

func TestLoadRejectsBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.tbl")
	require.NoError(t, os.WriteFile(path, []byte("not a table file"), 0o644))

	_, err := schema.Load(fs.NewReal(), path)
	require.ErrorIs(t, err, schema.ErrBadMagic)
}

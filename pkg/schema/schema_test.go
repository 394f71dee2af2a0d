package schema_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rowdb/pkg/schema"
)

func bankConfig() schema.Config {
	return schema.Config{
		Key: "userId",
		Values: []schema.ColumnDecl{
			{Name: "userId", HasMax: true, MaxLength: 10},
			{Name: "money", Type: "int32", HasDef: true, Default: int64(0)},
		},
	}
}

func TestResolveKeyFirst(t *testing.T) {
	s, err := schema.Resolve(bankConfig())
	require.NoError(t, err)
	require.Len(t, s.Columns, 2)
	assert.Equal(t, "userId", s.Columns[0].Name)
	assert.Equal(t, "money", s.Columns[1].Name)
	assert.Equal(t, 0, s.Columns[0].Offset)
	assert.Equal(t, 10, s.Columns[1].Offset)
	assert.Equal(t, 14, s.RowLength)
}

func TestResolveIsDeterministic(t *testing.T) {
	a, err := schema.Resolve(bankConfig())
	require.NoError(t, err)
	b, err := schema.Resolve(bankConfig())
	require.NoError(t, err)

	assert.Equal(t, a.Preamble(), b.Preamble())
	if diff := cmp.Diff(a.Columns, b.Columns); diff != "" {
		t.Fatalf("columns differ across identical resolves:\n%s", diff)
	}
}

func TestResolveRejectsKeyWithDefault(t *testing.T) {
	cfg := schema.Config{
		Key: "k",
		Values: []schema.ColumnDecl{
			{Name: "k", HasMax: true, MaxLength: 4, HasDef: true, Default: "x"},
		},
	}
	_, err := schema.Resolve(cfg)
	assert.ErrorIs(t, err, schema.ErrKeyHasDefault)
}

func TestResolveRejectsFixedWidthMaxLength(t *testing.T) {
	cfg := schema.Config{
		Key: "k",
		Values: []schema.ColumnDecl{
			{Name: "k", HasMax: true, MaxLength: 4},
			{Name: "v", Type: "uint32", HasMax: true, MaxLength: 8},
		},
	}
	_, err := schema.Resolve(cfg)
	assert.ErrorIs(t, err, schema.ErrFixedWidthHasMaxLength)
}

func TestResolveRejectsMissingWidthOrDefault(t *testing.T) {
	cfg := schema.Config{
		Key: "k",
		Values: []schema.ColumnDecl{
			{Name: "k", HasMax: true, MaxLength: 4},
			{Name: "v"},
		},
	}
	_, err := schema.Resolve(cfg)
	assert.ErrorIs(t, err, schema.ErrMissingWidthOrDefault)
}

func TestResolveDefaultOnlyWidthIncludesPrefix(t *testing.T) {
	cfg := schema.Config{
		Key: "k",
		Values: []schema.ColumnDecl{
			{Name: "k", HasMax: true, MaxLength: 4},
			{Name: "v", HasDef: true, Default: "hey"},
		},
	}
	s, err := schema.Resolve(cfg)
	require.NoError(t, err)
	v, ok := s.ColumnByName("v")
	require.True(t, ok)
	assert.Equal(t, 5, v.Width) // "hey" (3 bytes) + 2-byte length prefix
}

func TestResolveDuplicateNames(t *testing.T) {
	cfg := schema.Config{
		Key: "k",
		Values: []schema.ColumnDecl{
			{Name: "k", HasMax: true, MaxLength: 4},
			{Name: "k", Type: "uint32"},
		},
	}
	_, err := schema.Resolve(cfg)
	assert.ErrorIs(t, err, schema.ErrDuplicateName)
}

func TestResolveUnknownKey(t *testing.T) {
	cfg := schema.Config{
		Key: "missing",
		Values: []schema.ColumnDecl{
			{Name: "k", HasMax: true, MaxLength: 4},
		},
	}
	_, err := schema.Resolve(cfg)
	assert.ErrorIs(t, err, schema.ErrUnknownKey)
}

func TestPreambleLayout(t *testing.T) {
	s, err := schema.Resolve(bankConfig())
	require.NoError(t, err)

	p := s.Preamble()
	assert.Equal(t, schema.Magic[:], p[:4])

	namesLen := int(p[4]) | int(p[5])<<8
	assert.Equal(t, len(s.NamesBlock)-2, namesLen)
}

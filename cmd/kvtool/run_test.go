package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeSchema(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "schema.hujson")
	doc := `{
		// kvtool test fixture
		key: "id",
		values: [
			{name: "id", type: "uint32"},
			{name: "balance", type: "uint32", default: 0},
			{name: "note", type: "string", maxLength: 32},
		],
	}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func run(t *testing.T, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = Run(args, &out, &errOut)
	return out.String(), errOut.String(), code
}

func TestRunCreateGetSetDel(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeSchema(t, dir)
	dbPath := filepath.Join(dir, "accounts.db")

	out, _, code := run(t, "create", "--schema", schemaPath, dbPath)
	require.Equal(t, 0, code)
	require.Contains(t, out, "created")

	out, _, code = run(t, "set", "--schema", schemaPath, dbPath, "1", "balance=500", "note=alice")
	require.Equal(t, 0, code)
	require.Contains(t, out, "ok")

	out, _, code = run(t, "get", "--schema", schemaPath, dbPath, "1")
	require.Equal(t, 0, code)
	require.Contains(t, out, "balance=500")
	require.Contains(t, out, "note=alice")

	out, _, code = run(t, "size", dbPath)
	require.Equal(t, 0, code)
	require.Equal(t, "1", strings.TrimSpace(out))

	out, _, code = run(t, "del", "--schema", schemaPath, dbPath, "1")
	require.Equal(t, 0, code)
	require.Contains(t, out, "removed")

	out, _, code = run(t, "get", "--schema", schemaPath, dbPath, "1")
	require.Equal(t, 0, code)
	require.Empty(t, out)

	out, _, code = run(t, "size", dbPath)
	require.Equal(t, 0, code)
	require.Equal(t, "0", strings.TrimSpace(out))
}

func TestRunGetMissingKeyPrintsNotFound(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeSchema(t, dir)
	dbPath := filepath.Join(dir, "accounts.db")

	_, _, code := run(t, "create", "--schema", schemaPath, dbPath)
	require.Equal(t, 0, code)

	_, errOut, code := run(t, "get", "--schema", schemaPath, dbPath, "42")
	require.Equal(t, 0, code)
	require.Contains(t, errOut, "not found")
}

func TestRunUnknownCommand(t *testing.T) {
	_, errOut, code := run(t, "bogus")
	require.Equal(t, 1, code)
	require.Contains(t, errOut, "unknown command")
}

func TestRunNoArgsPrintsUsage(t *testing.T) {
	out, _, code := run(t)
	require.Equal(t, 1, code)
	require.Contains(t, out, "kvtool")
}

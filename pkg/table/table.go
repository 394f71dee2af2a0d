// Package table implements the transaction controller and key façade
// described in spec.md §4.6: per-key serialized read-modify-write bodies
// over a [rowfile.Engine], with a single global file lock guaranteeing
// that row cache, index cache, and file stay consistent across keys.
package table

import (
	"errors"
	"fmt"
	"sync"

	"rowdb/pkg/codec"
	"rowdb/pkg/fs"
	"rowdb/pkg/rowfile"
	"rowdb/pkg/schema"
)

// Fields is the row snapshot a transaction body reads and mutates: a
// mapping from column name to value (string or int64), per spec.md §9.
type Fields = rowfile.Fields

// ColumnSpec is one user-supplied column declaration, per spec.md §3 and
// §6. Type defaults to "string" when empty. MaxLength is a pointer so
// Options can distinguish "not declared" from "declared as 0" the same
// way it distinguishes an undeclared IndexCache/IndexData from an
// explicit 0 (see Options).
type ColumnSpec struct {
	Name      string
	Type      string
	MaxLength *int
	Default   any
}

// Options configures a table, per spec.md §6. IndexCache and IndexData
// are pointers: nil selects the documented default (1024 and 64
// respectively), while a pointer to 0 explicitly disables the
// corresponding cache (spec.md §6: "0 disables caching but not
// correctness"). A bare zero value can't carry both meanings, and the
// distinction is load-bearing for spec.md §8's indexData=0 scenario.
type Options struct {
	Key        string
	Values     []ColumnSpec
	IndexCache *int
	IndexData  *int

	// FS overrides the filesystem implementation; nil selects [fs.NewReal].
	// A new file's initial preamble is written to path directly, not
	// through FS.
	FS fs.FS
}

const (
	defaultIndexCache = 1024
	defaultIndexData  = 64
)

// Table is an open table file: a resolved schema, the underlying
// [rowfile.Engine], and the per-key/global-file locking described in
// spec.md §5.
type Table struct {
	file   *rowfile.File
	engine *rowfile.Engine
	schema *schema.Schema

	fileMu sync.Mutex
	closed bool

	keysMu sync.Mutex
	keys   map[string]*keyChain
}

// keyChain is the per-key serialization lock from spec.md §5, reference
// counted so idle entries can be pruned (spec.md §9 "prune entries whose
// chain is empty").
type keyChain struct {
	mu       sync.Mutex
	refCount int
}

// Open creates or opens the table file at path, per spec.md §3
// Lifecycle: configuration errors are returned before any file is
// touched; schema-mismatch errors are returned after the file handle
// that detected them has already been closed.
func Open(path string, opts Options) (*Table, error) {
	if opts.Key == "" {
		return nil, ErrMissingKey
	}

	sch, err := schema.Resolve(toSchemaConfig(opts))
	if err != nil {
		return nil, fmt.Errorf("table: resolve schema: %w", err)
	}

	fsys := opts.FS
	if fsys == nil {
		fsys = fs.NewReal()
	}

	return open(fsys, path, sch, opts.IndexCache, opts.IndexData)
}

// AttachOptions configures [Attach]. Unlike [Options], it carries no
// column declarations: the schema is recovered from the file itself.
type AttachOptions struct {
	IndexCache *int
	IndexData  *int

	// FS overrides the filesystem implementation; nil selects [fs.NewReal].
	FS fs.FS
}

// ErrNoSuchTable indicates Attach was asked to open a file that doesn't
// exist. Unlike [Open], Attach never creates one: without a caller-
// supplied column list there is nothing to create it from.
var ErrNoSuchTable = errors.New("table: no such table file")

// Attach opens an existing table file using only its own preamble,
// without a caller-supplied [Options.Values] — the file's names, header,
// and defaults blocks are self-describing (spec.md §6's file-format
// table), so cmd/kvtool's "repl" subcommand can operate on a table whose
// schema declaration it was never handed. (The "size" subcommand reads only
// the row count, through rowfile.Peek.)
func Attach(path string, opts AttachOptions) (*Table, error) {
	fsys := opts.FS
	if fsys == nil {
		fsys = fs.NewReal()
	}

	exists, err := fsys.Exists(path)
	if err != nil {
		return nil, fmt.Errorf("table: stat %q: %w", path, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrNoSuchTable, path)
	}

	sch, err := schema.Load(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("table: attach %q: %w", path, err)
	}

	return open(fsys, path, sch, opts.IndexCache, opts.IndexData)
}

// open resolves cache sizes and wires up a Table over an already-resolved
// schema; shared by [Open] and [Attach], which differ only in how sch is
// obtained.
func open(fsys fs.FS, path string, sch *schema.Schema, indexCacheOpt, indexDataOpt *int) (*Table, error) {
	indexCache := defaultIndexCache
	if indexCacheOpt != nil {
		indexCache = *indexCacheOpt
	}
	indexData := defaultIndexData
	if indexDataOpt != nil {
		indexData = *indexDataOpt
	}
	if indexCache < 0 || indexData < 0 {
		return nil, ErrNegativeOption
	}

	rf, err := rowfile.Open(fsys, path, sch)
	if err != nil {
		return nil, err
	}

	return &Table{
		file:   rf,
		engine: rowfile.NewEngine(rf, sch, indexCache, indexData),
		schema: sch,
		keys:   make(map[string]*keyChain),
	}, nil
}

// ColumnType returns the declared type name of column name, or "" if no
// such column exists. Used by callers (cmd/kvtool's REPL) that attached
// without their own column declarations and need to parse a raw
// command-line value against the recovered schema.
func (t *Table) ColumnType(name string) (string, bool) {
	col, ok := t.schema.ColumnByName(name)
	if !ok {
		return "", false
	}
	name, err := codec.NameOfTypeID(col.Type)
	if err != nil {
		return "", false
	}
	return name, true
}

// KeyName returns the name of the key column.
func (t *Table) KeyName() string {
	return t.schema.Key().Name
}

func toSchemaConfig(opts Options) schema.Config {
	decls := make([]schema.ColumnDecl, 0, len(opts.Values))
	for _, v := range opts.Values {
		d := schema.ColumnDecl{Name: v.Name, Type: v.Type}
		if v.MaxLength != nil {
			d.HasMax = true
			d.MaxLength = *v.MaxLength
		}
		if v.Default != nil {
			d.HasDef = true
			d.Default = v.Default
		}
		decls = append(decls, d)
	}
	return schema.Config{Key: opts.Key, Values: decls}
}

// Txn is a key bound to an open table, returned by [Table.At]. It carries
// no state of its own beyond the encoded key; submitting a body is what
// actually runs a transaction.
type Txn struct {
	table  *Table
	keyBuf []byte
}

// Body is a transaction body: it receives the row's current snapshot and
// a control handle, may mutate the snapshot in place, and returns a
// caller-chosen value. A returned error aborts the transaction without
// persisting anything (spec.md §4.6 step 3/§7 "Body errors").
type Body func(row Fields, h *Handle) (any, error)

// At validates and normalizes key against the key column's type and
// width, per spec.md §4.6 "Key façade surface", and returns a [Txn] bound
// to it. Submitting a body on the returned Txn is the only way to touch
// the row.
func (t *Table) At(key any) (Txn, error) {
	keyCol := t.schema.Key()
	if err := codec.Validate(keyCol.Type, keyCol.Width, key); err != nil {
		return Txn{}, fmt.Errorf("%w: %v", ErrInvalidKeyValue, err)
	}

	keyBuf := make([]byte, keyCol.Width)
	if err := codec.Write(keyBuf, keyCol.Type, key, 0); err != nil {
		return Txn{}, fmt.Errorf("%w: %v", ErrInvalidKeyValue, err)
	}

	return Txn{table: t, keyBuf: keyBuf}, nil
}

// Submit runs body against the row at this Txn's key, serialized against
// any other in-flight transaction for the same key, and returns a
// [Future] immediately without waiting for it to complete. The operation
// sequence is spec.md §4.6 "Operation sequence for key k" steps 1-5.
func (tx Txn) Submit(body Body) *Future {
	future := newFuture()
	rowKey := string(tx.keyBuf)
	chain := tx.table.acquireKeyChain(rowKey)

	go func() {
		chain.mu.Lock()
		defer func() {
			chain.mu.Unlock()
			tx.table.releaseKeyChain(rowKey)
		}()
		tx.run(body, future)
	}()

	return future
}

func (tx Txn) run(body Body, future *Future) {
	t := tx.table

	t.fileMu.Lock()
	if t.closed {
		t.fileMu.Unlock()
		future.complete(nil, ErrClosed)
		return
	}
	fields, exists, err := t.engine.Load(tx.keyBuf)
	t.fileMu.Unlock()
	if err != nil {
		future.complete(nil, err)
		return
	}

	old := cloneForDiff(fields)
	handle := newHandle(exists)

	ret, bodyErr := runBody(body, fields, handle)
	if bodyErr != nil {
		future.complete(nil, bodyErr)
		return
	}

	if handle.Removed() {
		if exists {
			t.fileMu.Lock()
			err := t.engine.Remove(tx.keyBuf)
			t.fileMu.Unlock()
			if err != nil {
				future.complete(ret, err)
				return
			}
		}
		future.complete(ret, nil)
		return
	}

	for _, col := range t.schema.NonKey() {
		v := valueOrDefault(fields, col)
		if err := codec.Validate(col.Type, col.Width, v); err != nil {
			future.complete(nil, fmt.Errorf("%w: column %q: %v", ErrInvalidField, col.Name, err))
			return
		}
	}

	dirty := false
	for _, col := range t.schema.NonKey() {
		if valueOrDefault(fields, col) != valueOrDefault(old, col) {
			dirty = true
			break
		}
	}

	if dirty || (!exists && handle.Confirmed()) {
		t.fileMu.Lock()
		err := t.engine.Write(tx.keyBuf, fields)
		t.fileMu.Unlock()
		if err != nil {
			future.complete(ret, err)
			return
		}
	}

	future.complete(ret, nil)
}

// runBody invokes body, recovering a panic into ErrBodyPanic so a
// misbehaving body cannot wedge its key chain forever (an explicit
// strengthening over spec.md's "blocks its key chain forever" language).
func runBody(body Body, fields Fields, h *Handle) (ret any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrBodyPanic, r)
		}
	}()
	return body(fields, h)
}

func cloneForDiff(f Fields) Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

func valueOrDefault(f Fields, col schema.Column) any {
	if v, ok := f[col.Name]; ok {
		return v
	}
	return col.Default
}

// Size returns the current row count. Rows held only in the row cache are
// written back first so that they are counted; a write-back error is not
// reported, and the count then covers only the rows that reached disk.
func (t *Table) Size() int {
	t.fileMu.Lock()
	defer t.fileMu.Unlock()
	if !t.closed {
		_ = t.engine.Flush()
	}
	return int(t.file.RowCount())
}

// Close flushes every row cache entry and releases the file handle, per
// spec.md §3 Lifecycle. Repeated calls are a no-op.
func (t *Table) Close() error {
	t.fileMu.Lock()
	defer t.fileMu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	return errors.Join(t.engine.Flush(), t.file.Close())
}

func (t *Table) acquireKeyChain(key string) *keyChain {
	t.keysMu.Lock()
	defer t.keysMu.Unlock()
	c, ok := t.keys[key]
	if !ok {
		c = &keyChain{}
		t.keys[key] = c
	}
	c.refCount++
	return c
}

func (t *Table) releaseKeyChain(key string) {
	t.keysMu.Lock()
	defer t.keysMu.Unlock()
	c, ok := t.keys[key]
	if !ok {
		return
	}
	c.refCount--
	if c.refCount == 0 {
		delete(t.keys, key)
	}
}

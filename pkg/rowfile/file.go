// Package rowfile implements the on-disk file layout manager, the
// linear-scan primary-key index cache, and the bounded row cache described
// in spec.md §4.3–§4.5. It knows nothing about per-key locking or the
// transaction protocol — those live in pkg/table, one layer up.
package rowfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	natomic "github.com/natefinch/atomic"

	"rowdb/pkg/fs"
	"rowdb/pkg/schema"
)

// ErrSchemaMismatch indicates the file's on-disk preamble does not match
// the schema the caller resolved for this open. Per spec.md §3, this is
// fatal: the handle is closed before the error is returned.
var ErrSchemaMismatch = errors.New("rowfile: schema does not match existing file")

// File is the file layout manager: it owns the open file handle, knows the
// frozen preamble and row layout, and exposes row-index-addressed reads
// and writes. Callers (pkg/table) are responsible for serializing access;
// File itself does no locking.
type File struct {
	fsys     fs.FS
	handle   fs.File
	schema   *schema.Schema
	rowCount int64
	path     string
}

// Open opens path if it exists (verifying its preamble matches sch) or
// creates it fresh otherwise, per spec.md §4.3.
func Open(fsys fs.FS, path string, sch *schema.Schema) (*File, error) {
	exists, err := fsys.Exists(path)
	if err != nil {
		return nil, fmt.Errorf("rowfile: stat %q: %w", path, err)
	}

	if !exists {
		return create(fsys, path, sch)
	}
	return openExisting(fsys, path, sch)
}

// create writes a fresh preamble (magic + names + header + defaults + a
// zero row count) atomically, then reopens the file for random-access row
// I/O. The atomic write is the one upgrade over "best effort, no fsync"
// durability this engine makes (see DESIGN.md, Open Question O4): a crash
// mid-creation can never leave a half-written, unopenable table file.
func create(fsys fs.FS, path string, sch *schema.Schema) (*File, error) {
	preamble := sch.Preamble()
	initial := make([]byte, 0, len(preamble)+4)
	initial = append(initial, preamble...)
	initial = append(initial, 0, 0, 0, 0) // row count = 0

	if err := natomic.WriteFile(path, bytes.NewReader(initial)); err != nil {
		return nil, fmt.Errorf("rowfile: create %q: %w", path, err)
	}

	handle, err := fsys.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("rowfile: reopen %q after create: %w", path, err)
	}

	return &File{fsys: fsys, handle: handle, schema: sch, rowCount: 0, path: path}, nil
}

// openExisting opens path for read/write, verifies its preamble byte for
// byte against sch, and reads the persisted row count.
func openExisting(fsys fs.FS, path string, sch *schema.Schema) (*File, error) {
	handle, err := fsys.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("rowfile: open %q: %w", path, err)
	}

	expected := sch.Preamble()
	got := make([]byte, len(expected))
	if _, err := handle.Seek(0, 0); err != nil {
		_ = handle.Close()
		return nil, fmt.Errorf("rowfile: seek %q: %w", path, err)
	}
	if _, err := readFull(handle, got); err != nil {
		_ = handle.Close()
		return nil, fmt.Errorf("%w: %q: %v", ErrSchemaMismatch, path, err)
	}
	if !bytes.Equal(expected, got) {
		_ = handle.Close()
		return nil, fmt.Errorf("%w: %q", ErrSchemaMismatch, path)
	}

	countBuf := make([]byte, 4)
	if _, err := handle.Seek(int64(len(expected)), 0); err != nil {
		_ = handle.Close()
		return nil, fmt.Errorf("rowfile: seek row count %q: %w", path, err)
	}
	if _, err := readFull(handle, countBuf); err != nil {
		_ = handle.Close()
		return nil, fmt.Errorf("rowfile: read row count %q: %w", path, err)
	}

	return &File{
		fsys:     fsys,
		handle:   handle,
		schema:   sch,
		rowCount: int64(binary.LittleEndian.Uint32(countBuf)),
		path:     path,
	}, nil
}

// RowCount returns the number of rows currently persisted.
func (f *File) RowCount() int64 { return f.rowCount }

// RowOffset returns the absolute byte offset of row i.
func (f *File) RowOffset(i int64) int64 {
	return f.schema.DataOffset + i*int64(f.schema.RowLength)
}

// ReadRow reads the full row bytes for row i into buf, which must be at
// least RowLength bytes.
func (f *File) ReadRow(i int64, buf []byte) error {
	return f.readAt(f.RowOffset(i), buf[:f.schema.RowLength])
}

// WriteRow writes the full row bytes for row i from buf.
func (f *File) WriteRow(i int64, buf []byte) error {
	return f.writeAt(f.RowOffset(i), buf[:f.schema.RowLength])
}

// ReadKey reads only the key-width prefix of row i into buf.
func (f *File) ReadKey(i int64, buf []byte) error {
	return f.readAt(f.RowOffset(i), buf[:f.schema.KeyWidth])
}

// AppendRow increments the row count, persists the new count, and returns
// the index of the newly allocated (not yet written) row. Per spec.md
// §4.4 step 3, the row bytes themselves are not initialized here.
func (f *File) AppendRow() (int64, error) {
	idx := f.rowCount
	if err := f.SetRowCount(f.rowCount + 1); err != nil {
		return 0, err
	}
	return idx, nil
}

// SetRowCount persists n as the row count at its fixed offset and updates
// the in-memory count.
func (f *File) SetRowCount(n int64) error {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(n))
	if err := f.writeAt(f.schema.DataOffset-4, buf); err != nil {
		return err
	}
	f.rowCount = n
	return nil
}

// Truncate shrinks the file to size bytes, per spec.md §4.5 removal.
func (f *File) Truncate(size int64) error {
	if err := f.handle.Truncate(size); err != nil {
		return fmt.Errorf("rowfile: truncate %q: %w", f.path, err)
	}
	return nil
}

// Close releases the underlying file handle.
func (f *File) Close() error {
	if err := f.handle.Close(); err != nil {
		return fmt.Errorf("rowfile: close %q: %w", f.path, err)
	}
	return nil
}

func (f *File) readAt(offset int64, buf []byte) error {
	if _, err := f.handle.Seek(offset, 0); err != nil {
		return fmt.Errorf("rowfile: seek %q@%d: %w", f.path, offset, err)
	}
	if _, err := readFull(f.handle, buf); err != nil {
		return fmt.Errorf("rowfile: read %q@%d: %w", f.path, offset, err)
	}
	return nil
}

func (f *File) writeAt(offset int64, buf []byte) error {
	if _, err := f.handle.Seek(offset, 0); err != nil {
		return fmt.Errorf("rowfile: seek %q@%d: %w", f.path, offset, err)
	}
	if _, err := f.handle.Write(buf); err != nil {
		return fmt.Errorf("rowfile: write %q@%d: %w", f.path, offset, err)
	}
	return nil
}

func readFull(r interface{ Read([]byte) (int, error) }, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, fmt.Errorf("rowfile: short read")
		}
	}
	return total, nil
}

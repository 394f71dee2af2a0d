package rowfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"rowdb/pkg/fs"
	"rowdb/pkg/schema"
)

// ErrBadMagic indicates a file does not begin with the table magic bytes.
var ErrBadMagic = errors.New("rowfile: bad magic")

// Peek reads just enough of a table file to report its row count, without
// requiring the caller to already know its schema. It exploits the fact
// that the header block (spec.md §6) records every column's on-disk
// width, which is enough to locate the row count field that follows the
// defaults block, even though the defaults block itself carries no
// length prefix of its own.
//
// It is used by cmd/kvtool's "size" subcommand, which, like "repl", takes
// no --schema flag.
func Peek(fsys fs.FS, path string) (int64, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return 0, fmt.Errorf("rowfile: peek %q: %w", path, err)
	}
	defer f.Close()

	magic := make([]byte, 4)
	if _, err := readFull(f, magic); err != nil {
		return 0, fmt.Errorf("rowfile: peek %q: %w", path, err)
	}
	if !bytes.Equal(magic, schema.Magic[:]) {
		return 0, fmt.Errorf("%w: %q", ErrBadMagic, path)
	}

	namesLenBuf := make([]byte, 2)
	if _, err := readFull(f, namesLenBuf); err != nil {
		return 0, fmt.Errorf("rowfile: peek %q: %w", path, err)
	}
	namesLen := int64(binary.LittleEndian.Uint16(namesLenBuf))
	if _, err := io.CopyN(io.Discard, f, namesLen); err != nil {
		return 0, fmt.Errorf("rowfile: peek %q: %w", path, err)
	}

	headerLenBuf := make([]byte, 4)
	if _, err := readFull(f, headerLenBuf); err != nil {
		return 0, fmt.Errorf("rowfile: peek %q: %w", path, err)
	}
	headerLen := int(binary.LittleEndian.Uint32(headerLenBuf))
	headerPayload := make([]byte, headerLen)
	if _, err := readFull(f, headerPayload); err != nil {
		return 0, fmt.Errorf("rowfile: peek %q: %w", path, err)
	}

	var defaultsLen int64
	numColumns := headerLen / 3
	for i := 1; i < numColumns; i++ { // skip column 0, the key column
		width := binary.LittleEndian.Uint16(headerPayload[i*3+1:])
		defaultsLen += int64(width)
	}
	if _, err := io.CopyN(io.Discard, f, defaultsLen); err != nil {
		return 0, fmt.Errorf("rowfile: peek %q: %w", path, err)
	}

	rowCountBuf := make([]byte, 4)
	if _, err := readFull(f, rowCountBuf); err != nil {
		return 0, fmt.Errorf("rowfile: peek %q: %w", path, err)
	}
	return int64(binary.LittleEndian.Uint32(rowCountBuf)), nil
}

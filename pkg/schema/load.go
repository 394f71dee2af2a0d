package schema

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"rowdb/pkg/codec"
	"rowdb/pkg/fs"
)

// ErrBadMagic indicates a file does not begin with [Magic].
var ErrBadMagic = errors.New("schema: bad magic")

// Load reconstructs a Schema purely from an existing table file's
// preamble, without a caller-supplied [Config]. The header block already
// records every column's type id and width (spec.md §6), and the names
// and defaults blocks supply the rest, so the file is fully
// self-describing — this is what lets cmd/kvtool's "repl" subcommand
// (through table.Attach) operate on a table without also being handed its
// schema declaration. The "size" subcommand uses rowfile.Peek instead.
func Load(fsys fs.FS, path string) (*Schema, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("schema: load %q: %w", path, err)
	}
	defer f.Close()

	magic := make([]byte, 4)
	if _, err := readFull(f, magic); err != nil {
		return nil, fmt.Errorf("schema: load %q: %w", path, err)
	}
	if !bytes.Equal(magic, Magic[:]) {
		return nil, fmt.Errorf("%w: %q", ErrBadMagic, path)
	}

	namesLenBuf := make([]byte, 2)
	if _, err := readFull(f, namesLenBuf); err != nil {
		return nil, fmt.Errorf("schema: load %q: %w", path, err)
	}
	namesPayload := make([]byte, binary.LittleEndian.Uint16(namesLenBuf))
	if _, err := readFull(f, namesPayload); err != nil {
		return nil, fmt.Errorf("schema: load %q: %w", path, err)
	}
	names := splitNUL(namesPayload)

	headerLenBuf := make([]byte, 4)
	if _, err := readFull(f, headerLenBuf); err != nil {
		return nil, fmt.Errorf("schema: load %q: %w", path, err)
	}
	headerPayload := make([]byte, binary.LittleEndian.Uint32(headerLenBuf))
	if _, err := readFull(f, headerPayload); err != nil {
		return nil, fmt.Errorf("schema: load %q: %w", path, err)
	}

	numColumns := len(headerPayload) / 3
	if numColumns != len(names) {
		return nil, fmt.Errorf("schema: load %q: names/header column count mismatch", path)
	}

	columns := make([]Column, numColumns)
	offset := 0
	defaultsLen := 0
	for i := 0; i < numColumns; i++ {
		typeID := codec.Type(headerPayload[i*3])
		width := int(binary.LittleEndian.Uint16(headerPayload[i*3+1:]))
		columns[i] = Column{Name: names[i], Type: typeID, Width: width, Offset: offset}
		offset += width
		if i > 0 {
			defaultsLen += width
		}
	}
	rowLength := offset

	defaultsPayload := make([]byte, defaultsLen)
	if _, err := readFull(f, defaultsPayload); err != nil {
		return nil, fmt.Errorf("schema: load %q: %w", path, err)
	}

	defaultsOffset := 0
	for i := 1; i < numColumns; i++ {
		v, err := codec.Read(defaultsPayload, columns[i].Type, defaultsOffset)
		if err != nil {
			return nil, fmt.Errorf("schema: load %q: decode default for %q: %w", path, columns[i].Name, err)
		}
		columns[i].Default = v
		defaultsOffset += columns[i].Width
	}

	namesBlock := append(append([]byte{}, namesLenBuf...), namesPayload...)
	headerBlock := append(append([]byte{}, headerLenBuf...), headerPayload...)

	s := &Schema{
		Columns:       columns,
		KeyWidth:      columns[0].Width,
		RowLength:     rowLength,
		NamesBlock:    namesBlock,
		HeaderBlock:   headerBlock,
		DefaultsBlock: defaultsPayload,
	}
	s.DataOffset = int64(4+len(s.NamesBlock)+len(s.HeaderBlock)+len(s.DefaultsBlock)) + 4
	return s, nil
}

func splitNUL(payload []byte) []string {
	var names []string
	start := 0
	for i, b := range payload {
		if b == 0 {
			names = append(names, string(payload[start:i]))
			start = i + 1
		}
	}
	return names
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
			return total, fmt.Errorf("schema: short read")
		}
	}
	return total, nil
}

// Package schema resolves a table's column declarations into a fixed
// on-disk row layout: byte offsets, default values, and the preamble bytes
// (names/header/defaults blocks) used to detect schema drift on reopen.
package schema

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"rowdb/pkg/codec"
)

// Magic is the four-byte sentinel at the start of every table file.
var Magic = [4]byte{0x0B, 0x0A, 0x0D, 0x0B}

var (
	// ErrEmptyName indicates a column declaration with no name.
	ErrEmptyName = errors.New("schema: column name must not be empty")
	// ErrDuplicateName indicates two columns share a name.
	ErrDuplicateName = errors.New("schema: duplicate column name")
	// ErrUnknownKey indicates the configured key name has no matching declaration.
	ErrUnknownKey = errors.New("schema: key column not declared")
	// ErrKeyHasDefault indicates the key column declared a default value.
	ErrKeyHasDefault = errors.New("schema: key column must not declare a default")
	// ErrFixedWidthHasMaxLength indicates a fixed-width column declared an explicit width.
	ErrFixedWidthHasMaxLength = errors.New("schema: fixed-width column must not declare maxLength")
	// ErrMissingWidthOrDefault indicates a non-fixed-width column declared neither.
	ErrMissingWidthOrDefault = errors.New("schema: column must declare maxLength or default")
	// ErrDefaultOutOfRange indicates a default value does not fit the resolved width.
	ErrDefaultOutOfRange = errors.New("schema: default value out of range")
	// ErrNoValues indicates an empty values list.
	ErrNoValues = errors.New("schema: values must not be empty")
)

// ColumnDecl is one user-supplied column declaration. Type defaults to
// "string" when empty.
type ColumnDecl struct {
	Name      string
	Type      string
	MaxLength int // used only when HasMax is set
	Default   any // used only when HasDef is set
	HasMax    bool
	HasDef    bool
}

// Config names the key column and lists every column, per spec.md §6.
type Config struct {
	Key    string
	Values []ColumnDecl
}

// Column is one resolved column: its wire type, on-disk width (including,
// for strings, the two length-prefix bytes), default value, and byte
// offset within a row.
type Column struct {
	Name    string
	Type    codec.Type
	Width   int
	Default any
	Offset  int
}

// Schema is the resolved, ordered column list plus the frozen preamble
// bytes used for schema-compatibility checking on reopen.
type Schema struct {
	Columns   []Column // key first, then value columns in declaration order
	KeyWidth  int
	RowLength int

	NamesBlock    []byte // includes the 2-byte length prefix
	HeaderBlock   []byte // includes the 4-byte length prefix
	DefaultsBlock []byte // non-key column defaults, concatenated

	// DataOffset is the byte offset of the first row: len(Preamble) + 4
	// (row count).
	DataOffset int64
}

// Key returns the resolved key column (always Columns[0]).
func (s *Schema) Key() Column { return s.Columns[0] }

// NonKey returns every column after the key column, in on-disk order.
func (s *Schema) NonKey() []Column { return s.Columns[1:] }

// ColumnByName returns the resolved column with the given name, or false.
func (s *Schema) ColumnByName(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Preamble returns the full frozen preamble: magic + names + header +
// defaults, in file order.
func (s *Schema) Preamble() []byte {
	out := make([]byte, 0, 4+len(s.NamesBlock)+len(s.HeaderBlock)+len(s.DefaultsBlock))
	out = append(out, Magic[:]...)
	out = append(out, s.NamesBlock...)
	out = append(out, s.HeaderBlock...)
	out = append(out, s.DefaultsBlock...)
	return out
}

// Resolve validates cfg against the rules in spec.md §3 and computes the
// resolved column list, row layout, and preamble bytes. Resolve is pure:
// calling it twice with identical input produces byte-identical preamble
// bytes (the schema-compatibility check in spec.md §4.2 relies on this).
func Resolve(cfg Config) (*Schema, error) {
	if len(cfg.Values) == 0 {
		return nil, ErrNoValues
	}

	seen := make(map[string]bool, len(cfg.Values))
	var keyDecl *ColumnDecl
	ordered := make([]ColumnDecl, 0, len(cfg.Values))

	for i := range cfg.Values {
		d := cfg.Values[i]
		if d.Name == "" {
			return nil, ErrEmptyName
		}
		if seen[d.Name] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, d.Name)
		}
		seen[d.Name] = true

		if d.Type == "" {
			d.Type = "string"
		}

		if d.Name == cfg.Key {
			if d.HasDef {
				return nil, fmt.Errorf("%w: %q", ErrKeyHasDefault, d.Name)
			}
			kd := d
			keyDecl = &kd
			continue
		}
		ordered = append(ordered, d)
	}

	if keyDecl == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKey, cfg.Key)
	}

	resolvedKey, err := resolveColumn(*keyDecl)
	if err != nil {
		return nil, err
	}

	columns := make([]Column, 0, len(cfg.Values))
	columns = append(columns, resolvedKey)

	offset := resolvedKey.Width
	defaults := make([]byte, 0, 64)

	for _, d := range ordered {
		col, err := resolveColumn(d)
		if err != nil {
			return nil, err
		}
		col.Offset = offset
		offset += col.Width
		columns = append(columns, col)

		buf := make([]byte, col.Width)
		if err := codec.Write(buf, col.Type, col.Default, 0); err != nil {
			return nil, fmt.Errorf("schema: encode default for %q: %w", col.Name, err)
		}
		// Keep the default in the Go form a decoded row holds (string or
		// int64), whatever Go type the declaration used.
		if v, err := codec.Read(buf, col.Type, 0); err == nil {
			columns[len(columns)-1].Default = v
		}
		defaults = append(defaults, buf...)
	}
	columns[0].Offset = 0

	rowLength := offset

	s := &Schema{
		Columns:       columns,
		KeyWidth:      resolvedKey.Width,
		RowLength:     rowLength,
		DefaultsBlock: defaults,
	}
	s.NamesBlock = buildNamesBlock(columns)
	s.HeaderBlock = buildHeaderBlock(columns)
	s.DataOffset = int64(4+len(s.NamesBlock)+len(s.HeaderBlock)+len(s.DefaultsBlock)) + 4

	return s, nil
}

// resolveColumn applies the width/default rules from spec.md §3 to a
// single declaration, independent of key/non-key position.
func resolveColumn(d ColumnDecl) (Column, error) {
	t, err := codec.TypeIDOf(d.Type)
	if err != nil {
		return Column{}, fmt.Errorf("column %q: %w", d.Name, err)
	}

	if codec.IsFixedWidth(t) {
		if d.HasMax {
			return Column{}, fmt.Errorf("%w: %q", ErrFixedWidthHasMaxLength, d.Name)
		}
		width := codec.FixedWidth(t)
		def := d.Default
		if !d.HasDef {
			def = zeroValueFor(t)
		}
		if err := codec.Validate(t, width, def); err != nil {
			return Column{}, fmt.Errorf("%w: column %q: %v", ErrDefaultOutOfRange, d.Name, err)
		}
		return Column{Name: d.Name, Type: t, Width: width, Default: def}, nil
	}

	// String (or any future non-fixed-width type).
	var width int
	switch {
	case d.HasMax:
		width = d.MaxLength
	case d.HasDef:
		s, _ := d.Default.(string)
		width = len(s) + 2
	default:
		return Column{}, fmt.Errorf("%w: %q", ErrMissingWidthOrDefault, d.Name)
	}

	def := d.Default
	if !d.HasDef {
		def = ""
	}
	if err := codec.Validate(t, width, def); err != nil {
		return Column{}, fmt.Errorf("%w: column %q: %v", ErrDefaultOutOfRange, d.Name, err)
	}
	return Column{Name: d.Name, Type: t, Width: width, Default: def}, nil
}

func zeroValueFor(t codec.Type) any {
	switch t {
	case codec.TypeUint32, codec.TypeInt32, codec.TypeUint16, codec.TypeInt16, codec.TypeUint8, codec.TypeInt8:
		return int64(0)
	default:
		return ""
	}
}

// buildNamesBlock encodes the 2-byte-length-prefixed, NUL-terminated names
// block in on-disk column order.
func buildNamesBlock(columns []Column) []byte {
	var payload bytes.Buffer
	for _, c := range columns {
		payload.WriteString(c.Name)
		payload.WriteByte(0)
	}
	out := make([]byte, 2+payload.Len())
	binary.LittleEndian.PutUint16(out, uint16(payload.Len()))
	copy(out[2:], payload.Bytes())
	return out
}

// buildHeaderBlock encodes the 4-byte-length-prefixed header block: one
// (u8 typeId, u16le width) pair per column, in on-disk order.
func buildHeaderBlock(columns []Column) []byte {
	payload := make([]byte, 0, len(columns)*3)
	for _, c := range columns {
		payload = append(payload, byte(c.Type))
		w := make([]byte, 2)
		binary.LittleEndian.PutUint16(w, uint16(c.Width))
		payload = append(payload, w...)
	}
	out := make([]byte, 4+len(payload))
	binary.LittleEndian.PutUint32(out, uint32(len(payload)))
	copy(out[4:], payload)
	return out
}

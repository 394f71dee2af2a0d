// Package codec encodes and decodes the scalar types a row column can hold
// to and from fixed-width byte slots.
//
// Seven type tags are supported: string and six fixed-width integers
// (uint32, int32, uint16, int16, uint8, int8). Integers are little-endian.
// Strings are a two-byte little-endian length prefix followed by UTF-8
// bytes; the declared width of a string column includes those two prefix
// bytes.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Type is a stable, on-wire type tag. Values are never renumbered once
// shipped, since they are persisted in a table file's header block.
type Type uint8

const (
	TypeString Type = iota
	TypeUint32
	TypeInt32
	TypeUint16
	TypeInt16
	TypeUint8
	TypeInt8
)

var typeNames = map[Type]string{
	TypeString: "string",
	TypeUint32: "uint32",
	TypeInt32:  "int32",
	TypeUint16: "uint16",
	TypeInt16:  "int16",
	TypeUint8:  "uint8",
	TypeInt8:   "int8",
}

var namesToType = func() map[string]Type {
	m := make(map[string]Type, len(typeNames))
	for t, n := range typeNames {
		m[n] = t
	}
	return m
}()

var (
	// ErrUnknownType indicates an unrecognized type name or on-wire type id.
	ErrUnknownType = errors.New("codec: unknown type")
	// ErrValueOutOfRange indicates a value does not fit the declared width.
	ErrValueOutOfRange = errors.New("codec: value out of range")
	// ErrNotAnInteger indicates a value that does not parse as a whole number.
	ErrNotAnInteger = errors.New("codec: value is not an integer")
	// ErrNotAString indicates a value of the wrong Go type was supplied for
	// a string column.
	ErrNotAString = errors.New("codec: value is not a string")
	// ErrBufferTooSmall indicates the destination buffer cannot hold the value.
	ErrBufferTooSmall = errors.New("codec: buffer too small")
)

// TypeIDOf returns the stable on-wire id for a type name.
func TypeIDOf(name string) (Type, error) {
	t, ok := namesToType[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownType, name)
	}
	return t, nil
}

// NameOfTypeID returns the declared name for an on-wire type id.
func NameOfTypeID(id Type) (string, error) {
	n, ok := typeNames[id]
	if !ok {
		return "", fmt.Errorf("%w: id %d", ErrUnknownType, id)
	}
	return n, nil
}

// IsFixedWidth reports whether t is one of the six fixed-width integer tags.
func IsFixedWidth(t Type) bool {
	return t != TypeString
}

// FixedWidth returns the on-disk width in bytes of a fixed-width integer
// type. It panics if t is not fixed-width; callers must check
// [IsFixedWidth] first.
func FixedWidth(t Type) int {
	switch t {
	case TypeUint32, TypeInt32:
		return 4
	case TypeUint16, TypeInt16:
		return 2
	case TypeUint8, TypeInt8:
		return 1
	default:
		panic(fmt.Sprintf("codec: FixedWidth called on non-fixed-width type %v", t))
	}
}

// Validate checks that value is representable for type t within width
// bytes. For strings, value's UTF-8 byte length must not exceed width-2.
// For integers, value must be a whole number within the signed or unsigned
// range implied by width.
func Validate(t Type, width int, value any) error {
	if t == TypeString {
		s, err := asString(value)
		if err != nil {
			return err
		}
		if width < 2 {
			return fmt.Errorf("%w: string width %d must be at least 2", ErrValueOutOfRange, width)
		}
		if len(s) > width-2 {
			return fmt.Errorf("%w: string of %d bytes exceeds max %d", ErrValueOutOfRange, len(s), width-2)
		}
		return nil
	}

	n, err := asInt64(value)
	if err != nil {
		return err
	}
	return validateIntRange(t, n)
}

func validateIntRange(t Type, n int64) error {
	switch t {
	case TypeUint32:
		if n < 0 || n > math.MaxUint32 {
			return fmt.Errorf("%w: %d does not fit uint32", ErrValueOutOfRange, n)
		}
	case TypeInt32:
		if n < math.MinInt32 || n > math.MaxInt32 {
			return fmt.Errorf("%w: %d does not fit int32", ErrValueOutOfRange, n)
		}
	case TypeUint16:
		if n < 0 || n > math.MaxUint16 {
			return fmt.Errorf("%w: %d does not fit uint16", ErrValueOutOfRange, n)
		}
	case TypeInt16:
		if n < math.MinInt16 || n > math.MaxInt16 {
			return fmt.Errorf("%w: %d does not fit int16", ErrValueOutOfRange, n)
		}
	case TypeUint8:
		if n < 0 || n > math.MaxUint8 {
			return fmt.Errorf("%w: %d does not fit uint8", ErrValueOutOfRange, n)
		}
	case TypeInt8:
		if n < math.MinInt8 || n > math.MaxInt8 {
			return fmt.Errorf("%w: %d does not fit int8", ErrValueOutOfRange, n)
		}
	default:
		return fmt.Errorf("%w: id %d", ErrUnknownType, t)
	}
	return nil
}

// Write encodes value into buf at offset per type t. For strings this
// writes the two-byte length prefix, the UTF-8 bytes, and leaves the
// remaining padding bytes untouched (unspecified, per spec). Callers must
// call Validate first; Write does not re-validate range.
func Write(buf []byte, t Type, value any, offset int) error {
	if t == TypeString {
		s, err := asString(value)
		if err != nil {
			return err
		}
		if offset+2+len(s) > len(buf) {
			return ErrBufferTooSmall
		}
		binary.LittleEndian.PutUint16(buf[offset:], uint16(len(s)))
		copy(buf[offset+2:], s)
		return nil
	}

	n, err := asInt64(value)
	if err != nil {
		return err
	}

	width := FixedWidth(t)
	if offset+width > len(buf) {
		return ErrBufferTooSmall
	}

	switch t {
	case TypeUint32:
		binary.LittleEndian.PutUint32(buf[offset:], uint32(n))
	case TypeInt32:
		binary.LittleEndian.PutUint32(buf[offset:], uint32(int32(n)))
	case TypeUint16:
		binary.LittleEndian.PutUint16(buf[offset:], uint16(n))
	case TypeInt16:
		binary.LittleEndian.PutUint16(buf[offset:], uint16(int16(n)))
	case TypeUint8:
		buf[offset] = uint8(n)
	case TypeInt8:
		buf[offset] = uint8(int8(n))
	default:
		return fmt.Errorf("%w: id %d", ErrUnknownType, t)
	}
	return nil
}

// Read decodes the value stored at offset in buf per type t. For strings,
// it reads the two-byte length prefix and returns exactly that many bytes
// as a string; bytes beyond the length are padding and are not inspected.
func Read(buf []byte, t Type, offset int) (any, error) {
	if t == TypeString {
		if offset+2 > len(buf) {
			return nil, ErrBufferTooSmall
		}
		n := int(binary.LittleEndian.Uint16(buf[offset:]))
		if offset+2+n > len(buf) {
			return nil, ErrBufferTooSmall
		}
		return string(buf[offset+2 : offset+2+n]), nil
	}

	width := FixedWidth(t)
	if offset+width > len(buf) {
		return nil, ErrBufferTooSmall
	}

	switch t {
	case TypeUint32:
		return int64(binary.LittleEndian.Uint32(buf[offset:])), nil
	case TypeInt32:
		return int64(int32(binary.LittleEndian.Uint32(buf[offset:]))), nil
	case TypeUint16:
		return int64(binary.LittleEndian.Uint16(buf[offset:])), nil
	case TypeInt16:
		return int64(int16(binary.LittleEndian.Uint16(buf[offset:]))), nil
	case TypeUint8:
		return int64(buf[offset]), nil
	case TypeInt8:
		return int64(int8(buf[offset])), nil
	default:
		return nil, fmt.Errorf("%w: id %d", ErrUnknownType, t)
	}
}

func asString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("%w: %T is not a string", ErrNotAString, value)
	}
}

// asInt64 widens any supported Go integer kind (or a numeric string, for
// callers that pull values back out of a dynamically-typed source) to
// int64 for range checking.
func asInt64(value any) (int64, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d overflows int64", ErrValueOutOfRange, v)
		}
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case uint:
		return int64(v), nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrNotAnInteger, v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: %T", ErrNotAnInteger, value)
	}
}

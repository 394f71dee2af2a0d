package codec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rowdb/pkg/codec"
)

func TestTypeIDRoundTrip(t *testing.T) {
	for _, name := range []string{"string", "uint32", "int32", "uint16", "int16", "uint8", "int8"} {
		id, err := codec.TypeIDOf(name)
		require.NoError(t, err)

		got, err := codec.NameOfTypeID(id)
		require.NoError(t, err)
		assert.Equal(t, name, got)
	}
}

func TestTypeIDOfUnknown(t *testing.T) {
	_, err := codec.TypeIDOf("float64")
	assert.ErrorIs(t, err, codec.ErrUnknownType)
}

func TestIsFixedWidth(t *testing.T) {
	assert.False(t, codec.IsFixedWidth(codec.TypeString))
	for _, ty := range []codec.Type{codec.TypeUint32, codec.TypeInt32, codec.TypeUint16, codec.TypeInt16, codec.TypeUint8, codec.TypeInt8} {
		assert.True(t, codec.IsFixedWidth(ty))
	}
}

func TestValidateIntegerRanges(t *testing.T) {
	require.NoError(t, codec.Validate(codec.TypeUint8, 1, 255))
	assert.ErrorIs(t, codec.Validate(codec.TypeUint8, 1, 256), codec.ErrValueOutOfRange)
	assert.ErrorIs(t, codec.Validate(codec.TypeUint8, 1, -1), codec.ErrValueOutOfRange)

	require.NoError(t, codec.Validate(codec.TypeInt8, 1, -128))
	require.NoError(t, codec.Validate(codec.TypeInt8, 1, 127))
	assert.ErrorIs(t, codec.Validate(codec.TypeInt8, 1, 128), codec.ErrValueOutOfRange)

	require.NoError(t, codec.Validate(codec.TypeInt32, 4, int64(-2147483648)))
	assert.ErrorIs(t, codec.Validate(codec.TypeInt32, 4, int64(2147483648)), codec.ErrValueOutOfRange)
}

func TestValidateStringWidth(t *testing.T) {
	require.NoError(t, codec.Validate(codec.TypeString, 12, "hello"))
	// width 12 means 10 usable bytes.
	require.NoError(t, codec.Validate(codec.TypeString, 12, "0123456789"))
	assert.ErrorIs(t, codec.Validate(codec.TypeString, 12, "01234567890"), codec.ErrValueOutOfRange)
}

func TestWriteReadInteger(t *testing.T) {
	buf := make([]byte, 8)
	require.NoError(t, codec.Write(buf, codec.TypeInt32, int64(-12345), 2))
	got, err := codec.Read(buf, codec.TypeInt32, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(-12345), got)
}

func TestWriteReadString(t *testing.T) {
	buf := make([]byte, 20)
	require.NoError(t, codec.Write(buf, codec.TypeString, "héllo", 0))
	got, err := codec.Read(buf, codec.TypeString, 0)
	require.NoError(t, err)
	assert.Equal(t, "héllo", got)
}

func TestWriteStringTruncatedBuffer(t *testing.T) {
	buf := make([]byte, 4)
	err := codec.Write(buf, codec.TypeString, "toolong", 0)
	assert.ErrorIs(t, err, codec.ErrBufferTooSmall)
}

func TestNegativeUnsignedRejected(t *testing.T) {
	assert.ErrorIs(t, codec.Validate(codec.TypeUint32, 4, int64(-1)), codec.ErrValueOutOfRange)
}

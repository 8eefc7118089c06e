package mcbp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUleb128RoundTrip(t *testing.T) {
	values := []uint32{0, 1, 0x7f, 0x80, 0x3fff, 0x4000, 0xffffffff, 0x12345678}
	for _, v := range values {
		enc := AppendUleb128(nil, v)
		assert.Len(t, enc, Uleb128Len(v))

		decoded, n := DecodeUleb128(enc)
		require.NotZero(t, n)
		assert.Equal(t, v, decoded)
		assert.Equal(t, len(enc), n)
	}
}

func TestUleb128MinimalLength(t *testing.T) {
	assert.Equal(t, 1, Uleb128Len(0))
	assert.Equal(t, 1, Uleb128Len(0x7f))
	assert.Equal(t, 2, Uleb128Len(0x80))
	assert.Equal(t, 5, Uleb128Len(0xffffffff))
}

func TestDecodeUleb128TruncatedIsZeroConsumed(t *testing.T) {
	_, n := DecodeUleb128([]byte{0x80, 0x80}) // continuation bit set, no terminator
	assert.Zero(t, n)
}

func TestEncodeDecodeCollectionKey(t *testing.T) {
	wireKey := EncodeCollectionKey(9, []byte("airline_10"))

	uid, key, ok := DecodeCollectionKey(wireKey)
	require.True(t, ok)
	assert.Equal(t, uint32(9), uid)
	assert.Equal(t, []byte("airline_10"), key)
}

func TestDecodeCollectionKeyRejectsEmpty(t *testing.T) {
	_, _, ok := DecodeCollectionKey(nil)
	assert.False(t, ok)
}

package mcbp

// Unsigned LEB128 encode/decode for collection-uid-prefixed keys (§3, §6.1,
// §8 "LEB128 round-trip"). No third-party varint implementation is
// wire-compatible with this format (protobuf's varint groups bits
// differently at the top end); it is a small enough primitive to own
// directly (see DESIGN.md).

// AppendUleb128 appends the minimal unsigned-LEB128 encoding of v to dst
// and returns the extended slice.
func AppendUleb128(dst []byte, v uint32) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			dst = append(dst, b|0x80)
			continue
		}
		return append(dst, b)
	}
}

// Uleb128Len returns the number of bytes AppendUleb128 would emit for v,
// without allocating.
func Uleb128Len(v uint32) int {
	n := 1
	for v >>= 7; v != 0; v >>= 7 {
		n++
	}
	return n
}

// DecodeUleb128 decodes an unsigned LEB128 value from the front of buf,
// returning the value and the number of bytes consumed. consumed is 0 if
// buf does not contain a complete, well-formed encoding (continuation bit
// set on every byte, or more than 5 bytes for a 32-bit value).
func DecodeUleb128(buf []byte) (value uint32, consumed int) {
	var shift uint
	for i, b := range buf {
		if i >= 5 {
			return 0, 0
		}
		value |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			return value, i + 1
		}
		shift += 7
	}
	return 0, 0
}

// EncodeCollectionKey prefixes key with the unsigned-LEB128 encoding of
// collectionUID, the wire form used when the session negotiated
// collections (§3: "LEB128(collection_uid) || key").
func EncodeCollectionKey(collectionUID uint32, key []byte) []byte {
	out := make([]byte, 0, Uleb128Len(collectionUID)+len(key))
	out = AppendUleb128(out, collectionUID)
	return append(out, key...)
}

// DecodeCollectionKey splits a LEB128-prefixed key into its collection uid
// and the raw key bytes. Returns ok=false if wireKey does not contain a
// well-formed LEB128 prefix.
func DecodeCollectionKey(wireKey []byte) (collectionUID uint32, key []byte, ok bool) {
	uid, n := DecodeUleb128(wireKey)
	if n == 0 {
		return 0, nil, false
	}
	return uid, wireKey[n:], true
}

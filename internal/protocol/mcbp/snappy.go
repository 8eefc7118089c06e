package mcbp

import "github.com/klauspost/compress/snappy"

// decompressSnappy decompresses a Snappy-framed value. Promoted from an
// indirect dependency of the teacher repo (pulled in transitively via
// object-storage/embedded-KV clients) to a direct one here, since this is
// the only component in the module that actually touches Snappy framing
// (see DESIGN.md).
func decompressSnappy(compressed []byte) ([]byte, error) {
	n, err := snappy.DecodedLen(compressed)
	if err != nil {
		return nil, err
	}
	return snappy.Decode(make([]byte, n), compressed)
}

// compressSnappy compresses value using Snappy framing. Used by the
// encoder only when the caller opts in and the session has negotiated
// SNAPPY (§4.1 "Snappy compression ... forbidden when the server did not
// advertise SNAPPY" — that check lives in the caller, not here).
func compressSnappy(value []byte) []byte {
	return snappy.Encode(nil, value)
}

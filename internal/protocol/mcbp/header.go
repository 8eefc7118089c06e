package mcbp

import "encoding/binary"

// HeaderSize is the fixed size of an MCBP header (24 bytes). Every frame,
// request or response, plain or alt-framed, begins with exactly this many
// bytes (§3 Data Model, §6.1).
const HeaderSize = 24

// Header is the common 24-byte MCBP header.
//
// # Header layout (big-endian, except Opaque which is carried unchanged)
//
//	┌────────┬──────┬───────────────────┬─────────────────────────────────┐
//	│ Offset │ Size │ Field             │ Description                     │
//	├────────┼──────┼───────────────────┼──────────────────────────────────┤
//	│   0    │  1   │ Magic             │ request/response/alt/server      │
//	│   1    │  1   │ Opcode            │ operation code                   │
//	│   2    │  2   │ KeyLen            │ plain: key length (u16)          │
//	│        │      │                   │ alt:   (FramingExtrasLen:u8,     │
//	│        │      │                   │         KeyLen:u8)               │
//	│   4    │  1   │ ExtrasLen         │ extras length                    │
//	│   5    │  1   │ Datatype          │ bitmask: JSON/SNAPPY/XATTR       │
//	│   6    │  2   │ VbucketOrStatus   │ request: vbucket id              │
//	│        │      │                   │ response: status code            │
//	│   8    │  4   │ BodyLen           │ extras+key+value length          │
//	│        │      │                   │ (alt: + framing-extras length)   │
//	│  12    │  4   │ Opaque            │ client-assigned correlation id    │
//	│  16    │  8   │ CAS               │ compare-and-swap value            │
//	└────────┴──────┴───────────────────┴──────────────────────────────────┘
type Header struct {
	Magic           Magic
	Opcode          Opcode
	FramingExtrasLen uint8 // alt magics only
	KeyLen          uint16
	ExtrasLen       uint8
	Datatype        Datatype
	VbucketOrStatus uint16
	BodyLen         uint32
	Opaque          uint32
	CAS             uint64
}

// Vbucket returns VbucketOrStatus interpreted as a vbucket id. Valid only
// on request frames; see Magic.IsResponse.
func (h *Header) Vbucket() uint16 { return h.VbucketOrStatus }

// Status returns VbucketOrStatus interpreted as a response status code.
// Valid only on response frames.
func (h *Header) Status() Status { return Status(h.VbucketOrStatus) }

// ParseHeader decodes the fixed 24-byte header from buf. buf must have
// length >= HeaderSize; callers (Decode) are responsible for the
// need-data check.
func ParseHeader(buf []byte) Header {
	_ = buf[HeaderSize-1] // bounds check hint
	magic := Magic(buf[0])

	h := Header{
		Magic:           magic,
		Opcode:          Opcode(buf[1]),
		ExtrasLen:       buf[4],
		Datatype:        Datatype(buf[5]),
		VbucketOrStatus: binary.BigEndian.Uint16(buf[6:8]),
		BodyLen:         binary.BigEndian.Uint32(buf[8:12]),
		Opaque:          binary.BigEndian.Uint32(buf[12:16]),
		CAS:             binary.BigEndian.Uint64(buf[16:24]),
	}

	if magic.IsAlt() {
		h.FramingExtrasLen = buf[2]
		h.KeyLen = uint16(buf[3])
	} else {
		h.KeyLen = binary.BigEndian.Uint16(buf[2:4])
	}

	return h
}

// Encode serializes h into a HeaderSize-byte buffer.
func (h *Header) Encode() []byte {
	buf := make([]byte, HeaderSize)
	h.EncodeInto(buf)
	return buf
}

// EncodeInto serializes h into buf, which must be at least HeaderSize
// bytes. Used by the codec to write directly into the frame buffer instead
// of allocating a separate header-sized slice per frame.
func (h *Header) EncodeInto(buf []byte) {
	buf[0] = byte(h.Magic)
	buf[1] = byte(h.Opcode)

	if h.Magic.IsAlt() {
		buf[2] = h.FramingExtrasLen
		buf[3] = byte(h.KeyLen)
	} else {
		binary.BigEndian.PutUint16(buf[2:4], h.KeyLen)
	}

	buf[4] = h.ExtrasLen
	buf[5] = byte(h.Datatype)
	binary.BigEndian.PutUint16(buf[6:8], h.VbucketOrStatus)
	binary.BigEndian.PutUint32(buf[8:12], h.BodyLen)
	binary.BigEndian.PutUint32(buf[12:16], h.Opaque)
	binary.BigEndian.PutUint64(buf[16:24], h.CAS)
}

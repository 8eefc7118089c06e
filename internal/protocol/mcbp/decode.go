package mcbp

// DecodeStatus reports the outcome of one Decode call.
type DecodeStatus int

const (
	// DecodeOK means Result.Packet is a complete, valid frame and
	// Result.Consumed bytes should be dropped from the front of the
	// input buffer.
	DecodeOK DecodeStatus = iota
	// DecodeNeedData means the buffer does not yet hold a complete
	// frame; the caller should read more bytes and retry with the same
	// (or a grown) buffer. Consumed is always 0 in this case.
	DecodeNeedData
	// DecodeMalformed means the frame is invalid — a protocol error
	// that is fatal to the session (§4.1, §7). If Packet is non-zero,
	// it is the last successfully decoded frame, kept only so the
	// caller can log it before closing the connection.
	DecodeMalformed
)

func (s DecodeStatus) String() string {
	switch s {
	case DecodeOK:
		return "ok"
	case DecodeNeedData:
		return "need-data"
	case DecodeMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Result is the outcome of decoding one frame from the front of a buffer.
type Result struct {
	Packet   Packet
	Consumed int
	Status   DecodeStatus
}

// Decode attempts to decode one frame from the front of buf (§4.1).
//
// On DecodeNeedData, the caller must not advance its read cursor and
// should call Decode again once more bytes have arrived. On DecodeOK or
// DecodeMalformed, the caller advances its cursor by Result.Consumed
// bytes (frame boundary desync detection may cause Consumed to cover the
// entire remaining buffer even though only the leading frame is valid —
// see below).
func Decode(buf []byte) Result {
	if len(buf) < HeaderSize {
		return Result{Status: DecodeNeedData}
	}

	h := ParseHeader(buf)
	if !h.Magic.IsValid() {
		return Result{Consumed: len(buf), Status: DecodeMalformed}
	}

	total := HeaderSize + int(h.BodyLen)
	if len(buf) < total {
		return Result{Status: DecodeNeedData}
	}

	body := buf[HeaderSize:total]
	offset := 0

	var frameInfos []FrameInfo
	if h.Magic.IsAlt() && h.FramingExtrasLen > 0 {
		if int(h.FramingExtrasLen) > len(body) {
			return Result{Consumed: total, Status: DecodeMalformed}
		}
		fis, err := ParseFrameInfos(body[:h.FramingExtrasLen])
		if err != nil {
			return Result{Consumed: total, Status: DecodeMalformed}
		}
		frameInfos = fis
		offset += int(h.FramingExtrasLen)
	}

	if offset+int(h.ExtrasLen) > len(body) {
		return Result{Consumed: total, Status: DecodeMalformed}
	}
	extras := body[offset : offset+int(h.ExtrasLen)]
	offset += int(h.ExtrasLen)

	if offset+int(h.KeyLen) > len(body) {
		return Result{Consumed: total, Status: DecodeMalformed}
	}
	key := body[offset : offset+int(h.KeyLen)]
	offset += int(h.KeyLen)

	value := body[offset:]

	if h.Datatype.HasSnappy() {
		decompressed, err := decompressSnappy(value)
		if err != nil {
			return Result{Consumed: total, Status: DecodeMalformed}
		}
		value = decompressed
		h.Datatype = h.Datatype.WithoutSnappy()
		h.BodyLen = uint32(offset + len(value))
	}

	pkt := Packet{Header: h, FrameInfos: frameInfos, Extras: extras, Key: key, Value: value}

	// Frame-boundary desync: the next byte (if any) must itself be a
	// valid magic, or the stream has lost synchronization and the rest
	// of the buffer is unusable.
	if total < len(buf) && !Magic(buf[total]).IsValid() {
		return Result{Packet: pkt, Consumed: len(buf), Status: DecodeMalformed}
	}

	return Result{Packet: pkt, Consumed: total, Status: DecodeOK}
}

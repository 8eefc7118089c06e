package mcbp

import "fmt"

// frameInfoPriority orders framing-extras frames the way the encoder must
// lay them out (§4.1): barrier, durability, preserve-TTL, stream-id,
// open-tracing, user-impersonation, then anything else verbatim.
var frameInfoPriority = map[FrameInfoID]int{
	FrameInfoBarrier:            0,
	FrameInfoDurabilityReq:      1,
	FrameInfoPreserveTTL:        2,
	FrameInfoDCPStreamID:        3,
	FrameInfoOpenTracingContext: 4,
	FrameInfoImpersonatedUser:   5,
}

func orderFrameInfos(fis []FrameInfo) []FrameInfo {
	if len(fis) < 2 {
		return fis
	}
	ordered := append([]FrameInfo(nil), fis...)
	priority := func(id FrameInfoID) int {
		if p, ok := frameInfoPriority[id]; ok {
			return p
		}
		return len(frameInfoPriority) // unknown/pass-through frames go last
	}
	// Stable insertion sort: the list is always small (a handful of
	// frames at most), and stability preserves the caller's relative
	// order among unknown pass-through frames.
	for i := 1; i < len(ordered); i++ {
		j := i
		for j > 0 && priority(ordered[j-1].ID) > priority(ordered[j].ID) {
			ordered[j-1], ordered[j] = ordered[j], ordered[j-1]
			j--
		}
	}
	return ordered
}

// Encode serializes pkt into its wire form. The header's Magic is
// promoted from a plain to the matching alt variant automatically when
// framing-extras are present; callers never need to pick the alt magic
// themselves.
func Encode(pkt *Packet) ([]byte, error) {
	ordered := orderFrameInfos(pkt.FrameInfos)

	var framingExtras []byte
	for _, fi := range ordered {
		framingExtras = AppendFrameInfo(framingExtras, fi)
	}

	magic := pkt.Header.Magic
	if len(framingExtras) > 0 && !magic.IsAlt() {
		if magic.IsResponse() {
			magic = MagicAltResponse
		} else {
			magic = MagicAltRequest
		}
	}

	if len(framingExtras) > 0xff {
		return nil, fmt.Errorf("mcbp: framing-extras too large (%d bytes)", len(framingExtras))
	}
	if len(pkt.Extras) > 0xff {
		return nil, fmt.Errorf("mcbp: extras too large (%d bytes)", len(pkt.Extras))
	}
	if magic.IsAlt() {
		if len(pkt.Key) > 0xff {
			return nil, fmt.Errorf("mcbp: key too large for alt framing (%d bytes, max 255)", len(pkt.Key))
		}
	} else if len(pkt.Key) > 0xffff {
		return nil, fmt.Errorf("mcbp: key too large (%d bytes, max 65535)", len(pkt.Key))
	}

	bodyLen := len(framingExtras) + len(pkt.Extras) + len(pkt.Key) + len(pkt.Value)

	h := pkt.Header
	h.Magic = magic
	h.FramingExtrasLen = uint8(len(framingExtras))
	h.KeyLen = uint16(len(pkt.Key))
	h.ExtrasLen = uint8(len(pkt.Extras))
	h.BodyLen = uint32(bodyLen)

	buf := make([]byte, HeaderSize+bodyLen)
	h.EncodeInto(buf[:HeaderSize])

	offset := HeaderSize
	offset += copy(buf[offset:], framingExtras)
	offset += copy(buf[offset:], pkt.Extras)
	offset += copy(buf[offset:], pkt.Key)
	copy(buf[offset:], pkt.Value)

	return buf, nil
}

// CompressValue returns the Snappy-framed encoding of value, for callers
// that have confirmed the session negotiated SNAPPY before opting a
// packet into compression (§4.1: forbidden when not negotiated, a check
// this package leaves to the caller since it has no session context).
func CompressValue(value []byte) []byte {
	return compressSnappy(value)
}

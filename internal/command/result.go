package command

import "github.com/ryanfowler/gokv/internal/protocol/mcbp"

// Result is the structured outcome of one successful KV operation,
// surfaced to the public API and, per §6.4/supplemental feature #7, rich
// enough for a transactions layer built on top without this core knowing
// anything about transactions itself.
type Result struct {
	CAS              uint64
	Value            []byte
	Datatype         mcbp.Datatype
	ServerDurationUs uint32

	// Status is the raw wire status for success-adjacent responses that
	// still carry data the caller wants (e.g. subdoc partial success).
	Status mcbp.Status
}

// serverDuration extracts the FrameInfoServerDuration value, if present,
// decoded with mcbp.DecodeServerDuration (encoded^1.74/2 microseconds,
// truncated to whole microseconds).
func serverDuration(pkt *mcbp.Packet) uint32 {
	fi, ok := pkt.FrameInfo(mcbp.FrameInfoServerDuration)
	if !ok || len(fi.Payload) < 2 {
		return 0
	}
	encoded := uint16(fi.Payload[0])<<8 | uint16(fi.Payload[1])
	return uint32(mcbp.DecodeServerDuration(encoded))
}

// Package mcbp implements the memcached binary protocol (MCBP) frame codec:
// the 24-byte header, optional framing-extras, extras, key and value
// segments that make up every request/response exchanged with a Couchbase
// KV node.
//
// Reference: docs/BinaryProtocol.md in the Couchbase server source,
// reframed here as the wire format consumed by core/io/mcbp_parser.cxx.
package mcbp

// Magic identifies the frame kind: request/response, plain/alt, and the
// server-initiated variants used for cluster-map push notifications.
type Magic byte

const (
	// MagicRequest is a client request with a fixed-size key_len field.
	MagicRequest Magic = 0x80
	// MagicResponse is a server response with a fixed-size key_len field.
	MagicResponse Magic = 0x81
	// MagicAltRequest is a client request whose key_len is split into
	// (framing_extras_len: u8, key_len: u8) to carry framing-extras frames.
	MagicAltRequest Magic = 0x08
	// MagicAltResponse is the alt-framed response counterpart.
	MagicAltResponse Magic = 0x18
	// MagicServerRequest is a server-initiated request, e.g.
	// CLUSTER_MAP_CHANGE_NOTIFICATION.
	MagicServerRequest Magic = 0x82
	// MagicServerResponse is the client's reply to a server request.
	MagicServerResponse Magic = 0x83
)

// IsValid reports whether m is one of the six magic bytes this codec
// understands. Any other byte at a frame boundary means the stream has
// desynchronized and is fatal to the session (§4.1).
func (m Magic) IsValid() bool {
	switch m {
	case MagicRequest, MagicResponse, MagicAltRequest, MagicAltResponse, MagicServerRequest, MagicServerResponse:
		return true
	default:
		return false
	}
}

// IsAlt reports whether the frame uses the split framing-extras/key_len
// encoding of key_len.
func (m Magic) IsAlt() bool {
	return m == MagicAltRequest || m == MagicAltResponse
}

// IsResponse reports whether the frame is a response (or a server-response,
// i.e. the client's reply to a server-initiated request).
func (m Magic) IsResponse() bool {
	return m == MagicResponse || m == MagicAltResponse || m == MagicServerResponse
}

// IsServer reports whether the frame was initiated by the server rather
// than the client (push notifications such as cluster-map change).
func (m Magic) IsServer() bool {
	return m == MagicServerRequest || m == MagicServerResponse
}

func (m Magic) String() string {
	switch m {
	case MagicRequest:
		return "request"
	case MagicResponse:
		return "response"
	case MagicAltRequest:
		return "alt-request"
	case MagicAltResponse:
		return "alt-response"
	case MagicServerRequest:
		return "server-request"
	case MagicServerResponse:
		return "server-response"
	default:
		return "unknown"
	}
}

package mcbp

import (
	"encoding/binary"
	"fmt"
)

// PathOpcode identifies the per-path operation carried inside one spec of
// a SUBDOC_MULTI_LOOKUP or SUBDOC_MULTI_MUTATION request body (distinct
// from the top-level Opcode, which is always 0xd0/0xd1 for these
// requests).
type PathOpcode byte

const (
	PathOpGet            PathOpcode = 0xc5
	PathOpExists         PathOpcode = 0xc6
	PathOpDictAdd        PathOpcode = 0xc7
	PathOpDictUpsert     PathOpcode = 0xc8
	PathOpDelete         PathOpcode = 0xc9
	PathOpReplace        PathOpcode = 0xca
	PathOpArrayPushLast  PathOpcode = 0xcb
	PathOpArrayPushFirst PathOpcode = 0xcc
	PathOpArrayInsert    PathOpcode = 0xcd
	PathOpArrayAddUnique PathOpcode = 0xce
	PathOpCounter        PathOpcode = 0xcf
	PathOpGetCount       PathOpcode = 0xd2
)

// SubdocFlags is the per-spec flag byte (supplemental feature #2): XATTR
// addresses the spec's path into the document's extended attributes
// instead of its body, ExpandMacros expands server-recognised macro
// tokens (e.g. "${Mutation.CAS}") found in the spec's value, and
// CreatePath creates intermediate path elements that don't yet exist.
type SubdocFlags byte

const (
	SubdocFlagNone         SubdocFlags = 0
	SubdocFlagXattr        SubdocFlags = 0x04
	SubdocFlagExpandMacros SubdocFlags = 0x10
	SubdocFlagCreatePath   SubdocFlags = 0x01
)

// LookupSpec is one path operation within a SUBDOC_MULTI_LOOKUP request.
type LookupSpec struct {
	Opcode PathOpcode
	Path   string
	Flags  SubdocFlags
}

// MutateSpec is one path operation within a SUBDOC_MULTI_MUTATION request.
type MutateSpec struct {
	Opcode PathOpcode
	Path   string
	Value  []byte
	Flags  SubdocFlags
}

// EncodeLookupSpecs serialises specs into a SUBDOC_MULTI_LOOKUP request
// value: a sequence of {opcode(1), flags(1), path length(2 BE), path}.
func EncodeLookupSpecs(specs []LookupSpec) []byte {
	var size int
	for _, s := range specs {
		size += 4 + len(s.Path)
	}
	buf := make([]byte, 0, size)
	for _, s := range specs {
		buf = append(buf, byte(s.Opcode), byte(s.Flags))
		buf = binary.BigEndian.AppendUint16(buf, uint16(len(s.Path)))
		buf = append(buf, s.Path...)
	}
	return buf
}

// EncodeMutateSpecs serialises specs into a SUBDOC_MULTI_MUTATION request
// value: a sequence of {opcode(1), flags(1), path length(2 BE), path,
// value length(4 BE), value}.
func EncodeMutateSpecs(specs []MutateSpec) []byte {
	var size int
	for _, s := range specs {
		size += 8 + len(s.Path) + len(s.Value)
	}
	buf := make([]byte, 0, size)
	for _, s := range specs {
		buf = append(buf, byte(s.Opcode), byte(s.Flags))
		buf = binary.BigEndian.AppendUint16(buf, uint16(len(s.Path)))
		buf = append(buf, s.Path...)
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(s.Value)))
		buf = append(buf, s.Value...)
	}
	return buf
}

// LookupResult is one spec's outcome within a SUBDOC_MULTI_LOOKUP
// response.
type LookupResult struct {
	Status Status
	Value  []byte
}

// DecodeLookupResults parses a SUBDOC_MULTI_LOOKUP response value: a
// sequence of {status(2 BE), value length(4 BE), value}, one entry per
// request spec, in request order, regardless of whether the overall
// response status was success or multi-path failure.
func DecodeLookupResults(body []byte) ([]LookupResult, error) {
	var out []LookupResult
	for len(body) > 0 {
		if len(body) < 6 {
			return nil, fmt.Errorf("mcbp: truncated subdoc lookup result")
		}
		status := Status(binary.BigEndian.Uint16(body[0:2]))
		n := binary.BigEndian.Uint32(body[2:6])
		body = body[6:]
		if uint32(len(body)) < n {
			return nil, fmt.Errorf("mcbp: truncated subdoc lookup value")
		}
		out = append(out, LookupResult{Status: status, Value: body[:n]})
		body = body[n:]
	}
	return out, nil
}

// MutateResult is one spec's outcome within a SUBDOC_MULTI_MUTATION
// response that produced a value (e.g. PathOpCounter's new value, or any
// spec encoded with SubdocFlagExpandMacros).
type MutateResult struct {
	Index  int
	Status Status
	Value  []byte
}

// DecodeMutateResults parses a SUBDOC_MULTI_MUTATION response value. On
// overall success the body holds one {index(1), status(2 BE), value
// length(4 BE), value} entry per spec that produced a value; on
// multi-path failure it holds exactly one {index(1), status(2 BE)} entry
// naming the first spec that failed.
func DecodeMutateResults(body []byte, overallStatus Status) ([]MutateResult, error) {
	if overallStatus == StatusSubdocMultiPathFailure || overallStatus == StatusSubdocMultiPathFailureDeleted {
		if len(body) < 3 {
			return nil, fmt.Errorf("mcbp: truncated subdoc mutation failure")
		}
		return []MutateResult{{
			Index:  int(body[0]),
			Status: Status(binary.BigEndian.Uint16(body[1:3])),
		}}, nil
	}

	var out []MutateResult
	for len(body) > 0 {
		if len(body) < 7 {
			return nil, fmt.Errorf("mcbp: truncated subdoc mutation result")
		}
		idx := int(body[0])
		status := Status(binary.BigEndian.Uint16(body[1:3]))
		n := binary.BigEndian.Uint32(body[3:7])
		body = body[7:]
		if uint32(len(body)) < n {
			return nil, fmt.Errorf("mcbp: truncated subdoc mutation value")
		}
		out = append(out, MutateResult{Index: idx, Status: status, Value: body[:n]})
		body = body[n:]
	}
	return out, nil
}

package kv

import (
	"context"
	"encoding/json"

	"github.com/ryanfowler/gokv/internal/command"
	"github.com/ryanfowler/gokv/internal/kverrors"
	"github.com/ryanfowler/gokv/internal/protocol/mcbp"
)

// SubdocFlags re-exports the command runtime's per-spec flag bitmask
// (XATTR, expand-macros, create-path).
type SubdocFlags = command.SubdocFlags

const (
	SubdocFlagNone         = command.SubdocFlagNone
	SubdocFlagXattr        = command.SubdocFlagXattr
	SubdocFlagExpandMacros = command.SubdocFlagExpandMacros
	SubdocFlagCreatePath   = command.SubdocFlagCreatePath
)

// LookupInSpec is one path read within a LookupIn call.
type LookupInSpec = command.LookupInSpec

// GetSpec reads the value at path.
func GetSpec(path string, flags SubdocFlags) LookupInSpec {
	return LookupInSpec{Opcode: mcbp.PathOpGet, Path: path, Flags: flags}
}

// ExistsSpec reports whether path exists, without returning its value.
func ExistsSpec(path string, flags SubdocFlags) LookupInSpec {
	return LookupInSpec{Opcode: mcbp.PathOpExists, Path: path, Flags: flags}
}

// CountSpec returns the number of elements at path (an array or object).
func CountSpec(path string, flags SubdocFlags) LookupInSpec {
	return LookupInSpec{Opcode: mcbp.PathOpGetCount, Path: path, Flags: flags}
}

// MutateInSpec is one path write within a MutateIn call.
type MutateInSpec = command.MutateInSpec

func jsonSpec(opcode mcbp.PathOpcode, path string, value interface{}, flags SubdocFlags) MutateInSpec {
	data, err := json.Marshal(value)
	if err != nil {
		data = nil
	}
	return MutateInSpec{Opcode: opcode, Path: path, Value: data, Flags: flags}
}

// UpsertSpec creates or overwrites the value at path.
func UpsertSpec(path string, value interface{}, flags SubdocFlags) MutateInSpec {
	return jsonSpec(mcbp.PathOpDictUpsert, path, value, flags)
}

// InsertSpec creates the value at path, failing with path_exists if
// already present.
func InsertSpec(path string, value interface{}, flags SubdocFlags) MutateInSpec {
	return jsonSpec(mcbp.PathOpDictAdd, path, value, flags)
}

// ReplaceSpec overwrites the value at an existing path.
func ReplaceSpec(path string, value interface{}, flags SubdocFlags) MutateInSpec {
	return jsonSpec(mcbp.PathOpReplace, path, value, flags)
}

// RemoveSpec deletes the value at path.
func RemoveSpec(path string, flags SubdocFlags) MutateInSpec {
	return MutateInSpec{Opcode: mcbp.PathOpDelete, Path: path, Flags: flags}
}

// ArrayAppendSpec appends value to the array at path.
func ArrayAppendSpec(path string, value interface{}, flags SubdocFlags) MutateInSpec {
	return jsonSpec(mcbp.PathOpArrayPushLast, path, value, flags)
}

// ArrayPrependSpec prepends value to the array at path.
func ArrayPrependSpec(path string, value interface{}, flags SubdocFlags) MutateInSpec {
	return jsonSpec(mcbp.PathOpArrayPushFirst, path, value, flags)
}

// CounterSpec increments (or decrements, with a negative delta) the
// integer at path, creating it if absent.
func CounterSpec(path string, delta int64, flags SubdocFlags) MutateInSpec {
	return jsonSpec(mcbp.PathOpCounter, path, delta, flags)
}

// LookupInResult is one spec's outcome within a LookupInResponse.
type LookupInResult struct {
	err   error
	value []byte
}

// Err is non-nil when this spec's path failed to resolve.
func (r LookupInResult) Err() error { return r.err }

// Content unmarshals this spec's JSON value into v.
func (r LookupInResult) Content(v interface{}) error {
	if r.err != nil {
		return r.err
	}
	return json.Unmarshal(r.value, v)
}

// LookupInResponse is the outcome of a LookupIn call.
type LookupInResponse struct {
	Cas     uint64
	Results []LookupInResult
}

func newLookupInResponse(r command.LookupInResponse) *LookupInResponse {
	out := &LookupInResponse{Cas: r.CAS, Results: make([]LookupInResult, len(r.Results))}
	for i, res := range r.Results {
		if res.Kind != kverrors.KindUnknown {
			out.Results[i] = LookupInResult{err: kverrors.New(res.Kind, "subdoc path failed")}
			continue
		}
		out.Results[i] = LookupInResult{value: res.Value}
	}
	return out
}

// MutateInResponse is the outcome of a successful MutateIn call.
type MutateInResponse struct {
	Cas     uint64
	results map[int][]byte
}

func newMutateInResponse(r command.MutateInResponse) *MutateInResponse {
	out := &MutateInResponse{Cas: r.CAS, results: make(map[int][]byte, len(r.Results))}
	for idx, res := range r.Results {
		out.results[idx] = res.Value
	}
	return out
}

// ContentAt unmarshals the value produced by the spec at index (e.g. a
// CounterSpec's new value) into v.
func (r *MutateInResponse) ContentAt(index int, v interface{}) error {
	return json.Unmarshal(r.results[index], v)
}

// LookupIn issues a batch of path reads against one document (§ subdoc
// supplemental features 1-2). A per-spec failure doesn't fail the whole
// call; check LookupInResult.Err for each spec.
func (c *Collection) LookupIn(ctx context.Context, key string, specs []LookupInSpec, opts LookupInOptions) (*LookupInResponse, error) {
	res, err := c.runner.LookupIn(ctx, c.docID(key), specs, command.Options{Timeout: opts.Timeout})
	if err != nil {
		return nil, err
	}
	return newLookupInResponse(res), nil
}

// MutateIn issues a batch of path writes against one document, applied
// atomically: any one spec failing fails the whole call.
func (c *Collection) MutateIn(ctx context.Context, key string, specs []MutateInSpec, opts MutateInOptions) (*MutateInResponse, error) {
	res, err := c.runner.MutateIn(ctx, c.docID(key), specs, command.Options{
		Timeout: opts.Timeout, Durability: opts.Durability, Expiry: expirySeconds(opts.Expiry), CAS: opts.CAS,
	})
	if err != nil {
		return nil, err
	}
	return newMutateInResponse(res), nil
}

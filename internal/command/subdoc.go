package command

import (
	"context"
	"encoding/binary"

	"github.com/ryanfowler/gokv/internal/kverrors"
	"github.com/ryanfowler/gokv/internal/protocol/mcbp"
)

// SubdocFlags re-exports the per-spec flag bitmask (supplemental feature
// #2: XATTR, expand-macros, create-path) so callers never need to import
// internal/protocol/mcbp themselves to build a spec.
type SubdocFlags = mcbp.SubdocFlags

const (
	SubdocFlagNone         = mcbp.SubdocFlagNone
	SubdocFlagXattr        = mcbp.SubdocFlagXattr
	SubdocFlagExpandMacros = mcbp.SubdocFlagExpandMacros
	SubdocFlagCreatePath   = mcbp.SubdocFlagCreatePath
)

// LookupInSpec is one path read within a LookupIn call.
type LookupInSpec struct {
	Opcode mcbp.PathOpcode
	Path   string
	Flags  SubdocFlags
}

// MutateInSpec is one path write within a MutateIn call.
type MutateInSpec struct {
	Opcode mcbp.PathOpcode
	Path   string
	Value  []byte
	Flags  SubdocFlags
}

// LookupInResult holds one spec's outcome. Kind is KindUnknown when the
// spec succeeded; callers check it before reading Value.
type LookupInResult struct {
	Kind  kverrors.Kind
	Value []byte
}

// LookupInResponse is the full outcome of a LookupIn call: per-spec
// results in request order, plus the document's CAS.
type LookupInResponse struct {
	CAS     uint64
	Results []LookupInResult
}

// LookupIn issues a SUBDOC_MULTI_LOOKUP (opcode 0xd0): a batch of path
// reads against one document in a single round trip. Per-spec failures
// (e.g. one path not found among several) are reported per-result rather
// than failing the whole call; only document-level failures (not found,
// not JSON) return a top-level error.
func (r *Runner) LookupIn(ctx context.Context, docID DocumentID, specs []LookupInSpec, opts Options) (LookupInResponse, error) {
	mspecs := make([]mcbp.LookupSpec, len(specs))
	for i, s := range specs {
		mspecs[i] = mcbp.LookupSpec{Opcode: s.Opcode, Path: s.Path, Flags: s.Flags}
	}

	res, err := r.execute(ctx, mcbp.OpSubdocMultiLookup, docID, opts, func(collectionUID uint32) (*mcbp.Packet, error) {
		return &mcbp.Packet{
			Header: mcbp.Header{Magic: mcbp.MagicRequest, Opcode: mcbp.OpSubdocMultiLookup},
			Key:    mcbp.EncodeCollectionKey(collectionUID, []byte(docID.Key)),
			Value:  mcbp.EncodeLookupSpecs(mspecs),
		}, nil
	})
	if err != nil {
		return LookupInResponse{}, err
	}

	if !res.Status.Success() && res.Status != mcbp.StatusSubdocMultiPathFailure &&
		res.Status != mcbp.StatusSubdocSuccessDeleted && res.Status != mcbp.StatusSubdocMultiPathFailureDeleted {
		return LookupInResponse{}, kverrors.New(kverrors.FromStatus(res.Status), "lookup_in failed: "+res.Status.String())
	}

	decoded, derr := mcbp.DecodeLookupResults(res.Value)
	if derr != nil {
		return LookupInResponse{}, kverrors.New(kverrors.KindProtocolError, derr.Error())
	}

	out := LookupInResponse{CAS: res.CAS, Results: make([]LookupInResult, len(decoded))}
	for i, d := range decoded {
		if d.Status.Success() {
			out.Results[i] = LookupInResult{Kind: kverrors.KindUnknown, Value: d.Value}
		} else {
			out.Results[i] = LookupInResult{Kind: kverrors.FromStatus(d.Status)}
		}
	}
	return out, nil
}

// MutateInResult holds the new value produced by one mutate spec, if any
// (e.g. PathOpCounter's post-increment value).
type MutateInResult struct {
	Value []byte
}

// MutateInResponse is the full outcome of a successful MutateIn call.
type MutateInResponse struct {
	CAS     uint64
	Results map[int]MutateInResult
}

// MutateIn issues a SUBDOC_MULTI_MUTATION (opcode 0xd1): a batch of path
// writes applied atomically to one document. Unlike LookupIn, a single
// failing spec fails the entire call (the server applies none of the
// mutations), so MutateIn returns a top-level error naming the first
// failing spec's path.
func (r *Runner) MutateIn(ctx context.Context, docID DocumentID, specs []MutateInSpec, opts Options) (MutateInResponse, error) {
	mspecs := make([]mcbp.MutateSpec, len(specs))
	for i, s := range specs {
		mspecs[i] = mcbp.MutateSpec{Opcode: s.Opcode, Path: s.Path, Value: s.Value, Flags: s.Flags}
	}

	res, err := r.execute(ctx, mcbp.OpSubdocMultiMutate, docID, opts, func(collectionUID uint32) (*mcbp.Packet, error) {
		var extras []byte
		if opts.Expiry != 0 {
			extras = make([]byte, 4)
			binary.BigEndian.PutUint32(extras, opts.Expiry)
		}
		return &mcbp.Packet{
			Header: mcbp.Header{Magic: mcbp.MagicRequest, Opcode: mcbp.OpSubdocMultiMutate, CAS: opts.CAS},
			Key:    mcbp.EncodeCollectionKey(collectionUID, []byte(docID.Key)),
			Extras: extras,
			Value:  mcbp.EncodeMutateSpecs(mspecs),
		}, nil
	})
	if err != nil {
		return MutateInResponse{}, err
	}

	decoded, derr := mcbp.DecodeMutateResults(res.Value, res.Status)
	if derr != nil {
		return MutateInResponse{}, kverrors.New(kverrors.KindProtocolError, derr.Error())
	}

	if res.Status == mcbp.StatusSubdocMultiPathFailure || res.Status == mcbp.StatusSubdocMultiPathFailureDeleted {
		failed := decoded[0]
		path := ""
		if failed.Index < len(specs) {
			path = specs[failed.Index].Path
		}
		return MutateInResponse{}, kverrors.New(kverrors.FromStatus(failed.Status),
			"mutate_in failed at spec "+path)
	}
	if !res.Status.Success() && res.Status != mcbp.StatusSubdocSuccessDeleted {
		return MutateInResponse{}, kverrors.New(kverrors.FromStatus(res.Status), "mutate_in failed: "+res.Status.String())
	}

	out := MutateInResponse{CAS: res.CAS, Results: make(map[int]MutateInResult, len(decoded))}
	for _, d := range decoded {
		out.Results[d.Index] = MutateInResult{Value: d.Value}
	}
	return out, nil
}

package command

import (
	"context"
	"encoding/binary"

	"github.com/ryanfowler/gokv/internal/kverrors"
	"github.com/ryanfowler/gokv/internal/protocol/mcbp"
)

// resolveCollection returns docID's collection uid, consulting the
// session's cache first and falling back to a GET_COLLECTION_ID round
// trip (§4.3.3). Documents in the default collection never need
// resolution, even against a collections-unaware session.
func resolveCollection(ctx context.Context, sess Session, docID DocumentID) (uint32, error) {
	if docID.IsDefaultCollection() {
		return 0, nil
	}

	path := docID.CollectionPath()
	if uid, ok := sess.Collections().Lookup(path); ok {
		return uid, nil
	}

	if !sess.Features().Has(mcbp.FeatureCollections) {
		return 0, kverrors.New(kverrors.KindUnsupportedOperation,
			"session does not support collections; only the default collection is addressable")
	}

	uid, err := getCollectionID(ctx, sess, path)
	if err != nil {
		return 0, err
	}
	sess.Collections().Store(path, uid)
	return uid, nil
}

// getCollectionID issues one GET_COLLECTION_ID round trip, keyed by the
// "scope.collection" path, and parses the manifest-uid + collection-uid
// response extras (§4.3.3, §6.1 opcode 0xbb).
func getCollectionID(ctx context.Context, sess Session, path string) (uint32, error) {
	type result struct {
		uid uint32
		err error
	}
	resCh := make(chan result, 1)

	pkt := &mcbp.Packet{
		Header: mcbp.Header{Magic: mcbp.MagicRequest, Opcode: mcbp.OpGetCollectionID},
		Key:    []byte(path),
	}
	opaque, err := sess.Send(pkt, func(resp mcbp.Packet, err error) {
		if err != nil {
			resCh <- result{err: err}
			return
		}
		if !resp.Header.Status().Success() {
			resCh <- result{err: kverrors.New(kverrors.FromStatus(resp.Header.Status()), "GET_COLLECTION_ID failed")}
			return
		}
		if len(resp.Extras) < 12 {
			resCh <- result{err: kverrors.New(kverrors.KindProtocolError, "malformed GET_COLLECTION_ID response extras")}
			return
		}
		resCh <- result{uid: binary.BigEndian.Uint32(resp.Extras[8:12])}
	})
	if err != nil {
		return 0, err
	}

	select {
	case res := <-resCh:
		return res.uid, res.err
	case <-ctx.Done():
		sess.CancelOutstanding(opaque)
		return 0, kverrors.New(kverrors.KindUnambiguousTimeout, "GET_COLLECTION_ID timed out")
	}
}

package command

import (
	"context"
	"encoding/binary"

	"github.com/ryanfowler/gokv/internal/dispatch"
	"github.com/ryanfowler/gokv/internal/protocol/mcbp"
)

// Get issues a GET (§6.1 opcode 0x00).
func (r *Runner) Get(ctx context.Context, docID DocumentID, opts Options) (Result, error) {
	return r.execute(ctx, mcbp.OpGet, docID, opts, func(collectionUID uint32) (*mcbp.Packet, error) {
		return &mcbp.Packet{
			Header: mcbp.Header{Magic: mcbp.MagicRequest, Opcode: mcbp.OpGet},
			Key:    mcbp.EncodeCollectionKey(collectionUID, []byte(docID.Key)),
		}, nil
	})
}

// Upsert issues an UPSERT ("Set" on the wire, opcode 0x01).
func (r *Runner) Upsert(ctx context.Context, docID DocumentID, value []byte, datatype mcbp.Datatype, opts Options) (Result, error) {
	return r.execute(ctx, mcbp.OpUpsert, docID, opts, func(collectionUID uint32) (*mcbp.Packet, error) {
		return &mcbp.Packet{
			Header: mcbp.Header{Magic: mcbp.MagicRequest, Opcode: mcbp.OpUpsert, CAS: opts.CAS, Datatype: datatype},
			Key:    mcbp.EncodeCollectionKey(collectionUID, []byte(docID.Key)),
			Extras: encodeSetExtras(0, opts.Expiry),
			Value:  value,
		}, nil
	})
}

// Insert issues an ADD (opcode 0x02): UPSERT's extras layout, fails with
// document_exists if the key is already present.
func (r *Runner) Insert(ctx context.Context, docID DocumentID, value []byte, datatype mcbp.Datatype, opts Options) (Result, error) {
	return r.execute(ctx, mcbp.OpAdd, docID, opts, func(collectionUID uint32) (*mcbp.Packet, error) {
		return &mcbp.Packet{
			Header: mcbp.Header{Magic: mcbp.MagicRequest, Opcode: mcbp.OpAdd, Datatype: datatype},
			Key:    mcbp.EncodeCollectionKey(collectionUID, []byte(docID.Key)),
			Extras: encodeSetExtras(0, opts.Expiry),
			Value:  value,
		}, nil
	})
}

// Replace issues a REPLACE (opcode 0x03): requires the document to
// already exist; opts.CAS, if non-zero, is enforced by the server.
func (r *Runner) Replace(ctx context.Context, docID DocumentID, value []byte, datatype mcbp.Datatype, opts Options) (Result, error) {
	return r.execute(ctx, mcbp.OpReplace, docID, opts, func(collectionUID uint32) (*mcbp.Packet, error) {
		return &mcbp.Packet{
			Header: mcbp.Header{Magic: mcbp.MagicRequest, Opcode: mcbp.OpReplace, CAS: opts.CAS, Datatype: datatype},
			Key:    mcbp.EncodeCollectionKey(collectionUID, []byte(docID.Key)),
			Extras: encodeSetExtras(0, opts.Expiry),
			Value:  value,
		}, nil
	})
}

// Remove issues a REMOVE ("Delete" on the wire, opcode 0x04).
func (r *Runner) Remove(ctx context.Context, docID DocumentID, opts Options) (Result, error) {
	return r.execute(ctx, mcbp.OpRemove, docID, opts, func(collectionUID uint32) (*mcbp.Packet, error) {
		return &mcbp.Packet{
			Header: mcbp.Header{Magic: mcbp.MagicRequest, Opcode: mcbp.OpRemove, CAS: opts.CAS},
			Key:    mcbp.EncodeCollectionKey(collectionUID, []byte(docID.Key)),
		}, nil
	})
}

// Touch issues a TOUCH (opcode 0x1c), updating the document's expiry
// without returning its value.
func (r *Runner) Touch(ctx context.Context, docID DocumentID, opts Options) (Result, error) {
	return r.execute(ctx, mcbp.OpTouch, docID, opts, func(collectionUID uint32) (*mcbp.Packet, error) {
		extras := make([]byte, 4)
		binary.BigEndian.PutUint32(extras, opts.Expiry)
		return &mcbp.Packet{
			Header: mcbp.Header{Magic: mcbp.MagicRequest, Opcode: mcbp.OpTouch},
			Key:    mcbp.EncodeCollectionKey(collectionUID, []byte(docID.Key)),
			Extras: extras,
		}, nil
	})
}

// GetAndLock issues a GET_AND_LOCK (opcode 0x94), returning the value
// and CAS while placing a pessimistic lock on the document.
func (r *Runner) GetAndLock(ctx context.Context, docID DocumentID, lockTimeSeconds uint32, opts Options) (Result, error) {
	return r.execute(ctx, mcbp.OpGetAndLock, docID, opts, func(collectionUID uint32) (*mcbp.Packet, error) {
		extras := make([]byte, 4)
		binary.BigEndian.PutUint32(extras, lockTimeSeconds)
		return &mcbp.Packet{
			Header: mcbp.Header{Magic: mcbp.MagicRequest, Opcode: mcbp.OpGetAndLock},
			Key:    mcbp.EncodeCollectionKey(collectionUID, []byte(docID.Key)),
			Extras: extras,
		}, nil
	})
}

// Unlock issues an UNLOCK (opcode 0x95); opts.CAS must be the CAS
// returned by the GetAndLock that placed the lock.
func (r *Runner) Unlock(ctx context.Context, docID DocumentID, opts Options) (Result, error) {
	return r.execute(ctx, mcbp.OpUnlock, docID, opts, func(collectionUID uint32) (*mcbp.Packet, error) {
		return &mcbp.Packet{
			Header: mcbp.Header{Magic: mcbp.MagicRequest, Opcode: mcbp.OpUnlock, CAS: opts.CAS},
			Key:    mcbp.EncodeCollectionKey(collectionUID, []byte(docID.Key)),
		}, nil
	})
}

// Increment issues an INCREMENT (opcode 0x05): counter semantics — the
// extras carry delta, initial value, expiry, per the wire format.
func (r *Runner) Increment(ctx context.Context, docID DocumentID, delta, initial uint64, opts Options) (Result, error) {
	return r.execute(ctx, mcbp.OpIncrement, docID, opts, func(collectionUID uint32) (*mcbp.Packet, error) {
		return &mcbp.Packet{
			Header: mcbp.Header{Magic: mcbp.MagicRequest, Opcode: mcbp.OpIncrement},
			Key:    mcbp.EncodeCollectionKey(collectionUID, []byte(docID.Key)),
			Extras: encodeCounterExtras(delta, initial, opts.Expiry),
		}, nil
	})
}

// Decrement issues a DECREMENT (opcode 0x06); same extras layout as
// Increment, with the delta subtracted server-side (floored at zero).
func (r *Runner) Decrement(ctx context.Context, docID DocumentID, delta, initial uint64, opts Options) (Result, error) {
	return r.execute(ctx, mcbp.OpDecrement, docID, opts, func(collectionUID uint32) (*mcbp.Packet, error) {
		return &mcbp.Packet{
			Header: mcbp.Header{Magic: mcbp.MagicRequest, Opcode: mcbp.OpDecrement},
			Key:    mcbp.EncodeCollectionKey(collectionUID, []byte(docID.Key)),
			Extras: encodeCounterExtras(delta, initial, opts.Expiry),
		}, nil
	})
}

// Append issues an APPEND (opcode 0x0e): appends value to the existing
// document body, failing with document_not_found if it doesn't exist.
func (r *Runner) Append(ctx context.Context, docID DocumentID, value []byte, opts Options) (Result, error) {
	return r.execute(ctx, mcbp.OpAppend, docID, opts, func(collectionUID uint32) (*mcbp.Packet, error) {
		return &mcbp.Packet{
			Header: mcbp.Header{Magic: mcbp.MagicRequest, Opcode: mcbp.OpAppend, CAS: opts.CAS},
			Key:    mcbp.EncodeCollectionKey(collectionUID, []byte(docID.Key)),
			Value:  value,
		}, nil
	})
}

// Prepend issues a PREPEND (opcode 0x0f): same framing as Append, with
// value placed before the existing body.
func (r *Runner) Prepend(ctx context.Context, docID DocumentID, value []byte, opts Options) (Result, error) {
	return r.execute(ctx, mcbp.OpPrepend, docID, opts, func(collectionUID uint32) (*mcbp.Packet, error) {
		return &mcbp.Packet{
			Header: mcbp.Header{Magic: mcbp.MagicRequest, Opcode: mcbp.OpPrepend, CAS: opts.CAS},
			Key:    mcbp.EncodeCollectionKey(collectionUID, []byte(docID.Key)),
			Value:  value,
		}, nil
	})
}

// GetAndTouch issues a GAT (opcode 0x1d): fetches the document and
// updates its expiry in a single round trip.
func (r *Runner) GetAndTouch(ctx context.Context, docID DocumentID, opts Options) (Result, error) {
	return r.execute(ctx, mcbp.OpGetAndTouch, docID, opts, func(collectionUID uint32) (*mcbp.Packet, error) {
		extras := make([]byte, 4)
		binary.BigEndian.PutUint32(extras, opts.Expiry)
		return &mcbp.Packet{
			Header: mcbp.Header{Magic: mcbp.MagicRequest, Opcode: mcbp.OpGetAndTouch},
			Key:    mcbp.EncodeCollectionKey(collectionUID, []byte(docID.Key)),
			Extras: extras,
		}, nil
	})
}

// ObserveSeqno issues an OBSERVE_SEQNO (opcode 0x91) against the node
// currently dispatched to, returning the raw per-node persistence/
// replication sequence-number body as Result.Value for the caller to
// parse (the body's layout is vbucket-uuid-keyed and varies by failover
// history, so this core surfaces it raw rather than typing every field).
// The request body carries the vbucket id the document hashes to, not the
// key itself.
func (r *Runner) ObserveSeqno(ctx context.Context, docID DocumentID, opts Options) (Result, error) {
	return r.execute(ctx, mcbp.OpObserveSeqno, docID, opts, func(collectionUID uint32) (*mcbp.Packet, error) {
		numVbuckets := 1024
		if cfg := r.tracker.Current(); cfg != nil && len(cfg.VbucketMap) > 0 {
			numVbuckets = len(cfg.VbucketMap)
		}
		vb := dispatch.Vbucket([]byte(docID.Key), numVbuckets)
		value := make([]byte, 2)
		binary.BigEndian.PutUint16(value, vb)
		return &mcbp.Packet{
			Header: mcbp.Header{Magic: mcbp.MagicRequest, Opcode: mcbp.OpObserveSeqno},
			Value:  value,
		}, nil
	})
}

// GetMeta issues a GET_META (opcode 0xa0): metadata-only fetch (CAS,
// flags, expiry, seqno) without transferring the document body.
func (r *Runner) GetMeta(ctx context.Context, docID DocumentID, opts Options) (Result, error) {
	return r.execute(ctx, mcbp.OpGetMeta, docID, opts, func(collectionUID uint32) (*mcbp.Packet, error) {
		return &mcbp.Packet{
			Header: mcbp.Header{Magic: mcbp.MagicRequest, Opcode: mcbp.OpGetMeta},
			Key:    mcbp.EncodeCollectionKey(collectionUID, []byte(docID.Key)),
		}, nil
	})
}

// GetReplica issues a GET_REPLICA (opcode 0x83) against the replica
// index given in opts.ReplicaIdx (must be >= 1).
func (r *Runner) GetReplica(ctx context.Context, docID DocumentID, opts Options) (Result, error) {
	return r.execute(ctx, mcbp.OpGetReplica, docID, opts, func(collectionUID uint32) (*mcbp.Packet, error) {
		return &mcbp.Packet{
			Header: mcbp.Header{Magic: mcbp.MagicRequest, Opcode: mcbp.OpGetReplica},
			Key:    mcbp.EncodeCollectionKey(collectionUID, []byte(docID.Key)),
		}, nil
	})
}

func encodeSetExtras(flags, expiry uint32) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint32(buf[0:4], flags)
	binary.BigEndian.PutUint32(buf[4:8], expiry)
	return buf
}

func encodeCounterExtras(delta, initial uint64, expiry uint32) []byte {
	buf := make([]byte, 20)
	binary.BigEndian.PutUint64(buf[0:8], delta)
	binary.BigEndian.PutUint64(buf[8:16], initial)
	binary.BigEndian.PutUint32(buf[16:20], expiry)
	return buf
}

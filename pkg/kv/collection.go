package kv

import (
	"context"
	"encoding/json"

	"github.com/ryanfowler/gokv/internal/command"
	"github.com/ryanfowler/gokv/internal/protocol/mcbp"
)

// Collection is a handle to one collection within one bucket/scope,
// through which every document operation is issued.
type Collection struct {
	runner     *command.Runner
	bucketName string
	scope      string
	collection string
}

func (c *Collection) docID(key string) command.DocumentID {
	return command.DocumentID{Bucket: c.bucketName, Scope: c.scope, Collection: c.collection, Key: key}
}

// Get fetches a document by key (§6.1 opcode 0x00).
func (c *Collection) Get(ctx context.Context, key string, opts GetOptions) (*Result, error) {
	res, err := c.runner.Get(ctx, c.docID(key), command.Options{Timeout: opts.Timeout})
	if err != nil {
		return nil, err
	}
	return newResult(res), nil
}

// GetAndLock fetches a document and places a pessimistic lock on it for
// lockTimeSeconds (opcode 0x94).
func (c *Collection) GetAndLock(ctx context.Context, key string, lockTimeSeconds uint32, opts GetAndLockOptions) (*Result, error) {
	res, err := c.runner.GetAndLock(ctx, c.docID(key), lockTimeSeconds, command.Options{Timeout: opts.Timeout})
	if err != nil {
		return nil, err
	}
	return newResult(res), nil
}

// Unlock releases a lock placed by GetAndLock; opts.CAS must be the CAS
// GetAndLock returned.
func (c *Collection) Unlock(ctx context.Context, key string, opts UnlockOptions) error {
	_, err := c.runner.Unlock(ctx, c.docID(key), command.Options{Timeout: opts.Timeout, CAS: opts.CAS})
	return err
}

// GetAnyReplica races Get against the master and opts.NumReplicas
// replicas, returning whichever responds first (supplemental feature
// #3).
func (c *Collection) GetAnyReplica(ctx context.Context, key string, opts GetAnyReplicaOptions) (*Result, error) {
	res, err := c.runner.GetAnyReplica(ctx, c.docID(key), opts.NumReplicas, command.Options{Timeout: opts.Timeout})
	if err != nil {
		return nil, err
	}
	return newResult(res), nil
}

// Upsert creates or replaces a document (opcode 0x01). value is
// marshaled to JSON.
func (c *Collection) Upsert(ctx context.Context, key string, value interface{}, opts UpsertOptions) (*Result, error) {
	data, datatype, err := encode(value)
	if err != nil {
		return nil, err
	}
	res, err := c.runner.Upsert(ctx, c.docID(key), data, datatype,
		toCommandOptions(opts.Timeout, opts.Durability, opts.Expiry, opts.PreserveTTL, opts.CAS))
	if err != nil {
		return nil, err
	}
	return newResult(res), nil
}

// Insert creates a document, failing with document_exists if the key is
// already present (opcode 0x02).
func (c *Collection) Insert(ctx context.Context, key string, value interface{}, opts UpsertOptions) (*Result, error) {
	data, datatype, err := encode(value)
	if err != nil {
		return nil, err
	}
	res, err := c.runner.Insert(ctx, c.docID(key), data, datatype,
		toCommandOptions(opts.Timeout, opts.Durability, opts.Expiry, opts.PreserveTTL, opts.CAS))
	if err != nil {
		return nil, err
	}
	return newResult(res), nil
}

// Replace updates an existing document, enforcing opts.CAS when set
// (opcode 0x03).
func (c *Collection) Replace(ctx context.Context, key string, value interface{}, opts UpsertOptions) (*Result, error) {
	data, datatype, err := encode(value)
	if err != nil {
		return nil, err
	}
	res, err := c.runner.Replace(ctx, c.docID(key), data, datatype,
		toCommandOptions(opts.Timeout, opts.Durability, opts.Expiry, opts.PreserveTTL, opts.CAS))
	if err != nil {
		return nil, err
	}
	return newResult(res), nil
}

// Remove deletes a document (opcode 0x04).
func (c *Collection) Remove(ctx context.Context, key string, opts RemoveOptions) (*Result, error) {
	res, err := c.runner.Remove(ctx, c.docID(key), command.Options{
		Timeout: opts.Timeout, Durability: opts.Durability, CAS: opts.CAS,
	})
	if err != nil {
		return nil, err
	}
	return newResult(res), nil
}

// Touch updates a document's expiry without returning its value (opcode
// 0x1c).
func (c *Collection) Touch(ctx context.Context, key string, opts TouchOptions) (*Result, error) {
	res, err := c.runner.Touch(ctx, c.docID(key), command.Options{
		Timeout: opts.Timeout, Expiry: expirySeconds(opts.Expiry),
	})
	if err != nil {
		return nil, err
	}
	return newResult(res), nil
}

// Increment atomically adds delta to a counter document (opcode 0x05),
// creating it with opts.Initial if absent.
func (c *Collection) Increment(ctx context.Context, key string, delta uint64, opts CounterOptions) (*Result, error) {
	res, err := c.runner.Increment(ctx, c.docID(key), delta, opts.Initial, command.Options{
		Timeout: opts.Timeout, Durability: opts.Durability, Expiry: expirySeconds(opts.Expiry),
	})
	if err != nil {
		return nil, err
	}
	return newResult(res), nil
}

// Decrement atomically subtracts delta from a counter document (opcode
// 0x06), floored at zero, creating it with opts.Initial if absent.
func (c *Collection) Decrement(ctx context.Context, key string, delta uint64, opts CounterOptions) (*Result, error) {
	res, err := c.runner.Decrement(ctx, c.docID(key), delta, opts.Initial, command.Options{
		Timeout: opts.Timeout, Durability: opts.Durability, Expiry: expirySeconds(opts.Expiry),
	})
	if err != nil {
		return nil, err
	}
	return newResult(res), nil
}

// Append appends data to the end of the existing document body (opcode
// 0x0e), failing with document_not_found if it doesn't exist.
func (c *Collection) Append(ctx context.Context, key string, data []byte, opts AppendOptions) (*Result, error) {
	res, err := c.runner.Append(ctx, c.docID(key), data, command.Options{Timeout: opts.Timeout, CAS: opts.CAS})
	if err != nil {
		return nil, err
	}
	return newResult(res), nil
}

// Prepend inserts data before the existing document body (opcode 0x0f).
func (c *Collection) Prepend(ctx context.Context, key string, data []byte, opts AppendOptions) (*Result, error) {
	res, err := c.runner.Prepend(ctx, c.docID(key), data, command.Options{Timeout: opts.Timeout, CAS: opts.CAS})
	if err != nil {
		return nil, err
	}
	return newResult(res), nil
}

// GetAndTouch fetches a document and updates its expiry in one round
// trip (opcode 0x1d).
func (c *Collection) GetAndTouch(ctx context.Context, key string, opts GetAndTouchOptions) (*Result, error) {
	res, err := c.runner.GetAndTouch(ctx, c.docID(key), command.Options{
		Timeout: opts.Timeout, Expiry: expirySeconds(opts.Expiry),
	})
	if err != nil {
		return nil, err
	}
	return newResult(res), nil
}

// ObserveSeqno returns the raw per-node persistence/replication
// sequence-number body for key's vbucket (opcode 0x91); used by durability
// polling above this core.
func (c *Collection) ObserveSeqno(ctx context.Context, key string, opts ObserveSeqnoOptions) (*Result, error) {
	res, err := c.runner.ObserveSeqno(ctx, c.docID(key), command.Options{Timeout: opts.Timeout})
	if err != nil {
		return nil, err
	}
	return newResult(res), nil
}

func encode(value interface{}) ([]byte, mcbp.Datatype, error) {
	if raw, ok := value.([]byte); ok {
		return raw, mcbp.DatatypeRaw, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, 0, err
	}
	return data, mcbp.DatatypeJSON, nil
}

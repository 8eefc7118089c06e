// Package dispatch implements the operation dispatcher (C8): mapping a
// key to its vbucket, then to the node (master or a replica) currently
// owning that vbucket, per §4.6 step 2.
package dispatch

import (
	"context"
	"hash/crc32"
	"time"

	"github.com/ryanfowler/gokv/internal/kverrors"
	"github.com/ryanfowler/gokv/internal/topology"
)

// Vbucket computes the vbucket id for key using the standard Couchbase
// vbucket hash (a CRC-32/IEEE checksum, upper 15 bits after discarding
// the low 16, modulo the vbucket count). No library in the retrieval
// pack implements this fixed table-lookup scheme (DESIGN.md
// "Standard-library-only justifications"), so it is a direct
// stdlib-`hash/crc32` computation.
func Vbucket(key []byte, numVbuckets int) uint16 {
	sum := crc32.ChecksumIEEE(key)
	return uint16((sum >> 16) & 0x7fff) % uint16(numVbuckets)
}

// Target is the resolved destination of one dispatched operation.
type Target struct {
	Vbucket uint16
	Session topology.Session
}

// Dispatcher resolves keys to sessions using the tracker's current
// configuration.
type Dispatcher struct {
	tracker *topology.Tracker

	// awaitConfigPoll is how often Select rechecks for a configuration
	// while none is available yet (§4.6 step 2 "If no config is present
	// yet, wait (bounded) for one").
	awaitConfigPoll time.Duration
}

// New constructs a Dispatcher over tracker.
func New(tracker *topology.Tracker) *Dispatcher {
	return &Dispatcher{tracker: tracker, awaitConfigPoll: 20 * time.Millisecond}
}

// Select resolves key to its owning session for the given replica index
// (0 = master, 1..n = replicas), blocking (bounded by ctx) until a usable
// configuration is available.
func (d *Dispatcher) Select(ctx context.Context, key []byte, replicaIdx int) (Target, error) {
	cfg, err := d.awaitConfig(ctx)
	if err != nil {
		return Target{}, err
	}

	numVbuckets := cfg.VbucketCount()
	if numVbuckets == 0 {
		return Target{}, kverrors.New(kverrors.KindConfigurationNotAvailable, "configuration has no vbucket map")
	}

	vb := Vbucket(key, numVbuckets)
	nodeIdx, ok := cfg.Owner(int(vb), replicaIdx)
	if !ok {
		return Target{}, kverrors.New(kverrors.KindConfigurationNotAvailable, "no owner for vbucket at requested replica index")
	}

	sess, ok := d.tracker.SessionForNode(cfg, nodeIdx)
	if !ok {
		return Target{}, kverrors.New(kverrors.KindConfigurationNotAvailable, "owning node has no bootstrapped session")
	}
	return Target{Vbucket: vb, Session: sess}, nil
}

func (d *Dispatcher) awaitConfig(ctx context.Context) (*topology.Config, error) {
	if cfg := d.tracker.Current(); cfg != nil {
		return cfg, nil
	}

	ticker := time.NewTicker(d.awaitConfigPoll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, kverrors.New(kverrors.KindRequestCancelled, "cancelled waiting for configuration")
		case <-ticker.C:
			if cfg := d.tracker.Current(); cfg != nil {
				return cfg, nil
			}
		}
	}
}

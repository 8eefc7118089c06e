package command

import (
	"time"

	"github.com/ryanfowler/gokv/internal/protocol/mcbp"
)

// DurabilityLevel re-exports the wire-level enum (supplemental feature
// #5: None/Majority/MajorityAndPersistToActive/PersistToMajority) so
// callers of this package never need to import internal/protocol/mcbp
// themselves just to name a durability level.
type DurabilityLevel = mcbp.DurabilityLevel

const (
	DurabilityNone                       = mcbp.DurabilityNone
	DurabilityMajority                   = mcbp.DurabilityMajority
	DurabilityMajorityAndPersistToActive = mcbp.DurabilityMajorityAndPersistToActive
	DurabilityPersistToMajority          = mcbp.DurabilityPersistToMajority
)

// durabilityTimeoutFloor is the 1500ms floor imposed on any operation
// that requests durability above none (§4.6 step 1).
const durabilityTimeoutFloor = 1500 * time.Millisecond

// durabilityServerFraction is the fraction of the operation timeout used
// to derive the server-side durability timeout (§4.6 "durability
// server-side timeout ≈ 0.9x operation timeout", generalized to every
// level above none by supplemental feature #5).
const durabilityServerFraction = 0.9

// Options carries the per-operation knobs every command shares.
type Options struct {
	Timeout     time.Duration
	Durability  DurabilityLevel
	ReplicaIdx  int // 0 = master
	Expiry      uint32
	PreserveTTL bool
	CAS         uint64 // compare-and-swap precondition, where applicable
}

// EffectiveTimeout returns o.Timeout raised to the durability floor when
// a durability level above none is requested.
func (o Options) EffectiveTimeout() time.Duration {
	if o.Durability > DurabilityNone && o.Timeout < durabilityTimeoutFloor {
		return durabilityTimeoutFloor
	}
	if o.Timeout <= 0 {
		return durabilityTimeoutFloor
	}
	return o.Timeout
}

// DurabilityServerTimeoutMs derives the server-side durability timeout
// from the effective operation timeout, floored at 1ms (never zero).
func (o Options) DurabilityServerTimeoutMs() uint16 {
	ms := float64(o.EffectiveTimeout().Milliseconds()) * durabilityServerFraction
	if ms < 1 {
		ms = 1
	}
	if ms > 65535 {
		ms = 65535
	}
	return uint16(ms)
}

package kv

import (
	"time"

	"github.com/ryanfowler/gokv/internal/command"
)

// DurabilityLevel re-exports the command runtime's durability enum so
// callers never need to import an internal package to name a level.
type DurabilityLevel = command.DurabilityLevel

const (
	DurabilityNone                       = command.DurabilityNone
	DurabilityMajority                   = command.DurabilityMajority
	DurabilityMajorityAndPersistToActive = command.DurabilityMajorityAndPersistToActive
	DurabilityPersistToMajority          = command.DurabilityPersistToMajority
)

// GetOptions configures Get.
type GetOptions struct {
	Timeout time.Duration
}

// GetAndLockOptions configures GetAndLock.
type GetAndLockOptions struct {
	Timeout time.Duration
}

// GetAnyReplicaOptions configures GetAnyReplica.
type GetAnyReplicaOptions struct {
	Timeout     time.Duration
	NumReplicas int
}

// UpsertOptions configures Upsert/Insert/Replace.
type UpsertOptions struct {
	Timeout     time.Duration
	Durability  DurabilityLevel
	Expiry      time.Duration
	PreserveTTL bool
	CAS         uint64
}

// RemoveOptions configures Remove.
type RemoveOptions struct {
	Timeout    time.Duration
	Durability DurabilityLevel
	CAS        uint64
}

// TouchOptions configures Touch.
type TouchOptions struct {
	Timeout time.Duration
	Expiry  time.Duration
}

// UnlockOptions configures Unlock.
type UnlockOptions struct {
	Timeout time.Duration
	CAS     uint64
}

// CounterOptions configures Increment/Decrement.
type CounterOptions struct {
	Timeout    time.Duration
	Durability DurabilityLevel
	Expiry     time.Duration
	Initial    uint64
}

// AppendOptions configures Append/Prepend.
type AppendOptions struct {
	Timeout time.Duration
	CAS     uint64
}

// GetAndTouchOptions configures GetAndTouch.
type GetAndTouchOptions struct {
	Timeout time.Duration
	Expiry  time.Duration
}

// ObserveSeqnoOptions configures ObserveSeqno.
type ObserveSeqnoOptions struct {
	Timeout time.Duration
}

// LookupInOptions configures LookupIn.
type LookupInOptions struct {
	Timeout time.Duration
}

// MutateInOptions configures MutateIn.
type MutateInOptions struct {
	Timeout    time.Duration
	Durability DurabilityLevel
	Expiry     time.Duration
	CAS        uint64
}

func toCommandOptions(timeout time.Duration, durability DurabilityLevel, expiry time.Duration, preserveTTL bool, cas uint64) command.Options {
	return command.Options{
		Timeout:     timeout,
		Durability:  durability,
		Expiry:      expirySeconds(expiry),
		PreserveTTL: preserveTTL,
		CAS:         cas,
	}
}

// expirySeconds converts a time.Duration into the wire's 32-bit relative
// expiry-in-seconds field, floored at zero.
func expirySeconds(d time.Duration) uint32 {
	if d <= 0 {
		return 0
	}
	return uint32(d.Seconds())
}

// Package txnerrors maps the KV core's error taxonomy onto the abstract
// error classes a transactions layer needs (§6.4): the core never
// implements transactions itself, but surfaces enough structured
// information — kind, CAS, server duration — that a caller built on top
// of it can classify without re-parsing wire frames.
package txnerrors

import "github.com/ryanfowler/gokv/internal/kverrors"

// FailClass is one of the twelve abstract failure classes §6.4 names.
type FailClass string

const (
	FailDocNotFound        FailClass = "FAIL_DOC_NOT_FOUND"
	FailDocAlreadyExists   FailClass = "FAIL_DOC_ALREADY_EXISTS"
	FailCASMismatch        FailClass = "FAIL_CAS_MISMATCH"
	FailTransient          FailClass = "FAIL_TRANSIENT"
	FailAmbiguous          FailClass = "FAIL_AMBIGUOUS"
	FailHard               FailClass = "FAIL_HARD"
	FailExpiry             FailClass = "FAIL_EXPIRY"
	FailPathNotFound       FailClass = "FAIL_PATH_NOT_FOUND"
	FailPathAlreadyExists  FailClass = "FAIL_PATH_ALREADY_EXISTS"
	FailWriteWriteConflict FailClass = "FAIL_WRITE_WRITE_CONFLICT"
	FailATRFull            FailClass = "FAIL_ATR_FULL"
	FailOther              FailClass = "FAIL_OTHER"
)

// kindClasses maps every kverrors.Kind this package has an opinion about
// to its transactions-facing class. Kinds absent here fall through to
// FailOther in Classify — the transactions layer treats an unrecognised
// kind conservatively rather than the core guessing at a harder class.
var kindClasses = map[kverrors.Kind]FailClass{
	kverrors.KindDocumentNotFound: FailDocNotFound,
	kverrors.KindDocumentExists:   FailDocAlreadyExists,
	kverrors.KindCASMismatch:      FailCASMismatch,

	kverrors.KindTemporaryFailure:         FailTransient,
	kverrors.KindRateLimited:              FailTransient,
	kverrors.KindQuotaLimited:             FailTransient,
	kverrors.KindConfigurationNotAvailable: FailTransient,
	kverrors.KindUnambiguousTimeout:       FailTransient,

	kverrors.KindAmbiguousTimeout:                 FailAmbiguous,
	kverrors.KindDurabilityAmbiguous:              FailAmbiguous,
	kverrors.KindDurableWriteReCommitInProgress:   FailAmbiguous,

	kverrors.KindPathNotFound: FailPathNotFound,
	kverrors.KindPathExists:   FailPathAlreadyExists,

	kverrors.KindDocumentLocked:          FailWriteWriteConflict,
	kverrors.KindDurableWriteInProgress:  FailWriteWriteConflict,

	kverrors.KindAuthenticationFailure:  FailHard,
	kverrors.KindHandshakeFailure:       FailHard,
	kverrors.KindProtocolError:          FailHard,
	kverrors.KindInternalServerFailure:  FailHard,
	kverrors.KindNoEndpointsLeft:        FailHard,
	kverrors.KindResolveFailure:         FailHard,
	kverrors.KindClusterClosed:          FailHard,
	kverrors.KindBucketNotFound:         FailHard,
	kverrors.KindScopeNotFound:          FailHard,
	kverrors.KindCollectionNotFound:     FailHard,
	kverrors.KindUnsupportedOperation:   FailHard,
	kverrors.KindDurabilityImpossible:   FailHard,
	kverrors.KindDurabilityLevelNotAvailable: FailHard,
}

// Classify maps a KV-core error kind onto the transactions-facing
// failure class a transaction attempt would use to decide whether to
// retry the attempt, roll back, or fail the whole transaction. expired
// takes priority over the kind-derived class: an attempt that has
// exceeded its overall time budget always fails with FAIL_EXPIRY (§6.4),
// regardless of what the last operation's kind happened to be.
func Classify(kind kverrors.Kind, expired bool) FailClass {
	if expired {
		return FailExpiry
	}
	if class, ok := kindClasses[kind]; ok {
		return class
	}
	return FailOther
}

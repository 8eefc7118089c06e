package kverrors

import "github.com/ryanfowler/gokv/internal/protocol/mcbp"

// statusKinds is the total status→kind mapping (§4.5 "total and
// explicit"). Every status code the core names in mcbp.status.go has an
// entry; FromStatus falls back to KindProtocolError for anything absent,
// which is itself fatal to the session per §7.
var statusKinds = map[mcbp.Status]Kind{
	mcbp.StatusSuccess:          KindUnknown, // callers check Success() first; never surfaced as an error
	mcbp.StatusKeyNotFound:      KindDocumentNotFound,
	mcbp.StatusKeyExists:        KindDocumentExists,
	mcbp.StatusValueTooLarge:    KindValueTooLarge,
	mcbp.StatusInvalidArguments: KindValueInvalid,
	mcbp.StatusItemNotStored:    KindInternalServerFailure,
	mcbp.StatusNonNumeric:       KindDeltaInvalid,
	mcbp.StatusNotMyVbucket:     KindConfigurationNotAvailable,
	mcbp.StatusNoBucket:         KindBucketNotFound,
	mcbp.StatusLocked:           KindDocumentLocked,
	mcbp.StatusAuthStale:        KindAuthenticationFailure,
	mcbp.StatusAuthError:        KindAuthenticationFailure,
	mcbp.StatusAuthContinue:     KindAuthenticationFailure,
	mcbp.StatusRangeError:       KindNumberTooBig,
	mcbp.StatusRollback:         KindInternalServerFailure,
	mcbp.StatusNoAccess:         KindBucketNotFound,
	mcbp.StatusNotInitialized:   KindConfigurationNotAvailable,
	mcbp.StatusRateLimited:      KindRateLimited,
	mcbp.StatusQuotaLimited:     KindQuotaLimited,
	mcbp.StatusUnknownFrameInfo: KindProtocolError,
	mcbp.StatusUnknownCommand:   KindUnsupportedOperation,
	mcbp.StatusOutOfMemory:      KindTemporaryFailure,
	mcbp.StatusNotSupported:     KindUnsupportedOperation,
	mcbp.StatusInternalError:    KindInternalServerFailure,
	mcbp.StatusBusy:             KindTemporaryFailure,
	mcbp.StatusTemporaryFailure: KindTemporaryFailure,
	mcbp.StatusXattrInvalid:     KindXattrInvalid,
	mcbp.StatusUnknownCollection:      KindCollectionNotFound,
	mcbp.StatusNoCollectionsManifest:  KindConfigurationNotAvailable,
	mcbp.StatusCollectionsManifestAhead: KindConfigurationNotAvailable,
	mcbp.StatusUnknownScope:      KindScopeNotFound,
	mcbp.StatusDCPStreamIDInvalid: KindUnsupportedOperation,
	mcbp.StatusDurabilityInvalidLevel:      KindDurabilityLevelNotAvailable,
	mcbp.StatusDurabilityImpossible:        KindDurabilityImpossible,
	mcbp.StatusSyncWriteInProgress:         KindDurableWriteInProgress,
	mcbp.StatusSyncWriteAmbiguous:          KindDurabilityAmbiguous,
	mcbp.StatusSyncWriteReCommitInProgress: KindDurableWriteReCommitInProgress,
	mcbp.StatusSubdocPathNotFound:     KindPathNotFound,
	mcbp.StatusSubdocPathMismatch:     KindPathMismatch,
	mcbp.StatusSubdocPathInvalid:      KindPathInvalid,
	mcbp.StatusSubdocPathTooBig:       KindPathTooBig,
	mcbp.StatusSubdocDocTooDeep:       KindPathTooDeep,
	mcbp.StatusSubdocValueCantInsert:  KindValueInvalid,
	mcbp.StatusSubdocDocNotJSON:       KindValueInvalid,
	mcbp.StatusSubdocNumRange:         KindNumberTooBig,
	mcbp.StatusSubdocDeltaInvalid:     KindDeltaInvalid,
	mcbp.StatusSubdocPathExists:       KindPathExists,
	mcbp.StatusSubdocValueTooDeep:     KindValueTooDeep,
	mcbp.StatusSubdocInvalidCombo:     KindValueInvalid,
	mcbp.StatusSubdocMultiPathFailure: KindPathNotFound,
	mcbp.StatusSubdocSuccessDeleted:   KindUnknown, // a success variant, not an error
	mcbp.StatusSubdocXattrInvalidFlagCombo:  KindXattrInvalid,
	mcbp.StatusSubdocXattrInvalidKeyCombo:   KindXattrInvalid,
	mcbp.StatusSubdocXattrUnknownMacro:      KindXattrInvalid,
	mcbp.StatusSubdocXattrUnknownVAttr:      KindXattrInvalid,
	mcbp.StatusSubdocXattrCannotModifyVAttr: KindXattrInvalid,
	mcbp.StatusSubdocMultiPathFailureDeleted: KindPathNotFound,
}

// FromStatus classifies a server status code into an error Kind (§4.5).
// Unknown statuses map to KindProtocolError, which Kind.Fatal reports as
// fatal to the session — an unrecognised status from a server this core
// negotiated with is itself a protocol violation worth tearing the
// connection down over, matching §4.5's "explicit" total mapping.
func FromStatus(status mcbp.Status) Kind {
	if kind, ok := statusKinds[status]; ok {
		return kind
	}
	return KindProtocolError
}

// FromErrorMapAttributes refines a status-derived Kind using the error
// map's attribute set (§6.3), used when the default status mapping above
// is too coarse (e.g. "temp" vs. "item-locked" both sometimes apply to
// related codes). Only called when the session negotiated XERROR and has
// a loaded error map entry for the status.
func FromErrorMapAttributes(status mcbp.Status, attrs map[mcbp.ErrorMapAttribute]bool) Kind {
	switch {
	case attrs[mcbp.AttrAuth]:
		return KindAuthenticationFailure
	case attrs[mcbp.AttrItemLocked]:
		return KindDocumentLocked
	case attrs[mcbp.AttrRateLimit]:
		return KindRateLimited
	case attrs[mcbp.AttrTemp]:
		return KindTemporaryFailure
	default:
		return FromStatus(status)
	}
}

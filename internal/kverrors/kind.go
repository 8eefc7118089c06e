// Package kverrors implements the closed error-kind taxonomy (§7) that
// every server status code, error-map entry, and transport failure is
// classified into before it reaches the retry orchestrator or the
// caller.
package kverrors

// Kind is a closed set of error classifications. Kind values are never
// types in the Go sense (no per-kind struct); a single *KVError carries
// whichever Kind applies plus the underlying cause.
type Kind int

const (
	KindUnknown Kind = iota

	// Timeout
	KindUnambiguousTimeout
	KindAmbiguousTimeout

	// KV domain
	KindDocumentNotFound
	KindDocumentExists
	KindDocumentLocked
	KindDocumentNotLocked
	KindCASMismatch
	KindValueTooLarge
	KindDurabilityImpossible
	KindDurabilityAmbiguous
	KindDurabilityLevelNotAvailable
	KindDurableWriteInProgress
	KindDurableWriteReCommitInProgress
	KindPathNotFound
	KindPathExists
	KindPathMismatch
	KindPathInvalid
	KindPathTooBig
	KindPathTooDeep
	KindValueInvalid
	KindValueTooDeep
	KindNumberTooBig
	KindDeltaInvalid
	KindXattrInvalid

	// Cluster
	KindBucketNotFound
	KindScopeNotFound
	KindCollectionNotFound
	KindAuthenticationFailure
	KindTemporaryFailure
	KindRateLimited
	KindQuotaLimited
	KindUnsupportedOperation
	KindInternalServerFailure
	KindConfigurationNotAvailable

	// Network
	KindHandshakeFailure
	KindProtocolError
	KindNoEndpointsLeft
	KindResolveFailure
	KindClusterClosed

	// Cancellation
	KindRequestCancelled
)

var kindNames = map[Kind]string{
	KindUnknown:                        "unknown",
	KindUnambiguousTimeout:             "unambiguous_timeout",
	KindAmbiguousTimeout:               "ambiguous_timeout",
	KindDocumentNotFound:               "document_not_found",
	KindDocumentExists:                 "document_exists",
	KindDocumentLocked:                 "document_locked",
	KindDocumentNotLocked:              "document_not_locked",
	KindCASMismatch:                    "cas_mismatch",
	KindValueTooLarge:                  "value_too_large",
	KindDurabilityImpossible:           "durability_impossible",
	KindDurabilityAmbiguous:            "durability_ambiguous",
	KindDurabilityLevelNotAvailable:    "durability_level_not_available",
	KindDurableWriteInProgress:         "durable_write_in_progress",
	KindDurableWriteReCommitInProgress: "durable_write_re_commit_in_progress",
	KindPathNotFound:                   "path_not_found",
	KindPathExists:                     "path_exists",
	KindPathMismatch:                   "path_mismatch",
	KindPathInvalid:                    "path_invalid",
	KindPathTooBig:                     "path_too_big",
	KindPathTooDeep:                    "path_too_deep",
	KindValueInvalid:                   "value_invalid",
	KindValueTooDeep:                   "value_too_deep",
	KindNumberTooBig:                   "number_too_big",
	KindDeltaInvalid:                   "delta_invalid",
	KindXattrInvalid:                   "xattr_invalid",
	KindBucketNotFound:                 "bucket_not_found",
	KindScopeNotFound:                  "scope_not_found",
	KindCollectionNotFound:             "collection_not_found",
	KindAuthenticationFailure:          "authentication_failure",
	KindTemporaryFailure:               "temporary_failure",
	KindRateLimited:                    "rate_limited",
	KindQuotaLimited:                   "quota_limited",
	KindUnsupportedOperation:           "unsupported_operation",
	KindInternalServerFailure:          "internal_server_failure",
	KindConfigurationNotAvailable:      "configuration_not_available",
	KindHandshakeFailure:               "handshake_failure",
	KindProtocolError:                  "protocol_error",
	KindNoEndpointsLeft:                "no_endpoints_left",
	KindResolveFailure:                 "resolve_failure",
	KindClusterClosed:                  "cluster_closed",
	KindRequestCancelled:               "request_cancelled",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Fatal reports whether a session observing this kind must close the
// connection rather than continue operating on it (§7 propagation
// policy: "Protocol violations ... are always fatal to the session").
func (k Kind) Fatal() bool {
	return k == KindProtocolError || k == KindHandshakeFailure
}

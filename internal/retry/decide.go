package retry

import "github.com/ryanfowler/gokv/internal/protocol/mcbp"

// Decide applies the §4.4 decision table to a failed attempt. opcode is
// the command that failed; the unlock exception and the idempotency
// check below both key off it.
//
//	| Reason                                                    | Action            |
//	|------------------------------------------------------------|-------------------|
//	| kv_not_my_vbucket                                          | retry-other-node  |
//	| kv_locked, except opcode unlock                            | retry-same-node   |
//	| kv_temporary_failure, kv_sync_write_in_progress,            | retry-same-node   |
//	| kv_sync_write_re_commit_in_progress                         |                   |
//	| kv_collection_outdated                                     | retry-same-node   |
//	| kv_error_map_retry_now, kv_error_map_retry_later            | retry-same-node   |
//	| socket_closed_while_in_flight, idempotent opcode            | retry-other-node  |
//	| socket_closed_while_in_flight, non-idempotent opcode        | do-not-retry      |
//	| do_not_retry                                               | do-not-retry      |
func Decide(reason Reason, opcode mcbp.Opcode) Action {
	switch reason {
	case ReasonNotMyVbucket:
		// The vbucket map is stale; the command must go to whichever
		// node the refreshed config names as the new owner.
		return RetryOtherNode
	case ReasonLocked:
		if opcode == mcbp.OpUnlock {
			return DoNotRetry
		}
		return RetrySameNode
	case ReasonTemporaryFailure, ReasonSyncWriteInProgress, ReasonSyncWriteReCommitInProgress:
		return RetrySameNode
	case ReasonCollectionOutdated:
		// Caller is responsible for refreshing the collection-ID
		// cache entry before the retried send.
		return RetrySameNode
	case ReasonErrorMapRetryNow, ReasonErrorMapRetryLater:
		return RetrySameNode
	case ReasonSocketClosedWhileInFlight:
		if opcode.IsIdempotent() {
			return RetryOtherNode
		}
		return DoNotRetry
	case ReasonDoNotRetry:
		return DoNotRetry
	default:
		return DoNotRetry
	}
}

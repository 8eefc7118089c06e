// Package retry implements the retry orchestrator (C4): given an
// operation, its error class, and a retry reason, decide whether to
// retry on the same node, retry on a different node, or fail, and
// compute the capped exponential backoff with jitter between attempts
// (§4.4).
package retry

// Reason names why a retry is being considered. These are the same
// strings the spec's decision table (§4.4) and observability surface
// (db.couchbase.retry_reason, §6.5) use.
type Reason string

const (
	ReasonNotMyVbucket                Reason = "kv_not_my_vbucket"
	ReasonLocked                      Reason = "kv_locked"
	ReasonTemporaryFailure            Reason = "kv_temporary_failure"
	ReasonSyncWriteInProgress         Reason = "kv_sync_write_in_progress"
	ReasonSyncWriteReCommitInProgress Reason = "kv_sync_write_re_commit_in_progress"
	ReasonCollectionOutdated          Reason = "kv_collection_outdated"
	ReasonErrorMapRetryNow            Reason = "kv_error_map_retry_now"
	ReasonErrorMapRetryLater          Reason = "kv_error_map_retry_later"
	ReasonSocketClosedWhileInFlight   Reason = "socket_closed_while_in_flight"
	ReasonDoNotRetry                  Reason = "do_not_retry"
)

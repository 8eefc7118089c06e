package command

import (
	"github.com/ryanfowler/gokv/internal/kverrors"
	"github.com/ryanfowler/gokv/internal/protocol/mcbp"
	"github.com/ryanfowler/gokv/internal/retry"
)

// outcome is the result of classifying one response (§4.6 step 5).
type outcome struct {
	result Result
	err    error
	reason retry.Reason // zero value ("") means "terminal, use err/result as-is"
	feedConfig bool      // not_my_vbucket: caller should parse & apply cfg from pkt.Value
}

func classifyResponse(pkt mcbp.Packet, sess Session, opcode mcbp.Opcode) outcome {
	status := pkt.Header.Status()
	if status.Success() {
		return outcome{result: Result{
			CAS:              pkt.Header.CAS,
			Value:            pkt.Value,
			Datatype:         pkt.Header.Datatype,
			ServerDurationUs: serverDuration(&pkt),
			Status:           status,
		}}
	}

	switch status {
	case mcbp.StatusSubdocMultiPathFailure, mcbp.StatusSubdocMultiPathFailureDeleted:
		// Per-path results still ride in pkt.Value even though the
		// overall status isn't success; LookupIn/MutateIn decode them
		// rather than treating this as a failed attempt.
		return outcome{result: Result{
			CAS:              pkt.Header.CAS,
			Value:            pkt.Value,
			Datatype:         pkt.Header.Datatype,
			ServerDurationUs: serverDuration(&pkt),
			Status:           status,
		}}
	case mcbp.StatusNotMyVbucket:
		return outcome{reason: retry.ReasonNotMyVbucket, feedConfig: true,
			err: kverrors.New(kverrors.FromStatus(status), "not my vbucket")}
	case mcbp.StatusLocked:
		return outcome{reason: retry.ReasonLocked,
			err: kverrors.New(kverrors.FromStatus(status), "document locked")}
	case mcbp.StatusTemporaryFailure, mcbp.StatusBusy, mcbp.StatusOutOfMemory:
		return outcome{reason: retry.ReasonTemporaryFailure,
			err: kverrors.New(kverrors.FromStatus(status), "temporary failure")}
	case mcbp.StatusSyncWriteInProgress:
		return outcome{reason: retry.ReasonSyncWriteInProgress,
			err: kverrors.New(kverrors.FromStatus(status), "sync write in progress")}
	case mcbp.StatusSyncWriteReCommitInProgress:
		return outcome{reason: retry.ReasonSyncWriteReCommitInProgress,
			err: kverrors.New(kverrors.FromStatus(status), "sync write re-commit in progress")}
	case mcbp.StatusUnknownCollection:
		return outcome{reason: retry.ReasonCollectionOutdated,
			err: kverrors.New(kverrors.FromStatus(status), "unknown collection")}
	}

	if em := sess.ErrorMap(); em != nil {
		if entry, ok := em.Lookup(status); ok {
			if entry.HasAttribute(mcbp.AttrRetryNow) {
				return outcome{reason: retry.ReasonErrorMapRetryNow,
					err: kverrors.New(kverrors.FromStatus(status), entry.Description)}
			}
			if entry.HasAttribute(mcbp.AttrRetryLater) {
				return outcome{reason: retry.ReasonErrorMapRetryLater,
					err: kverrors.New(kverrors.FromStatus(status), entry.Description)}
			}
		}
	}

	return outcome{reason: retry.ReasonDoNotRetry,
		err: kverrors.New(kverrors.FromStatus(status), "request failed: "+status.String())}
}

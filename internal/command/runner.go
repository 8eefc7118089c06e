package command

import (
	"context"
	"errors"
	"time"

	"github.com/ryanfowler/gokv/internal/dispatch"
	"github.com/ryanfowler/gokv/internal/kverrors"
	"github.com/ryanfowler/gokv/internal/protocol/mcbp"
	"github.com/ryanfowler/gokv/internal/retry"
	"github.com/ryanfowler/gokv/internal/topology"
)

// Runner executes KV operations end to end: dispatch selection (C8),
// collection resolution (C2), encode+send (C1/C5), response
// classification (C3), and retry (C4) — the §4.6 lifecycle.
type Runner struct {
	dispatcher *dispatch.Dispatcher
	tracker    *topology.Tracker

	backoffInitial time.Duration
	backoffMax     time.Duration
	backoffJitter  float64

	metrics MetricsRecorder
}

// SetMetrics installs m to observe every operation's total latency and
// outcome. Nil is valid and disables recording; it's the default.
func (r *Runner) SetMetrics(m MetricsRecorder) {
	r.metrics = m
}

// NewRunner builds a Runner over dispatcher, using tracker to apply
// configuration updates observed on not_my_vbucket responses. jitter is
// the RandomizationFactor passed to every operation's backoff; values
// outside [0,1] fall back to retry.DefaultJitterFraction.
func NewRunner(dispatcher *dispatch.Dispatcher, tracker *topology.Tracker, backoffInitial, backoffMax time.Duration, jitter float64) *Runner {
	return &Runner{dispatcher: dispatcher, tracker: tracker, backoffInitial: backoffInitial, backoffMax: backoffMax, backoffJitter: jitter}
}

// buildRequest constructs the request packet given the resolved
// collection uid; opcode/durability framing is applied by execute after
// the builder returns.
type buildRequest func(collectionUID uint32) (*mcbp.Packet, error)

func (r *Runner) execute(ctx context.Context, opcode mcbp.Opcode, docID DocumentID, opts Options, build buildRequest) (result Result, err error) {
	if r.metrics != nil {
		start := time.Now()
		defer func() { r.metrics.RecordOperation(opcode, time.Since(start), err) }()
	}

	deadline := time.Now().Add(opts.EffectiveTimeout())
	ctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	orch := retry.NewOrchestrator(opcode, deadline, r.backoffInitial, r.backoffMax, r.backoffJitter)

	for {
		res, dispatched, attemptErr := r.attempt(ctx, opcode, docID, opts, build)
		if attemptErr == nil {
			return res, nil
		}

		reason, ok := attemptErr.(*retryableError)
		if !ok {
			return Result{}, attemptErr
		}

		action, timeoutKind := orch.Next(ctx, reason.reason)
		switch action {
		case retry.DoNotRetry:
			if timeoutKind != kverrors.KindUnknown {
				return Result{}, kverrors.New(timeoutKind, "operation timed out after retries")
			}
			return Result{}, reason.cause
		case retry.RetrySameNode, retry.RetryOtherNode:
			_ = dispatched // both actions simply loop; node pinning is left to the dispatcher's next Select
			continue
		}
	}
}

// retryableError wraps a classified failure that the retry orchestrator
// should see, carrying both the retry.Reason and the error to surface if
// retries are exhausted.
type retryableError struct {
	reason retry.Reason
	cause  error
}

func (e *retryableError) Error() string { return e.cause.Error() }

// socketClosedReason recognizes a response error caused by the session
// being stopped mid-flight (its socket died while this request was
// outstanding), as distinct from the caller's own context cancellation
// or an orderly session shutdown for another reason. Only this one
// carries retry.ReasonSocketClosedWhileInFlight; Decide then applies the
// idempotency rule (§4.4) to pick retry-other-node vs do-not-retry.
func socketClosedReason(err error) (retry.Reason, bool) {
	var kvErr *kverrors.KVError
	if !errors.As(err, &kvErr) {
		return "", false
	}
	if kvErr.Kind != kverrors.KindRequestCancelled {
		return "", false
	}
	if kvErr.Message != string(retry.ReasonSocketClosedWhileInFlight) {
		return "", false
	}
	return retry.ReasonSocketClosedWhileInFlight, true
}

// attempt performs exactly one dispatch+send+classify pass. dispatched
// reports whether the request actually left the client (relevant for
// ambiguous- vs unambiguous-timeout classification on cancellation).
func (r *Runner) attempt(ctx context.Context, opcode mcbp.Opcode, docID DocumentID, opts Options, build buildRequest) (Result, bool, error) {
	target, err := r.dispatcher.Select(ctx, []byte(docID.Key), opts.ReplicaIdx)
	if err != nil {
		return Result{}, false, err
	}
	sess, ok := target.Session.(Session)
	if !ok {
		return Result{}, false, kverrors.New(kverrors.KindProtocolError, "session does not implement the command send surface")
	}

	collectionUID, err := resolveCollection(ctx, sess, docID)
	if err != nil {
		if kverrors.KindOf(err) == kverrors.KindCollectionNotFound {
			return Result{}, false, &retryableError{reason: retry.ReasonCollectionOutdated, cause: err}
		}
		return Result{}, false, err
	}

	pkt, err := build(collectionUID)
	if err != nil {
		return Result{}, false, err
	}
	applyDurability(pkt, opts)

	ctx, endSpan := sess.StartSpan(ctx, opcode)
	defer endSpan()

	type response struct {
		pkt mcbp.Packet
		err error
	}
	respCh := make(chan response, 1)
	opaque, err := sess.Send(pkt, func(resp mcbp.Packet, err error) { respCh <- response{resp, err} })
	if err != nil {
		return Result{}, false, err
	}

	select {
	case resp := <-respCh:
		if resp.err != nil {
			if reason, ok := socketClosedReason(resp.err); ok {
				return Result{}, true, &retryableError{reason: reason, cause: resp.err}
			}
			return Result{}, true, resp.err
		}
		oc := classifyResponse(resp.pkt, sess, opcode)
		if oc.feedConfig {
			r.feedNotMyVbucketConfig(resp.pkt)
		}
		if oc.reason == "" {
			return oc.result, true, oc.err
		}
		if oc.reason == retry.ReasonCollectionOutdated {
			sess.Collections().Invalidate(docID.CollectionPath())
		}
		return Result{}, true, &retryableError{reason: oc.reason, cause: oc.err}
	case <-ctx.Done():
		stillPending := sess.CancelOutstanding(opaque)
		// §4.6 step 6: never dispatched or idempotent -> unambiguous;
		// otherwise ambiguous. Here the request always reached the
		// wire (Send succeeded above), so idempotency alone decides.
		_ = stillPending
		return Result{}, true, kverrors.New(retry.TimeoutKind(opcode), "operation timed out")
	}
}

func (r *Runner) feedNotMyVbucketConfig(pkt mcbp.Packet) {
	if !pkt.Header.Datatype.HasJSON() || len(pkt.Value) == 0 {
		return
	}
	cfg, err := topology.ParseConfig(pkt.Value, "")
	if err != nil {
		return
	}
	_ = r.tracker.Apply(context.Background(), cfg)
}

func applyDurability(pkt *mcbp.Packet, opts Options) {
	if opts.Durability == DurabilityNone {
		return
	}
	pkt.FrameInfos = append(pkt.FrameInfos, mcbp.FrameInfo{
		ID:      mcbp.FrameInfoDurabilityReq,
		Payload: mcbp.EncodeDurabilityReq(opts.Durability, opts.DurabilityServerTimeoutMs()),
	})
}

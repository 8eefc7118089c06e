package retry

import (
	"context"
	"time"

	"github.com/ryanfowler/gokv/internal/kverrors"
	"github.com/ryanfowler/gokv/internal/logger"
	"github.com/ryanfowler/gokv/internal/protocol/mcbp"
)

// Orchestrator drives the retry loop for a single in-flight operation. It
// is not safe for concurrent use; one is created per operation attempt
// sequence and discarded once the operation terminates.
type Orchestrator struct {
	opcode   mcbp.Opcode
	deadline time.Time
	backoff  *Backoff
	attempt  int
}

// NewOrchestrator builds an Orchestrator for opcode with the given
// deadline, backoff bounds, and jitter fraction (see NewBackoff).
func NewOrchestrator(opcode mcbp.Opcode, deadline time.Time, initial, max time.Duration, jitter float64) *Orchestrator {
	return &Orchestrator{
		opcode:   opcode,
		deadline: deadline,
		backoff:  NewBackoff(initial, max, jitter),
	}
}

// Attempt returns the 1-based number of the attempt about to be made.
func (o *Orchestrator) Attempt() int { return o.attempt + 1 }

// Next decides what to do after a failed attempt and, if a retry is
// warranted, blocks for the backoff delay (or until ctx is cancelled).
// It returns the Action taken and, when the verdict is DoNotRetry because
// the deadline has passed rather than because the reason is terminal, the
// timeout Kind the caller should surface.
func (o *Orchestrator) Next(ctx context.Context, reason Reason) (Action, kverrors.Kind) {
	action := Decide(reason, o.opcode)
	if action == DoNotRetry {
		return DoNotRetry, kverrors.KindUnknown
	}

	now := time.Now()
	delay, expired := o.backoff.NextDelay(now, o.deadline)
	if expired {
		return DoNotRetry, TimeoutKind(o.opcode)
	}

	o.attempt++
	logger.Debug("retrying kv operation",
		"opcode", o.opcode.String(),
		"reason", string(reason),
		"attempt", o.attempt,
		"delay", delay)

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return DoNotRetry, kverrors.KindRequestCancelled
	case <-timer.C:
	}

	return action, kverrors.KindUnknown
}

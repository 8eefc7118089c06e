package retry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryanfowler/gokv/internal/kverrors"
	"github.com/ryanfowler/gokv/internal/protocol/mcbp"
)

func TestOrchestratorRetriesThenTerminates(t *testing.T) {
	deadline := time.Now().Add(200 * time.Millisecond)
	o := NewOrchestrator(mcbp.OpGet, deadline, 5*time.Millisecond, 20*time.Millisecond, 0.1)

	action, kind := o.Next(context.Background(), ReasonTemporaryFailure)
	require.Equal(t, RetrySameNode, action)
	assert.Equal(t, kverrors.KindUnknown, kind)
	assert.Equal(t, 1, o.Attempt()-1)

	action, kind = o.Next(context.Background(), ReasonDoNotRetry)
	assert.Equal(t, DoNotRetry, action)
	assert.Equal(t, kverrors.KindUnknown, kind)
}

func TestOrchestratorDoesNotSleepForTerminalReason(t *testing.T) {
	deadline := time.Now().Add(time.Hour)
	o := NewOrchestrator(mcbp.OpAdd, deadline, time.Hour, time.Hour, 0.1)

	start := time.Now()
	action, kind := o.Next(context.Background(), ReasonDoNotRetry)
	assert.Less(t, time.Since(start), 10*time.Millisecond)
	assert.Equal(t, DoNotRetry, action)
	assert.Equal(t, kverrors.KindUnknown, kind)
}

func TestOrchestratorExpiresWithTimeoutKind(t *testing.T) {
	deadline := time.Now().Add(-time.Millisecond)
	o := NewOrchestrator(mcbp.OpAdd, deadline, time.Millisecond, time.Millisecond, 0.1)

	action, kind := o.Next(context.Background(), ReasonTemporaryFailure)
	assert.Equal(t, DoNotRetry, action)
	assert.Equal(t, kverrors.KindAmbiguousTimeout, kind)
}

func TestOrchestratorStopsAtCappedDelayInsteadOfOneMoreAttempt(t *testing.T) {
	deadline := time.Now().Add(30 * time.Millisecond)
	o := NewOrchestrator(mcbp.OpGet, deadline, time.Hour, time.Hour, 0.1)

	action, kind := o.Next(context.Background(), ReasonTemporaryFailure)
	assert.Equal(t, DoNotRetry, action)
	assert.Equal(t, kverrors.KindUnambiguousTimeout, kind)
}

func TestOrchestratorHonoursContextCancellation(t *testing.T) {
	deadline := time.Now().Add(time.Hour)
	o := NewOrchestrator(mcbp.OpGet, deadline, time.Hour, time.Hour, 0.1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	action, kind := o.Next(ctx, ReasonTemporaryFailure)
	assert.Equal(t, DoNotRetry, action)
	assert.Equal(t, kverrors.KindRequestCancelled, kind)
}

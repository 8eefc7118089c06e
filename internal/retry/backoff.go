package retry

import (
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/ryanfowler/gokv/internal/kverrors"
	"github.com/ryanfowler/gokv/internal/protocol/mcbp"
)

// Backoff wraps a cenkalti/backoff ExponentialBackOff configured for the
// ±10% jitter the decided Open Question calls for (RandomizationFactor
// 0.1). It has no elapsed-time cutoff of its own; deadline enforcement
// is done by NextDelay against the operation's own deadline instead.
type Backoff struct {
	inner *backoff.ExponentialBackOff
}

// DefaultJitterFraction is the ±10% jitter the decided Open Question
// calls for when the caller has no configured preference.
const DefaultJitterFraction = 0.1

// NewBackoff builds a Backoff starting at initial and capped at max,
// doubling (the library's default Multiplier) between attempts. jitter is
// the RandomizationFactor applied to each delay; values outside [0,1]
// fall back to DefaultJitterFraction.
func NewBackoff(initial, max time.Duration, jitter float64) *Backoff {
	if jitter < 0 || jitter > 1 {
		jitter = DefaultJitterFraction
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initial
	b.MaxInterval = max
	b.RandomizationFactor = jitter
	b.MaxElapsedTime = 0
	b.Reset()
	return &Backoff{inner: b}
}

// NextDelay returns how long to wait before the next attempt, given the
// current time and the operation's deadline. If the raw backoff delay
// would cross the deadline, it is capped to the remaining budget; expired
// is then also true, since that delay consumes the entire budget and
// leaves no room for a further attempt (§4.4 "sleep until the deadline,
// then fail", not one more dispatch past it). expired is likewise true
// when now is already at or past the deadline. The caller should not
// sleep when expired and should instead fail with TimeoutKind(opcode).
func (b *Backoff) NextDelay(now, deadline time.Time) (delay time.Duration, expired bool) {
	remaining := deadline.Sub(now)
	if remaining <= 0 {
		return 0, true
	}
	d := b.inner.NextBackOff()
	if d == backoff.Stop {
		return 0, true
	}
	if d >= remaining {
		return remaining, true
	}
	return d, false
}

// TimeoutKind classifies a deadline expiry into unambiguous or ambiguous
// timeout based on whether opcode is idempotent (§4.4, §7).
func TimeoutKind(opcode mcbp.Opcode) kverrors.Kind {
	if opcode.IsIdempotent() {
		return kverrors.KindUnambiguousTimeout
	}
	return kverrors.KindAmbiguousTimeout
}
